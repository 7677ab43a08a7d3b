package solsync

import (
	"context"
	"errors"
	"sync"

	logger "github.com/sirupsen/logrus"
)

// Publisher is a Handler forwarding every event to the registered handlers
// in registration order. All handlers see the event even when one fails;
// the joined errors are returned.
type Publisher struct {
	handlers []Handler
	mu       sync.Mutex
}

func NewPublisher(handlers ...Handler) *Publisher {
	return &Publisher{handlers: handlers}
}

func (p *Publisher) Register(h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.handlers = append(p.handlers, h)
}

func (p *Publisher) snapshot() []Handler {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]Handler(nil), p.handlers...)
}

func (p *Publisher) OnMint(ctx context.Context, ev *MintedEvent) error {
	var errs []error
	for _, h := range p.snapshot() {
		if err := h.OnMint(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) OnBurn(ctx context.Context, ev *BurnedEvent) error {
	var errs []error
	for _, h := range p.snapshot() {
		if err := h.OnBurn(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogHandler prints events, like the standalone listener does.
type LogHandler struct{}

func (LogHandler) OnMint(ctx context.Context, ev *MintedEvent) error {
	logger.WithFields(logger.Fields{
		"slot":      ev.Slot,
		"signature": ev.Signature.String(),
		"to":        ev.Receiver,
		"amount":    ev.Amount,
	}).Info("Mint Event Found")
	return nil
}

func (LogHandler) OnBurn(ctx context.Context, ev *BurnedEvent) error {
	logger.WithFields(logger.Fields{
		"slot":       ev.Slot,
		"signature":  ev.Signature.String(),
		"from":       ev.Sender,
		"btcAddr":    ev.BtcAddr,
		"amount":     ev.Amount,
		"operatorId": ev.OperatorID,
	}).Info("Burn Event Found")
	return nil
}
