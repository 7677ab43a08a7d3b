package solsync

import (
	"context"
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/bridge-go-solana/common"
	"github.com/TEENet-io/bridge-go-solana/metrics"
	"github.com/TEENet-io/bridge-go-solana/solanaman"
)

// Watermark is the newest signature the monitor has dispatched. The zero
// value means nothing has been seen yet.
type Watermark struct {
	Signature solana.Signature
	Slot      uint64
}

func (w Watermark) IsZero() bool {
	return w.Signature.IsZero()
}

// Monitor scans the signatures of a program and hands the bridge events
// found in their logs to a Handler, oldest first.
type Monitor struct {
	cfg     *Config
	ledger  Ledger
	handler Handler

	mu        sync.RWMutex
	watermark Watermark

	// not-found count per listed signature, only touched by Poll
	notFound map[solana.Signature]int
}

// New creates a monitor resuming after lastSignature. When lastSignature
// is zero the configured cursor store is consulted; without either the
// first cycle starts from the head of the ledger.
func New(ledger Ledger, handler Handler, cfg *Config, lastSignature solana.Signature) (*Monitor, error) {
	if ledger == nil {
		return nil, ErrLedgerNil
	}
	if handler == nil {
		return nil, ErrHandlerNil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	wm := Watermark{Signature: lastSignature}
	if wm.IsZero() && cfg.Cursor != nil {
		stored, ok, err := cfg.Cursor.LoadWatermark(cfg.ProgramID)
		if err != nil {
			logger.WithError(err).Error("failed to load monitor watermark")
			return nil, err
		}
		if ok {
			wm.Signature = stored
		}
	}

	logger.WithFields(logger.Fields{
		"program":      cfg.ProgramID.String(),
		"watermark":    wm.Signature.String(),
		"pollInterval": cfg.PollInterval,
		"pageSize":     cfg.PageSize,
	}).Debug("creating solana event monitor")

	return &Monitor{
		cfg:       cfg,
		ledger:    ledger,
		handler:   handler,
		watermark: wm,
		notFound:  make(map[solana.Signature]int),
	}, nil
}

func (m *Monitor) Watermark() Watermark {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.watermark
}

func (m *Monitor) commit(wm Watermark) {
	m.mu.Lock()
	m.watermark = wm
	m.mu.Unlock()

	metrics.MonitorWatermarkSlot.Set(float64(wm.Slot))
	if m.cfg.Cursor == nil {
		return
	}
	if err := m.cfg.Cursor.SaveWatermark(m.cfg.ProgramID, wm.Signature, wm.Slot); err != nil {
		logger.WithError(err).WithField("signature", wm.Signature.String()).Warn("failed to persist monitor watermark")
	}
}

// Loop polls until ctx is cancelled or a handler reports ErrFatal. Ledger
// failures are logged and retried on the next cycle.
func (m *Monitor) Loop(ctx context.Context) error {
	defer func() {
		logger.Debug("stopping solana event monitor")
	}()

	wm := m.Watermark()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, err := m.Poll(ctx, wm)
		if err != nil {
			if errors.Is(err, ErrFatal) {
				logger.WithError(err).Error("monitor stopped by handler")
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.WithError(err).Warn("monitor cycle failed, retrying")
		}
		if next != wm {
			wm = next
			m.commit(wm)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.cfg.Clock.After(m.cfg.PollInterval):
		}
	}
}

// Poll runs one cycle: list the signatures newer than wm, dispatch their
// events oldest first and return the watermark for the next cycle. On any
// failure the returned watermark is wm, so nothing is skipped.
func (m *Monitor) Poll(ctx context.Context, wm Watermark) (Watermark, error) {
	start := m.cfg.Clock.Now()
	defer func() {
		metrics.MonitorPollDuration.Observe(m.cfg.Clock.Since(start).Seconds())
	}()

	sigs, err := m.newSignatures(ctx, wm.Signature)
	if err != nil {
		metrics.MonitorPollsTotal.WithLabelValues("error").Inc()
		return wm, ErrListSignatures(m.cfg.ProgramID, err)
	}
	if len(sigs) == 0 {
		metrics.MonitorPollsTotal.WithLabelValues("empty").Inc()
		return wm, nil
	}

	logger.WithFields(logger.Fields{
		"count":  len(sigs),
		"oldest": sigs[len(sigs)-1].Slot,
		"newest": sigs[0].Slot,
	}).Debug("new signatures found")

	var handlerErrs []error
	for i := len(sigs) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return wm, err
		}
		info := sigs[i]
		if info.Err != nil {
			logger.WithField("signature", common.Shorten(info.Signature.String(), 8)).Debug("skipping failed transaction")
			continue
		}

		tx, err := m.ledger.GetTransaction(ctx, info.Signature)
		if err != nil {
			if errors.Is(err, solanaman.ErrTransactionNotFound) && m.giveUp(info.Signature) {
				metrics.MonitorSkippedTransactionsTotal.Inc()
				logger.WithFields(logger.Fields{
					"signature": common.Shorten(info.Signature.String(), 8),
					"slot":      info.Slot,
					"attempts":  m.cfg.MaxNotFoundAttempts,
				}).Warn("transaction listed but not retrievable, skipping")
				continue
			}
			metrics.MonitorPollsTotal.WithLabelValues("error").Inc()
			return wm, ErrFetchTransaction(info.Signature, err)
		}
		delete(m.notFound, info.Signature)
		if tx.Err != nil {
			continue
		}

		if err := m.dispatch(ctx, info, tx.Logs); err != nil {
			if errors.Is(err, ErrFatal) {
				metrics.MonitorPollsTotal.WithLabelValues("fatal").Inc()
				return wm, err
			}
			handlerErrs = append(handlerErrs, err)
		}
	}

	if len(handlerErrs) > 0 && m.cfg.RetryPageOnHandlerError {
		metrics.MonitorPollsTotal.WithLabelValues("retry").Inc()
		return wm, errors.Join(handlerErrs...)
	}

	metrics.MonitorPollsTotal.WithLabelValues("ok").Inc()
	return Watermark{Signature: sigs[0].Signature, Slot: sigs[0].Slot}, nil
}

// giveUp counts a not-found fetch of sig and reports whether the limit is
// reached. Transport errors never count.
func (m *Monitor) giveUp(sig solana.Signature) bool {
	m.notFound[sig]++
	if m.notFound[sig] < m.cfg.MaxNotFoundAttempts {
		return false
	}
	delete(m.notFound, sig)
	return true
}

// newSignatures lists signatures newer than until, newest first. With a
// watermark, full pages are followed backwards so that bursts larger than
// a page are not skipped.
func (m *Monitor) newSignatures(ctx context.Context, until solana.Signature) ([]solanaman.SignatureInfo, error) {
	page, err := m.ledger.GetSignatures(ctx, m.cfg.ProgramID, &solanaman.SignaturesOpts{
		Until: until,
		Limit: m.cfg.PageSize,
	})
	if err != nil {
		return nil, err
	}
	if until.IsZero() {
		return page, nil
	}

	all := page
	for len(page) == m.cfg.PageSize {
		page, err = m.ledger.GetSignatures(ctx, m.cfg.ProgramID, &solanaman.SignaturesOpts{
			Before: page[len(page)-1].Signature,
			Until:  until,
			Limit:  m.cfg.PageSize,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
	}
	return all, nil
}

func (m *Monitor) dispatch(ctx context.Context, info solanaman.SignatureInfo, logs []string) error {
	var evs []solanaman.BridgeEvent
	if m.cfg.DispatchAllEvents {
		evs = solanaman.DecodeEvents(logs)
	} else if ev := solanaman.DecodeEvent(logs); ev != nil {
		evs = append(evs, ev)
	}

	var errs []error
	for i, ev := range evs {
		var err error
		switch e := ev.(type) {
		case *solanaman.MintEvent:
			err = m.handler.OnMint(ctx, &MintedEvent{
				Slot:      info.Slot,
				Signature: info.Signature,
				Index:     i,
				Receiver:  e.To,
				Amount:    e.Value,
			})
		case *solanaman.BurnEvent:
			err = m.handler.OnBurn(ctx, &BurnedEvent{
				Slot:       info.Slot,
				Signature:  info.Signature,
				Index:      i,
				Sender:     e.From,
				BtcAddr:    e.BtcAddr,
				Amount:     e.Value,
				OperatorID: e.OperatorID,
			})
		}
		metrics.MonitorEventsTotal.WithLabelValues(ev.EventName()).Inc()
		if err == nil {
			continue
		}

		metrics.MonitorHandlerErrorsTotal.WithLabelValues(ev.EventName()).Inc()
		logger.WithFields(logger.Fields{
			"event":     ev.EventName(),
			"signature": info.Signature.String(),
			"slot":      info.Slot,
		}).WithError(err).Error("event handler failed")

		err = ErrHandlerFailed(ev.EventName(), info.Signature, err)
		if errors.Is(err, ErrFatal) {
			return err
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
