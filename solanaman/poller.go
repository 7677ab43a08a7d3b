package solanaman

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/bridge-go-solana/metrics"
)

// Poller waits for a submitted transaction to become visible.
type Poller struct {
	ledger LedgerClient
	clock  clockwork.Clock
}

// NewPoller uses the real clock when clock is nil.
func NewPoller(ledger LedgerClient, clock clockwork.Clock) *Poller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Poller{ledger: ledger, clock: clock}
}

// PollTransaction fetches sig up to maxAttempts times, sleeping interval
// between failed attempts.
func (p *Poller) PollTransaction(ctx context.Context, sig solana.Signature, maxAttempts int, interval time.Duration) (*TransactionRecord, error) {
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("%w: maxAttempts must be positive, got %d", ErrMalformedInput, maxAttempts)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		tx, err := p.ledger.GetTransaction(ctx, sig)
		metrics.StatusPollAttemptsTotal.Inc()
		if err == nil {
			return tx, nil
		}
		lastErr = err

		logger.WithFields(logger.Fields{
			"signature": sig.String(),
			"attempt":   attempt,
			"max":       maxAttempts,
			"err":       err,
		}).Warn("transaction not available yet")

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.clock.After(interval):
		}
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %w", ErrNotFoundAfterRetries, sig, maxAttempts, lastErr)
}
