package solsync

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultPollInterval = 1 * time.Second
	DefaultPageSize     = 1000 // getSignaturesForAddress upper bound

	MinPollInterval = 10 * time.Millisecond

	DefaultMaxNotFoundAttempts = 5
)

type Config struct {
	// program whose transactions are scanned
	ProgramID solana.PublicKey

	PollInterval time.Duration
	PageSize     int

	// optional persistence of the watermark
	Cursor CursorStore

	// keep the watermark of a page whose handlers failed so the page is
	// delivered again on the next cycle
	RetryPageOnHandlerError bool

	// dispatch every event of a transaction instead of only the first
	DispatchAllEvents bool

	// cycles a listed transaction may come back not found before it is
	// skipped, e.g. when the node pruned it
	MaxNotFoundAttempts int

	Clock clockwork.Clock
}

func (cfg *Config) Validate() error {
	if cfg.ProgramID.IsZero() {
		return ErrProgramIDNotSet
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollInterval < MinPollInterval {
		cfg.PollInterval = MinPollInterval
	}
	if cfg.PageSize <= 0 || cfg.PageSize > DefaultPageSize {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxNotFoundAttempts <= 0 {
		cfg.MaxNotFoundAttempts = DefaultMaxNotFoundAttempts
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}
