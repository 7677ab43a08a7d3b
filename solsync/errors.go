package solsync

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrProgramIDNotSet = errors.New("program id not set")
	ErrLedgerNil       = errors.New("ledger is nil")
	ErrHandlerNil      = errors.New("handler is nil")

	// ErrFatal wrapped into a handler error stops the monitor.
	ErrFatal = errors.New("fatal handler error")
)

func ErrHandlerFailed(event string, sig solana.Signature, err error) error {
	return fmt.Errorf("handler failed on %s of %s: %w", event, sig, err)
}

func ErrFetchTransaction(sig solana.Signature, err error) error {
	return fmt.Errorf("failed to fetch transaction %s: %w", sig, err)
}

func ErrListSignatures(program solana.PublicKey, err error) error {
	return fmt.Errorf("failed to list signatures of %s: %w", program, err)
}
