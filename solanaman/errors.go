package solanaman

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrMalformedInput       = errors.New("malformed input")
	ErrInvalidSeeds         = errors.New("invalid seeds: unable to find a viable program address bump")
	ErrTransport            = errors.New("ledger transport failure")
	ErrStateMismatch        = errors.New("on-chain state mismatch")
	ErrNotFoundAfterRetries = errors.New("transaction not found after retries")
	ErrInvalidAddressFormat = errors.New("invalid address format")
	ErrAccountNotFound      = errors.New("account not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrPayerNotSet          = errors.New("payer key not set")
)

func ErrMissingConfig(field string) error {
	return fmt.Errorf("%w: config field %s not set", ErrMalformedInput, field)
}

// ErrAction wraps a failure of a bridge action with the account it was working on.
func ErrAction(action string, addr solana.PublicKey, err error) error {
	return fmt.Errorf("%s (account=%s): %w", action, addr, err)
}

func ErrDiscriminatorUnmatched(account string, addr solana.PublicKey) error {
	return fmt.Errorf("%w: %s at %s has unexpected discriminator", ErrStateMismatch, account, addr)
}

func ErrInvalidBlockHeaderLength(got int) error {
	return fmt.Errorf("%w: block header must be %d bytes, got %d", ErrMalformedInput, BtcBlockHeaderLen, got)
}

func ErrTransportCall(method string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransport, method, err)
}

func ErrInvalidAddress(addr string, err error) error {
	return fmt.Errorf("%w: %q: %v", ErrInvalidAddressFormat, addr, err)
}
