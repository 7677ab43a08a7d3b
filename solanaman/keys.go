package solanaman

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// LoadPrivateKey accepts either a base58 encoded 64 byte secret key or the
// path of a solana-keygen json file.
func LoadPrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrMissingConfig("private key")
	}
	if _, err := os.Stat(s); err == nil {
		return solana.PrivateKeyFromSolanaKeygenFile(s)
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: private key is not base58: %v", ErrMalformedInput, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrMalformedInput, ed25519.PrivateKeySize, len(raw))
	}
	return solana.PrivateKey(raw), nil
}

// ValidateAddress checks s is a base58 encoded 32 byte public key.
func ValidateAddress(s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return ErrInvalidAddress(s, err)
	}
	if len(raw) != len(solana.PublicKey{}) {
		return ErrInvalidAddress(s, fmt.Errorf("decoded to %d bytes", len(raw)))
	}
	return nil
}

// ParseAddress is ValidateAddress returning the key.
func ParseAddress(s string) (solana.PublicKey, error) {
	if err := ValidateAddress(s); err != nil {
		return solana.PublicKey{}, err
	}
	return solana.MustPublicKeyFromBase58(s), nil
}
