package solanaman

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	SeedBridgeState     = []byte("bridge_state")
	SeedTxMintedState   = []byte("tx_minted_state")
	SeedTxVerifiedState = []byte("tx_verified_state")
	SeedBtcLightClient  = []byte("btc_light_client")
	SeedBlockHashEntry  = []byte("block_hash_entry")
)

// DeriveAddress finds the program derived address of seeds under programID.
// Bumps are tried from 255 downwards and the first hash that is not an
// ed25519 point wins.
func DeriveAddress(programID solana.PublicKey, seeds ...[]byte) (solana.PublicKey, uint8, error) {
	// one slot is taken by the bump
	if len(seeds) > MaxSeeds-1 {
		return solana.PublicKey{}, 0, fmt.Errorf("%w: %d seeds given, at most %d allowed", ErrInvalidSeeds, len(seeds), MaxSeeds-1)
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return solana.PublicKey{}, 0, fmt.Errorf("%w: seed %d is %d bytes", ErrInvalidSeeds, i, len(seed))
		}
	}

	for bump := uint8(255); bump > 0; bump-- {
		addr := hashProgramAddress(programID, seeds, bump)
		if !isOnCurve(addr[:]) {
			return addr, bump, nil
		}
	}
	return solana.PublicKey{}, 0, ErrInvalidSeeds
}

func hashProgramAddress(programID solana.PublicKey, seeds [][]byte, bump uint8) solana.PublicKey {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var out solana.PublicKey
	copy(out[:], h.Sum(nil))
	return out
}

func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

func BridgeStateAddress(bridgeProgram solana.PublicKey) (solana.PublicKey, uint8, error) {
	return DeriveAddress(bridgeProgram, SeedBridgeState)
}

// TxMintedStateAddress marks a btc deposit as already minted.
func TxMintedStateAddress(bridgeProgram solana.PublicKey, txID [32]byte) (solana.PublicKey, uint8, error) {
	return DeriveAddress(bridgeProgram, SeedTxMintedState, txID[:])
}

// TxVerifiedStateAddress marks a btc transaction as proven by the light client.
func TxVerifiedStateAddress(lightClientProgram solana.PublicKey, txID [32]byte) (solana.PublicKey, uint8, error) {
	return DeriveAddress(lightClientProgram, SeedTxVerifiedState, txID[:])
}

func LightClientStateAddress(lightClientProgram solana.PublicKey) (solana.PublicKey, uint8, error) {
	return DeriveAddress(lightClientProgram, SeedBtcLightClient)
}

// BlockHashEntryAddress encodes the height little-endian.
func BlockHashEntryAddress(lightClientProgram solana.PublicKey, height uint64) (solana.PublicKey, uint8, error) {
	var h [8]byte
	binary.LittleEndian.PutUint64(h[:], height)
	return DeriveAddress(lightClientProgram, SeedBlockHashEntry, h[:])
}

// AssociatedTokenAddress is the SPL token account of owner for mint.
func AssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return DeriveAddress(
		solana.SPLAssociatedTokenAccountProgramID,
		owner[:],
		solana.TokenProgramID[:],
		mint[:],
	)
}
