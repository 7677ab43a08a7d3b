package solanaman

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const DiscriminatorLen = 8

// anchorDiscriminator is the 8 byte prefix anchor puts in front of
// accounts ("account"), instructions ("global") and events ("event").
func anchorDiscriminator(namespace, name string) [DiscriminatorLen]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d [DiscriminatorLen]byte
	copy(d[:], sum[:DiscriminatorLen])
	return d
}

var (
	bridgeStateDiscriminator      = anchorDiscriminator("account", "BridgeState")
	lightClientStateDiscriminator = anchorDiscriminator("account", "BtcLightClientState")
	txVerifiedStateDiscriminator  = anchorDiscriminator("account", "TxVerifiedState")
)

// BridgeState is the singleton configuration account of the bridge program.
type BridgeState struct {
	Owner              solana.PublicKey
	MintAccount        solana.PublicKey
	SkipTxVerification bool
}

// LightClientState is the singleton account of the btc light client program.
type LightClientState struct {
	LatestBlockHeight uint64
	LatestBlockHash   [32]byte
	MinConfirmations  uint64
}

type TxVerifiedState struct {
	IsVerified bool
}

// decodeAnchorAccount checks the discriminator and borsh decodes the rest
// into v. Trailing bytes are allowed since accounts are allocated with
// spare space.
func decodeAnchorAccount(name string, addr solana.PublicKey, disc [DiscriminatorLen]byte, data []byte, v interface{}) error {
	if len(data) < DiscriminatorLen || !bytes.Equal(data[:DiscriminatorLen], disc[:]) {
		return ErrDiscriminatorUnmatched(name, addr)
	}
	if err := bin.NewBorshDecoder(data[DiscriminatorLen:]).Decode(v); err != nil {
		return ErrAction("decode "+name, addr, fmt.Errorf("%w: %w", ErrStateMismatch, err))
	}
	return nil
}

// EncodeAnchorAccount is the inverse of the account decoders, used to seed
// simulated ledgers.
func EncodeAnchorAccount(v interface{}) ([]byte, error) {
	var disc [DiscriminatorLen]byte
	switch a := v.(type) {
	case *BridgeState:
		disc, v = bridgeStateDiscriminator, *a
	case *LightClientState:
		disc, v = lightClientStateDiscriminator, *a
	case *TxVerifiedState:
		disc, v = txVerifiedStateDiscriminator, *a
	default:
		return nil, fmt.Errorf("%w: unsupported account type %T", ErrMalformedInput, v)
	}
	buf := bytes.NewBuffer(disc[:])
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
