package solsync

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/TEENet-io/bridge-go-solana/solanaman"
)

// Ledger is the part of solanaman.LedgerClient the monitor reads from.
type Ledger interface {
	GetSignatures(ctx context.Context, addr solana.PublicKey, opts *solanaman.SignaturesOpts) ([]solanaman.SignatureInfo, error)
	GetTransaction(ctx context.Context, sig solana.Signature) (*solanaman.TransactionRecord, error)
}

// Index is the position of the event among the bridge events of its
// transaction. Signature and Index identify an event.
type MintedEvent struct {
	Slot      uint64
	Signature solana.Signature
	Index     int
	Receiver  string // base58
	Amount    uint64
}

type BurnedEvent struct {
	Slot       uint64
	Signature  solana.Signature
	Index      int
	Sender     string // base58
	BtcAddr    string
	Amount     uint64
	OperatorID uint64
}

// Handler receives decoded events in ledger order. Delivery is at least
// once: after a restart or a retried page the same event may arrive again.
type Handler interface {
	OnMint(ctx context.Context, ev *MintedEvent) error
	OnBurn(ctx context.Context, ev *BurnedEvent) error
}

// CursorStore persists the watermark of a monitored program.
type CursorStore interface {
	LoadWatermark(program solana.PublicKey) (solana.Signature, bool, error)
	SaveWatermark(program solana.PublicKey, sig solana.Signature, slot uint64) error
}
