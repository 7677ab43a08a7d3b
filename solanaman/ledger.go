package solanaman

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// SignatureInfo is one entry of a newest-first signature listing.
type SignatureInfo struct {
	Signature solana.Signature
	Slot      uint64
	Err       interface{} // non-nil when the transaction failed
}

type SignaturesOpts struct {
	Before solana.Signature // exclusive, zero for the head of the ledger
	Until  solana.Signature // exclusive, zero for no lower bound
	Limit  int
}

type TransactionRecord struct {
	Signature solana.Signature
	Slot      uint64
	BlockTime *time.Time
	Logs      []string
	Err       interface{}
}

// LedgerClient is what the bridge needs from a solana node.
type LedgerClient interface {
	GetAccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error)
	// GetSignatures lists signatures touching addr, newest first.
	GetSignatures(ctx context.Context, addr solana.PublicKey, opts *SignaturesOpts) ([]SignatureInfo, error)
	GetTransaction(ctx context.Context, sig solana.Signature) (*TransactionRecord, error)
	Submit(ctx context.Context, instructions []solana.Instruction, signer solana.PrivateKey) (solana.Signature, error)
}

// RpcLedger implements LedgerClient over solana json rpc.
type RpcLedger struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
	limiter    *rate.Limiter // nil for unlimited
}

func NewRpcLedger(url string, commitment rpc.CommitmentType) *RpcLedger {
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	return &RpcLedger{
		client:     rpc.New(url),
		commitment: commitment,
	}
}

// WithRateLimit caps the request rate, public clusters reject bursts.
// rps <= 0 removes the limit.
func (l *RpcLedger) WithRateLimit(rps float64, burst int) *RpcLedger {
	if rps <= 0 {
		l.limiter = nil
		return l
	}
	if burst < 1 {
		burst = 1
	}
	l.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return l
}

func (l *RpcLedger) Client() *rpc.Client {
	return l.client
}

func (l *RpcLedger) wait(ctx context.Context, method string) error {
	if l.limiter == nil {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return ErrTransportCall(method, err)
	}
	return nil
}

func (l *RpcLedger) GetAccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	if err := l.wait(ctx, "getAccountInfo"); err != nil {
		return nil, err
	}
	res, err := l.client.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: l.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, ErrTransportCall("getAccountInfo", err)
	}
	if res == nil || res.Value == nil || res.Value.Data == nil {
		return nil, ErrAccountNotFound
	}
	return res.Value.Data.GetBinary(), nil
}

func (l *RpcLedger) GetSignatures(ctx context.Context, addr solana.PublicKey, opts *SignaturesOpts) ([]SignatureInfo, error) {
	rpcOpts := &rpc.GetSignaturesForAddressOpts{
		Commitment: l.commitment,
	}
	if opts != nil {
		if opts.Limit > 0 {
			limit := opts.Limit
			rpcOpts.Limit = &limit
		}
		rpcOpts.Before = opts.Before
		rpcOpts.Until = opts.Until
	}

	if err := l.wait(ctx, "getSignaturesForAddress"); err != nil {
		return nil, err
	}
	res, err := l.client.GetSignaturesForAddressWithOpts(ctx, addr, rpcOpts)
	if err != nil {
		return nil, ErrTransportCall("getSignaturesForAddress", err)
	}

	sigs := make([]SignatureInfo, 0, len(res))
	for _, r := range res {
		if r == nil {
			continue
		}
		sigs = append(sigs, SignatureInfo{
			Signature: r.Signature,
			Slot:      r.Slot,
			Err:       r.Err,
		})
	}
	return sigs, nil
}

func (l *RpcLedger) GetTransaction(ctx context.Context, sig solana.Signature) (*TransactionRecord, error) {
	if err := l.wait(ctx, "getTransaction"); err != nil {
		return nil, err
	}
	version := uint64(0)
	res, err := l.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     l.commitment,
		MaxSupportedTransactionVersion: &version,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, ErrTransportCall("getTransaction", err)
	}
	if res == nil {
		return nil, ErrTransactionNotFound
	}

	rec := &TransactionRecord{
		Signature: sig,
		Slot:      res.Slot,
	}
	if res.BlockTime != nil {
		t := res.BlockTime.Time()
		rec.BlockTime = &t
	}
	if res.Meta != nil {
		rec.Logs = res.Meta.LogMessages
		rec.Err = res.Meta.Err
	}
	return rec, nil
}

// Submit signs the instructions with signer as fee payer against the
// latest blockhash and sends the transaction.
func (l *RpcLedger) Submit(ctx context.Context, instructions []solana.Instruction, signer solana.PrivateKey) (solana.Signature, error) {
	if err := l.wait(ctx, "getLatestBlockhash"); err != nil {
		return solana.Signature{}, err
	}
	bh, err := l.client.GetLatestBlockhash(ctx, l.commitment)
	if err != nil {
		return solana.Signature{}, ErrTransportCall("getLatestBlockhash", err)
	}

	payer := signer.PublicKey()
	tx, err := solana.NewTransaction(instructions, bh.Value.Blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return solana.Signature{}, err
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &signer
		}
		return nil
	}); err != nil {
		return solana.Signature{}, err
	}

	if err := l.wait(ctx, "sendTransaction"); err != nil {
		return solana.Signature{}, err
	}
	sig, err := l.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: l.commitment,
	})
	if err != nil {
		return solana.Signature{}, ErrTransportCall("sendTransaction", err)
	}

	logger.WithFields(logger.Fields{
		"signature":    sig.String(),
		"instructions": len(instructions),
		"payer":        payer.String(),
	}).Debug("transaction submitted")
	return sig, nil
}
