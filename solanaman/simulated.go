package solanaman

import (
	"context"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
)

const simDefaultLimit = 1000

type SimSubmission struct {
	Signature    solana.Signature
	Signer       solana.PublicKey
	Instructions []solana.Instruction
}

// SimLedger is an in-memory LedgerClient for tests. It keeps per-address
// signature history, fetchable transactions and account data, counts reads
// and can be told to fail calls.
type SimLedger struct {
	mu sync.Mutex

	accounts map[solana.PublicKey][]byte
	history  map[solana.PublicKey][]SignatureInfo // oldest first
	txs      map[solana.Signature]*TransactionRecord
	pruned   map[solana.Signature]*TransactionRecord

	submitted []SimSubmission

	accountReads map[solana.PublicKey]int
	txFetches    map[solana.Signature]int
	sigListCalls int

	failSignatures   int
	failTransactions map[solana.Signature]int
	failSubmit       error

	slot  uint64
	nonce uint64
}

func NewSimLedger() *SimLedger {
	return &SimLedger{
		accounts:         make(map[solana.PublicKey][]byte),
		history:          make(map[solana.PublicKey][]SignatureInfo),
		txs:              make(map[solana.Signature]*TransactionRecord),
		pruned:           make(map[solana.Signature]*TransactionRecord),
		accountReads:     make(map[solana.PublicKey]int),
		txFetches:        make(map[solana.Signature]int),
		failTransactions: make(map[solana.Signature]int),
		slot:             100,
	}
}

func (s *SimLedger) SetAccount(addr solana.PublicKey, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[addr] = append([]byte(nil), data...)
}

// SetAnchorAccount stores v with its anchor discriminator.
func (s *SimLedger) SetAnchorAccount(addr solana.PublicKey, v interface{}) error {
	data, err := EncodeAnchorAccount(v)
	if err != nil {
		return err
	}
	s.SetAccount(addr, data)
	return nil
}

func (s *SimLedger) DeleteAccount(addr solana.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, addr)
}

// AddTransaction appends a transaction touching addr and returns its
// signature. Each transaction lands in a new slot.
func (s *SimLedger) AddTransaction(addr solana.PublicKey, logs []string, txErr interface{}) solana.Signature {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig := s.nextSignature()
	s.slot++
	now := time.Unix(1700000000+int64(s.slot), 0)
	s.txs[sig] = &TransactionRecord{
		Signature: sig,
		Slot:      s.slot,
		BlockTime: &now,
		Logs:      append([]string(nil), logs...),
		Err:       txErr,
	}
	s.history[addr] = append(s.history[addr], SignatureInfo{Signature: sig, Slot: s.slot, Err: txErr})
	return sig
}

// AddEventTransaction appends a successful transaction emitting evs.
func (s *SimLedger) AddEventTransaction(addr solana.PublicKey, evs ...BridgeEvent) (solana.Signature, error) {
	logs := []string{fmt.Sprintf("Program %s invoke [1]", addr)}
	for _, ev := range evs {
		line, err := EncodeEventLog(ev)
		if err != nil {
			return solana.Signature{}, err
		}
		logs = append(logs, line)
	}
	logs = append(logs, fmt.Sprintf("Program %s success", addr))
	return s.AddTransaction(addr, logs, nil), nil
}

// PruneTransaction keeps sig in the signature history but makes fetching
// it return ErrTransactionNotFound, like a node without full history.
func (s *SimLedger) PruneTransaction(sig solana.Signature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx, ok := s.txs[sig]; ok {
		s.pruned[sig] = tx
		delete(s.txs, sig)
	}
}

// RestoreTransaction undoes PruneTransaction.
func (s *SimLedger) RestoreTransaction(sig solana.Signature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx, ok := s.pruned[sig]; ok {
		s.txs[sig] = tx
		delete(s.pruned, sig)
	}
}

// FailNextSignatureCalls makes the next n GetSignatures calls fail.
func (s *SimLedger) FailNextSignatureCalls(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSignatures = n
}

// FailTransaction makes the next n fetches of sig fail.
func (s *SimLedger) FailTransaction(sig solana.Signature, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failTransactions[sig] = n
}

func (s *SimLedger) FailSubmit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSubmit = err
}

func (s *SimLedger) AccountReads(addr solana.PublicKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountReads[addr]
}

func (s *SimLedger) TransactionFetches(sig solana.Signature) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txFetches[sig]
}

func (s *SimLedger) SignatureListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sigListCalls
}

func (s *SimLedger) Submitted() []SimSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SimSubmission(nil), s.submitted...)
}

func (s *SimLedger) GetAccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountReads[addr]++
	data, ok := s.accounts[addr]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *SimLedger) GetSignatures(ctx context.Context, addr solana.PublicKey, opts *SignaturesOpts) ([]SignatureInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sigListCalls++
	if s.failSignatures > 0 {
		s.failSignatures--
		return nil, ErrTransportCall("getSignaturesForAddress", fmt.Errorf("simulated outage"))
	}
	if opts == nil {
		opts = &SignaturesOpts{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = simDefaultLimit
	}

	hist := s.history[addr]
	start := len(hist) - 1
	if !opts.Before.IsZero() {
		start = -1
		for i, info := range hist {
			if info.Signature == opts.Before {
				start = i - 1
				break
			}
		}
	}

	var out []SignatureInfo
	for i := start; i >= 0 && len(out) < limit; i-- {
		if !opts.Until.IsZero() && hist[i].Signature == opts.Until {
			break
		}
		out = append(out, hist[i])
	}
	return out, nil
}

func (s *SimLedger) GetTransaction(ctx context.Context, sig solana.Signature) (*TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txFetches[sig]++
	if n := s.failTransactions[sig]; n > 0 {
		s.failTransactions[sig] = n - 1
		return nil, ErrTransportCall("getTransaction", fmt.Errorf("simulated outage"))
	}
	tx, ok := s.txs[sig]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

// Submit records the instructions. The resulting transaction can be fetched
// but is not added to any address history.
func (s *SimLedger) Submit(ctx context.Context, instructions []solana.Instruction, signer solana.PrivateKey) (solana.Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSubmit != nil {
		return solana.Signature{}, ErrTransportCall("sendTransaction", s.failSubmit)
	}
	if len(signer) == 0 {
		return solana.Signature{}, ErrPayerNotSet
	}

	sig := s.nextSignature()
	s.slot++
	s.submitted = append(s.submitted, SimSubmission{
		Signature:    sig,
		Signer:       signer.PublicKey(),
		Instructions: instructions,
	})
	s.txs[sig] = &TransactionRecord{Signature: sig, Slot: s.slot}
	return sig, nil
}

func (s *SimLedger) nextSignature() solana.Signature {
	s.nonce++
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], s.nonce)
	return solana.Signature(sha512.Sum512(b[:]))
}
