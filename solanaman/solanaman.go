package solanaman

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/bridge-go-solana/common"
	"github.com/TEENet-io/bridge-go-solana/metrics"
)

const (
	ActionMint   = "mint"
	ActionBurn   = "burn"
	ActionVerify = "verify_transaction"
)

// Solanaman builds and submits bridge and light client instructions.
// Every call derives its accounts and reads on-chain state afresh.
type Solanaman struct {
	cfg    *Config
	ledger LedgerClient
	payer  solana.PrivateKey
	poller *Poller
}

// NewSolanaman creates a Solanaman. payer may be nil for read-only use.
func NewSolanaman(cfg *Config, ledger LedgerClient, payer solana.PrivateKey) (*Solanaman, error) {
	if ledger == nil {
		return nil, fmt.Errorf("%w: ledger client is nil", ErrMalformedInput)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	logger.WithFields(logger.Fields{
		"bridge":      cfg.BridgeProgramID.String(),
		"lightClient": cfg.LightClientProgramID.String(),
		"commitment":  cfg.Commitment,
	}).Debug("creating solanaman")

	return &Solanaman{
		cfg:    cfg,
		ledger: ledger,
		payer:  payer,
		poller: NewPoller(ledger, nil),
	}, nil
}

func (sm *Solanaman) Ledger() LedgerClient {
	return sm.ledger
}

func (sm *Solanaman) Config() *Config {
	return sm.cfg
}

func (sm *Solanaman) Payer() (solana.PublicKey, error) {
	if len(sm.payer) == 0 {
		return solana.PublicKey{}, ErrPayerNotSet
	}
	return sm.payer.PublicKey(), nil
}

func (sm *Solanaman) GetBridgeState(ctx context.Context) (*BridgeState, error) {
	addr, _, err := BridgeStateAddress(sm.cfg.BridgeProgramID)
	if err != nil {
		return nil, err
	}
	data, err := sm.ledger.GetAccountData(ctx, addr)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAction("read bridge state", addr, fmt.Errorf("%w: %w", ErrStateMismatch, err))
		}
		return nil, ErrAction("read bridge state", addr, err)
	}
	state := &BridgeState{}
	if err := decodeAnchorAccount("BridgeState", addr, bridgeStateDiscriminator, data, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (sm *Solanaman) GetLightClientState(ctx context.Context) (*LightClientState, error) {
	addr, _, err := LightClientStateAddress(sm.cfg.LightClientProgramID)
	if err != nil {
		return nil, err
	}
	data, err := sm.ledger.GetAccountData(ctx, addr)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAction("read light client state", addr, fmt.Errorf("%w: %w", ErrStateMismatch, err))
		}
		return nil, ErrAction("read light client state", addr, err)
	}
	state := &LightClientState{}
	if err := decodeAnchorAccount("BtcLightClientState", addr, lightClientStateDiscriminator, data, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Mint credits amount of the bridged token to recipient for the btc
// deposit txID. The verified-marker account is only passed when the bridge
// requires light client verification.
func (sm *Solanaman) Mint(ctx context.Context, recipient string, txID [32]byte, amount uint64) (string, error) {
	payer, err := sm.Payer()
	if err != nil {
		return "", err
	}
	to, err := ParseAddress(recipient)
	if err != nil {
		return "", err
	}

	state, err := sm.GetBridgeState(ctx)
	if err != nil {
		return "", err
	}
	bridgeState, _, err := BridgeStateAddress(sm.cfg.BridgeProgramID)
	if err != nil {
		return "", err
	}
	ata, _, err := AssociatedTokenAddress(to, state.MintAccount)
	if err != nil {
		return "", err
	}
	minted, _, err := TxMintedStateAddress(sm.cfg.BridgeProgramID, txID)
	if err != nil {
		return "", err
	}

	acc := &mintAccounts{
		MintAuthority: payer,
		Recipient:     to,
		MintAccount:   state.MintAccount,
		RecipientATA:  ata,
		BridgeState:   bridgeState,
		TxMintedState: minted,
	}
	if !state.SkipTxVerification {
		verified, _, err := TxVerifiedStateAddress(sm.cfg.LightClientProgramID, txID)
		if err != nil {
			return "", err
		}
		acc.TxVerifiedState = &verified
	}

	ix, err := newMintInstruction(sm.cfg.BridgeProgramID, acc, &mintArgs{TxID: txID, Amount: amount})
	if err != nil {
		return "", err
	}

	logger.WithFields(logger.Fields{
		"recipient":  recipient,
		"btcTxId":    common.TxIdToDisplayHex(txID),
		"amount":     amount,
		"skipVerify": state.SkipTxVerification,
	}).Info("submitting mint")

	return sm.submit(ctx, ActionMint, minted, ix)
}

// Burn destroys amount of the payer's tokens, requesting a btc payout to
// btcAddr handled by operatorID.
func (sm *Solanaman) Burn(ctx context.Context, amount uint64, btcAddr string, operatorID uint64) (string, error) {
	payer, err := sm.Payer()
	if err != nil {
		return "", err
	}
	if sm.cfg.BtcChainConfig != nil && !common.IsValidBtcAddress(btcAddr, sm.cfg.BtcChainConfig) {
		return "", ErrInvalidAddress(btcAddr, fmt.Errorf("not a %s address", sm.cfg.BtcChainConfig.Name))
	}

	state, err := sm.GetBridgeState(ctx)
	if err != nil {
		return "", err
	}
	bridgeState, _, err := BridgeStateAddress(sm.cfg.BridgeProgramID)
	if err != nil {
		return "", err
	}
	ata, _, err := AssociatedTokenAddress(payer, state.MintAccount)
	if err != nil {
		return "", err
	}

	ix, err := newBurnInstruction(sm.cfg.BridgeProgramID, &burnAccounts{
		Authority:    payer,
		MintAccount:  state.MintAccount,
		AuthorityATA: ata,
		BridgeState:  bridgeState,
	}, &burnArgs{Amount: amount, BtcAddr: btcAddr, OperatorID: operatorID})
	if err != nil {
		return "", err
	}

	logger.WithFields(logger.Fields{
		"amount":     amount,
		"btcAddr":    btcAddr,
		"operatorId": operatorID,
	}).Info("submitting burn")

	return sm.submit(ctx, ActionBurn, ata, ix)
}

// VerifyTransaction submits a btc inclusion proof to the light client with
// a raised compute budget.
func (sm *Solanaman) VerifyTransaction(ctx context.Context, blockHeight uint64, proof *BtcTxProof) (string, error) {
	payer, err := sm.Payer()
	if err != nil {
		return "", err
	}
	if proof == nil {
		return "", fmt.Errorf("%w: proof is nil", ErrMalformedInput)
	}
	if len(proof.BlockHeader) != BtcBlockHeaderLen {
		return "", ErrInvalidBlockHeaderLength(len(proof.BlockHeader))
	}

	lc := sm.cfg.LightClientProgramID
	state, _, err := LightClientStateAddress(lc)
	if err != nil {
		return "", err
	}
	verified, _, err := TxVerifiedStateAddress(lc, proof.TxID)
	if err != nil {
		return "", err
	}
	entry, _, err := BlockHashEntryAddress(lc, blockHeight)
	if err != nil {
		return "", err
	}

	ix, err := newVerifyTransactionInstruction(lc, &verifyAccounts{
		LightClientState: state,
		TxVerifiedState:  verified,
		Payer:            payer,
		BlockHashEntry:   entry,
	}, &verifyTransactionArgs{BlockHeight: blockHeight, TxProof: *proof})
	if err != nil {
		return "", err
	}

	logger.WithFields(logger.Fields{
		"blockHeight": blockHeight,
		"btcTxId":     common.TxIdToDisplayHex(proof.TxID),
		"txIndex":     proof.TxIndex,
		"outputIndex": proof.OutputIndex,
	}).Info("submitting verify_transaction")

	return sm.submit(ctx, ActionVerify, verified, NewSetComputeUnitLimitInstruction(VerifyComputeUnitLimit), ix)
}

func (sm *Solanaman) submit(ctx context.Context, action string, target solana.PublicKey, ixs ...solana.Instruction) (string, error) {
	sig, err := sm.ledger.Submit(ctx, ixs, sm.payer)
	if err != nil {
		metrics.BridgeActionsTotal.WithLabelValues(action, "error").Inc()
		return "", ErrAction(action, target, err)
	}
	metrics.BridgeActionsTotal.WithLabelValues(action, "submitted").Inc()
	logger.WithFields(logger.Fields{
		"action":    action,
		"signature": sig.String(),
	}).Info("bridge action submitted")
	return sig.String(), nil
}

func (sm *Solanaman) QueryLatestBlockHeight(ctx context.Context) (uint64, error) {
	state, err := sm.GetLightClientState(ctx)
	if err != nil {
		return 0, err
	}
	return state.LatestBlockHeight, nil
}

func (sm *Solanaman) QueryMinConfirmations(ctx context.Context) (uint64, error) {
	state, err := sm.GetLightClientState(ctx)
	if err != nil {
		return 0, err
	}
	return state.MinConfirmations, nil
}

// GetTxVerificationStatus reports whether txID may be minted. When the
// bridge skips verification the light client is not consulted.
func (sm *Solanaman) GetTxVerificationStatus(ctx context.Context, txID [32]byte) (bool, error) {
	state, err := sm.GetBridgeState(ctx)
	if err != nil {
		return false, err
	}
	if state.SkipTxVerification {
		return true, nil
	}

	addr, _, err := TxVerifiedStateAddress(sm.cfg.LightClientProgramID, txID)
	if err != nil {
		return false, err
	}
	data, err := sm.ledger.GetAccountData(ctx, addr)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, ErrAction("read tx verified state", addr, fmt.Errorf("%w: %w", ErrStateMismatch, err))
		}
		return false, ErrAction("read tx verified state", addr, err)
	}
	verified := &TxVerifiedState{}
	if err := decodeAnchorAccount("TxVerifiedState", addr, txVerifiedStateDiscriminator, data, verified); err != nil {
		return false, err
	}
	return verified.IsVerified, nil
}

func (sm *Solanaman) GetTransaction(ctx context.Context, sig string) (*TransactionRecord, error) {
	s, err := solana.SignatureFromBase58(sig)
	if err != nil {
		return nil, fmt.Errorf("%w: signature %q: %v", ErrMalformedInput, sig, err)
	}
	return sm.ledger.GetTransaction(ctx, s)
}

// ParseTransactionEvent fetches a transaction and returns its first bridge
// event, nil when it carries none.
func (sm *Solanaman) ParseTransactionEvent(ctx context.Context, sig string) (BridgeEvent, error) {
	tx, err := sm.GetTransaction(ctx, sig)
	if err != nil {
		return nil, err
	}
	return DecodeEvent(tx.Logs), nil
}

// WaitForTransaction polls sig with the configured attempts and interval.
func (sm *Solanaman) WaitForTransaction(ctx context.Context, sig string) (*TransactionRecord, error) {
	s, err := solana.SignatureFromBase58(sig)
	if err != nil {
		return nil, fmt.Errorf("%w: signature %q: %v", ErrMalformedInput, sig, err)
	}
	return sm.poller.PollTransaction(ctx, s, sm.cfg.ConfirmAttempts, sm.cfg.ConfirmInterval)
}
