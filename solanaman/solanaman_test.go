package solanaman

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/bridge-go-solana/common"
)

type testEnv struct {
	sim   *SimLedger
	sm    *Solanaman
	cfg   *Config
	payer solana.PrivateKey
	mint  solana.PublicKey

	bridgeState      solana.PublicKey
	lightClientState solana.PublicKey
}

func newTestEnv(t *testing.T, skipVerification bool) *testEnv {
	sim := NewSimLedger()
	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	cfg := &Config{
		BridgeProgramID:      randPubkey(t),
		LightClientProgramID: randPubkey(t),
	}
	mint := randPubkey(t)

	bs, _, err := BridgeStateAddress(cfg.BridgeProgramID)
	require.NoError(t, err)
	require.NoError(t, sim.SetAnchorAccount(bs, &BridgeState{
		Owner:              payer.PublicKey(),
		MintAccount:        mint,
		SkipTxVerification: skipVerification,
	}))

	lcs, _, err := LightClientStateAddress(cfg.LightClientProgramID)
	require.NoError(t, err)
	require.NoError(t, sim.SetAnchorAccount(lcs, &LightClientState{
		LatestBlockHeight: 840_000,
		LatestBlockHash:   common.RandBytes32(),
		MinConfirmations:  6,
	}))

	sm, err := NewSolanaman(cfg, sim, payer)
	require.NoError(t, err)

	return &testEnv{
		sim:              sim,
		sm:               sm,
		cfg:              cfg,
		payer:            payer,
		mint:             mint,
		bridgeState:      bs,
		lightClientState: lcs,
	}
}

func discriminator(preimage string) []byte {
	sum := sha256.Sum256([]byte(preimage))
	return sum[:8]
}

func lastSubmission(t *testing.T, sim *SimLedger) SimSubmission {
	subs := sim.Submitted()
	require.NotEmpty(t, subs)
	return subs[len(subs)-1]
}

func instructionData(t *testing.T, ix solana.Instruction) []byte {
	data, err := ix.Data()
	require.NoError(t, err)
	return data
}

func TestNewSolanamanConfig(t *testing.T) {
	_, err := NewSolanaman(&Config{LightClientProgramID: randPubkey(t)}, NewSimLedger(), nil)
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = NewSolanaman(&Config{BridgeProgramID: randPubkey(t), LightClientProgramID: randPubkey(t)}, nil, nil)
	assert.ErrorIs(t, err, ErrMalformedInput)

	cfg := &Config{BridgeProgramID: randPubkey(t), LightClientProgramID: randPubkey(t)}
	_, err = NewSolanaman(cfg, NewSimLedger(), nil)
	require.NoError(t, err)
	assert.Equal(t, defaultConfirmAttempts, cfg.ConfirmAttempts)
	assert.Equal(t, GetNetworkURL(NetworkDevnet), cfg.EndpointURL())
}

func TestMintWithVerification(t *testing.T) {
	env := newTestEnv(t, false)
	recipient := randPubkey(t)
	txID := common.RandBytes32()

	sig, err := env.sm.Mint(context.Background(), recipient.String(), txID, 100)
	require.NoError(t, err)

	sub := lastSubmission(t, env.sim)
	assert.Equal(t, sig, sub.Signature.String())
	assert.Equal(t, env.payer.PublicKey(), sub.Signer)
	require.Len(t, sub.Instructions, 1)

	ix := sub.Instructions[0]
	assert.Equal(t, env.cfg.BridgeProgramID, ix.ProgramID())

	ata, _, err := AssociatedTokenAddress(recipient, env.mint)
	require.NoError(t, err)
	minted, _, err := TxMintedStateAddress(env.cfg.BridgeProgramID, txID)
	require.NoError(t, err)
	verified, _, err := TxVerifiedStateAddress(env.cfg.LightClientProgramID, txID)
	require.NoError(t, err)

	accs := ix.Accounts()
	require.Len(t, accs, 10)
	expected := []solana.PublicKey{
		env.payer.PublicKey(),
		recipient,
		env.mint,
		ata,
		solana.TokenProgramID,
		solana.SPLAssociatedTokenAccountProgramID,
		solana.SystemProgramID,
		env.bridgeState,
		minted,
		verified,
	}
	for i, exp := range expected {
		assert.Equal(t, exp, accs[i].PublicKey, "account %d", i)
	}
	assert.True(t, accs[0].IsSigner)
	assert.True(t, accs[0].IsWritable)
	assert.False(t, accs[1].IsSigner)

	data := append(discriminator("global:mint"), txID[:]...)
	data = binary.LittleEndian.AppendUint64(data, 100)
	assert.Equal(t, data, instructionData(t, ix))
}

func TestMintSkipVerificationOmitsMarker(t *testing.T) {
	env := newTestEnv(t, true)
	txID := common.RandBytes32()

	_, err := env.sm.Mint(context.Background(), randPubkey(t).String(), txID, 1)
	require.NoError(t, err)

	verified, _, err := TxVerifiedStateAddress(env.cfg.LightClientProgramID, txID)
	require.NoError(t, err)

	accs := lastSubmission(t, env.sim).Instructions[0].Accounts()
	require.Len(t, accs, 9)
	for _, acc := range accs {
		assert.NotEqual(t, verified, acc.PublicKey)
	}
}

func TestMintInvalidRecipient(t *testing.T) {
	env := newTestEnv(t, true)
	_, err := env.sm.Mint(context.Background(), "0OIl", common.RandBytes32(), 1)
	assert.ErrorIs(t, err, ErrInvalidAddressFormat)
	assert.Empty(t, env.sim.Submitted())
}

func TestMintMissingBridgeState(t *testing.T) {
	env := newTestEnv(t, false)
	env.sim.DeleteAccount(env.bridgeState)

	_, err := env.sm.Mint(context.Background(), randPubkey(t).String(), common.RandBytes32(), 1)
	assert.ErrorIs(t, err, ErrStateMismatch)
	assert.Empty(t, env.sim.Submitted())
}

func TestBridgeStateDiscriminatorMismatch(t *testing.T) {
	env := newTestEnv(t, false)
	data, err := EncodeAnchorAccount(&LightClientState{})
	require.NoError(t, err)
	env.sim.SetAccount(env.bridgeState, data)

	_, err = env.sm.GetBridgeState(context.Background())
	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestBridgeStateReadEveryCall(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	_, err := env.sm.Mint(ctx, randPubkey(t).String(), common.RandBytes32(), 1)
	require.NoError(t, err)
	_, err = env.sm.Mint(ctx, randPubkey(t).String(), common.RandBytes32(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, env.sim.AccountReads(env.bridgeState))
}

func TestBurn(t *testing.T) {
	env := newTestEnv(t, false)
	btcAddr := "bcrt1qw508d6qejxtdg4y5r3zarvary0c5xw7kygt080"

	_, err := env.sm.Burn(context.Background(), 5000, btcAddr, 7)
	require.NoError(t, err)

	ix := lastSubmission(t, env.sim).Instructions[0]
	assert.Equal(t, env.cfg.BridgeProgramID, ix.ProgramID())

	ata, _, err := AssociatedTokenAddress(env.payer.PublicKey(), env.mint)
	require.NoError(t, err)
	accs := ix.Accounts()
	require.Len(t, accs, 5)
	expected := []solana.PublicKey{env.payer.PublicKey(), env.mint, ata, solana.TokenProgramID, env.bridgeState}
	for i, exp := range expected {
		assert.Equal(t, exp, accs[i].PublicKey, "account %d", i)
	}
	assert.True(t, accs[0].IsSigner)

	data := discriminator("global:burn")
	data = binary.LittleEndian.AppendUint64(data, 5000)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(btcAddr)))
	data = append(data, btcAddr...)
	data = binary.LittleEndian.AppendUint64(data, 7)
	assert.Equal(t, data, instructionData(t, ix))
}

func TestBurnValidatesBtcAddress(t *testing.T) {
	env := newTestEnv(t, false)
	env.cfg.BtcChainConfig = &chaincfg.RegressionNetParams

	_, err := env.sm.Burn(context.Background(), 1, "not-a-btc-address", 1)
	assert.ErrorIs(t, err, ErrInvalidAddressFormat)
	assert.Empty(t, env.sim.Submitted())

	addr, err := btcutil.NewAddressWitnessPubKeyHash(make([]byte, 20), env.cfg.BtcChainConfig)
	require.NoError(t, err)
	_, err = env.sm.Burn(context.Background(), 1, addr.EncodeAddress(), 1)
	assert.NoError(t, err)
}

func TestBurnRejectsOtherNetworkAddress(t *testing.T) {
	env := newTestEnv(t, false)
	env.cfg.BtcChainConfig = &chaincfg.MainNetParams

	regtest, err := btcutil.NewAddressWitnessPubKeyHash(make([]byte, 20), &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	_, err = env.sm.Burn(context.Background(), 1, regtest.EncodeAddress(), 1)
	assert.ErrorIs(t, err, ErrInvalidAddressFormat)

	testnet, err := btcutil.NewAddressWitnessPubKeyHash(make([]byte, 20), &chaincfg.TestNet3Params)
	require.NoError(t, err)
	_, err = env.sm.Burn(context.Background(), 1, testnet.EncodeAddress(), 1)
	assert.ErrorIs(t, err, ErrInvalidAddressFormat)
	assert.Empty(t, env.sim.Submitted())

	mainnet, err := btcutil.NewAddressWitnessPubKeyHash(make([]byte, 20), &chaincfg.MainNetParams)
	require.NoError(t, err)
	_, err = env.sm.Burn(context.Background(), 1, mainnet.EncodeAddress(), 1)
	assert.NoError(t, err)
	assert.Len(t, env.sim.Submitted(), 1)
}

func TestVerifyTransaction(t *testing.T) {
	env := newTestEnv(t, false)

	header := make([]byte, BtcBlockHeaderLen)
	header[0] = 0x04
	proof := &BtcTxProof{
		BlockHeader:        header,
		TxID:               common.RandBytes32(),
		TxIndex:            3,
		MerkleProof:        [][32]byte{common.RandBytes32(), common.RandBytes32()},
		RawTx:              []byte{0x02, 0x00, 0x00, 0x00, 0x01},
		OutputIndex:        1,
		ExpectedAmount:     50_000,
		ExpectedScriptHash: common.RandBytes32(),
	}
	_, err := env.sm.VerifyTransaction(context.Background(), 840_000, proof)
	require.NoError(t, err)

	ixs := lastSubmission(t, env.sim).Instructions
	require.Len(t, ixs, 2)

	// compute budget first
	assert.Equal(t, ComputeBudgetProgramID, ixs[0].ProgramID())
	assert.Empty(t, ixs[0].Accounts())
	assert.Equal(t, []byte{2, 0x20, 0xa1, 0x07, 0x00}, instructionData(t, ixs[0]))

	ix := ixs[1]
	assert.Equal(t, env.cfg.LightClientProgramID, ix.ProgramID())
	verified, _, err := TxVerifiedStateAddress(env.cfg.LightClientProgramID, proof.TxID)
	require.NoError(t, err)
	entry, _, err := BlockHashEntryAddress(env.cfg.LightClientProgramID, 840_000)
	require.NoError(t, err)
	accs := ix.Accounts()
	require.Len(t, accs, 5)
	expected := []solana.PublicKey{env.lightClientState, verified, env.payer.PublicKey(), solana.SystemProgramID, entry}
	for i, exp := range expected {
		assert.Equal(t, exp, accs[i].PublicKey, "account %d", i)
	}
	assert.True(t, accs[2].IsSigner)

	data := discriminator("global:verify_transaction")
	data = binary.LittleEndian.AppendUint64(data, 840_000)
	data = binary.LittleEndian.AppendUint32(data, BtcBlockHeaderLen)
	data = append(data, header...)
	data = append(data, proof.TxID[:]...)
	data = binary.LittleEndian.AppendUint32(data, 3)
	data = binary.LittleEndian.AppendUint32(data, 2)
	data = append(data, proof.MerkleProof[0][:]...)
	data = append(data, proof.MerkleProof[1][:]...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(proof.RawTx)))
	data = append(data, proof.RawTx...)
	data = binary.LittleEndian.AppendUint32(data, 1)
	data = binary.LittleEndian.AppendUint64(data, 50_000)
	data = append(data, proof.ExpectedScriptHash[:]...)
	assert.Equal(t, data, instructionData(t, ix))
}

func TestVerifyTransactionRejectsShortHeader(t *testing.T) {
	env := newTestEnv(t, false)
	_, err := env.sm.VerifyTransaction(context.Background(), 1, &BtcTxProof{BlockHeader: make([]byte, 79)})
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.Empty(t, env.sim.Submitted())
}

func TestQueries(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	height, err := env.sm.QueryLatestBlockHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(840_000), height)

	confs, err := env.sm.QueryMinConfirmations(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), confs)

	env.sim.DeleteAccount(env.lightClientState)
	_, err = env.sm.QueryLatestBlockHeight(ctx)
	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestTxVerificationStatusSkipped(t *testing.T) {
	env := newTestEnv(t, true)
	txID := common.RandBytes32()

	ok, err := env.sm.GetTxVerificationStatus(context.Background(), txID)
	require.NoError(t, err)
	assert.True(t, ok)

	// the light client is never consulted
	verified, _, err := TxVerifiedStateAddress(env.cfg.LightClientProgramID, txID)
	require.NoError(t, err)
	assert.Equal(t, 0, env.sim.AccountReads(verified))
	assert.Equal(t, 0, env.sim.AccountReads(env.lightClientState))
}

func TestTxVerificationStatus(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	txID := common.RandBytes32()

	_, err := env.sm.GetTxVerificationStatus(ctx, txID)
	assert.ErrorIs(t, err, ErrStateMismatch)

	verified, _, err := TxVerifiedStateAddress(env.cfg.LightClientProgramID, txID)
	require.NoError(t, err)
	require.NoError(t, env.sim.SetAnchorAccount(verified, &TxVerifiedState{IsVerified: true}))

	ok, err := env.sm.GetTxVerificationStatus(ctx, txID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, env.sim.SetAnchorAccount(verified, &TxVerifiedState{IsVerified: false}))
	ok, err = env.sm.GetTxVerificationStatus(ctx, txID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubmitFailures(t *testing.T) {
	env := newTestEnv(t, true)
	env.sim.FailSubmit(errors.New("connection refused"))

	_, err := env.sm.Burn(context.Background(), 1, "addr", 1)
	assert.ErrorIs(t, err, ErrTransport)

	readOnly, err := NewSolanaman(env.cfg, env.sim, nil)
	require.NoError(t, err)
	_, err = readOnly.Burn(context.Background(), 1, "addr", 1)
	assert.ErrorIs(t, err, ErrPayerNotSet)
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress(randPubkey(t).String()))
	assert.NoError(t, ValidateAddress("11111111111111111111111111111111"))

	for _, bad := range []string{
		"",
		"invalid",
		"0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl",
		randPubkey(t).String() + "1111",
	} {
		assert.ErrorIs(t, ValidateAddress(bad), ErrInvalidAddressFormat, bad)
	}
}

func TestParseTransactionEvent(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	to := randPubkey(t).String()
	sig, err := env.sim.AddEventTransaction(env.cfg.BridgeProgramID, &MintEvent{To: to, Value: 1_000_000})
	require.NoError(t, err)

	ev, err := env.sm.ParseTransactionEvent(ctx, sig.String())
	require.NoError(t, err)
	assert.Equal(t, &MintEvent{To: to, Value: 1_000_000}, ev)

	plain := env.sim.AddTransaction(env.cfg.BridgeProgramID, []string{"Program log: hello"}, nil)
	ev, err = env.sm.ParseTransactionEvent(ctx, plain.String())
	require.NoError(t, err)
	assert.Nil(t, ev)

	_, err = env.sm.ParseTransactionEvent(ctx, "bad")
	assert.ErrorIs(t, err, ErrMalformedInput)
}
