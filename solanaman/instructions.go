package solanaman

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const BtcBlockHeaderLen = 80

var ComputeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

const computeBudgetSetUnitLimit = 2

var (
	mintInstructionDiscriminator   = anchorDiscriminator("global", "mint")
	burnInstructionDiscriminator   = anchorDiscriminator("global", "burn")
	verifyInstructionDiscriminator = anchorDiscriminator("global", "verify_transaction")
)

type mintArgs struct {
	TxID   [32]byte
	Amount uint64
}

type burnArgs struct {
	Amount     uint64
	BtcAddr    string
	OperatorID uint64
}

// BtcTxProof proves an output of a btc transaction against a block header
// known to the light client. Hashes are in internal byte order.
type BtcTxProof struct {
	BlockHeader        []byte
	TxID               [32]byte
	TxIndex            uint32
	MerkleProof        [][32]byte
	RawTx              []byte
	OutputIndex        uint32
	ExpectedAmount     uint64
	ExpectedScriptHash [32]byte
}

type verifyTransactionArgs struct {
	BlockHeight uint64
	TxProof     BtcTxProof
}

// anchorInstructionData is discriminator || borsh(args).
func anchorInstructionData(disc [DiscriminatorLen]byte, args interface{}) ([]byte, error) {
	buf := bytes.NewBuffer(disc[:])
	if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewSetComputeUnitLimitInstruction builds the compute budget program's
// SetComputeUnitLimit instruction.
func NewSetComputeUnitLimitInstruction(units uint32) solana.Instruction {
	data := make([]byte, 5)
	data[0] = computeBudgetSetUnitLimit
	binary.LittleEndian.PutUint32(data[1:], units)
	return solana.NewInstruction(ComputeBudgetProgramID, solana.AccountMetaSlice{}, data)
}

type mintAccounts struct {
	MintAuthority   solana.PublicKey
	Recipient       solana.PublicKey
	MintAccount     solana.PublicKey
	RecipientATA    solana.PublicKey
	BridgeState     solana.PublicKey
	TxMintedState   solana.PublicKey
	TxVerifiedState *solana.PublicKey // nil leaves the slot out
}

func newMintInstruction(programID solana.PublicKey, acc *mintAccounts, args *mintArgs) (solana.Instruction, error) {
	data, err := anchorInstructionData(mintInstructionDiscriminator, *args)
	if err != nil {
		return nil, err
	}
	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(acc.MintAuthority, true, true),
		solana.NewAccountMeta(acc.Recipient, false, false),
		solana.NewAccountMeta(acc.MintAccount, true, false),
		solana.NewAccountMeta(acc.RecipientATA, true, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.SPLAssociatedTokenAccountProgramID, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(acc.BridgeState, true, false),
		solana.NewAccountMeta(acc.TxMintedState, true, false),
	}
	if acc.TxVerifiedState != nil {
		metas = append(metas, solana.NewAccountMeta(*acc.TxVerifiedState, true, false))
	}
	return solana.NewInstruction(programID, metas, data), nil
}

type burnAccounts struct {
	Authority    solana.PublicKey
	MintAccount  solana.PublicKey
	AuthorityATA solana.PublicKey
	BridgeState  solana.PublicKey
}

func newBurnInstruction(programID solana.PublicKey, acc *burnAccounts, args *burnArgs) (solana.Instruction, error) {
	data, err := anchorInstructionData(burnInstructionDiscriminator, *args)
	if err != nil {
		return nil, err
	}
	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(acc.Authority, true, true),
		solana.NewAccountMeta(acc.MintAccount, true, false),
		solana.NewAccountMeta(acc.AuthorityATA, true, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(acc.BridgeState, true, false),
	}
	return solana.NewInstruction(programID, metas, data), nil
}

type verifyAccounts struct {
	LightClientState solana.PublicKey
	TxVerifiedState  solana.PublicKey
	Payer            solana.PublicKey
	BlockHashEntry   solana.PublicKey
}

func newVerifyTransactionInstruction(programID solana.PublicKey, acc *verifyAccounts, args *verifyTransactionArgs) (solana.Instruction, error) {
	data, err := anchorInstructionData(verifyInstructionDiscriminator, *args)
	if err != nil {
		return nil, err
	}
	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(acc.LightClientState, true, false),
		solana.NewAccountMeta(acc.TxVerifiedState, true, false),
		solana.NewAccountMeta(acc.Payer, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(acc.BlockHashEntry, true, false),
	}
	return solana.NewInstruction(programID, metas, data), nil
}
