package common

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

const BlockHeaderLen = 80

var (
	ErrTxNotInBlock       = errors.New("transaction index out of range")
	ErrOutputOutOfRange   = errors.New("output index out of range")
	ErrInvalidBlockHeader = errors.New("invalid block header")
)

func hashMerkleBranches(left, right *chainhash.Hash) chainhash.Hash {
	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	return chainhash.DoubleHashH(buf[:])
}

// BuildMerkleProof returns the sibling hashes, leaf to root, proving the
// transaction at index is part of a block whose transactions are txIds in
// block order. An odd level pairs its last node with itself.
func BuildMerkleProof(txIds []chainhash.Hash, index int) ([][32]byte, error) {
	if index < 0 || index >= len(txIds) {
		return nil, fmt.Errorf("%w: %d of %d", ErrTxNotInBlock, index, len(txIds))
	}

	level := append([]chainhash.Hash(nil), txIds...)
	var proof [][32]byte
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		sibling := index ^ 1
		proof = append(proof, level[sibling])

		next := make([]chainhash.Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, hashMerkleBranches(&level[i], &level[i+1]))
		}
		level = next
		index /= 2
	}
	return proof, nil
}

// MerkleRootFromProof folds a proof built by BuildMerkleProof back into the
// merkle root.
func MerkleRootFromProof(txId [32]byte, index uint32, proof [][32]byte) chainhash.Hash {
	cur := chainhash.Hash(txId)
	for _, p := range proof {
		sibling := chainhash.Hash(p)
		if index%2 == 0 {
			cur = hashMerkleBranches(&cur, &sibling)
		} else {
			cur = hashMerkleBranches(&sibling, &cur)
		}
		index /= 2
	}
	return cur
}

func ParseBlockHeader(raw []byte) (*wire.BlockHeader, error) {
	if len(raw) != BlockHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidBlockHeader, len(raw))
	}
	h := &wire.BlockHeader{}
	if err := h.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlockHeader, err)
	}
	return h, nil
}

func ParseRawTx(raw []byte) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return tx, nil
}

// ScriptHash is the sha256 of an output script.
func ScriptHash(pkScript []byte) [32]byte {
	return sha256.Sum256(pkScript)
}

// AddressScriptHash is ScriptHash of the output script paying to address.
func AddressScriptHash(address string, params *chaincfg.Params) ([32]byte, error) {
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return [32]byte{}, err
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return [32]byte{}, err
	}
	return ScriptHash(script), nil
}

// TxOutputProof gathers the values a light client needs to check one
// output of a confirmed transaction.
type TxOutputProof struct {
	BlockHeader        []byte
	TxId               [32]byte
	TxIndex            uint32
	MerkleProof        [][32]byte
	RawTx              []byte
	OutputIndex        uint32
	ExpectedAmount     uint64
	ExpectedScriptHash [32]byte
}

// NewTxOutputProof derives txid, amount and script hash from the raw
// transaction and builds the merkle branch from the block's txids.
func NewTxOutputProof(header, rawTx []byte, blockTxIds []chainhash.Hash, txIndex int, outputIndex uint32) (*TxOutputProof, error) {
	hdr, err := ParseBlockHeader(header)
	if err != nil {
		return nil, err
	}
	tx, err := ParseRawTx(rawTx)
	if err != nil {
		return nil, err
	}
	if int(outputIndex) >= len(tx.TxOut) {
		return nil, fmt.Errorf("%w: %d of %d", ErrOutputOutOfRange, outputIndex, len(tx.TxOut))
	}
	txId := tx.TxHash()
	if txIndex < 0 || txIndex >= len(blockTxIds) || !blockTxIds[txIndex].IsEqual(&txId) {
		return nil, fmt.Errorf("%w: %s is not at position %d", ErrTxNotInBlock, txId, txIndex)
	}

	branch, err := BuildMerkleProof(blockTxIds, txIndex)
	if err != nil {
		return nil, err
	}
	if root := MerkleRootFromProof(txId, uint32(txIndex), branch); !root.IsEqual(&hdr.MerkleRoot) {
		return nil, fmt.Errorf("%w: merkle root %s does not match header %s", ErrInvalidBlockHeader, root, hdr.MerkleRoot)
	}

	out := tx.TxOut[outputIndex]
	return &TxOutputProof{
		BlockHeader:        header,
		TxId:               txId,
		TxIndex:            uint32(txIndex),
		MerkleProof:        branch,
		RawTx:              rawTx,
		OutputIndex:        outputIndex,
		ExpectedAmount:     uint64(out.Value),
		ExpectedScriptHash: ScriptHash(out.PkScript),
	}, nil
}
