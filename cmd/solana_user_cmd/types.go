package main

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/spf13/viper"

	"github.com/TEENet-io/bridge-go-solana/common"
	"github.com/TEENet-io/bridge-go-solana/solanaman"
)

// verifyParams is the content of a verify params file (yaml, json or
// toml). Txids and merkle branches are written in display order, as
// explorers show them. When merkle_proof is empty, block_txids is used to
// build the proof and the amount and script hash are read from raw_tx.
type verifyParams struct {
	BlockHeight        uint64   `mapstructure:"block_height"`
	BlockHeader        string   `mapstructure:"block_header"`
	TxID               string   `mapstructure:"tx_id"`
	TxIndex            uint32   `mapstructure:"tx_index"`
	MerkleProof        []string `mapstructure:"merkle_proof"`
	BlockTxIDs         []string `mapstructure:"block_txids"`
	RawTx              string   `mapstructure:"raw_tx"`
	OutputIndex        uint32   `mapstructure:"output_index"`
	ExpectedAmount     uint64   `mapstructure:"expected_amount"`
	ExpectedScriptHash string   `mapstructure:"expected_script_hash"`
}

func loadVerifyParams(path string) (uint64, *solanaman.BtcTxProof, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", path, err)
	}
	var p verifyParams
	if err := v.Unmarshal(&p); err != nil {
		return 0, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	proof, err := p.toProof()
	if err != nil {
		return 0, nil, err
	}
	return p.BlockHeight, proof, nil
}

func (p *verifyParams) toProof() (*solanaman.BtcTxProof, error) {
	header, err := common.HexStrToByteSlice(p.BlockHeader)
	if err != nil {
		return nil, fmt.Errorf("block_header: %w", err)
	}
	rawTx, err := common.HexStrToByteSlice(p.RawTx)
	if err != nil {
		return nil, fmt.Errorf("raw_tx: %w", err)
	}

	if len(p.MerkleProof) == 0 && len(p.BlockTxIDs) > 0 {
		return p.buildProof(header, rawTx)
	}

	txID, err := common.TxIdFromDisplayHex(p.TxID)
	if err != nil {
		return nil, fmt.Errorf("tx_id: %w", err)
	}
	branch, err := common.HashesFromDisplayHex(p.MerkleProof)
	if err != nil {
		return nil, fmt.Errorf("merkle_proof: %w", err)
	}
	scriptHash, err := common.HexStrToBytes32(p.ExpectedScriptHash)
	if err != nil {
		return nil, fmt.Errorf("expected_script_hash: %w", err)
	}

	return &solanaman.BtcTxProof{
		BlockHeader:        header,
		TxID:               txID,
		TxIndex:            p.TxIndex,
		MerkleProof:        branch,
		RawTx:              rawTx,
		OutputIndex:        p.OutputIndex,
		ExpectedAmount:     p.ExpectedAmount,
		ExpectedScriptHash: scriptHash,
	}, nil
}

func (p *verifyParams) buildProof(header, rawTx []byte) (*solanaman.BtcTxProof, error) {
	ids := make([]chainhash.Hash, 0, len(p.BlockTxIDs))
	for i, s := range p.BlockTxIDs {
		h, err := chainhash.NewHashFromStr(s)
		if err != nil {
			return nil, fmt.Errorf("block_txids[%d]: %w", i, err)
		}
		ids = append(ids, *h)
	}

	out, err := common.NewTxOutputProof(header, rawTx, ids, int(p.TxIndex), p.OutputIndex)
	if err != nil {
		return nil, err
	}
	return &solanaman.BtcTxProof{
		BlockHeader:        out.BlockHeader,
		TxID:               out.TxId,
		TxIndex:            out.TxIndex,
		MerkleProof:        out.MerkleProof,
		RawTx:              out.RawTx,
		OutputIndex:        out.OutputIndex,
		ExpectedAmount:     out.ExpectedAmount,
		ExpectedScriptHash: out.ExpectedScriptHash,
	}, nil
}
