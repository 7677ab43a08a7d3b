package common

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// IsValidBtcAddress also requires the address to belong to cfg's network;
// DecodeAddress alone accepts any segwit hrp.
func IsValidBtcAddress(address string, cfg *chaincfg.Params) bool {
	addr, err := btcutil.DecodeAddress(address, cfg)
	if err != nil {
		return false
	}

	return addr.IsForNet(cfg)
}

// BtcChainParams maps a network name to its params, regtest by default.
func BtcChainParams(name string) *chaincfg.Params {
	switch strings.ToLower(name) {
	case "mainnet":
		return &chaincfg.MainNetParams
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params
	case "signet":
		return &chaincfg.SigNetParams
	default:
		return &chaincfg.RegressionNetParams
	}
}

// TxIdFromDisplayHex parses a txid as shown by explorers and bitcoind
// (reversed) into internal byte order.
func TxIdFromDisplayHex(s string) ([32]byte, error) {
	h, err := chainhash.NewHashFromStr(Trim0xPrefix(strings.TrimSpace(s)))
	if err != nil {
		return [32]byte{}, err
	}
	if len(Trim0xPrefix(strings.TrimSpace(s))) != chainhash.MaxHashStringSize {
		return [32]byte{}, fmt.Errorf("txid %q must be %d hex characters", s, chainhash.MaxHashStringSize)
	}
	return *h, nil
}

// TxIdToDisplayHex is the inverse of TxIdFromDisplayHex.
func TxIdToDisplayHex(id [32]byte) string {
	return chainhash.Hash(id).String()
}

// HashesFromDisplayHex parses a list of display order hashes, e.g. the
// branches of a merkle proof.
func HashesFromDisplayHex(ss []string) ([][32]byte, error) {
	out := make([][32]byte, 0, len(ss))
	for i, s := range ss {
		h, err := TxIdFromDisplayHex(s)
		if err != nil {
			return nil, fmt.Errorf("hash %d: %w", i, err)
		}
		out = append(out, h)
	}
	return out, nil
}
