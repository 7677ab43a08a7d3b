package solanaman

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	NetworkMainnet  = "mainnet"
	NetworkTestnet  = "testnet"
	NetworkDevnet   = "devnet"
	NetworkLocalnet = "localnet"
)

const (
	// compute units requested for verify_transaction; proof checking exceeds the default budget
	VerifyComputeUnitLimit uint32 = 500_000

	defaultConfirmAttempts = 30
	defaultConfirmInterval = 2 * time.Second
)

type Config struct {
	// json rpc endpoint, overrides Network when set
	URL string

	// mainnet, testnet, devnet, localnet
	Network string

	BridgeProgramID      solana.PublicKey
	LightClientProgramID solana.PublicKey

	// commitment used for reads; submissions preflight with the same level
	Commitment rpc.CommitmentType

	// optional, burn destinations are checked against it when set
	BtcChainConfig *chaincfg.Params

	ConfirmAttempts int
	ConfirmInterval time.Duration
}

func (cfg *Config) setDefaults() {
	if cfg.Commitment == "" {
		cfg.Commitment = rpc.CommitmentConfirmed
	}
	if cfg.ConfirmAttempts <= 0 {
		cfg.ConfirmAttempts = defaultConfirmAttempts
	}
	if cfg.ConfirmInterval <= 0 {
		cfg.ConfirmInterval = defaultConfirmInterval
	}
}

func (cfg *Config) validate() error {
	if cfg.BridgeProgramID.IsZero() {
		return ErrMissingConfig("BridgeProgramID")
	}
	if cfg.LightClientProgramID.IsZero() {
		return ErrMissingConfig("LightClientProgramID")
	}
	return nil
}

// GetNetworkURL returns the public rpc endpoint of a cluster.
func GetNetworkURL(network string) string {
	switch network {
	case NetworkMainnet:
		return "https://api.mainnet-beta.solana.com"
	case NetworkTestnet:
		return "https://api.testnet.solana.com"
	case NetworkLocalnet:
		return "http://127.0.0.1:8899"
	default:
		return "https://api.devnet.solana.com"
	}
}

// EndpointURL resolves the rpc endpoint to dial.
func (cfg *Config) EndpointURL() string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return GetNetworkURL(cfg.Network)
}
