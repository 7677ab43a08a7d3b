package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/TEENet-io/bridge-go-solana/common"
	"github.com/TEENet-io/bridge-go-solana/logconfig"
	"github.com/TEENet-io/bridge-go-solana/solanaman"
)

func logInfo(message string) {
	fmt.Printf("\x1b[36m%s\x1b[0m\n", message)
}

func logSuccess(message string) {
	fmt.Printf("\x1b[32m%s\x1b[0m\n", message)
}

func logError(message string) {
	fmt.Printf("\x1b[31m%s\x1b[0m\n", message)
}

func printUsage() {
	fmt.Println("usage: solana_user_cmd <command> [args]")
	fmt.Println("  mint <recipient> <btc txid> <amount>")
	fmt.Println("  burn <amount> <btc address> <operator id>")
	fmt.Println("  verify <params file>")
	fmt.Println("  query-height")
	fmt.Println("  query-confirmations")
	fmt.Println("  tx-status <btc txid>")
	fmt.Println("  parse <signature>")
	fmt.Println("  wait <signature>")
	fmt.Println("  validate <address>")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	_ = godotenv.Load()
	viper.AutomaticEnv()
	logconfig.ConfigLogger(viper.GetString("LOG_LEVEL"))

	sm, err := newSolanaman()
	if err != nil {
		logError(fmt.Sprintf("Failed to set up client: %v", err))
		os.Exit(1)
	}

	if err := run(ctx, sm, os.Args[1], os.Args[2:]); err != nil {
		logError(err.Error())
		os.Exit(1)
	}
}

func newSolanaman() (*solanaman.Solanaman, error) {
	bridge, err := solanaman.ParseAddress(viper.GetString("BRIDGE_PROGRAM_ID"))
	if err != nil {
		return nil, fmt.Errorf("BRIDGE_PROGRAM_ID: %w", err)
	}
	lightClient, err := solanaman.ParseAddress(viper.GetString("LIGHT_CLIENT_PROGRAM_ID"))
	if err != nil {
		return nil, fmt.Errorf("LIGHT_CLIENT_PROGRAM_ID: %w", err)
	}

	cfg := &solanaman.Config{
		URL:                  viper.GetString("SOLANA_RPC_URL"),
		Network:              viper.GetString("SOLANA_NETWORK"),
		BridgeProgramID:      bridge,
		LightClientProgramID: lightClient,
		BtcChainConfig:       common.BtcChainParams(viper.GetString("BTC_CHAIN_CONFIG")),
	}

	var payer solana.PrivateKey
	if key := viper.GetString("SOLANA_PRIVATE_KEY"); key != "" {
		pk, err := solanaman.LoadPrivateKey(key)
		if err != nil {
			return nil, err
		}
		payer = pk
		logInfo(fmt.Sprintf("Payer: %s", pk.PublicKey()))
	}

	ledger := solanaman.NewRpcLedger(cfg.EndpointURL(), cfg.Commitment).
		WithRateLimit(viper.GetFloat64("SOLANA_RPC_RATE_LIMIT"), 1)
	logInfo(fmt.Sprintf("Connected to %s", cfg.EndpointURL()))
	return solanaman.NewSolanaman(cfg, ledger, payer)
}
