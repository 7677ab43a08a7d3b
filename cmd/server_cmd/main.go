package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/TEENet-io/bridge-go-solana/cmd"
	"github.com/TEENet-io/bridge-go-solana/common"
	"github.com/TEENet-io/bridge-go-solana/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "BRIDGE_CONFIG"
)

func main() {
	// .env in the working directory is optional
	_ = godotenv.Load()

	// Tool to read environment variables
	viper.AutomaticEnv()
	logconfig.ConfigLogger(viper.GetString("LOG_LEVEL"))

	// Optional configuration file; environment variables take precedence.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	if _config_file != "" {
		fmt.Printf("Bridge server configuration file = %s\n", _config_file)
		if !cmd.FileExists(_config_file) {
			fmt.Printf("Bridge server configuration file not found: %s\n", _config_file)
			return
		}
		if !initializeViper(_config_file) {
			return
		}
	}

	bsc := PrepareBridgeServerConfig()

	fmt.Println("Starting bridge server... press Ctrl+C to kill the server")
	// Start server and block.
	cmd.StartBridgeServerAndWait(bsc)
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

// PrepareBridgeServerConfig reads configuration variables and returns a BridgeServerConfig.
func PrepareBridgeServerConfig() *cmd.BridgeServerConfig {
	viper.SetDefault("DB_FILE_PATH", "bridge_solana.db")
	viper.SetDefault("HTTP_IP", "0.0.0.0")
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("SOLANA_NETWORK", "devnet")

	return &cmd.BridgeServerConfig{
		// solana side
		SolanaRpcUrl:         viper.GetString("SOLANA_RPC_URL"),
		SolanaNetwork:        viper.GetString("SOLANA_NETWORK"),
		SolanaRpcRateLimit:   viper.GetFloat64("SOLANA_RPC_RATE_LIMIT"),
		SolanaPrivateKey:     viper.GetString("SOLANA_PRIVATE_KEY"),
		BridgeProgramID:      viper.GetString("BRIDGE_PROGRAM_ID"),
		LightClientProgramID: viper.GetString("LIGHT_CLIENT_PROGRAM_ID"),
		BtcChainConfig:       common.BtcChainParams(viper.GetString("BTC_CHAIN_CONFIG")),
		// monitor side
		MonitorStartSignature: viper.GetString("MONITOR_START_SIGNATURE"),
		MonitorPollInterval:   viper.GetDuration("MONITOR_POLL_INTERVAL"),
		// state side
		DbFilePath: viper.GetString("DB_FILE_PATH"),
		// Http side
		HttpIp:   viper.GetString("HTTP_IP"),
		HttpPort: viper.GetString("HTTP_PORT"),
	}
}
