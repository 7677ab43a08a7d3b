// Server = solana event monitor + sqlite event store + http reporter.
// All components are configured via environment variables (strings!).

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/gagliardetto/solana-go"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/bridge-go-solana/bridgedb"
	"github.com/TEENet-io/bridge-go-solana/reporter"
	"github.com/TEENet-io/bridge-go-solana/solanaman"
	"github.com/TEENet-io/bridge-go-solana/solsync"
)

// Default params for server.
const (
	defaultMonitorPollInterval = 1 * time.Second
	rpcBurst                   = 5
)

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type BridgeServerConfig struct {
	// solana side
	SolanaRpcUrl         string  // json rpc url, overrides SolanaNetwork
	SolanaNetwork        string  // mainnet, testnet, devnet, localnet
	SolanaRpcRateLimit   float64 // requests per second, 0 for unlimited
	SolanaPrivateKey     string  // base58 secret or keygen file, optional for a listen-only server
	BridgeProgramID      string
	LightClientProgramID string
	BtcChainConfig       *chaincfg.Params // burn destinations are validated against it

	// monitor side
	MonitorStartSignature string        // resume after this signature, empty to honor the value in db
	MonitorPollInterval   time.Duration // 0 for default

	// state side
	DbFilePath string // db file path

	// Http side
	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 8080
}

// BridgeServer holds the objects that consists of the bridge server.
type BridgeServer struct {
	Ledger      solanaman.LedgerClient
	MySolanaman *solanaman.Solanaman
	MyBridgeDb  *bridgedb.BridgeDB
	MyMonitor   *solsync.Monitor
	MyReporter  *reporter.HttpReporter

	sqlDb    *sql.DB
	routines sync.WaitGroup // monitor and reporter
}

// NewBridgeServer creates a new bridge server and starts its routines.
// ctx is used for parental context to cancel the operation of bridge server.
// wg is used to wait for all the goroutines inside the server to finish.
func NewBridgeServer(bsc *BridgeServerConfig, ctx context.Context, wg *sync.WaitGroup) (*BridgeServer, error) {
	cfg, err := bsc.solanamanConfig()
	if err != nil {
		return nil, err
	}
	ledger := solanaman.NewRpcLedger(cfg.EndpointURL(), cfg.Commitment).
		WithRateLimit(bsc.SolanaRpcRateLimit, rpcBurst)
	logger.WithFields(logger.Fields{
		"url":       cfg.EndpointURL(),
		"rateLimit": bsc.SolanaRpcRateLimit,
	}).Info("Solana rpc endpoint")

	return newBridgeServer(bsc, cfg, ledger, ctx, wg)
}

func newBridgeServer(bsc *BridgeServerConfig, cfg *solanaman.Config, ledger solanaman.LedgerClient, ctx context.Context, wg *sync.WaitGroup) (*BridgeServer, error) {
	// 1) solana side: action builder, only when a payer key is given
	var payer solana.PrivateKey
	if bsc.SolanaPrivateKey != "" {
		key, err := solanaman.LoadPrivateKey(bsc.SolanaPrivateKey)
		if err != nil {
			logger.Errorf("failed to load solana private key: %v", err)
			return nil, err
		}
		payer = key
		logger.WithField("payer", payer.PublicKey().String()).Info("Solana payer")
	}
	sm, err := solanaman.NewSolanaman(cfg, ledger, payer)
	if err != nil {
		return nil, err
	}

	// 2) storage
	sqlDb, err := sql.Open("sqlite3", bsc.DbFilePath)
	if err != nil {
		logger.Errorf("failed to open db %s: %v", bsc.DbFilePath, err)
		return nil, err
	}
	bdb, err := bridgedb.NewBridgeDB(sqlDb)
	if err != nil {
		sqlDb.Close()
		return nil, err
	}

	// 3) monitor: events go to the log and to the db
	var start solana.Signature
	if bsc.MonitorStartSignature != "" {
		start, err = solana.SignatureFromBase58(bsc.MonitorStartSignature)
		if err != nil {
			sqlDb.Close()
			return nil, fmt.Errorf("invalid monitor start signature: %w", err)
		}
	}
	monitor, err := solsync.New(ledger, solsync.NewPublisher(solsync.LogHandler{}, bdb), &solsync.Config{
		ProgramID:    cfg.BridgeProgramID,
		PollInterval: bsc.MonitorPollInterval,
		Cursor:       bdb,
	}, start)
	if err != nil {
		sqlDb.Close()
		return nil, err
	}

	// 4) http reporter
	rpt := reporter.NewHttpReporter(bsc.HttpIp, bsc.HttpPort, bdb, monitor)

	bs := &BridgeServer{
		Ledger:      ledger,
		MySolanaman: sm,
		MyBridgeDb:  bdb,
		MyMonitor:   monitor,
		MyReporter:  rpt,
		sqlDb:       sqlDb,
	}

	bs.spawn(func() {
		if err := monitor.Loop(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("solana monitor exited")
		}
	})

	if bsc.HttpPort != "" {
		bs.spawn(func() {
			if err := rpt.Serve(ctx); err != nil {
				logger.WithError(err).Error("http reporter exited")
			}
		})
	}

	// the db outlives every routine reading from it
	wg.Add(1)
	go func() {
		defer wg.Done()
		bs.routines.Wait()
		bs.close()
	}()

	// Don't forget to call wg.Wait() in the main routine.
	return bs, nil
}

func (bs *BridgeServer) spawn(fn func()) {
	bs.routines.Add(1)
	go func() {
		defer bs.routines.Done()
		fn()
	}()
}

func (bs *BridgeServer) close() {
	bs.MyBridgeDb.Close()
	bs.sqlDb.Close()
}

func (bsc *BridgeServerConfig) solanamanConfig() (*solanaman.Config, error) {
	bridge, err := solanaman.ParseAddress(bsc.BridgeProgramID)
	if err != nil {
		return nil, fmt.Errorf("bridge program id: %w", err)
	}
	lightClient, err := solanaman.ParseAddress(bsc.LightClientProgramID)
	if err != nil {
		return nil, fmt.Errorf("light client program id: %w", err)
	}
	if bsc.MonitorPollInterval <= 0 {
		bsc.MonitorPollInterval = defaultMonitorPollInterval
	}
	return &solanaman.Config{
		URL:                  bsc.SolanaRpcUrl,
		Network:              bsc.SolanaNetwork,
		BridgeProgramID:      bridge,
		LightClientProgramID: lightClient,
		BtcChainConfig:       bsc.BtcChainConfig,
	}, nil
}

func StartBridgeServerAndWait(bsc *BridgeServerConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up a signal channel to listen for Ctrl-C (SIGINT) or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		fmt.Printf("Received signal: %v, cancelling context...\n", sig)
		cancel()
	}()

	var wg sync.WaitGroup

	_, err := NewBridgeServer(bsc, ctx, &wg)
	if err != nil {
		logger.Fatalf("failed to create bridge server: %v", err)
		return
	}

	// wait for all routines to finish
	wg.Wait()
}
