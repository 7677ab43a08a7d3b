// This is a http type of reporter.
// It fetches data from the bridge event store and the monitor
// and publishes on the http routes.

package reporter

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TEENet-io/bridge-go-solana/bridgedb"
	"github.com/TEENet-io/bridge-go-solana/solsync"
)

const (
	ROUTE_HELLO     = "/hello"
	ROUTE_MINT      = "/mint"
	ROUTE_BURN      = "/burn"
	ROUTE_WATERMARK = "/watermark"
	ROUTE_METRICS   = "/metrics"
)

// EventStore is the read side of bridgedb.BridgeDB.
type EventStore interface {
	GetMintsBySignature(sig string) ([]bridgedb.MintRecord, error)
	GetMintsByReceiver(receiver string) ([]bridgedb.MintRecord, error)
	GetBurnsBySignature(sig string) ([]bridgedb.BurnRecord, error)
	GetBurnsByBtcAddr(btcAddr string) ([]bridgedb.BurnRecord, error)
}

type WatermarkSource interface {
	Watermark() solsync.Watermark
}

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream data sources
	events  EventStore
	monitor WatermarkSource
}

func NewHttpReporter(serverIP string, serverPort string, events EventStore, monitor WatermarkSource) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		events:     events,
		monitor:    monitor,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	router.GET(ROUTE_HELLO, Hello)
	router.GET(ROUTE_MINT, h.Mint)
	router.GET(ROUTE_BURN, h.Burn)
	router.GET(ROUTE_WATERMARK, h.Watermark)
	router.GET(ROUTE_METRICS, gin.WrapH(promhttp.Handler()))

	return router
}

// Serve runs the router until ctx is cancelled.
func (h *HttpReporter) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    h.serverIP + ":" + h.serverPort,
		Handler: h.SetupRouter(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "world",
	})
}

func (h *HttpReporter) Mint(c *gin.Context) {
	sig := c.Query("signature")
	receiver := c.Query("receiver")
	if sig == "" && receiver == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either signature or receiver must be provided"})
		return
	}

	var (
		recs []bridgedb.MintRecord
		err  error
	)
	if sig != "" {
		recs, err = h.events.GetMintsBySignature(sig)
	} else {
		recs, err = h.events.GetMintsByReceiver(receiver)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(recs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No mint found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recs})
}

func (h *HttpReporter) Burn(c *gin.Context) {
	sig := c.Query("signature")
	btcAddr := c.Query("btc_addr")
	if sig == "" && btcAddr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either signature or btc_addr must be provided"})
		return
	}

	var (
		recs []bridgedb.BurnRecord
		err  error
	)
	if sig != "" {
		recs, err = h.events.GetBurnsBySignature(sig)
	} else {
		recs, err = h.events.GetBurnsByBtcAddr(btcAddr)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(recs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No burn found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recs})
}

func (h *HttpReporter) Watermark(c *gin.Context) {
	if h.monitor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "monitor not running"})
		return
	}
	wm := h.monitor.Watermark()
	if wm.IsZero() {
		c.JSON(http.StatusOK, gin.H{"signature": "", "slot": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"signature": wm.Signature.String(),
		"slot":      wm.Slot,
	})
}
