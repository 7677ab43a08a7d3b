package solanaman

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// newRpcServer answers json rpc calls with results[method]. A missing
// method gets an http 500.
func newRpcServer(t *testing.T, results map[string]interface{}, seen chan<- rpcRequest) *RpcLedger {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if seen != nil {
			seen <- req
		}
		result, ok := results[req.Method]
		if !ok {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
	t.Cleanup(srv.Close)
	return NewRpcLedger(srv.URL, "")
}

func TestRpcLedgerGetSignatures(t *testing.T) {
	failed := solana.Signature{1}
	ok := solana.Signature{2}
	until := solana.Signature{3}
	seen := make(chan rpcRequest, 1)

	ledger := newRpcServer(t, map[string]interface{}{
		"getSignaturesForAddress": []map[string]interface{}{
			{"signature": ok.String(), "slot": 12, "err": nil},
			{"signature": failed.String(), "slot": 11, "err": map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}},
		},
	}, seen)

	sigs, err := ledger.GetSignatures(context.Background(), solana.SystemProgramID, &SignaturesOpts{Until: until, Limit: 1000})
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	assert.Equal(t, ok, sigs[0].Signature)
	assert.Equal(t, uint64(12), sigs[0].Slot)
	assert.Nil(t, sigs[0].Err)
	assert.Equal(t, failed, sigs[1].Signature)
	assert.NotNil(t, sigs[1].Err)

	req := <-seen
	assert.Equal(t, "getSignaturesForAddress", req.Method)
	require.Len(t, req.Params, 2)
	var opts map[string]interface{}
	require.NoError(t, json.Unmarshal(req.Params[1], &opts))
	assert.Equal(t, until.String(), opts["until"])
	assert.Equal(t, float64(1000), opts["limit"])
	assert.Equal(t, string(rpc.CommitmentConfirmed), opts["commitment"])
}

func TestRpcLedgerGetAccountData(t *testing.T) {
	ledger := newRpcServer(t, map[string]interface{}{
		"getAccountInfo": map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": map[string]interface{}{
				"data":       []string{"AQID", "base64"},
				"executable": false,
				"lamports":   1,
				"owner":      solana.SystemProgramID.String(),
				"rentEpoch":  0,
			},
		},
	}, nil)

	data, err := ledger.GetAccountData(context.Background(), solana.SystemProgramID)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	missing := newRpcServer(t, map[string]interface{}{
		"getAccountInfo": map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value":   nil,
		},
	}, nil)
	_, err = missing.GetAccountData(context.Background(), solana.SystemProgramID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestRpcLedgerErrors(t *testing.T) {
	ledger := newRpcServer(t, map[string]interface{}{
		"getTransaction": nil,
	}, nil)

	_, err := ledger.GetTransaction(context.Background(), solana.Signature{9})
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	_, err = ledger.GetSignatures(context.Background(), solana.SystemProgramID, nil)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestRpcLedgerRateLimit(t *testing.T) {
	ledger := NewRpcLedger("http://127.0.0.1:1", "")
	assert.NoError(t, ledger.wait(context.Background(), "getTransaction"))

	ledger.WithRateLimit(0.001, 1)
	assert.NoError(t, ledger.wait(context.Background(), "getTransaction"))

	// the next token is far beyond the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := ledger.wait(ctx, "getTransaction")
	assert.ErrorIs(t, err, ErrTransport)

	ledger.WithRateLimit(0, 0)
	assert.NoError(t, ledger.wait(ctx, "getTransaction"))
}
