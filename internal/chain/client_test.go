package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     json.RawMessage   `json:"id"`
}

// rpcMock serves JSON-RPC from handlers keyed by method. A handler returns
// the result value; unknown methods get a method-not-found error.
func rpcMock(t *testing.T, handlers map[string]func(params []json.RawMessage) any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if h, ok := handlers[req.Method]; ok {
			resp["result"] = h(req.Params)
		} else {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fixed(v any) func([]json.RawMessage) any {
	return func([]json.RawMessage) any { return v }
}

func dial(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

const txHash = "0x3b1f0a4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708"

func receiptJSON(status string) map[string]any {
	return map[string]any{
		"transactionHash": txHash,
		"status":          status,
		"blockNumber":     "0x10",
		"gasUsed":         "0x5208",
		"feeToken":        "0x20c0000000000000000000000000000000000000",
		"feePayer":        "0x2c7536e3605d9c16a7a3d7b1898e529396a65c23",
		"logs":            []any{},
	}
}

// ---------------------------------------------------------------------------
// reads
// ---------------------------------------------------------------------------

func TestClientChainID(t *testing.T) {
	srv := rpcMock(t, map[string]func([]json.RawMessage) any{"eth_chainId": fixed("0xa5bd")})
	id, err := dial(t, srv).ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42429), id.Int64())
}

func TestClientPendingNonceAt(t *testing.T) {
	var tag string
	srv := rpcMock(t, map[string]func([]json.RawMessage) any{
		"eth_getTransactionCount": func(p []json.RawMessage) any {
			json.Unmarshal(p[1], &tag) //nolint:errcheck
			return "0x7"
		},
	})
	n, err := dial(t, srv).PendingNonceAt(context.Background(), common.HexToAddress("0x01"))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)
	assert.Equal(t, "pending", tag)
}

func TestClientCallContract(t *testing.T) {
	srv := rpcMock(t, map[string]func([]json.RawMessage) any{
		"eth_call": fixed("0x000000000000000000000000000000000000000000000000000000000000002a"),
	})
	to := common.HexToAddress("0x4E4F4E4345000000000000000000000000000000")
	out, err := dial(t, srv).CallContract(context.Background(), ethereum.CallMsg{To: &to}, nil)
	require.NoError(t, err)
	require.Len(t, out, 32)
	assert.Equal(t, byte(42), out[31])
}

func TestClientPendingCallContract(t *testing.T) {
	var tag string
	srv := rpcMock(t, map[string]func([]json.RawMessage) any{
		"eth_call": func(p []json.RawMessage) any {
			json.Unmarshal(p[1], &tag) //nolint:errcheck
			return "0x0000000000000000000000000000000000000000000000000000000000000005"
		},
	})
	to := common.HexToAddress("0x4E4F4E4345000000000000000000000000000000")
	out, err := dial(t, srv).PendingCallContract(context.Background(), ethereum.CallMsg{To: &to})
	require.NoError(t, err)
	require.Len(t, out, 32)
	assert.Equal(t, byte(5), out[31])
	assert.Equal(t, "pending", tag)
}

func TestClientRPCErrorIsWrapped(t *testing.T) {
	srv := rpcMock(t, nil)
	_, err := dial(t, srv).BlockNumber(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eth_blockNumber")
}

func TestClientPing(t *testing.T) {
	srv := rpcMock(t, map[string]func([]json.RawMessage) any{"eth_blockNumber": fixed("0x64")})
	lat, block, err := dial(t, srv).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), block)
	assert.Positive(t, lat)
}

// ---------------------------------------------------------------------------
// send / receipts
// ---------------------------------------------------------------------------

func TestSendRawTransactionPassesHex(t *testing.T) {
	var got string
	srv := rpcMock(t, map[string]func([]json.RawMessage) any{
		"eth_sendRawTransaction": func(p []json.RawMessage) any {
			json.Unmarshal(p[0], &got) //nolint:errcheck
			return txHash
		},
	})
	h, err := dial(t, srv).SendRawTransaction(context.Background(), []byte{0x76, 0xc0})
	require.NoError(t, err)
	assert.Equal(t, "0x76c0", got)
	assert.Equal(t, common.HexToHash(txHash), h)
}

func TestTransactionReceiptPending(t *testing.T) {
	srv := rpcMock(t, map[string]func([]json.RawMessage) any{"eth_getTransactionReceipt": fixed(nil)})
	r, err := dial(t, srv).TransactionReceipt(context.Background(), common.HexToHash(txHash))
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestTransactionReceiptDecodesFeeFields(t *testing.T) {
	srv := rpcMock(t, map[string]func([]json.RawMessage) any{"eth_getTransactionReceipt": fixed(receiptJSON("0x1"))})
	r, err := dial(t, srv).TransactionReceipt(context.Background(), common.HexToHash(txHash))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, uint64(1), r.Status)
	assert.Equal(t, uint64(16), r.BlockNumber)
	assert.Equal(t, uint64(21000), r.GasUsed)
	require.NotNil(t, r.FeeToken)
	assert.Equal(t, PathUSDAddress, *r.FeeToken)
	require.NotNil(t, r.FeePayer)
}

func withFastPolling(t *testing.T) {
	t.Helper()
	old := receiptPollInterval
	receiptPollInterval = 5 * time.Millisecond
	t.Cleanup(func() { receiptPollInterval = old })
}

func TestWaitForReceiptPollsUntilMined(t *testing.T) {
	withFastPolling(t)
	var calls atomic.Int32
	srv := rpcMock(t, map[string]func([]json.RawMessage) any{
		"eth_getTransactionReceipt": func([]json.RawMessage) any {
			if calls.Add(1) < 3 {
				return nil
			}
			return receiptJSON("0x1")
		},
	})
	r, err := dial(t, srv).WaitForReceipt(context.Background(), common.HexToHash(txHash), time.Second)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestWaitForReceiptReverted(t *testing.T) {
	withFastPolling(t)
	srv := rpcMock(t, map[string]func([]json.RawMessage) any{"eth_getTransactionReceipt": fixed(receiptJSON("0x0"))})
	r, err := dial(t, srv).WaitForReceipt(context.Background(), common.HexToHash(txHash), time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reverted")
	require.NotNil(t, r)
	assert.Equal(t, uint64(0), r.Status)
}

func TestWaitForReceiptTimesOut(t *testing.T) {
	withFastPolling(t)
	srv := rpcMock(t, map[string]func([]json.RawMessage) any{"eth_getTransactionReceipt": fixed(nil)})
	_, err := dial(t, srv).WaitForReceipt(context.Background(), common.HexToHash(txHash), 30*time.Millisecond)
	require.Error(t, err)
}
