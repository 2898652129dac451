package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"

	"github.com/tempoxyz/tempo-cli/internal/log"
)

// receiptPollInterval is how often WaitForReceipt asks for the receipt.
var receiptPollInterval = 2 * time.Second

// Client is a JSON-RPC client for a Tempo node.
type Client struct {
	url string
	eth *ethclient.Client
	rpc *rpc.Client
	log zerolog.Logger
}

// Receipt holds the fields of a transaction receipt tempo cares about.
// Tempo receipts carry a fee token and payer that go-ethereum's types.Receipt
// does not model, so receipts are decoded here.
type Receipt struct {
	TxHash      common.Hash
	Status      uint64 // 1 = success, 0 = reverted
	BlockNumber uint64
	GasUsed     uint64
	FeeToken    *common.Address
	FeePayer    *common.Address
	Logs        []types.Log
}

type rpcReceipt struct {
	TxHash      common.Hash     `json:"transactionHash"`
	Status      hexutil.Uint64  `json:"status"`
	BlockNumber hexutil.Uint64  `json:"blockNumber"`
	GasUsed     hexutil.Uint64  `json:"gasUsed"`
	FeeToken    *common.Address `json:"feeToken"`
	FeePayer    *common.Address `json:"feePayer"`
	Logs        []types.Log     `json:"logs"`
}

// Dial connects to the node at url.
func Dial(ctx context.Context, url string) (*Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return &Client{
		url: url,
		eth: ethclient.NewClient(rc),
		rpc: rc,
		log: log.WithComponent("chain").With().Str("rpc", url).Logger(),
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() { c.rpc.Close() }

// URL returns the endpoint this client talks to.
func (c *Client) URL() string { return c.url }

// ChainID returns the chain's ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_chainId: %w", err)
	}
	return id, nil
}

// BlockNumber returns the latest block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w", err)
	}
	return n, nil
}

// PendingNonceAt returns the protocol nonce (nonce key 0) including pending transactions.
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	n, err := c.eth.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("eth_getTransactionCount: %w", err)
	}
	return n, nil
}

// SuggestGasPrice returns the node's gas price suggestion.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	gp, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_gasPrice: %w", err)
	}
	return gp, nil
}

// EstimateGas estimates the gas needed for msg.
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	g, err := c.eth.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("eth_estimateGas: %w", err)
	}
	return g, nil
}

// CallContract executes a read-only call at block (nil = latest).
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	out, err := c.eth.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("eth_call: %w", err)
	}
	return out, nil
}

// PendingCallContract executes a read-only call against the pending state.
func (c *Client) PendingCallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	out, err := c.eth.PendingCallContract(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("eth_call: %w", err)
	}
	return out, nil
}

// FilterLogs returns logs matching q.
func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	logs, err := c.eth.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("eth_getLogs: %w", err)
	}
	return logs, nil
}

// SendRawTransaction broadcasts a signed envelope. ethclient.SendTransaction
// only accepts go-ethereum transaction types, so the raw call is made directly.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendRawTransaction: %w", err)
	}
	c.log.Debug().Str("tx", hash.Hex()).Msg("broadcast")
	return hash, nil
}

// TransactionReceipt fetches the receipt for hash. It returns nil, nil while
// the transaction is still pending.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var r *rpcReceipt
	if err := c.rpc.CallContext(ctx, &r, "eth_getTransactionReceipt", hash); err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt: %w", err)
	}
	if r == nil {
		return nil, nil
	}
	return &Receipt{
		TxHash:      r.TxHash,
		Status:      uint64(r.Status),
		BlockNumber: uint64(r.BlockNumber),
		GasUsed:     uint64(r.GasUsed),
		FeeToken:    r.FeeToken,
		FeePayer:    r.FeePayer,
		Logs:        r.Logs,
	}, nil
}

// WaitForReceipt polls until the transaction is mined or timeout expires.
// A reverted transaction returns its receipt together with an error.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()
	for {
		r, err := c.TransactionReceipt(ctx, hash)
		if err != nil {
			return nil, err
		}
		if r != nil {
			if r.Status == types.ReceiptStatusFailed {
				return r, fmt.Errorf("transaction reverted (hash: %s)", hash.Hex())
			}
			return r, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not mined within %s", hash.Hex(), timeout)
		case <-ticker.C:
		}
	}
}

// Ping measures round-trip latency with eth_blockNumber.
func (c *Client) Ping(ctx context.Context) (latency time.Duration, blockNum uint64, err error) {
	start := time.Now()
	blockNum, err = c.BlockNumber(ctx)
	return time.Since(start), blockNum, err
}
