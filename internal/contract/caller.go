package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Backend executes read-only calls. *chain.Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error)
}

// PendingBackend also executes calls against the pending state.
// *chain.Client satisfies it.
type PendingBackend interface {
	Backend
	PendingCallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

// Caller calls view functions of one ABI.
type Caller struct {
	backend Backend
	abi     abi.ABI
}

// NewCaller creates a Caller for abi.
func NewCaller(b Backend, a abi.ABI) *Caller {
	return &Caller{backend: b, abi: a}
}

// Pack encodes a call to method.
func (c *Caller) Pack(method string, args ...any) ([]byte, error) {
	if _, ok := c.abi.Methods[method]; !ok {
		return nil, fmt.Errorf("function %q not found in ABI", method)
	}
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	return data, nil
}

// Call runs method on the contract at to and returns the decoded outputs.
func (c *Caller) Call(ctx context.Context, to common.Address, method string, args ...any) ([]any, error) {
	return c.call(ctx, to, method, func(msg ethereum.CallMsg) ([]byte, error) {
		return c.backend.CallContract(ctx, msg, nil)
	}, args)
}

// CallPending is Call against the pending state, so transactions still in
// the pool are visible. The backend must implement PendingBackend.
func (c *Caller) CallPending(ctx context.Context, to common.Address, method string, args ...any) ([]any, error) {
	pb, ok := c.backend.(PendingBackend)
	if !ok {
		return nil, fmt.Errorf("calling %s: backend cannot read pending state", method)
	}
	return c.call(ctx, to, method, func(msg ethereum.CallMsg) ([]byte, error) {
		return pb.PendingCallContract(ctx, msg)
	}, args)
}

func (c *Caller) call(ctx context.Context, to common.Address, method string, exec func(ethereum.CallMsg) ([]byte, error), args []any) ([]any, error) {
	m, ok := c.abi.Methods[method]
	if !ok {
		return nil, fmt.Errorf("function %q not found in ABI", method)
	}
	if !m.IsConstant() {
		return nil, fmt.Errorf("function %q is not a read function (stateMutability: %s)", method, m.StateMutability)
	}
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	raw, err := exec(ethereum.CallMsg{To: &to, Data: data})
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	if len(raw) == 0 && len(m.Outputs) > 0 {
		return nil, fmt.Errorf("calling %s: empty result (is %s a contract?)", method, to.Hex())
	}
	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", method, err)
	}
	return out, nil
}
