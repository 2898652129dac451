package contract

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/tempoxyz/tempo-cli/internal/chain"
	"github.com/tempoxyz/tempo-cli/internal/tempotx"
)

// fakeBackend is an in-memory SenderBackend. Broadcasts only reach the
// pending state; mined holds what a latest-block read sees.
type fakeBackend struct {
	mu sync.Mutex

	pending     uint64
	keyNonces   map[uint64]uint64 // nonce key -> next pending sequence
	mined       map[uint64]uint64 // nonce key -> next sequence at latest
	gasPrice    *big.Int
	estimate    uint64
	estimateErr error
	sendErr     error
	callResult  []byte // overrides the NonceManager when set

	sent        []*tempotx.Transaction
	nonceCall   []uint64 // nonce keys queried at the pending state
	latestCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		keyNonces: make(map[uint64]uint64),
		mined:     make(map[uint64]uint64),
		gasPrice:  big.NewInt(10_000_000_000),
		estimate:  50_000,
	}
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latestCalls++
	return f.getNonce(msg, f.mined, nil)
}

func (f *fakeBackend) PendingCallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getNonce(msg, f.keyNonces, &f.nonceCall)
}

func (f *fakeBackend) getNonce(msg ethereum.CallMsg, nonces map[uint64]uint64, record *[]uint64) ([]byte, error) {
	if f.callResult != nil {
		return f.callResult, nil
	}
	if msg.To == nil || *msg.To != chain.NonceManagerAddress {
		return nil, errors.New("unexpected call target")
	}
	m := nonceManager.ABI.Methods["getNonce"]
	args, err := m.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	key := args[1].(*big.Int).Uint64()
	if record != nil {
		*record = append(*record, key)
	}
	return m.Outputs.Pack(nonces[key])
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.gasPrice), nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return f.estimate, nil
}

func (f *fakeBackend) SendRawTransaction(_ context.Context, raw []byte) (common.Hash, error) {
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	tx, err := tempotx.Decode(raw)
	if err != nil {
		return common.Hash{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	key := new(uint256.Int)
	if tx.NonceKey != nil {
		key = tx.NonceKey
	}
	if key.IsZero() {
		f.pending++
	} else {
		f.keyNonces[key.Uint64()]++
	}
	h, err := tx.Hash()
	return h, err
}
