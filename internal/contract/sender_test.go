package contract

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tempoxyz/tempo-cli/internal/account"
	"github.com/tempoxyz/tempo-cli/internal/config"
	"github.com/tempoxyz/tempo-cli/internal/noncekey"
	"github.com/tempoxyz/tempo-cli/internal/tempotx"
)

const testKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

var (
	chainID   = big.NewInt(42429)
	tokenAddr = common.HexToAddress("0x20c0000000000000000000000000000000000001")
)

func testAccount(t *testing.T) account.Account {
	t.Helper()
	a, err := account.FromSecp256k1(testKey)
	require.NoError(t, err)
	return a
}

func call() tempotx.Call {
	return tempotx.Call{To: tokenAddr, Input: []byte{0xa9, 0x05, 0x9c, 0xbb}}
}

// manualTimers captures reset callbacks instead of running them.
type manualTimers struct {
	mu     sync.Mutex
	delays []time.Duration
	fns    []func()
}

func (m *manualTimers) afterFunc(d time.Duration, f func()) *time.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays = append(m.delays, d)
	m.fns = append(m.fns, f)
	return time.NewTimer(time.Hour)
}

func (m *manualTimers) fire(t *testing.T) {
	t.Helper()
	m.mu.Lock()
	fns := m.fns
	m.fns = nil
	m.mu.Unlock()
	require.NotEmpty(t, fns)
	for _, f := range fns {
		f()
	}
}

// ---------------------------------------------------------------------------
// protocol mode
// ---------------------------------------------------------------------------

func TestSendProtocolMode(t *testing.T) {
	b := newFakeBackend()
	b.pending = 4
	s := NewSender(b, chainID, testAccount(t))
	assert.Equal(t, NonceModeProtocol, s.Mode())

	sub, err := s.Send(context.Background(), call())
	require.NoError(t, err)
	assert.True(t, sub.NonceKey.IsZero())
	assert.Equal(t, uint64(4), sub.Nonce)

	require.Len(t, b.sent, 1)
	tx := b.sent[0]
	assert.Equal(t, uint64(50_000), tx.Gas)
	assert.Equal(t, big.NewInt(10_000_000_000), tx.GasTipCap)
	assert.Equal(t, big.NewInt(20_000_000_000), tx.GasFeeCap)
	assert.Nil(t, tx.FeeToken)
	assert.Empty(t, b.nonceCall, "key 0 must not query the NonceManager")

	h, err := sub.Tx.Hash()
	require.NoError(t, err)
	assert.Equal(t, h, sub.Hash)
}

func TestSendRequiresCalls(t *testing.T) {
	s := NewSender(newFakeBackend(), chainID, testAccount(t))
	_, err := s.Send(context.Background())
	assert.ErrorIs(t, err, tempotx.ErrNoCalls)
}

func TestSendGasFallback(t *testing.T) {
	b := newFakeBackend()
	b.estimateErr = errors.New("execution reverted")
	s := NewSender(b, chainID, testAccount(t))

	_, err := s.Send(context.Background(), call(), call())
	require.NoError(t, err)
	want := 2*config.GasLimitContractCall + config.GasPerExtraCall
	assert.Equal(t, want, b.sent[0].Gas)
}

func TestSendFixedGasAndFeeToken(t *testing.T) {
	b := newFakeBackend()
	fee := common.HexToAddress("0x20c0000000000000000000000000000000000000")
	s := NewSender(b, chainID, testAccount(t), WithGasLimit(123_456), WithFeeToken(fee))

	_, err := s.Send(context.Background(), call())
	require.NoError(t, err)
	assert.Equal(t, uint64(123_456), b.sent[0].Gas)
	require.NotNil(t, b.sent[0].FeeToken)
	assert.Equal(t, fee, *b.sent[0].FeeToken)
}

func TestSendBroadcastError(t *testing.T) {
	b := newFakeBackend()
	b.sendErr = errors.New("nonce too low")
	s := NewSender(b, chainID, testAccount(t))

	_, err := s.Send(context.Background(), call())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonce too low")
}

// ---------------------------------------------------------------------------
// parallel mode
// ---------------------------------------------------------------------------

func TestSendParallelAllocatesSequentialKeys(t *testing.T) {
	b := newFakeBackend()
	b.pending = 9
	b.keyNonces[1] = 3
	timers := &manualTimers{}

	s := NewSender(b, chainID, testAccount(t), WithNonceStore(noncekey.New()))
	s.afterFunc = timers.afterFunc
	assert.Equal(t, NonceModeParallel, s.Mode())

	var keys, nonces []uint64
	for range 3 {
		sub, err := s.Send(context.Background(), call())
		require.NoError(t, err)
		keys = append(keys, sub.NonceKey.Uint64())
		nonces = append(nonces, sub.Nonce)
	}
	assert.Equal(t, []uint64{0, 1, 2}, keys)
	assert.Equal(t, []uint64{9, 3, 0}, nonces)
	assert.Equal(t, []uint64{1, 2}, b.nonceCall)
}

func TestSendParallelUsesPendingKeySequence(t *testing.T) {
	b := newFakeBackend()
	b.mined[1] = 2
	b.keyNonces[1] = 4

	s := NewSender(b, chainID, testAccount(t), WithNonceStore(noncekey.New()), WithResetDelay(0))
	_, err := s.Send(context.Background(), call())
	require.NoError(t, err)
	sub, err := s.Send(context.Background(), call())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), sub.NonceKey.Uint64())
	assert.Equal(t, uint64(4), sub.Nonce, "pending sequence, not the mined one")
	assert.Zero(t, b.latestCalls)
}

func TestSendParallelFreshStoreSkipsUnminedSequences(t *testing.T) {
	b := newFakeBackend()
	acct := testAccount(t)

	// Two runs, each with its own store, before anything is mined.
	var subs []*Submitted
	for range 2 {
		s := NewSender(b, chainID, acct, WithNonceStore(noncekey.New()), WithResetDelay(0))
		for range 2 {
			sub, err := s.Send(context.Background(), call())
			require.NoError(t, err)
			subs = append(subs, sub)
		}
	}

	type slot struct{ key, seq uint64 }
	seen := make(map[slot]bool)
	for _, sub := range subs {
		k := slot{sub.NonceKey.Uint64(), sub.Nonce}
		assert.False(t, seen[k], "key %d sequence %d signed twice", k.key, k.seq)
		seen[k] = true
	}
	assert.Equal(t, uint64(1), subs[3].NonceKey.Uint64())
	assert.Equal(t, uint64(1), subs[3].Nonce)
}

func TestSendParallelSchedulesOneReset(t *testing.T) {
	b := newFakeBackend()
	store := noncekey.New()
	timers := &manualTimers{}

	s := NewSender(b, chainID, testAccount(t), WithNonceStore(store), WithResetDelay(45*time.Second))
	s.afterFunc = timers.afterFunc

	for range 3 {
		_, err := s.Send(context.Background(), call())
		require.NoError(t, err)
	}
	require.Len(t, timers.delays, 1, "reset is armed once per cycle")
	assert.Equal(t, 45*time.Second, timers.delays[0])

	p := noncekey.Params{Address: s.Address().Hex(), ChainID: chainID.Uint64()}
	assert.True(t, store.Entry(p).ResetScheduled())

	timers.fire(t)
	assert.False(t, store.Entry(p).ResetScheduled())
	assert.Zero(t, store.Entry(p).Counter())

	sub, err := s.Send(context.Background(), call())
	require.NoError(t, err)
	assert.True(t, sub.NonceKey.IsZero(), "keys restart at 0 after reset")
	assert.Len(t, timers.delays, 2, "next cycle arms a new reset")
}

func TestSendParallelZeroDelayNeverResets(t *testing.T) {
	b := newFakeBackend()
	store := noncekey.New()
	timers := &manualTimers{}

	s := NewSender(b, chainID, testAccount(t), WithNonceStore(store), WithResetDelay(0))
	s.afterFunc = timers.afterFunc

	for range 2 {
		_, err := s.Send(context.Background(), call())
		require.NoError(t, err)
	}
	assert.Empty(t, timers.delays)
	p := noncekey.Params{Address: s.Address().Hex(), ChainID: chainID.Uint64()}
	assert.False(t, store.Entry(p).ResetScheduled())
}

func TestSendParallelSharedStoreDistinctKeys(t *testing.T) {
	b := newFakeBackend()
	store := noncekey.New()
	acct := testAccount(t)

	const n = 16
	subs := make([]*Submitted, n)
	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			s := NewSender(b, chainID, acct, WithNonceStore(store), WithResetDelay(0))
			sub, err := s.Send(context.Background(), call())
			subs[i] = sub
			return err
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[uint64]bool)
	for _, sub := range subs {
		k := sub.NonceKey.Uint64()
		assert.False(t, seen[k], "key %d reused", k)
		seen[k] = true
	}
	assert.Len(t, seen, n)
}

func TestSendParallelOtherChainIndependent(t *testing.T) {
	b := newFakeBackend()
	store := noncekey.New()
	acct := testAccount(t)

	a := NewSender(b, chainID, acct, WithNonceStore(store), WithResetDelay(0))
	other := NewSender(b, big.NewInt(1337), acct, WithNonceStore(store), WithResetDelay(0))

	_, err := a.Send(context.Background(), call())
	require.NoError(t, err)
	sub, err := other.Send(context.Background(), call())
	require.NoError(t, err)
	assert.True(t, sub.NonceKey.IsZero())
}

func TestCloseStopsTimers(t *testing.T) {
	b := newFakeBackend()
	s := NewSender(b, chainID, testAccount(t), WithNonceStore(noncekey.New()), WithResetDelay(time.Hour))
	_, err := s.Send(context.Background(), call())
	require.NoError(t, err)
	require.Len(t, s.timers, 1)
	s.Close()
	assert.Empty(t, s.timers)
}
