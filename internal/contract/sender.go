package contract

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/tempoxyz/tempo-cli/internal/account"
	"github.com/tempoxyz/tempo-cli/internal/config"
	"github.com/tempoxyz/tempo-cli/internal/log"
	"github.com/tempoxyz/tempo-cli/internal/noncekey"
	"github.com/tempoxyz/tempo-cli/internal/tempotx"
)

// SenderBackend is the chain access a Sender needs. *chain.Client satisfies it.
type SenderBackend interface {
	PendingBackend
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
}

// NonceMode selects how a Sender picks the nonce key of each transaction.
type NonceMode int

const (
	// NonceModeProtocol sends everything on nonce key 0, one at a time.
	NonceModeProtocol NonceMode = iota
	// NonceModeParallel gives each transaction its own nonce key from a
	// noncekey.Store so that concurrent sends do not collide.
	NonceModeParallel
)

func (m NonceMode) String() string {
	if m == NonceModeParallel {
		return "parallel"
	}
	return "protocol"
}

// Submitted describes a broadcast transaction.
type Submitted struct {
	Hash     common.Hash
	NonceKey *uint256.Int
	Nonce    uint64
	Tx       *tempotx.Transaction
}

// Sender signs and broadcasts Tempo transactions for one account on one chain.
type Sender struct {
	backend    SenderBackend
	chainID    *big.Int
	account    account.Account
	mode       NonceMode
	store      *noncekey.Store
	feeToken   *common.Address
	resetDelay time.Duration
	gasLimit   uint64
	afterFunc  func(time.Duration, func()) *time.Timer
	log        zerolog.Logger

	mu     sync.Mutex
	timers []*time.Timer
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithNonceStore switches the Sender to NonceModeParallel using store.
// Senders that share a store never pick the same key for the same account
// and chain.
func WithNonceStore(store *noncekey.Store) SenderOption {
	return func(s *Sender) {
		s.mode = NonceModeParallel
		s.store = store
	}
}

// WithFeeToken pays fees in token instead of letting the chain choose.
func WithFeeToken(token common.Address) SenderOption {
	return func(s *Sender) { s.feeToken = &token }
}

// WithResetDelay sets how long after the first parallel broadcast the
// account's nonce-key counter is reset to 0. Zero never resets.
func WithResetDelay(d time.Duration) SenderOption {
	return func(s *Sender) { s.resetDelay = d }
}

// WithGasLimit skips estimation and uses gas for every transaction.
func WithGasLimit(gas uint64) SenderOption {
	return func(s *Sender) { s.gasLimit = gas }
}

// NewSender creates a Sender. Without WithNonceStore it uses NonceModeProtocol.
func NewSender(b SenderBackend, chainID *big.Int, acct account.Account, opts ...SenderOption) *Sender {
	s := &Sender{
		backend:    b,
		chainID:    chainID,
		account:    acct,
		resetDelay: config.DefaultNonceKeyResetDelay,
		afterFunc:  time.AfterFunc,
		log:        log.WithComponent("sender"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mode == NonceModeParallel && s.store == nil {
		s.store = noncekey.New()
	}
	return s
}

// Mode reports the nonce mode in use.
func (s *Sender) Mode() NonceMode { return s.mode }

// Address is the sending account.
func (s *Sender) Address() common.Address { return s.account.Address() }

// Send signs calls into one transaction and broadcasts it.
func (s *Sender) Send(ctx context.Context, calls ...tempotx.Call) (*Submitted, error) {
	if len(calls) == 0 {
		return nil, tempotx.ErrNoCalls
	}
	from := s.account.Address()

	key, nonce, err := s.nextNonce(ctx, from)
	if err != nil {
		return nil, err
	}

	gas, err := s.gas(ctx, from, calls)
	if err != nil {
		return nil, err
	}

	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}

	tx := &tempotx.Transaction{
		ChainID:   s.chainID,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		Calls:     calls,
		NonceKey:  key,
		Nonce:     nonce,
		FeeToken:  s.feeToken,
	}
	signed, err := tx.Sign(ctx, s.account)
	if err != nil {
		return nil, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, err
	}
	hash, err := s.backend.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("broadcasting transaction: %w", err)
	}

	s.log.Debug().
		Str("tx", hash.Hex()).
		Str("nonce_key", key.Dec()).
		Uint64("nonce", nonce).
		Int("calls", len(calls)).
		Msg("sent")

	if s.mode == NonceModeParallel {
		s.scheduleReset(from)
	}
	return &Submitted{Hash: hash, NonceKey: key, Nonce: nonce, Tx: signed}, nil
}

// nextNonce picks the nonce key and its current sequence number.
func (s *Sender) nextNonce(ctx context.Context, from common.Address) (*uint256.Int, uint64, error) {
	key := new(uint256.Int)
	if s.mode == NonceModeParallel {
		key.SetUint64(s.store.NonceKey(s.params(from)))
	}
	if key.IsZero() {
		n, err := s.backend.PendingNonceAt(ctx, from)
		if err != nil {
			return nil, 0, fmt.Errorf("getting nonce: %w", err)
		}
		return key, n, nil
	}
	n, err := NonceOf(ctx, s.backend, from, key)
	if err != nil {
		return nil, 0, err
	}
	return key, n, nil
}

func (s *Sender) gas(ctx context.Context, from common.Address, calls []tempotx.Call) (uint64, error) {
	if s.gasLimit > 0 {
		return s.gasLimit, nil
	}
	var total uint64
	for i, c := range calls {
		to := c.To
		g, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: c.Value, Data: c.Input})
		if err != nil {
			s.log.Debug().Err(err).Int("call", i).Msg("gas estimate failed, using fallback")
			g = config.GasLimitContractCall
		}
		total += g
		if i > 0 {
			total += config.GasPerExtraCall
		}
	}
	return total, nil
}

// scheduleReset arms the counter reset once per allocation cycle.
func (s *Sender) scheduleReset(from common.Address) {
	p := s.params(from)
	if s.resetDelay <= 0 || !s.store.MarkResetScheduled(p) {
		return
	}
	t := s.afterFunc(s.resetDelay, func() {
		s.store.Reset(p)
		s.log.Debug().Str("account", p.Address).Uint64("chain_id", p.ChainID).Msg("nonce keys reset")
	})
	s.mu.Lock()
	s.timers = append(s.timers, t)
	s.mu.Unlock()
}

// Close stops pending reset timers.
func (s *Sender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		if t != nil {
			t.Stop()
		}
	}
	s.timers = nil
}

func (s *Sender) params(from common.Address) noncekey.Params {
	return noncekey.Params{Address: from.Hex(), ChainID: s.chainID.Uint64()}
}
