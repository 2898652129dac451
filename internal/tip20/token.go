package tip20

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/tempoxyz/tempo-cli/internal/contract"
	"github.com/tempoxyz/tempo-cli/internal/tempotx"
)

// Token is a handle on one TIP20 token contract.
type Token struct {
	Address common.Address
	caller  *contract.Caller
}

// New returns a Token at addr. Reads go through b.
func New(addr common.Address, b contract.Backend) *Token {
	return &Token{Address: addr, caller: contract.NewCaller(b, builtin.ABI)}
}

// Metadata is the static description of a token.
type Metadata struct {
	Name             string
	Symbol           string
	Decimals         uint8
	Currency         string
	TotalSupply      *big.Int
	SupplyCap        *big.Int
	QuoteToken       common.Address
	NextQuoteToken   common.Address
	Paused           bool
	TransferPolicyID uint64
}

// ---------------------------------------------------------------------------
// reads
// ---------------------------------------------------------------------------

func read[T any](ctx context.Context, t *Token, method string, args ...any) (T, error) {
	var zero T
	out, err := t.caller.Call(ctx, t.Address, method, args...)
	if err != nil {
		return zero, err
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, fmt.Errorf("%s returned %T", method, out[0])
	}
	return v, nil
}

func (t *Token) Name(ctx context.Context) (string, error)   { return read[string](ctx, t, "name") }
func (t *Token) Symbol(ctx context.Context) (string, error) { return read[string](ctx, t, "symbol") }
func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	return read[uint8](ctx, t, "decimals")
}
func (t *Token) Currency(ctx context.Context) (string, error) {
	return read[string](ctx, t, "currency")
}
func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	return read[*big.Int](ctx, t, "totalSupply")
}
func (t *Token) SupplyCap(ctx context.Context) (*big.Int, error) {
	return read[*big.Int](ctx, t, "supplyCap")
}
func (t *Token) QuoteToken(ctx context.Context) (common.Address, error) {
	return read[common.Address](ctx, t, "quoteToken")
}
func (t *Token) NextQuoteToken(ctx context.Context) (common.Address, error) {
	return read[common.Address](ctx, t, "nextQuoteToken")
}
func (t *Token) Paused(ctx context.Context) (bool, error) { return read[bool](ctx, t, "paused") }
func (t *Token) TransferPolicyID(ctx context.Context) (uint64, error) {
	return read[uint64](ctx, t, "transferPolicyId")
}

// BalanceOf returns account's balance in base units.
func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return read[*big.Int](ctx, t, "balanceOf", account)
}

// Allowance returns how much spender may move on behalf of owner.
func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return read[*big.Int](ctx, t, "allowance", owner, spender)
}

// HasRole reports whether account holds role.
func (t *Token) HasRole(ctx context.Context, account common.Address, role common.Hash) (bool, error) {
	return read[bool](ctx, t, "hasRole", account, role)
}

// RoleAdmin returns the role that administers role.
func (t *Token) RoleAdmin(ctx context.Context, role common.Hash) (common.Hash, error) {
	b, err := read[[32]byte](ctx, t, "getRoleAdmin", role)
	return common.Hash(b), err
}

// Metadata fetches all descriptive fields concurrently.
func (t *Token) Metadata(ctx context.Context) (*Metadata, error) {
	var m Metadata
	g, ctx := errgroup.WithContext(ctx)
	fetch := func(fn func() error) { g.Go(fn) }

	fetch(func() (err error) { m.Name, err = t.Name(ctx); return })
	fetch(func() (err error) { m.Symbol, err = t.Symbol(ctx); return })
	fetch(func() (err error) { m.Decimals, err = t.Decimals(ctx); return })
	fetch(func() (err error) { m.Currency, err = t.Currency(ctx); return })
	fetch(func() (err error) { m.TotalSupply, err = t.TotalSupply(ctx); return })
	fetch(func() (err error) { m.SupplyCap, err = t.SupplyCap(ctx); return })
	fetch(func() (err error) { m.QuoteToken, err = t.QuoteToken(ctx); return })
	fetch(func() (err error) { m.NextQuoteToken, err = t.NextQuoteToken(ctx); return })
	fetch(func() (err error) { m.Paused, err = t.Paused(ctx); return })
	fetch(func() (err error) { m.TransferPolicyID, err = t.TransferPolicyID(ctx); return })

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reading token %s: %w", t.Address.Hex(), err)
	}
	return &m, nil
}

// ---------------------------------------------------------------------------
// call builders
// ---------------------------------------------------------------------------

func (t *Token) call(method string, args ...any) (tempotx.Call, error) {
	data, err := t.caller.Pack(method, args...)
	if err != nil {
		return tempotx.Call{}, err
	}
	return tempotx.Call{To: t.Address, Value: new(big.Int), Input: data}, nil
}

func (t *Token) Transfer(to common.Address, amount *big.Int) (tempotx.Call, error) {
	return t.call("transfer", to, amount)
}

func (t *Token) TransferWithMemo(to common.Address, amount *big.Int, memo common.Hash) (tempotx.Call, error) {
	return t.call("transferWithMemo", to, amount, memo)
}

func (t *Token) TransferFrom(from, to common.Address, amount *big.Int) (tempotx.Call, error) {
	return t.call("transferFrom", from, to, amount)
}

func (t *Token) TransferFromWithMemo(from, to common.Address, amount *big.Int, memo common.Hash) (tempotx.Call, error) {
	return t.call("transferFromWithMemo", from, to, amount, memo)
}

func (t *Token) Approve(spender common.Address, amount *big.Int) (tempotx.Call, error) {
	return t.call("approve", spender, amount)
}

// Mint requires ISSUER_ROLE.
func (t *Token) Mint(to common.Address, amount *big.Int) (tempotx.Call, error) {
	return t.call("mint", to, amount)
}

func (t *Token) MintWithMemo(to common.Address, amount *big.Int, memo common.Hash) (tempotx.Call, error) {
	return t.call("mintWithMemo", to, amount, memo)
}

// Burn destroys amount from the caller's balance. Requires ISSUER_ROLE.
func (t *Token) Burn(amount *big.Int) (tempotx.Call, error) {
	return t.call("burn", amount)
}

func (t *Token) BurnWithMemo(amount *big.Int, memo common.Hash) (tempotx.Call, error) {
	return t.call("burnWithMemo", amount, memo)
}

// BurnBlocked burns from an address the transfer policy blocks.
// Requires BURN_BLOCKED_ROLE.
func (t *Token) BurnBlocked(from common.Address, amount *big.Int) (tempotx.Call, error) {
	return t.call("burnBlocked", from, amount)
}

func (t *Token) Pause() (tempotx.Call, error)   { return t.call("pause") }
func (t *Token) Unpause() (tempotx.Call, error) { return t.call("unpause") }

func (t *Token) ChangeTransferPolicyID(id uint64) (tempotx.Call, error) {
	return t.call("changeTransferPolicyId", id)
}

func (t *Token) SetSupplyCap(limit *big.Int) (tempotx.Call, error) {
	return t.call("setSupplyCap", limit)
}

// UpdateQuoteToken stages a new quote token; FinalizeQuoteTokenUpdate
// makes it current.
func (t *Token) UpdateQuoteToken(quote common.Address) (tempotx.Call, error) {
	return t.call("updateQuoteToken", quote)
}

func (t *Token) FinalizeQuoteTokenUpdate() (tempotx.Call, error) {
	return t.call("finalizeQuoteTokenUpdate")
}

func (t *Token) GrantRole(role common.Hash, account common.Address) (tempotx.Call, error) {
	return t.call("grantRole", role, account)
}

func (t *Token) RevokeRole(role common.Hash, account common.Address) (tempotx.Call, error) {
	return t.call("revokeRole", role, account)
}

func (t *Token) RenounceRole(role common.Hash) (tempotx.Call, error) {
	return t.call("renounceRole", role)
}

func (t *Token) SetRoleAdmin(role, admin common.Hash) (tempotx.Call, error) {
	return t.call("setRoleAdmin", role, admin)
}
