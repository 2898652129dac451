// Package tempotx encodes and signs Tempo transactions (EIP-2718 type 0x76):
// batched calls, a 2D nonce (nonce key + sequence) and an optional fee token.
package tempotx

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// TxType is the EIP-2718 envelope type of a Tempo transaction.
const TxType byte = 0x76

// Errors.
var (
	ErrNoCalls        = errors.New("transaction has no calls")
	ErrMissingChainID = errors.New("transaction has no chain id")
	ErrUnsigned       = errors.New("transaction is not signed")
)

// Signer produces a signature envelope over a transaction hash.
// account.Account satisfies it.
type Signer interface {
	SignHash(ctx context.Context, hash common.Hash) ([]byte, error)
}

// Call is one contract call inside a transaction.
type Call struct {
	To    common.Address
	Value *big.Int
	Input []byte
}

// Transaction is an unsigned or signed Tempo transaction.
type Transaction struct {
	ChainID     *big.Int
	GasTipCap   *big.Int // max priority fee per gas
	GasFeeCap   *big.Int // max fee per gas
	Gas         uint64
	Calls       []Call
	AccessList  types.AccessList
	NonceKey    *uint256.Int // 0 selects the protocol nonce
	Nonce       uint64
	ValidBefore uint64 // unix seconds, 0 = unbounded
	ValidAfter  uint64
	FeeToken    *common.Address // nil lets the chain pick the fee token

	Signature []byte
}

// rlpCall mirrors Call with non-nil integer fields.
type rlpCall struct {
	To    common.Address
	Value *big.Int
	Input []byte
}

// rlpFields is the field list shared by the signing payload and the
// signed envelope.
type rlpFields struct {
	ChainID           *big.Int
	GasTipCap         *big.Int
	GasFeeCap         *big.Int
	Gas               uint64
	Calls             []rlpCall
	AccessList        types.AccessList
	NonceKey          *uint256.Int
	Nonce             uint64
	ValidBefore       uint64
	ValidAfter        uint64
	FeeToken          []byte
	FeePayerSignature []byte
}

type rlpSigned struct {
	ChainID           *big.Int
	GasTipCap         *big.Int
	GasFeeCap         *big.Int
	Gas               uint64
	Calls             []rlpCall
	AccessList        types.AccessList
	NonceKey          *uint256.Int
	Nonce             uint64
	ValidBefore       uint64
	ValidAfter        uint64
	FeeToken          []byte
	FeePayerSignature []byte
	Signature         []byte
}

func (f rlpFields) signed(sig []byte) rlpSigned {
	return rlpSigned{
		ChainID:           f.ChainID,
		GasTipCap:         f.GasTipCap,
		GasFeeCap:         f.GasFeeCap,
		Gas:               f.Gas,
		Calls:             f.Calls,
		AccessList:        f.AccessList,
		NonceKey:          f.NonceKey,
		Nonce:             f.Nonce,
		ValidBefore:       f.ValidBefore,
		ValidAfter:        f.ValidAfter,
		FeeToken:          f.FeeToken,
		FeePayerSignature: f.FeePayerSignature,
		Signature:         sig,
	}
}

func (tx *Transaction) fields() (rlpFields, error) {
	if tx.ChainID == nil || tx.ChainID.Sign() <= 0 {
		return rlpFields{}, ErrMissingChainID
	}
	if len(tx.Calls) == 0 {
		return rlpFields{}, ErrNoCalls
	}
	calls := make([]rlpCall, len(tx.Calls))
	for i, c := range tx.Calls {
		calls[i] = rlpCall{To: c.To, Value: orZero(c.Value), Input: c.Input}
	}
	key := tx.NonceKey
	if key == nil {
		key = new(uint256.Int)
	}
	var feeToken []byte
	if tx.FeeToken != nil {
		feeToken = tx.FeeToken.Bytes()
	}
	al := tx.AccessList
	if al == nil {
		al = types.AccessList{}
	}
	return rlpFields{
		ChainID:     tx.ChainID,
		GasTipCap:   orZero(tx.GasTipCap),
		GasFeeCap:   orZero(tx.GasFeeCap),
		Gas:         tx.Gas,
		Calls:       calls,
		AccessList:  al,
		NonceKey:    key,
		Nonce:       tx.Nonce,
		ValidBefore: tx.ValidBefore,
		ValidAfter:  tx.ValidAfter,
		FeeToken:    feeToken,
	}, nil
}

// SigningHash is keccak256(0x76 || rlp(fields)).
func (tx *Transaction) SigningHash() (common.Hash, error) {
	f, err := tx.fields()
	if err != nil {
		return common.Hash{}, err
	}
	payload, err := rlp.EncodeToBytes(f)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding transaction: %w", err)
	}
	return crypto.Keccak256Hash([]byte{TxType}, payload), nil
}

// Sign returns a copy of tx carrying signer's signature.
func (tx *Transaction) Sign(ctx context.Context, signer Signer) (*Transaction, error) {
	h, err := tx.SigningHash()
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignHash(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	cpy := *tx
	cpy.Calls = append([]Call(nil), tx.Calls...)
	cpy.Signature = sig
	return &cpy, nil
}

// MarshalBinary returns 0x76 || rlp(fields ++ [signature]).
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	if len(tx.Signature) == 0 {
		return nil, ErrUnsigned
	}
	f, err := tx.fields()
	if err != nil {
		return nil, err
	}
	payload, err := rlp.EncodeToBytes(f.signed(tx.Signature))
	if err != nil {
		return nil, fmt.Errorf("encoding transaction: %w", err)
	}
	return append([]byte{TxType}, payload...), nil
}

// Hash is the keccak256 of the signed envelope, the hash the node reports.
func (tx *Transaction) Hash() (common.Hash, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(raw), nil
}

// Hex is MarshalBinary as a 0x-prefixed string.
func (tx *Transaction) Hex() (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", err
	}
	return hexutil.Encode(raw), nil
}

// Decode parses a signed envelope produced by MarshalBinary.
func Decode(raw []byte) (*Transaction, error) {
	if len(raw) == 0 || raw[0] != TxType {
		return nil, fmt.Errorf("not a tempo transaction (type byte %#x)", firstByte(raw))
	}
	var s rlpSigned
	if err := rlp.DecodeBytes(raw[1:], &s); err != nil {
		return nil, fmt.Errorf("decoding transaction: %w", err)
	}
	tx := &Transaction{
		ChainID:     s.ChainID,
		GasTipCap:   s.GasTipCap,
		GasFeeCap:   s.GasFeeCap,
		Gas:         s.Gas,
		AccessList:  s.AccessList,
		NonceKey:    s.NonceKey,
		Nonce:       s.Nonce,
		ValidBefore: s.ValidBefore,
		ValidAfter:  s.ValidAfter,
		Signature:   s.Signature,
	}
	for _, c := range s.Calls {
		tx.Calls = append(tx.Calls, Call{To: c.To, Value: c.Value, Input: c.Input})
	}
	if len(s.FeeToken) > 0 {
		addr := common.BytesToAddress(s.FeeToken)
		tx.FeeToken = &addr
	}
	return tx, nil
}

func orZero(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return n
}

func firstByte(b []byte) byte {
	if len(b) == 0 {
		return 0
	}
	return b[0]
}
