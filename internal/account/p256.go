package account

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

var (
	p256N     = elliptic.P256().Params().N
	p256HalfN = new(big.Int).Rsh(p256N, 1)
)

// P256 is an account controlled by a raw secp256r1 key.
type P256 struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// FromP256 derives an account from a 32-byte hex P-256 private key.
func FromP256(hexKey string) (*P256, error) {
	key, err := parseP256Key(hexKey)
	if err != nil {
		return nil, err
	}
	addr, err := P256Address(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	return &P256{key: key, addr: addr}, nil
}

func (a *P256) Address() common.Address { return a.addr }

func (a *P256) KeyType() KeyType { return KeyTypeP256 }

// SignHash signs hash directly (no SHA-256 prehash) and returns
// 0x01 || r || s || X || Y || prehash.
func (a *P256) SignHash(_ context.Context, hash common.Hash) ([]byte, error) {
	r, s, err := ecdsa.Sign(rand.Reader, a.key, hash[:])
	if err != nil {
		return nil, fmt.Errorf("signing hash: %w", err)
	}
	x, y, err := publicXY(&a.key.PublicKey)
	if err != nil {
		return nil, err
	}

	sig := make([]byte, 0, 1+4*32+1)
	sig = append(sig, SignatureTypeP256)
	sig = append(sig, word32(r)...)
	sig = append(sig, word32(lowS(s))...)
	sig = append(sig, x...)
	sig = append(sig, y...)
	sig = append(sig, 0) // prehash
	return sig, nil
}

// P256Address is the last 20 bytes of keccak256(X || Y).
func P256Address(pub *ecdsa.PublicKey) (common.Address, error) {
	x, y, err := publicXY(pub)
	if err != nil {
		return common.Address{}, err
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(x)
	h.Write(y)
	return common.BytesToAddress(h.Sum(nil)[12:]), nil
}

func parseP256Key(hexKey string) (*ecdsa.PrivateKey, error) {
	raw, err := decodeKeyHex(hexKey)
	if err != nil {
		return nil, err
	}
	key, err := ecdsa.ParseRawPrivateKey(elliptic.P256(), raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

// publicXY returns the 32-byte affine coordinates of pub.
func publicXY(pub *ecdsa.PublicKey) ([]byte, []byte, error) {
	raw, err := pub.Bytes()
	if err != nil {
		return nil, nil, fmt.Errorf("encoding public key: %w", err)
	}
	// raw is 0x04 || X || Y
	return raw[1:33], raw[33:65], nil
}

func lowS(s *big.Int) *big.Int {
	if s.Cmp(p256HalfN) > 0 {
		return new(big.Int).Sub(p256N, s)
	}
	return s
}
