package account

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Secp256k1 is an Ethereum-style externally owned account.
type Secp256k1 struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// FromSecp256k1 derives an account from a hex private key (0x optional).
func FromSecp256k1(hexKey string) (*Secp256k1, error) {
	raw, err := decodeKeyHex(hexKey)
	if err != nil {
		return nil, err
	}
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &Secp256k1{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

func (a *Secp256k1) Address() common.Address { return a.addr }

func (a *Secp256k1) KeyType() KeyType { return KeyTypeSecp256k1 }

// SignHash returns the 65-byte r || s || yParity signature.
func (a *Secp256k1) SignHash(_ context.Context, hash common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(hash[:], a.key)
	if err != nil {
		return nil, fmt.Errorf("signing hash: %w", err)
	}
	return sig, nil
}
