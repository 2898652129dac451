// Package account derives Tempo accounts from key material and produces the
// signature envelopes each key type puts on a transaction.
package account

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyType names the signature scheme backing an account.
type KeyType string

const (
	KeyTypeSecp256k1 KeyType = "secp256k1"
	KeyTypeP256      KeyType = "p256"
	KeyTypeWebAuthn  KeyType = "webauthn"
)

// Signature type prefixes. Secp256k1 signatures carry no prefix.
const (
	SignatureTypeP256     byte = 0x01
	SignatureTypeWebAuthn byte = 0x02
)

// Errors.
var (
	ErrUnknownKeyType = errors.New("unknown key type")
	ErrInvalidKey     = errors.New("invalid private key")
)

// Account is a signing identity on a Tempo chain.
type Account interface {
	Address() common.Address
	KeyType() KeyType
	// SignHash signs a 32-byte transaction hash and returns the encoded
	// signature envelope for the account's key type.
	SignHash(ctx context.Context, hash common.Hash) ([]byte, error)
}

// RelyingParty identifies the WebAuthn relying party a passkey is bound to.
type RelyingParty struct {
	ID     string
	Origin string
}

// ParseKeyType accepts the canonical names plus a few common spellings.
func ParseKeyType(s string) (KeyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "secp256k1", "k1", "ecdsa":
		return KeyTypeSecp256k1, nil
	case "p256", "p-256", "secp256r1":
		return KeyTypeP256, nil
	case "webauthn", "passkey":
		return KeyTypeWebAuthn, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKeyType, s)
}

// Load builds an Account of the given type from a hex private key. rp is only
// used for WebAuthn accounts.
func Load(kt KeyType, hexKey string, rp RelyingParty) (Account, error) {
	switch kt {
	case KeyTypeSecp256k1:
		return FromSecp256k1(hexKey)
	case KeyTypeP256:
		return FromP256(hexKey)
	case KeyTypeWebAuthn:
		key, err := parseP256Key(hexKey)
		if err != nil {
			return nil, err
		}
		return FromWebAuthn(&key.PublicKey, NewSoftAuthenticator(key, rp.ID, rp.Origin))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKeyType, kt)
}

// Generate creates a new private key for kt and returns it hex encoded.
func Generate(kt KeyType) (string, error) {
	switch kt {
	case KeyTypeSecp256k1:
		key, err := crypto.GenerateKey()
		if err != nil {
			return "", err
		}
		return hexutil.Encode(crypto.FromECDSA(key)), nil
	case KeyTypeP256, KeyTypeWebAuthn:
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return "", err
		}
		raw, err := key.Bytes()
		if err != nil {
			return "", err
		}
		return hexutil.Encode(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKeyType, kt)
}

func decodeKeyHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return b, nil
}

// word32 left-pads n to 32 bytes.
func word32(n *big.Int) []byte {
	return common.LeftPadBytes(n.Bytes(), 32)
}
