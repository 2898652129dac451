package account

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Authenticator data flags.
const (
	flagUserPresent  byte = 0x01
	flagUserVerified byte = 0x04
)

// Assertion is the part of a WebAuthn assertion response a Tempo signature needs.
type Assertion struct {
	AuthenticatorData []byte
	ClientDataJSON    []byte
	R, S              *big.Int
}

// Authenticator produces WebAuthn assertions over a challenge. Browsers and
// hardware keys implement this outside the process; SoftAuthenticator does it
// in memory.
type Authenticator interface {
	GetAssertion(ctx context.Context, challenge []byte) (*Assertion, error)
}

// WebAuthn is an account controlled by a passkey.
type WebAuthn struct {
	pub  *ecdsa.PublicKey
	addr common.Address
	auth Authenticator
}

// FromWebAuthn builds an account from a credential public key and the
// authenticator holding its private half.
func FromWebAuthn(pub *ecdsa.PublicKey, auth Authenticator) (*WebAuthn, error) {
	if pub == nil || pub.Curve != elliptic.P256() {
		return nil, errors.New("webauthn credential must be a P-256 public key")
	}
	if auth == nil {
		return nil, errors.New("webauthn account requires an authenticator")
	}
	addr, err := P256Address(pub)
	if err != nil {
		return nil, err
	}
	return &WebAuthn{pub: pub, addr: addr, auth: auth}, nil
}

func (a *WebAuthn) Address() common.Address { return a.addr }

func (a *WebAuthn) KeyType() KeyType { return KeyTypeWebAuthn }

// SignHash asks the authenticator to sign hash as the challenge and returns
// 0x02 || authenticatorData || clientDataJSON || r || s || X || Y.
func (a *WebAuthn) SignHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	as, err := a.auth.GetAssertion(ctx, hash[:])
	if err != nil {
		return nil, fmt.Errorf("webauthn assertion: %w", err)
	}
	x, y, err := publicXY(a.pub)
	if err != nil {
		return nil, err
	}

	sig := make([]byte, 0, 1+len(as.AuthenticatorData)+len(as.ClientDataJSON)+4*32)
	sig = append(sig, SignatureTypeWebAuthn)
	sig = append(sig, as.AuthenticatorData...)
	sig = append(sig, as.ClientDataJSON...)
	sig = append(sig, word32(as.R)...)
	sig = append(sig, word32(lowS(as.S))...)
	sig = append(sig, x...)
	sig = append(sig, y...)
	return sig, nil
}

// ClientData is the clientDataJSON payload of a webauthn.get ceremony.
type ClientData struct {
	Type        string `json:"type"`
	Challenge   string `json:"challenge"`
	Origin      string `json:"origin"`
	CrossOrigin bool   `json:"crossOrigin"`
}

// SoftAuthenticator is an in-memory platform authenticator.
type SoftAuthenticator struct {
	key    *ecdsa.PrivateKey
	rpID   string
	origin string

	mu        sync.Mutex
	signCount uint32
}

// NewSoftAuthenticator wraps a P-256 key bound to rpID and origin.
func NewSoftAuthenticator(key *ecdsa.PrivateKey, rpID, origin string) *SoftAuthenticator {
	return &SoftAuthenticator{key: key, rpID: rpID, origin: origin}
}

// GetAssertion signs sha256(authenticatorData || sha256(clientDataJSON)).
func (a *SoftAuthenticator) GetAssertion(_ context.Context, challenge []byte) (*Assertion, error) {
	a.mu.Lock()
	a.signCount++
	count := a.signCount
	a.mu.Unlock()

	rpHash := sha256.Sum256([]byte(a.rpID))
	authData := make([]byte, 0, 37)
	authData = append(authData, rpHash[:]...)
	authData = append(authData, flagUserPresent|flagUserVerified)
	authData = binary.BigEndian.AppendUint32(authData, count)

	clientData, err := json.Marshal(ClientData{
		Type:      "webauthn.get",
		Challenge: base64.RawURLEncoding.EncodeToString(challenge),
		Origin:    a.origin,
	})
	if err != nil {
		return nil, err
	}

	cdHash := sha256.Sum256(clientData)
	digest := sha256.Sum256(append(append([]byte{}, authData...), cdHash[:]...))
	r, s, err := ecdsa.Sign(rand.Reader, a.key, digest[:])
	if err != nil {
		return nil, fmt.Errorf("signing assertion: %w", err)
	}
	return &Assertion{
		AuthenticatorData: authData,
		ClientDataJSON:    clientData,
		R:                 r,
		S:                 s,
	}, nil
}
