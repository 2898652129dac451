package wallet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

const keychainService = "tempo"

// Environment overrides for headless use.
const (
	EnvKeyringBackend  = "TEMPO_KEYRING_BACKEND"  // e.g. "file", "pass", "secret-service"
	EnvKeyringPassword = "TEMPO_KEYRING_PASSWORD" // file backend password; prompts when unset
)

// ErrKeyNotFound is returned when no key is stored under a reference.
var ErrKeyNotFound = errors.New("key not found")

// KeyStore holds private key material by reference.
type KeyStore interface {
	Store(name, hexKey string) (ref string, err error)
	Retrieve(ref string) (string, error)
	Delete(ref string) error
}

// Keyring stores keys in the OS keychain.
type Keyring struct {
	ring keyring.Keyring
}

// OpenKeyring opens the OS keychain. On Linux without a secret service it
// falls back to an encrypted file store under dir/keys. $TEMPO_KEYRING_BACKEND
// pins a single backend.
func OpenKeyring(dir string) (*Keyring, error) {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  filepath.Join(dir, "keys"),
		FilePasswordFunc:         keyring.TerminalPrompt,
	}
	if pw := os.Getenv(EnvKeyringPassword); pw != "" {
		cfg.FilePasswordFunc = keyring.FixedStringPrompt(pw)
	}
	if b := os.Getenv(EnvKeyringBackend); b != "" {
		cfg.AllowedBackends = []keyring.BackendType{keyring.BackendType(b)}
		ring, err := keyring.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("opening %s keychain: %w", b, err)
		}
		return &Keyring{ring: ring}, nil
	}
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		}
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		if ring, err = keyring.Open(cfg); err != nil {
			return nil, fmt.Errorf("opening keychain: %w", err)
		}
	}
	return &Keyring{ring: ring}, nil
}

func (k *Keyring) Store(name, hexKey string) (string, error) {
	ref := keyRef(name)
	if err := k.ring.Set(keyring.Item{Key: ref, Label: "tempo account " + name, Data: []byte(hexKey)}); err != nil {
		return "", fmt.Errorf("keychain store: %w", err)
	}
	return ref, nil
}

func (k *Keyring) Retrieve(ref string) (string, error) {
	item, err := k.ring.Get(ref)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

func (k *Keyring) Delete(ref string) error {
	err := k.ring.Remove(ref)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("keychain delete: %w", err)
	}
	return nil
}

// MemoryKeyStore keeps keys in memory.
type MemoryKeyStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryKeyStore creates an empty MemoryKeyStore.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{data: make(map[string]string)}
}

func (k *MemoryKeyStore) Store(name, hexKey string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ref := keyRef(name)
	k.data[ref] = hexKey
	return ref, nil
}

func (k *MemoryKeyStore) Retrieve(ref string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	return v, nil
}

func (k *MemoryKeyStore) Delete(ref string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.data, ref)
	return nil
}

func keyRef(name string) string { return keychainService + "." + name }
