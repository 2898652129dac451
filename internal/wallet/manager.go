// Package wallet stores named Tempo accounts and their keys.
package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tempoxyz/tempo-cli/internal/account"
)

// Errors.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrInvalidName     = errors.New("invalid account name")
)

// Wallet is the stored metadata of one named account. The private key lives
// in the KeyStore under KeyRef.
type Wallet struct {
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	KeyType   account.KeyType `json:"key_type"`
	KeyRef    string          `json:"key_ref"`
	RPID      string          `json:"rp_id,omitempty"`  // webauthn only
	Origin    string          `json:"origin,omitempty"` // webauthn only
	IsDefault bool            `json:"is_default"`
	CreatedAt string          `json:"created_at"`
}

// RelyingParty returns the WebAuthn relying party recorded for the account.
func (w *Wallet) RelyingParty() account.RelyingParty {
	return account.RelyingParty{ID: w.RPID, Origin: w.Origin}
}

// Store persists wallet metadata.
type Store interface {
	Load() ([]*Wallet, error)
	Save([]*Wallet) error
}

// Manager handles account CRUD.
type Manager struct {
	store   Store
	keys    KeyStore
	wallets map[string]*Wallet
	loaded  bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithInMemoryStore keeps metadata and keys in memory.
func WithInMemoryStore() Option {
	return func(m *Manager) {
		m.store = &memStore{}
		m.keys = NewMemoryKeyStore()
	}
}

// WithStore sets the metadata store.
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithKeyStore sets where private keys are kept.
func WithKeyStore(ks KeyStore) Option {
	return func(m *Manager) { m.keys = ks }
}

// NewManager creates a Manager. It defaults to in-memory storage.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		wallets: make(map[string]*Wallet),
		store:   &memStore{},
		keys:    NewMemoryKeyStore(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create generates a fresh key of type kt and stores it as name.
func (m *Manager) Create(name string, kt account.KeyType, rp account.RelyingParty) (*Wallet, error) {
	hexKey, err := account.Generate(kt)
	if err != nil {
		return nil, err
	}
	return m.Import(name, kt, hexKey, rp)
}

// Import stores an existing private key as name.
func (m *Manager) Import(name string, kt account.KeyType, hexKey string, rp account.RelyingParty) (*Wallet, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	if _, exists := m.wallets[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, name)
	}
	if kt == account.KeyTypeWebAuthn && rp.ID == "" {
		rp = account.RelyingParty{ID: "localhost", Origin: "http://localhost"}
	}

	acct, err := account.Load(kt, hexKey, rp)
	if err != nil {
		return nil, err
	}
	ref, err := m.keys.Store(name, hexKey)
	if err != nil {
		return nil, fmt.Errorf("storing key: %w", err)
	}

	w := &Wallet{
		Name:      name,
		Address:   acct.Address().Hex(),
		KeyType:   kt,
		KeyRef:    ref,
		IsDefault: len(m.wallets) == 0,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if kt == account.KeyTypeWebAuthn {
		w.RPID, w.Origin = rp.ID, rp.Origin
	}
	m.wallets[name] = w
	return w, m.persist()
}

// Get returns an account by name.
func (m *Manager) Get(name string) (*Wallet, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	w, ok := m.wallets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	return w, nil
}

// Account loads the signing account stored as name.
func (m *Manager) Account(name string) (account.Account, error) {
	w, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	hexKey, err := m.keys.Retrieve(w.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key for %s: %w", name, err)
	}
	return account.Load(w.KeyType, hexKey, w.RelyingParty())
}

// Remove deletes an account and its key.
func (m *Manager) Remove(name string) error {
	w, err := m.Get(name)
	if err != nil {
		return err
	}
	if err := m.keys.Delete(w.KeyRef); err != nil {
		return err
	}
	delete(m.wallets, name)
	if w.IsDefault {
		for _, next := range m.sorted() {
			next.IsDefault = true
			break
		}
	}
	return m.persist()
}

// List returns all accounts sorted by name.
func (m *Manager) List() ([]*Wallet, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	return m.sorted(), nil
}

// SetDefault marks an account as the default.
func (m *Manager) SetDefault(name string) error {
	if _, err := m.Get(name); err != nil {
		return err
	}
	for _, w := range m.wallets {
		w.IsDefault = w.Name == name
	}
	return m.persist()
}

// Default returns the default account, or nil if there are none.
func (m *Manager) Default() (*Wallet, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	all := m.sorted()
	for _, w := range all {
		if w.IsDefault {
			return w, nil
		}
	}
	if len(all) == 1 {
		return all[0], nil
	}
	return nil, nil
}

// --- internal ---

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, " /\\:") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func (m *Manager) sorted() []*Wallet {
	out := make([]*Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Manager) load() error {
	if m.loaded {
		return nil
	}
	wallets, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}
	for _, w := range wallets {
		m.wallets[w.Name] = w
	}
	m.loaded = true
	return nil
}

func (m *Manager) persist() error {
	return m.store.Save(m.sorted())
}

// --- in-memory store ---

type memStore struct {
	wallets []*Wallet
}

func (s *memStore) Load() ([]*Wallet, error) { return s.wallets, nil }

func (s *memStore) Save(wallets []*Wallet) error {
	s.wallets = wallets
	return nil
}

// --- JSON file store ---

// JSONStore persists account metadata to a JSON file.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed store at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Load() ([]*Wallet, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var wallets []*Wallet
	if err := json.Unmarshal(data, &wallets); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return wallets, nil
}

func (s *JSONStore) Save(wallets []*Wallet) error {
	data, err := json.MarshalIndent(wallets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
