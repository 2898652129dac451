package chain

import (
	"errors"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNetworkNotFound is returned when a network is not in the registry.
var ErrNetworkNotFound = errors.New("network not found")

// Well-known Tempo system addresses.
var (
	// NonceManagerAddress is the precompile tracking sequences for nonce keys > 0.
	NonceManagerAddress = common.HexToAddress("0x4E4F4E4345000000000000000000000000000000")
	// PathUSDAddress is the default TIP20 fee token.
	PathUSDAddress = common.HexToAddress("0x20C0000000000000000000000000000000000000")
)

// Network holds metadata for a single Tempo network.
type Network struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	ChainID     uint64   `json:"chain_id"`
	RPCs        []string `json:"rpcs"`
	Explorer    string   `json:"explorer,omitempty"`
	FaucetURL   string   `json:"faucet_url,omitempty"`
}

// TxURL returns an explorer link for hash, or "" when the network has no explorer.
func (n *Network) TxURL(hash string) string {
	if n.Explorer == "" {
		return ""
	}
	return strings.TrimRight(n.Explorer, "/") + "/tx/" + hash
}

// Registry is the set of known networks.
type Registry struct {
	byName map[string]*Network
	byID   map[uint64]*Network
}

// NewRegistry returns the built-in networks.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*Network),
		byID:   make(map[uint64]*Network),
	}
	for _, n := range builtinNetworks() {
		r.Put(n)
	}
	return r
}

// Put adds or replaces a network. Names are case-insensitive.
func (r *Registry) Put(n Network) {
	n.Name = strings.ToLower(n.Name)
	if old, ok := r.byName[n.Name]; ok && r.byID[old.ChainID] == old {
		delete(r.byID, old.ChainID)
	}
	cp := n
	r.byName[cp.Name] = &cp
	if cp.ChainID != 0 {
		r.byID[cp.ChainID] = &cp
	}
}

// All returns every network sorted by name.
func (r *Registry) All() []Network {
	out := make([]Network, 0, len(r.byName))
	for _, n := range r.byName {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetByName finds a network by its slug (e.g. "testnet").
func (r *Registry) GetByName(name string) (*Network, error) {
	n, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, ErrNetworkNotFound
	}
	return n, nil
}

// GetByChainID finds a network by chain ID.
func (r *Registry) GetByChainID(id uint64) (*Network, error) {
	n, ok := r.byID[id]
	if !ok {
		return nil, ErrNetworkNotFound
	}
	return n, nil
}

func builtinNetworks() []Network {
	return []Network{
		{
			Name:        "testnet",
			DisplayName: "Tempo Testnet",
			ChainID:     42429,
			RPCs:        []string{"https://rpc.testnet.tempo.xyz"},
			Explorer:    "https://explore.tempo.xyz",
			FaucetURL:   "https://docs.tempo.xyz/quickstart/faucet",
		},
		{
			Name:        "devnet",
			DisplayName: "Tempo Devnet",
			ChainID:     1337,
			RPCs:        []string{"https://rpc.devnet.tempo.xyz"},
		},
		{
			Name:        "localnet",
			DisplayName: "Tempo Localnet",
			ChainID:     31337,
			RPCs:        []string{"http://localhost:8545"},
		},
	}
}
