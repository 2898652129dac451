package cmd

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempoxyz/tempo-cli/internal/chain"
	"github.com/tempoxyz/tempo-cli/internal/config"
	"github.com/tempoxyz/tempo-cli/internal/tip20"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c, err := config.Load(t.TempDir())
	require.NoError(t, err)
	return c
}

// ---------------------------------------------------------------------------
// networks
// ---------------------------------------------------------------------------

func TestNetworkRegistryAddsCustomNetwork(t *testing.T) {
	c := testConfig(t)
	c.Networks["staging"] = config.NetworkConfig{RPCURL: "https://rpc.staging.example.com", ChainID: 4242}

	n, err := networkRegistry(c).GetByName("staging")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://rpc.staging.example.com"}, n.RPCs)
	assert.Equal(t, uint64(4242), n.ChainID)
	assert.Equal(t, "staging", n.DisplayName)
}

func TestNetworkRegistryOverridesBuiltin(t *testing.T) {
	c := testConfig(t)
	builtin, err := chain.NewRegistry().GetByName("testnet")
	require.NoError(t, err)
	c.Networks["testnet"] = config.NetworkConfig{RPCURL: "https://my-node.example.com"}

	n, err := networkRegistry(c).GetByName("testnet")
	require.NoError(t, err)
	assert.Equal(t, "https://my-node.example.com", n.RPCs[0], "custom RPC goes first")
	assert.Equal(t, append([]string{"https://my-node.example.com"}, builtin.RPCs...), n.RPCs)
	assert.Equal(t, builtin.ChainID, n.ChainID, "chain id kept when not overridden")
	assert.Equal(t, builtin.Explorer, n.Explorer)
}

func TestNetworkRegistryDoesNotDuplicateRPC(t *testing.T) {
	c := testConfig(t)
	builtin, err := chain.NewRegistry().GetByName("localnet")
	require.NoError(t, err)
	c.Networks["localnet"] = config.NetworkConfig{RPCURL: builtin.RPCs[0]}

	n, err := networkRegistry(c).GetByName("localnet")
	require.NoError(t, err)
	assert.Equal(t, builtin.RPCs, n.RPCs)
}

func TestResolveNetwork(t *testing.T) {
	c := testConfig(t)

	n, err := resolveNetwork(c, "")
	require.NoError(t, err)
	assert.Equal(t, c.DefaultNetwork, n.Name)

	n, err = resolveNetwork(c, "DevNet")
	require.NoError(t, err)
	assert.Equal(t, "devnet", n.Name)

	_, err = resolveNetwork(c, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tempo network list")
}

// ---------------------------------------------------------------------------
// argument parsing
// ---------------------------------------------------------------------------

func TestParseToken(t *testing.T) {
	got, err := parseToken("pathUSD")
	require.NoError(t, err)
	assert.Equal(t, chain.PathUSDAddress, got)

	got, err = parseToken("0x20c0000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x20c0000000000000000000000000000000000001"), got)

	_, err = parseToken("0x1234")
	assert.Error(t, err)
	_, err = parseToken("usdc")
	assert.Error(t, err)
}

func TestParseAddressRejectsShortHex(t *testing.T) {
	_, err := parseAddress("0xdeadbeef")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid address")
}

func TestParseNonceKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"7", "7"},
		{"0x10", "16"},
		{"115792089237316195423570985008687907853269984665640564039457584007913129639935", "115792089237316195423570985008687907853269984665640564039457584007913129639935"},
	}
	for _, tt := range tests {
		k, err := parseNonceKey(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, k.Dec(), tt.in)
	}

	for _, bad := range []string{"", "-1", "abc", "0xzz", "115792089237316195423570985008687907853269984665640564039457584007913129639936"} {
		_, err := parseNonceKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseMemo(t *testing.T) {
	m, err := parseMemo("")
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = parseMemo("invoice 42")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "invoice 42", tip20.FormatMemo(*m))
}

func TestParsePayments(t *testing.T) {
	bob := common.HexToAddress("0x00000000000000000000000000000000000000b0")
	resolve := func(s string) (common.Address, error) {
		if s == "bob" {
			return bob, nil
		}
		return parseAddress(s)
	}

	got, err := parsePayments([]string{"bob=1.5", "0x00000000000000000000000000000000000000c0=2"}, resolve, 6)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, bob, got[0].to)
	assert.Equal(t, big.NewInt(1_500_000), got[0].amount)
	assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000000c0"), got[1].to)
	assert.Equal(t, big.NewInt(2_000_000), got[1].amount)

	for _, bad := range []string{"bob", "bob=", "=1", "bob=1.0000001"} {
		_, err := parsePayments([]string{bad}, resolve, 6)
		assert.Error(t, err, bad)
	}
}

// ---------------------------------------------------------------------------
// event rendering
// ---------------------------------------------------------------------------

func TestFormatEventField(t *testing.T) {
	from := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	memo, err := tip20.ParseMemo("rent")
	require.NoError(t, err)

	assert.Equal(t, "0x0000…00A1", formatField("from", from, 6), "checksummed")
	assert.Equal(t, "2.5", formatField("amount", big.NewInt(2_500_000), 6))
	assert.Equal(t, "1000", formatField("newSupplyCap", big.NewInt(1_000_000_000), 6))
	assert.Equal(t, "7", formatField("newPolicyId", uint64(7), 6))
	assert.Equal(t, `"rent"`, formatField("memo", memo, 6))
	assert.Equal(t, "ISSUER_ROLE", formatField("role", tip20.IssuerRole, 6))
	assert.Equal(t, "true", formatField("hasRole", true, 6))
}
