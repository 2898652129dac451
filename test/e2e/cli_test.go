package e2e_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anvilKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary before all E2E tests.
	tmp, err := os.MkdirTemp("", "tempo-e2e-test")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "tempo")
	// Build from the module root (two levels up from test/e2e/).
	moduleRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		panic(err)
	}
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = moduleRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

func command(configDir string, args ...string) *exec.Cmd {
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"TEMPO_CONFIG_DIR="+configDir,
		"TEMPO_KEYRING_BACKEND=file",
		"TEMPO_KEYRING_PASSWORD=e2e",
		"NO_COLOR=1",
	)
	return cmd
}

func runCLI(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	out, err := command(configDir, args...).CombinedOutput()
	return string(out), err
}

func TestVersionFlag(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "tempo")
	assert.Contains(t, out, "0.1.0")
}

func TestHelpCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "--help")
	require.NoError(t, err)
	lower := strings.ToLower(out)
	for _, sub := range []string{"account", "token", "role", "nonce-key", "network", "config"} {
		assert.Contains(t, lower, sub)
	}
	assert.Contains(t, out, "--network")
	assert.Contains(t, out, "--account")
}

func TestNetworkList(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "network", "list")
	require.NoError(t, err)
	for _, n := range []string{"testnet", "devnet", "localnet", "42429"} {
		assert.Contains(t, out, n)
	}
}

func TestNetworkUse(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "network", "use", "devnet")
	require.NoError(t, err)
	assert.Contains(t, out, "devnet")

	cfgOut, err := runCLI(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, cfgOut, `"default_network": "devnet"`)
}

func TestNetworkUseUnknown(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "network", "use", "unknownnet99")
	assert.Error(t, err)
}

func TestNetworkAddAndRemove(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "network", "add", "staging", "https://rpc.staging.example.com", "--chain-id", "4242")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "network", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "staging")
	assert.Contains(t, out, "4242")

	_, err = runCLI(t, dir, "network", "remove", "staging")
	require.NoError(t, err)
	out, err = runCLI(t, dir, "network", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "staging")
}

func TestNetworkAddRejectsBadURL(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "network", "add", "broken", "not a url")
	assert.Error(t, err)
}

func TestAccountImportAndList(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "account", "import", "alice", anvilKey)
	require.NoError(t, err, out)
	assert.Contains(t, out, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

	out, err = runCLI(t, dir, "account", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "secp256k1")
}

func TestAccountImportFromStdin(t *testing.T) {
	dir := t.TempDir()
	cmd := command(dir, "account", "import", "bob")
	cmd.Stdin = strings.NewReader(anvilKey + "\n")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	assert.Contains(t, string(out), "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
}

func TestAccountNewP256(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "account", "new", "passkey", "--type", "p256")
	require.NoError(t, err, out)

	out, err = runCLI(t, dir, "account", "show", "passkey")
	require.NoError(t, err)
	assert.Contains(t, out, "p256")
}

func TestAccountUseAndRemove(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "account", "new", "a1")
	require.NoError(t, err)
	_, err = runCLI(t, dir, "account", "new", "a2")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "account", "use", "a2")
	require.NoError(t, err)
	cfgOut, err := runCLI(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, cfgOut, `"default_account": "a2"`)

	// Confirm the prompt through stdin.
	cmd := command(dir, "account", "remove", "a2")
	cmd.Stdin = strings.NewReader("y\n")
	require.NoError(t, cmd.Run())

	out, err := runCLI(t, dir, "account", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "a1")
	assert.NotContains(t, out, "a2")
}

func TestConfigShow(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "default_network")
	assert.Contains(t, out, "nonce_key_reset_delay")
	assert.Contains(t, out, "rpc_strategy")
}

func TestConfigSetResetDelay(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "config", "set", "nonce_key_reset_delay", "1m")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"1m0s"`)
}

func TestConfigSetInvalid(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "config", "set", "rpc_strategy", "random")
	assert.Error(t, err)
	_, err = runCLI(t, dir, "config", "set", "no_such_key", "x")
	assert.Error(t, err)
}

func TestNonceKeyRejectsBadKey(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "nonce-key", "get", "not-a-number", "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	assert.Error(t, err)
	assert.Contains(t, out, "invalid nonce key")
}

func TestTokenRejectsBadAddress(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "token", "info", "0x1234")
	assert.Error(t, err)
	assert.Contains(t, out, "invalid token address")
}

func TestUnknownCommandShowsError(t *testing.T) {
	dir := t.TempDir()
	out, _ := runCLI(t, dir, "unknowncommand")
	assert.Contains(t, strings.ToLower(out), "unknown command")
}
