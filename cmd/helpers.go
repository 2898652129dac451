package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/tempoxyz/tempo-cli/internal/account"
	"github.com/tempoxyz/tempo-cli/internal/chain"
	"github.com/tempoxyz/tempo-cli/internal/config"
	"github.com/tempoxyz/tempo-cli/internal/contract"
	"github.com/tempoxyz/tempo-cli/internal/noncekey"
	"github.com/tempoxyz/tempo-cli/internal/rpc"
	"github.com/tempoxyz/tempo-cli/internal/tempotx"
	"github.com/tempoxyz/tempo-cli/internal/ui"
	"github.com/tempoxyz/tempo-cli/internal/wallet"
)

var errAborted = errors.New("aborted")

// newWalletManager opens the account list in the config dir with keys in
// the OS keyring.
func newWalletManager() (*wallet.Manager, error) {
	keys, err := wallet.OpenKeyring(cfg.Dir())
	if err != nil {
		return nil, err
	}
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.AccountsPath())),
		wallet.WithKeyStore(keys),
	), nil
}

// networkRegistry returns the built-in networks with the config's network
// entries layered on top. An entry named after a built-in network puts its
// RPC first and overrides the chain ID and explorer when set.
func networkRegistry(c *config.Config) *chain.Registry {
	reg := chain.NewRegistry()
	for name, nc := range c.Networks {
		n := chain.Network{Name: name, DisplayName: name}
		if existing, err := reg.GetByName(name); err == nil {
			n = *existing
		}
		rpcs := []string{nc.RPCURL}
		for _, u := range n.RPCs {
			if u != nc.RPCURL {
				rpcs = append(rpcs, u)
			}
		}
		n.RPCs = rpcs
		if nc.ChainID != 0 {
			n.ChainID = nc.ChainID
		}
		if nc.Explorer != "" {
			n.Explorer = nc.Explorer
		}
		reg.Put(n)
	}
	return reg
}

// resolveNetwork returns the network named by --network or the configured default.
func resolveNetwork(c *config.Config, name string) (*chain.Network, error) {
	if name == "" {
		name = c.DefaultNetwork
	}
	n, err := networkRegistry(c).GetByName(name)
	if err != nil {
		return nil, fmt.Errorf("unknown network %q (run `tempo network list`)", name)
	}
	return n, nil
}

// session is a connection to one network.
type session struct {
	network *chain.Network
	client  *chain.Client
	chainID *big.Int
}

func (s *session) Close() { s.client.Close() }

// connect picks an RPC for the selected network and checks its chain ID.
func connect(ctx context.Context) (*session, error) {
	n, err := resolveNetwork(cfg, networkFlag)
	if err != nil {
		return nil, err
	}
	selCtx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	url, err := rpc.Best(selCtx, n.RPCs, rpc.Strategy(cfg.RPCStrategy), rpc.DialPing)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", n.DisplayName, err)
	}
	client, err := chain.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	id, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	if n.ChainID != 0 && id.Uint64() != n.ChainID {
		client.Close()
		return nil, fmt.Errorf("%s reports chain id %d, expected %d for %s", url, id.Uint64(), n.ChainID, n.Name)
	}
	return &session{network: n, client: client, chainID: id}, nil
}

// signerName returns --account, the configured default account, or the
// account marked default in the account list.
func signerName(mgr *wallet.Manager) (string, error) {
	if accountFlag != "" {
		return accountFlag, nil
	}
	if cfg.DefaultAccount != "" {
		return cfg.DefaultAccount, nil
	}
	w, err := mgr.Default()
	if err != nil {
		return "", err
	}
	if w == nil {
		return "", fmt.Errorf("no account selected: pass --account <name> or create one with `tempo account new <name>`")
	}
	return w.Name, nil
}

// loadSigner loads the signing account.
func loadSigner() (account.Account, error) {
	mgr, err := newWalletManager()
	if err != nil {
		return nil, err
	}
	name, err := signerName(mgr)
	if err != nil {
		return nil, err
	}
	return mgr.Account(name)
}

// parseAddress accepts a 0x address or the name of a stored account.
func parseAddress(s string) (common.Address, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if !common.IsHexAddress(s) {
			return common.Address{}, fmt.Errorf("invalid address %q", s)
		}
		return common.HexToAddress(s), nil
	}
	mgr, err := newWalletManager()
	if err != nil {
		return common.Address{}, err
	}
	return lookupAddress(mgr, s)
}

func lookupAddress(mgr *wallet.Manager, name string) (common.Address, error) {
	w, err := mgr.Get(name)
	if err != nil {
		return common.Address{}, fmt.Errorf("%q is neither an address nor a known account: %w", name, err)
	}
	return common.HexToAddress(w.Address), nil
}

// ownAddress is the address of --account (or the default account).
func ownAddress() (common.Address, error) {
	mgr, err := newWalletManager()
	if err != nil {
		return common.Address{}, err
	}
	name, err := signerName(mgr)
	if err != nil {
		return common.Address{}, err
	}
	return lookupAddress(mgr, name)
}

// ownAddressOr parses args[0] when present, else returns ownAddress.
func ownAddressOr(args []string) (common.Address, error) {
	if len(args) > 0 {
		return parseAddress(args[0])
	}
	return ownAddress()
}

// senderOptions builds the Sender options shared by every write command.
func senderOptions(c *config.Config, store *noncekey.Store) []contract.SenderOption {
	opts := []contract.SenderOption{contract.WithResetDelay(c.ResetDelay())}
	if c.FeeToken != "" {
		opts = append(opts, contract.WithFeeToken(common.HexToAddress(c.FeeToken)))
	}
	if store != nil {
		opts = append(opts, contract.WithNonceStore(store))
	}
	return opts
}

// confirm prints a summary and asks before sending unless --yes is set.
func confirm(cmd *cobra.Command, title string, pairs [][2]string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.KeyValueBlock(title, pairs))
	if yesFlag {
		return nil
	}
	if !ui.Confirm(cmd.InOrStdin(), out, "Send transaction?") {
		return errAborted
	}
	return nil
}

// sendCalls signs calls as one transaction from the signing account,
// broadcasts it and optionally waits for the receipt.
func sendCalls(cmd *cobra.Command, s *session, wait bool, calls ...tempotx.Call) error {
	ctx := cmd.Context()
	acct, err := loadSigner()
	if err != nil {
		return err
	}
	sender := contract.NewSender(s.client, s.chainID, acct, senderOptions(cfg, nil)...)
	defer sender.Close()

	out := cmd.OutOrStdout()
	spin := ui.NewSpinner(out, "Sending transaction...")
	spin.Start()
	sub, err := sender.Send(ctx, calls...)
	spin.Stop()
	if err != nil {
		return err
	}
	printSubmitted(out, s.network, sub)
	if !wait {
		return nil
	}
	return waitReceipt(cmd, s, sub.Hash)
}

func printSubmitted(out io.Writer, n *chain.Network, sub *contract.Submitted) {
	fmt.Fprintln(out, ui.Success("Transaction sent"))
	fmt.Fprintf(out, "  Hash:      %s\n", ui.Addr(sub.Hash.Hex()))
	fmt.Fprintf(out, "  Nonce:     %s\n", ui.Meta(fmt.Sprintf("key %s, seq %d", sub.NonceKey.Dec(), sub.Nonce)))
	if u := n.TxURL(sub.Hash.Hex()); u != "" {
		fmt.Fprintf(out, "  Explorer:  %s\n", ui.Meta(u))
	}
}

func waitReceipt(cmd *cobra.Command, s *session, hash common.Hash) error {
	out := cmd.OutOrStdout()
	spin := ui.NewSpinner(out, "Waiting for confirmation...")
	spin.Start()
	r, err := s.client.WaitForReceipt(cmd.Context(), hash, config.TxConfirmTimeout)
	spin.Stop()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, ui.Success(fmt.Sprintf("Confirmed in block %d (gas used %d)", r.BlockNumber, r.GasUsed)))
	if r.FeeToken != nil {
		fmt.Fprintf(out, "  Fee token: %s\n", ui.Addr(r.FeeToken.Hex()))
	}
	return nil
}
