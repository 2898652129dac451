package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tempoxyz/tempo-cli/internal/config"
	"github.com/tempoxyz/tempo-cli/internal/rpc"
	"github.com/tempoxyz/tempo-cli/internal/ui"
)

var (
	networkAddChainID  uint64
	networkAddExplorer string
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		all := networkRegistry(cfg).All()
		t := ui.NewTable("", "Name", "Display", "Chain ID", "RPC", "Faucet")
		for _, n := range all {
			mark := ""
			if strings.EqualFold(n.Name, cfg.DefaultNetwork) {
				mark = ui.StyleSuccess.Render("●")
			}
			chainID := strconv.FormatUint(n.ChainID, 10)
			if n.ChainID == 0 {
				chainID = "-"
			}
			rpcURL := ""
			if len(n.RPCs) > 0 {
				rpcURL = n.RPCs[0]
				if len(n.RPCs) > 1 {
					rpcURL += fmt.Sprintf(" (+%d)", len(n.RPCs)-1)
				}
			}
			t.AddRow(mark, ui.Network(n.Name), n.DisplayName, chainID, ui.Meta(rpcURL), ui.Meta(n.FaucetURL))
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d network(s), default %s", len(all), cfg.DefaultNetwork)))
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use <network>",
	Short: "Set the default network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := resolveNetwork(cfg, args[0])
		if err != nil {
			return err
		}
		if err := cfg.Set("default_network", n.Name); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default network set to %s", ui.Network(n.Name))))
		return nil
	},
}

var networkAddCmd = &cobra.Command{
	Use:   "add <name> <rpc-url>",
	Short: "Add a network or put a custom RPC in front of a built-in one",
	Long: `Add a network, or override the RPC of a built-in one.

Examples:
  tempo network add testnet https://my-node.example.com
  tempo network add staging https://rpc.staging.example.com --chain-id 4242`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.ToLower(args[0])
		next := make(map[string]config.NetworkConfig, len(cfg.Networks)+1)
		for k, v := range cfg.Networks {
			next[k] = v
		}
		next[name] = config.NetworkConfig{RPCURL: args[1], ChainID: networkAddChainID, Explorer: networkAddExplorer}

		prev := cfg.Networks
		cfg.Networks = next
		if err := cfg.Save(); err != nil {
			cfg.Networks = prev
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Network %s now uses %s", ui.Network(name), args[1])))
		return nil
	},
}

var networkRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a network added with `network add`",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.ToLower(args[0])
		if _, ok := cfg.Networks[name]; !ok {
			return fmt.Errorf("no custom network %q", name)
		}
		delete(cfg.Networks, name)
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Network %s removed", name)))
		return nil
	},
}

var networkStatusCmd = &cobra.Command{
	Use:   "status [network]",
	Short: "Probe a network's RPC endpoints",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := networkFlag
		if len(args) == 1 {
			name = args[0]
		}
		n, err := resolveNetwork(cfg, name)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		spin := ui.NewSpinner(out, fmt.Sprintf("Probing %d endpoint(s)...", len(n.RPCs)))
		spin.Start()
		probes := rpc.ProbeAll(cmd.Context(), n.RPCs, rpc.DialPing)
		spin.Stop()

		best, selErr := rpc.NewSelector(rpc.Strategy(cfg.RPCStrategy)).Select(probes)
		t := ui.NewTable("", "RPC", "Latency", "Block", "Status")
		for _, p := range probes {
			mark := ""
			if selErr == nil && p.URL == best.URL {
				mark = ui.StyleSuccess.Render("●")
			}
			if !p.Up() {
				t.AddRow(mark, ui.Meta(p.URL), "-", "-", ui.Err(p.Err.Error()))
				continue
			}
			t.AddRow(mark, ui.Meta(p.URL), ui.Val(p.Latency.Round(time.Microsecond).String()), ui.Val(strconv.FormatUint(p.BlockNumber, 10)), ui.Success("up"))
		}
		fmt.Fprintln(out, ui.StyleTitle.Render(n.DisplayName))
		fmt.Fprintln(out, t.Render())
		return selErr
	},
}

func init() {
	networkAddCmd.Flags().Uint64Var(&networkAddChainID, "chain-id", 0, "expected chain id")
	networkAddCmd.Flags().StringVar(&networkAddExplorer, "explorer", "", "block explorer base URL")

	networkCmd.AddCommand(networkListCmd, networkUseCmd, networkAddCmd, networkRemoveCmd, networkStatusCmd)
}
