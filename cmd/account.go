package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tempoxyz/tempo-cli/internal/account"
	"github.com/tempoxyz/tempo-cli/internal/ui"
)

var (
	accountKeyType string
	accountRPID    string
	accountOrigin  string
)

var accountCmd = &cobra.Command{
	Use:     "account",
	Aliases: []string{"accounts", "wallet"},
	Short:   "Manage signing accounts",
}

var accountNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Generate a new account",
	Long: `Generate a new keypair and store the private key in the OS keyring.

Key types:
  secp256k1  standard Ethereum key (default)
  p256       NIST P-256 key, signed natively
  webauthn   P-256 key signed through a WebAuthn assertion

Examples:
  tempo account new alice
  tempo account new bob --type p256`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kt, err := account.ParseKeyType(accountKeyType)
		if err != nil {
			return err
		}
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		w, err := mgr.Create(args[0], kt, relyingParty())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Account %q created: %s", w.Name, ui.Addr(w.Address))))
		fmt.Fprintln(out, ui.Hint("Fund it from the faucet before sending: tempo network list"))
		return nil
	},
}

var accountImportCmd = &cobra.Command{
	Use:   "import <name> [private-key]",
	Short: "Import an existing private key",
	Long: `Import a hex private key. When the key is not given as an argument it
is read from stdin so that it does not end up in shell history.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kt, err := account.ParseKeyType(accountKeyType)
		if err != nil {
			return err
		}
		var hexKey string
		if len(args) == 2 {
			hexKey = args[1]
		} else {
			hexKey = ui.PromptInput(cmd.InOrStdin(), cmd.OutOrStdout(), "Private key")
		}
		if hexKey == "" {
			return fmt.Errorf("private key required")
		}
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		w, err := mgr.Import(args[0], kt, hexKey, relyingParty())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Account %q imported: %s", w.Name, ui.Addr(w.Address))))
		return nil
	},
}

var accountListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		wallets, err := mgr.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(wallets) == 0 {
			fmt.Fprintln(out, ui.Meta("No accounts yet."))
			fmt.Fprintln(out, ui.Hint("Create one with: tempo account new <name>"))
			return nil
		}

		t := ui.NewTable("Name", "Address", "Type", "Default")
		for _, w := range wallets {
			def := ""
			if w.IsDefault {
				def = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Val(w.Name), ui.Addr(w.Address), ui.Meta(string(w.KeyType)), def)
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d account(s)", len(wallets))))
		return nil
	},
}

var accountUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the default account",
	Long:  `Set the default account. Without a name an interactive picker is shown.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			wallets, err := mgr.List()
			if err != nil {
				return err
			}
			items := make([]ui.PickerItem, len(wallets))
			initial := 0
			for i, w := range wallets {
				items[i] = ui.PickerItem{Label: w.Name, SubLabel: ui.TruncateAddr(w.Address) + "  " + string(w.KeyType), Value: w.Name}
				if w.IsDefault {
					initial = i
				}
			}
			name, err = ui.PickItem("Select default account", items, initial)
			if err != nil {
				return err
			}
			if name == "" {
				return nil
			}
		}
		if err := mgr.SetDefault(name); err != nil {
			return err
		}
		if err := cfg.Set("default_account", name); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default account set to %q.", name)))
		return nil
	},
}

var accountShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show an account",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		} else if name, err = signerName(mgr); err != nil {
			return err
		}
		w, err := mgr.Get(name)
		if err != nil {
			return err
		}
		pairs := [][2]string{
			{"Name", ui.Val(w.Name)},
			{"Address", ui.Addr(w.Address)},
			{"Key type", ui.Val(string(w.KeyType))},
			{"Created", ui.Meta(w.CreatedAt)},
		}
		if w.KeyType == account.KeyTypeWebAuthn {
			pairs = append(pairs,
				[2]string{"RP ID", ui.Val(w.RPID)},
				[2]string{"Origin", ui.Val(w.Origin)},
			)
		}
		if w.IsDefault {
			pairs = append(pairs, [2]string{"Default", ui.Success("yes")})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Account", pairs))
		return nil
	},
}

var accountRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove an account and delete its key",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		out := cmd.OutOrStdout()
		if !yesFlag && !ui.ConfirmDanger(cmd.InOrStdin(), out, fmt.Sprintf("Remove account %q and delete its key?", name)) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		if err := mgr.Remove(name); err != nil {
			return err
		}
		if cfg.DefaultAccount == name {
			cfg.DefaultAccount = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Account %q removed.", name)))
		return nil
	},
}

// relyingParty builds the WebAuthn relying party from --rp-id and --origin.
func relyingParty() account.RelyingParty {
	rp := account.RelyingParty{ID: accountRPID, Origin: accountOrigin}
	if rp.ID != "" && rp.Origin == "" {
		rp.Origin = "https://" + strings.TrimPrefix(rp.ID, "https://")
	}
	return rp
}

func init() {
	for _, c := range []*cobra.Command{accountNewCmd, accountImportCmd} {
		c.Flags().StringVarP(&accountKeyType, "type", "t", "secp256k1", "key type: secp256k1, p256 or webauthn")
		c.Flags().StringVar(&accountRPID, "rp-id", "", "WebAuthn relying party id (webauthn only)")
		c.Flags().StringVar(&accountOrigin, "origin", "", "WebAuthn origin (webauthn only)")
	}

	accountCmd.AddCommand(
		accountNewCmd,
		accountImportCmd,
		accountListCmd,
		accountUseCmd,
		accountShowCmd,
		accountRemoveCmd,
	)
}
