package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tempoxyz/tempo-cli/internal/config"
	"github.com/tempoxyz/tempo-cli/internal/log"
	"github.com/tempoxyz/tempo-cli/internal/ui"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/tempoxyz/tempo-cli/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir      string
	cfg         *config.Config
	verbose     bool
	networkFlag string
	accountFlag string
	yesFlag     bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "tempo",
	Short: "Command line client for the Tempo network",
	Long: `tempo manages accounts and TIP20 tokens on Tempo networks.

  Create and import secp256k1, P256 and WebAuthn accounts, query and
  administer TIP20 tokens, and send batches of transactions in parallel
  using independent nonce keys.

Global flags --network and --account override the configured defaults
for a single invocation. Persist with: tempo config set <key> <value>`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		log.Init(os.Stderr, level, false)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $"+config.EnvDir+" or ~/.tempo)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "network to use (default from config)")
	rootCmd.PersistentFlags().StringVarP(&accountFlag, "account", "a", "", "account to act as (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "skip confirmation prompts")

	rootCmd.AddCommand(
		accountCmd,
		tokenCmd,
		roleCmd,
		nonceKeyCmd,
		networkCmd,
		configCmd,
	)
}
