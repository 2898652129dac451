package cmd

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/tempoxyz/tempo-cli/internal/contract"
	"github.com/tempoxyz/tempo-cli/internal/ui"
)

var nonceKeyCmd = &cobra.Command{
	Use:     "nonce-key",
	Aliases: []string{"nonce"},
	Short:   "Inspect 2D nonces",
	Long: `Tempo transactions carry a nonce key and a sequence number. Key 0 is
the protocol nonce (eth_getTransactionCount). Every other key has its own
sequence tracked by the NonceManager precompile, so transactions on
different keys do not wait on each other.`,
}

var nonceKeyGetCmd = &cobra.Command{
	Use:   "get <key> [address]",
	Short: "Show the next sequence number of a nonce key",
	Long: `Show the next sequence number of a nonce key for an address or account
(default: the selected account). <key> is decimal or 0x hex.

Examples:
  tempo nonce-key get 0
  tempo nonce-key get 7 alice`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		key, err := parseNonceKey(args[0])
		if err != nil {
			return err
		}
		who, err := ownAddressOr(args[1:])
		if err != nil {
			return err
		}
		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		var seq uint64
		source := "protocol nonce"
		if key.IsZero() {
			seq, err = s.client.PendingNonceAt(ctx, who)
		} else {
			seq, err = contract.NonceOf(ctx, s.client, who, key)
			source = "NonceManager"
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Nonce key", [][2]string{
			{"Account", ui.Addr(who.Hex())},
			{"Network", ui.Network(s.network.DisplayName)},
			{"Key", ui.Val(key.Dec())},
			{"Next nonce", ui.Val(fmt.Sprint(seq))},
			{"Source", ui.Meta(source)},
		}))
		return nil
	},
}

// parseNonceKey accepts a decimal or 0x-prefixed uint256.
func parseNonceKey(s string) (*uint256.Int, error) {
	var (
		k   *uint256.Int
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		k, err = uint256.FromHex(s)
	} else {
		k, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid nonce key %q: %w", s, err)
	}
	return k, nil
}

func init() {
	nonceKeyCmd.AddCommand(nonceKeyGetCmd)
}
