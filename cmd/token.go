package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/tempoxyz/tempo-cli/internal/chain"
	"github.com/tempoxyz/tempo-cli/internal/tempotx"
	"github.com/tempoxyz/tempo-cli/internal/tip20"
	"github.com/tempoxyz/tempo-cli/internal/ui"
)

var (
	tokenMemo string
	tokenWait bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Query and administer TIP20 tokens",
	Long: `Query and administer TIP20 tokens.

<token> is a 0x address or "pathusd" for the default fee token.
Recipient and holder arguments accept an address or an account name.`,
}

// parseToken resolves a token argument.
func parseToken(s string) (common.Address, error) {
	if strings.EqualFold(s, "pathusd") {
		return chain.PathUSDAddress, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid token address %q", s)
	}
	return common.HexToAddress(s), nil
}

// parseAmount converts a decimal amount using the token's decimals.
func parseAmount(ctx context.Context, t *tip20.Token, s string) (*big.Int, uint8, error) {
	dec, err := t.Decimals(ctx)
	if err != nil {
		return nil, 0, err
	}
	n, err := tip20.ParseUnits(s, dec)
	if err != nil {
		return nil, 0, err
	}
	return n, dec, nil
}

// parseMemo returns nil when --memo is unset.
func parseMemo(s string) (*common.Hash, error) {
	if s == "" {
		return nil, nil
	}
	m, err := tip20.ParseMemo(s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// writePlan is a confirmed write against one token.
type writePlan struct {
	title string
	pairs [][2]string
	call  tempotx.Call
}

// tokenWrite connects, lets build prepare a call against the token, asks
// for confirmation and sends it.
func tokenWrite(cmd *cobra.Command, tokenArg string, build func(ctx context.Context, t *tip20.Token) (*writePlan, error)) error {
	ctx := cmd.Context()
	addr, err := parseToken(tokenArg)
	if err != nil {
		return err
	}
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	t := tip20.New(addr, s.client)
	plan, err := build(ctx, t)
	if err != nil {
		return err
	}
	pairs := append([][2]string{
		{"Network", ui.Network(s.network.DisplayName)},
		{"Token", ui.Addr(addr.Hex())},
	}, plan.pairs...)
	if err := confirm(cmd, plan.title, pairs); err != nil {
		if errors.Is(err, errAborted) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
			return nil
		}
		return err
	}
	return sendCalls(cmd, s, tokenWait, plan.call)
}

// amountPlan parses the amount argument and --memo, then builds the call.
func amountPlan(ctx context.Context, t *tip20.Token, title, amountArg string, pairs [][2]string, build func(amount *big.Int, memo *common.Hash) (tempotx.Call, error)) (*writePlan, error) {
	amount, dec, err := parseAmount(ctx, t, amountArg)
	if err != nil {
		return nil, err
	}
	memo, err := parseMemo(tokenMemo)
	if err != nil {
		return nil, err
	}
	call, err := build(amount, memo)
	if err != nil {
		return nil, err
	}
	pairs = append(pairs, [2]string{"Amount", ui.Val(tip20.FormatUnits(amount, dec))})
	if memo != nil {
		pairs = append(pairs, [2]string{"Memo", ui.Meta(tip20.FormatMemo(*memo))})
	}
	return &writePlan{title: title, pairs: pairs, call: call}, nil
}

// ---------------------------------------------------------------------------
// reads
// ---------------------------------------------------------------------------

var tokenInfoCmd = &cobra.Command{
	Use:   "info <token>",
	Short: "Show token metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		addr, err := parseToken(args[0])
		if err != nil {
			return err
		}
		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		m, err := tip20.New(addr, s.client).Metadata(ctx)
		if err != nil {
			return err
		}
		paused := ui.Success("no")
		if m.Paused {
			paused = ui.Warn("yes")
		}
		pairs := [][2]string{
			{"Address", ui.Addr(addr.Hex())},
			{"Name", ui.Val(m.Name)},
			{"Symbol", ui.Val(m.Symbol)},
			{"Currency", ui.Val(m.Currency)},
			{"Decimals", ui.Val(strconv.Itoa(int(m.Decimals)))},
			{"Total supply", ui.Val(tip20.FormatUnits(m.TotalSupply, m.Decimals))},
			{"Supply cap", ui.Val(tip20.FormatUnits(m.SupplyCap, m.Decimals))},
			{"Quote token", ui.Addr(m.QuoteToken.Hex())},
			{"Paused", paused},
			{"Transfer policy", ui.Val(strconv.FormatUint(m.TransferPolicyID, 10))},
		}
		if m.NextQuoteToken != (common.Address{}) && m.NextQuoteToken != m.QuoteToken {
			pairs = append(pairs, [2]string{"Pending quote", ui.Addr(m.NextQuoteToken.Hex())})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock(fmt.Sprintf("%s on %s", m.Symbol, s.network.DisplayName), pairs))
		return nil
	},
}

var tokenBalanceCmd = &cobra.Command{
	Use:   "balance <token> [holder]",
	Short: "Show a token balance (default: the selected account)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		addr, err := parseToken(args[0])
		if err != nil {
			return err
		}
		holder, err := ownAddressOr(args[1:])
		if err != nil {
			return err
		}
		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		t := tip20.New(addr, s.client)
		bal, err := t.BalanceOf(ctx, holder)
		if err != nil {
			return err
		}
		dec, err := t.Decimals(ctx)
		if err != nil {
			return err
		}
		sym, err := t.Symbol(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %s\n", ui.Addr(holder.Hex()), ui.Val(tip20.FormatUnits(bal, dec)), ui.Meta(sym))
		return nil
	},
}

var tokenAllowanceCmd = &cobra.Command{
	Use:   "allowance <token> <owner> <spender>",
	Short: "Show how much spender may move on behalf of owner",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		addr, err := parseToken(args[0])
		if err != nil {
			return err
		}
		owner, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		spender, err := parseAddress(args[2])
		if err != nil {
			return err
		}
		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		t := tip20.New(addr, s.client)
		n, err := t.Allowance(ctx, owner, spender)
		if err != nil {
			return err
		}
		dec, err := t.Decimals(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Allowance", [][2]string{
			{"Owner", ui.Addr(owner.Hex())},
			{"Spender", ui.Addr(spender.Hex())},
			{"Allowance", ui.Val(tip20.FormatUnits(n, dec))},
		}))
		return nil
	},
}

// ---------------------------------------------------------------------------
// writes
// ---------------------------------------------------------------------------

var tokenTransferCmd = &cobra.Command{
	Use:   "transfer <token> <to> <amount>",
	Short: "Transfer tokens",
	Long: `Transfer tokens from the selected account.

Examples:
  tempo token transfer pathusd 0xabc... 12.5
  tempo token transfer pathusd bob 1 --memo "invoice 42" --wait`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		return tokenWrite(cmd, args[0], func(ctx context.Context, t *tip20.Token) (*writePlan, error) {
			return amountPlan(ctx, t, "Transfer", args[2], [][2]string{{"To", ui.Addr(to.Hex())}},
				func(amount *big.Int, memo *common.Hash) (tempotx.Call, error) {
					if memo != nil {
						return t.TransferWithMemo(to, amount, *memo)
					}
					return t.Transfer(to, amount)
				})
		})
	},
}

var tokenTransferFromCmd = &cobra.Command{
	Use:   "transfer-from <token> <from> <to> <amount>",
	Short: "Transfer tokens using an allowance",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		to, err := parseAddress(args[2])
		if err != nil {
			return err
		}
		return tokenWrite(cmd, args[0], func(ctx context.Context, t *tip20.Token) (*writePlan, error) {
			return amountPlan(ctx, t, "Transfer from", args[3],
				[][2]string{{"From", ui.Addr(from.Hex())}, {"To", ui.Addr(to.Hex())}},
				func(amount *big.Int, memo *common.Hash) (tempotx.Call, error) {
					if memo != nil {
						return t.TransferFromWithMemo(from, to, amount, *memo)
					}
					return t.TransferFrom(from, to, amount)
				})
		})
	},
}

var tokenApproveCmd = &cobra.Command{
	Use:   "approve <token> <spender> <amount>",
	Short: "Allow spender to transfer tokens on your behalf",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		spender, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		return tokenWrite(cmd, args[0], func(ctx context.Context, t *tip20.Token) (*writePlan, error) {
			return amountPlan(ctx, t, "Approve", args[2], [][2]string{{"Spender", ui.Addr(spender.Hex())}},
				func(amount *big.Int, _ *common.Hash) (tempotx.Call, error) {
					return t.Approve(spender, amount)
				})
		})
	},
}

var tokenMintCmd = &cobra.Command{
	Use:   "mint <token> <to> <amount>",
	Short: "Mint tokens (requires ISSUER_ROLE)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		return tokenWrite(cmd, args[0], func(ctx context.Context, t *tip20.Token) (*writePlan, error) {
			return amountPlan(ctx, t, "Mint", args[2], [][2]string{{"To", ui.Addr(to.Hex())}},
				func(amount *big.Int, memo *common.Hash) (tempotx.Call, error) {
					if memo != nil {
						return t.MintWithMemo(to, amount, *memo)
					}
					return t.Mint(to, amount)
				})
		})
	},
}

var tokenBurnCmd = &cobra.Command{
	Use:   "burn <token> <amount>",
	Short: "Burn tokens from your balance (requires ISSUER_ROLE)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tokenWrite(cmd, args[0], func(ctx context.Context, t *tip20.Token) (*writePlan, error) {
			return amountPlan(ctx, t, "Burn", args[1], nil,
				func(amount *big.Int, memo *common.Hash) (tempotx.Call, error) {
					if memo != nil {
						return t.BurnWithMemo(amount, *memo)
					}
					return t.Burn(amount)
				})
		})
	},
}

var tokenBurnBlockedCmd = &cobra.Command{
	Use:   "burn-blocked <token> <from> <amount>",
	Short: "Burn tokens held by a blocked address (requires BURN_BLOCKED_ROLE)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		return tokenWrite(cmd, args[0], func(ctx context.Context, t *tip20.Token) (*writePlan, error) {
			return amountPlan(ctx, t, "Burn blocked", args[2], [][2]string{{"From", ui.Addr(from.Hex())}},
				func(amount *big.Int, _ *common.Hash) (tempotx.Call, error) {
					return t.BurnBlocked(from, amount)
				})
		})
	},
}

var tokenPauseCmd = &cobra.Command{
	Use:   "pause <token>",
	Short: "Pause transfers (requires PAUSE_ROLE)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tokenWrite(cmd, args[0], func(_ context.Context, t *tip20.Token) (*writePlan, error) {
			call, err := t.Pause()
			return &writePlan{title: "Pause", call: call}, err
		})
	},
}

var tokenUnpauseCmd = &cobra.Command{
	Use:   "unpause <token>",
	Short: "Resume transfers (requires UNPAUSE_ROLE)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tokenWrite(cmd, args[0], func(_ context.Context, t *tip20.Token) (*writePlan, error) {
			call, err := t.Unpause()
			return &writePlan{title: "Unpause", call: call}, err
		})
	},
}

var tokenSetSupplyCapCmd = &cobra.Command{
	Use:   "set-supply-cap <token> <amount>",
	Short: "Set the maximum total supply",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tokenWrite(cmd, args[0], func(ctx context.Context, t *tip20.Token) (*writePlan, error) {
			return amountPlan(ctx, t, "Set supply cap", args[1], nil,
				func(amount *big.Int, _ *common.Hash) (tempotx.Call, error) {
					return t.SetSupplyCap(amount)
				})
		})
	},
}

var tokenSetTransferPolicyCmd = &cobra.Command{
	Use:   "set-transfer-policy <token> <policy-id>",
	Short: "Attach a TIP-403 transfer policy",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid policy id %q", args[1])
		}
		return tokenWrite(cmd, args[0], func(_ context.Context, t *tip20.Token) (*writePlan, error) {
			call, err := t.ChangeTransferPolicyID(id)
			return &writePlan{
				title: "Set transfer policy",
				pairs: [][2]string{{"Policy", ui.Val(args[1])}},
				call:  call,
			}, err
		})
	},
}

var tokenUpdateQuoteCmd = &cobra.Command{
	Use:   "update-quote-token <token> <quote-token>",
	Short: "Stage a new quote token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quote, err := parseToken(args[1])
		if err != nil {
			return err
		}
		return tokenWrite(cmd, args[0], func(_ context.Context, t *tip20.Token) (*writePlan, error) {
			call, err := t.UpdateQuoteToken(quote)
			return &writePlan{
				title: "Update quote token",
				pairs: [][2]string{{"Quote token", ui.Addr(quote.Hex())}},
				call:  call,
			}, err
		})
	},
}

var tokenFinalizeQuoteCmd = &cobra.Command{
	Use:   "finalize-quote-token <token>",
	Short: "Complete a staged quote token update",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tokenWrite(cmd, args[0], func(_ context.Context, t *tip20.Token) (*writePlan, error) {
			call, err := t.FinalizeQuoteTokenUpdate()
			return &writePlan{title: "Finalize quote token", call: call}, err
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{tokenTransferCmd, tokenTransferFromCmd, tokenMintCmd, tokenBurnCmd} {
		c.Flags().StringVar(&tokenMemo, "memo", "", "32-byte memo: text or 0x hex")
	}
	writes := []*cobra.Command{
		tokenTransferCmd, tokenTransferFromCmd, tokenApproveCmd, tokenMintCmd, tokenBurnCmd,
		tokenBurnBlockedCmd, tokenPauseCmd, tokenUnpauseCmd, tokenSetSupplyCapCmd,
		tokenSetTransferPolicyCmd, tokenUpdateQuoteCmd, tokenFinalizeQuoteCmd,
	}
	for _, c := range writes {
		c.Flags().BoolVarP(&tokenWait, "wait", "w", false, "wait for the transaction to be mined")
	}

	tokenCmd.AddCommand(
		tokenInfoCmd,
		tokenBalanceCmd,
		tokenAllowanceCmd,
		tokenEventsCmd,
	)
	tokenCmd.AddCommand(writes...)
	tokenCmd.AddCommand(tokenMultisendCmd)
}
