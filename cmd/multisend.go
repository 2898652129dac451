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
	"golang.org/x/sync/errgroup"

	"github.com/tempoxyz/tempo-cli/internal/config"
	"github.com/tempoxyz/tempo-cli/internal/contract"
	"github.com/tempoxyz/tempo-cli/internal/noncekey"
	"github.com/tempoxyz/tempo-cli/internal/tempotx"
	"github.com/tempoxyz/tempo-cli/internal/tip20"
	"github.com/tempoxyz/tempo-cli/internal/ui"
)

var (
	multisendBatch   bool
	multisendWorkers int
)

var tokenMultisendCmd = &cobra.Command{
	Use:   "multisend <token> <recipient=amount>...",
	Short: "Pay many recipients at once",
	Long: `Pay many recipients at once.

By default every payment is its own transaction. They are signed and
broadcast concurrently, each on its own nonce key, so none waits for
another to be mined. With --batch all payments become calls of a single
transaction that succeeds or fails as a whole.

Examples:
  tempo token multisend pathusd alice=10 bob=2.5 0xabc...=1
  tempo token multisend pathusd alice=10 bob=2.5 --batch --wait`,
	Args: cobra.MinimumNArgs(2),
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

		t := tip20.New(addr, s.client)
		dec, err := t.Decimals(ctx)
		if err != nil {
			return err
		}
		payments, err := parsePayments(args[1:], parseAddress, dec)
		if err != nil {
			return err
		}
		calls := make([]tempotx.Call, len(payments))
		total := new(big.Int)
		for i, p := range payments {
			if calls[i], err = t.Transfer(p.to, p.amount); err != nil {
				return err
			}
			total.Add(total, p.amount)
		}

		mode := "parallel"
		if multisendBatch {
			mode = "batch"
		}
		if err := confirm(cmd, "Multisend", [][2]string{
			{"Network", ui.Network(s.network.DisplayName)},
			{"Token", ui.Addr(addr.Hex())},
			{"Recipients", ui.Val(strconv.Itoa(len(payments)))},
			{"Total", ui.Val(tip20.FormatUnits(total, dec))},
			{"Mode", ui.Meta(mode)},
		}); err != nil {
			if errors.Is(err, errAborted) {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
				return nil
			}
			return err
		}

		if multisendBatch {
			return sendCalls(cmd, s, tokenWait, calls...)
		}

		acct, err := loadSigner()
		if err != nil {
			return err
		}
		sender := contract.NewSender(s.client, s.chainID, acct, senderOptions(cfg, noncekey.New())...)
		defer sender.Close()

		out := cmd.OutOrStdout()
		spin := ui.NewSpinner(out, fmt.Sprintf("Sending %d transactions...", len(calls)))
		spin.Start()
		subs, sendErr := sendParallel(ctx, sender, calls, multisendWorkers)
		spin.Stop()

		tbl := ui.NewTable("#", "To", "Amount", "Nonce key", "Hash")
		for i, p := range payments {
			hash, key := ui.Err("failed"), "-"
			if subs[i] != nil {
				hash, key = ui.Addr(subs[i].Hash.Hex()), subs[i].NonceKey.Dec()
			}
			tbl.AddRow(strconv.Itoa(i+1), ui.Addr(ui.TruncateAddr(p.to.Hex())), ui.Val(tip20.FormatUnits(p.amount, dec)), ui.Meta(key), hash)
		}
		fmt.Fprintln(out, tbl.Render())

		if tokenWait {
			if err := waitAll(ctx, s, subs); err != nil {
				return errors.Join(sendErr, err)
			}
			fmt.Fprintln(out, ui.Success("All sent transactions confirmed"))
		}
		return sendErr
	},
}

// payment is one recipient of a multisend.
type payment struct {
	to     common.Address
	amount *big.Int
}

// parsePayments parses "recipient=amount" arguments.
func parsePayments(args []string, resolve func(string) (common.Address, error), decimals uint8) ([]payment, error) {
	out := make([]payment, 0, len(args))
	for _, a := range args {
		who, amt, ok := strings.Cut(a, "=")
		if !ok || who == "" || amt == "" {
			return nil, fmt.Errorf("invalid payment %q: want recipient=amount", a)
		}
		to, err := resolve(who)
		if err != nil {
			return nil, err
		}
		n, err := tip20.ParseUnits(amt, decimals)
		if err != nil {
			return nil, err
		}
		out = append(out, payment{to: to, amount: n})
	}
	return out, nil
}

// sendParallel sends each call as its own transaction with at most workers
// in flight (0 means no limit). The result keeps the order of calls; a
// failed send leaves a nil entry and its error is joined into the returned one.
func sendParallel(ctx context.Context, sender *contract.Sender, calls []tempotx.Call, workers int) ([]*contract.Submitted, error) {
	subs := make([]*contract.Submitted, len(calls))
	errs := make([]error, len(calls))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, c := range calls {
		g.Go(func() error {
			sub, err := sender.Send(ctx, c)
			if err != nil {
				errs[i] = fmt.Errorf("transaction %d: %w", i+1, err)
				return nil
			}
			subs[i] = sub
			return nil
		})
	}
	_ = g.Wait()
	return subs, errors.Join(errs...)
}

// waitAll waits for every submitted transaction concurrently.
func waitAll(ctx context.Context, s *session, subs []*contract.Submitted) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, sub := range subs {
		if sub == nil {
			continue
		}
		g.Go(func() error {
			_, err := s.client.WaitForReceipt(ctx, sub.Hash, config.TxConfirmTimeout)
			return err
		})
	}
	return g.Wait()
}

func init() {
	tokenMultisendCmd.Flags().BoolVar(&multisendBatch, "batch", false, "send all payments as one transaction")
	tokenMultisendCmd.Flags().IntVar(&multisendWorkers, "workers", 8, "max transactions in flight (0 = unlimited)")
	tokenMultisendCmd.Flags().BoolVarP(&tokenWait, "wait", "w", false, "wait for the transactions to be mined")
}
