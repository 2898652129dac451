package cmd

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/tempoxyz/tempo-cli/internal/tip20"
	"github.com/tempoxyz/tempo-cli/internal/ui"
)

// defaultEventRange is how many blocks back `token events` looks without --from-block.
const defaultEventRange = 5000

var (
	eventsFrom  int64
	eventsTo    int64
	eventsNames []string
)

var tokenEventsCmd = &cobra.Command{
	Use:   "events <token>",
	Short: "List a token's events",
	Long: `List decoded TIP20 events emitted by a token.

Without --from-block the last 5000 blocks are searched.

Examples:
  tempo token events pathusd
  tempo token events pathusd --event Transfer --event TransferWithMemo
  tempo token events 0x20c0... --from-block 120000 --to-block 121000`,
	Args: cobra.ExactArgs(1),
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

		var to *big.Int
		if eventsTo >= 0 {
			to = big.NewInt(eventsTo)
		}
		from := eventsFrom
		if from < 0 {
			head, err := s.client.BlockNumber(ctx)
			if err != nil {
				return err
			}
			from = max(int64(head)-defaultEventRange, 0)
		}

		t := tip20.New(addr, s.client)
		events, err := t.Events(ctx, s.client, big.NewInt(from), to, eventsNames...)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, ui.Meta("No events found."))
			return nil
		}
		dec, err := t.Decimals(ctx)
		if err != nil {
			return err
		}

		tbl := ui.NewTable("Block", "Event", "Details", "Tx")
		for _, ev := range events {
			tbl.AddRow(
				ui.Meta(strconv.FormatUint(ev.BlockNumber, 10)),
				ui.Val(ev.Name),
				describeEvent(ev, dec),
				ui.Addr(ui.TruncateAddr(ev.TxHash.Hex())),
			)
		}
		fmt.Fprintln(out, tbl.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d event(s)", len(events))))
		return nil
	},
}

// describeEvent renders an event's fields as "name=value" pairs.
func describeEvent(ev *tip20.Event, decimals uint8) string {
	parts := make([]string, 0, len(ev.FieldNames()))
	for _, name := range ev.FieldNames() {
		parts = append(parts, name+"="+formatField(name, ev.Fields[name], decimals))
	}
	return strings.Join(parts, " ")
}

func formatField(name string, v any, decimals uint8) string {
	switch x := v.(type) {
	case common.Address:
		return ui.TruncateAddr(x.Hex())
	case common.Hash:
		if strings.Contains(strings.ToLower(name), "memo") {
			return strconv.Quote(tip20.FormatMemo(x))
		}
		if strings.Contains(strings.ToLower(name), "role") {
			return tip20.RoleName(x)
		}
		return x.Hex()
	case *big.Int:
		if name == "amount" || strings.HasSuffix(name, "Cap") {
			return tip20.FormatUnits(x, decimals)
		}
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func init() {
	tokenEventsCmd.Flags().Int64Var(&eventsFrom, "from-block", -1, "first block to search")
	tokenEventsCmd.Flags().Int64Var(&eventsTo, "to-block", -1, "last block to search (default: latest)")
	tokenEventsCmd.Flags().StringSliceVarP(&eventsNames, "event", "e", nil, "only these event names (repeatable)")
}
