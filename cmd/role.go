package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tempoxyz/tempo-cli/internal/tip20"
	"github.com/tempoxyz/tempo-cli/internal/ui"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage TIP20 token roles",
	Long: `Manage TIP20 token roles.

<role> is one of admin, issuer, pause, unpause, burn-blocked, a full
name such as ISSUER_ROLE, or a 0x-prefixed 32-byte role id.`,
}

var roleGrantCmd = &cobra.Command{
	Use:   "grant <token> <role> <account>",
	Short: "Grant a role",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := tip20.RoleByName(args[1])
		if err != nil {
			return err
		}
		who, err := parseAddress(args[2])
		if err != nil {
			return err
		}
		return tokenWrite(cmd, args[0], func(_ context.Context, t *tip20.Token) (*writePlan, error) {
			call, err := t.GrantRole(role, who)
			return &writePlan{
				title: "Grant role",
				pairs: [][2]string{{"Role", ui.Val(tip20.RoleName(role))}, {"Account", ui.Addr(who.Hex())}},
				call:  call,
			}, err
		})
	},
}

var roleRevokeCmd = &cobra.Command{
	Use:   "revoke <token> <role> <account>",
	Short: "Revoke a role",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := tip20.RoleByName(args[1])
		if err != nil {
			return err
		}
		who, err := parseAddress(args[2])
		if err != nil {
			return err
		}
		return tokenWrite(cmd, args[0], func(_ context.Context, t *tip20.Token) (*writePlan, error) {
			call, err := t.RevokeRole(role, who)
			return &writePlan{
				title: "Revoke role",
				pairs: [][2]string{{"Role", ui.Val(tip20.RoleName(role))}, {"Account", ui.Addr(who.Hex())}},
				call:  call,
			}, err
		})
	},
}

var roleRenounceCmd = &cobra.Command{
	Use:   "renounce <token> <role>",
	Short: "Give up a role held by the selected account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := tip20.RoleByName(args[1])
		if err != nil {
			return err
		}
		return tokenWrite(cmd, args[0], func(_ context.Context, t *tip20.Token) (*writePlan, error) {
			call, err := t.RenounceRole(role)
			return &writePlan{
				title: "Renounce role",
				pairs: [][2]string{{"Role", ui.Warn(tip20.RoleName(role))}},
				call:  call,
			}, err
		})
	},
}

var roleSetAdminCmd = &cobra.Command{
	Use:   "set-admin <token> <role> <admin-role>",
	Short: "Change which role administers role",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := tip20.RoleByName(args[1])
		if err != nil {
			return err
		}
		admin, err := tip20.RoleByName(args[2])
		if err != nil {
			return err
		}
		return tokenWrite(cmd, args[0], func(_ context.Context, t *tip20.Token) (*writePlan, error) {
			call, err := t.SetRoleAdmin(role, admin)
			return &writePlan{
				title: "Set role admin",
				pairs: [][2]string{{"Role", ui.Val(tip20.RoleName(role))}, {"Admin role", ui.Val(tip20.RoleName(admin))}},
				call:  call,
			}, err
		})
	},
}

var roleHasCmd = &cobra.Command{
	Use:   "has <token> <role> [account]",
	Short: "Check whether an account holds a role",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		addr, err := parseToken(args[0])
		if err != nil {
			return err
		}
		role, err := tip20.RoleByName(args[1])
		if err != nil {
			return err
		}
		who, err := ownAddressOr(args[2:])
		if err != nil {
			return err
		}
		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		t := tip20.New(addr, s.client)
		has, err := t.HasRole(ctx, who, role)
		if err != nil {
			return err
		}
		admin, err := t.RoleAdmin(ctx, role)
		if err != nil {
			return err
		}
		verdict := ui.Warn("no")
		if has {
			verdict = ui.Success("yes")
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Role", [][2]string{
			{"Role", ui.Val(tip20.RoleName(role))},
			{"Admin role", ui.Meta(tip20.RoleName(admin))},
			{"Account", ui.Addr(who.Hex())},
			{"Has role", verdict},
		}))
		return nil
	},
}

func init() {
	writes := []*cobra.Command{roleGrantCmd, roleRevokeCmd, roleRenounceCmd, roleSetAdminCmd}
	for _, c := range writes {
		c.Flags().BoolVarP(&tokenWait, "wait", "w", false, "wait for the transaction to be mined")
	}
	roleCmd.AddCommand(writes...)
	roleCmd.AddCommand(roleHasCmd)
}
