package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ecobank/internal/backend"
	"ecobank/internal/core"
)

type userRow struct {
	Username     string    `json:"username"`
	Role         core.Role `json:"role"`
	Transactions int       `json:"transactions"`
	Balance      string    `json:"balance"`
}

func newUsersCmd(a *app) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	usersCmd.AddCommand(listUsersCmd(a), addUserCmd(a))
	return usersCmd
}

func listUsersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every account with its balance",
		Args:  cobra.NoArgs,
		RunE: a.withBackend(func(cmd *cobra.Command, _ []string, be *backend.Backend) error {
			accounts := be.Auth.Accounts()

			out := make([]userRow, 0, len(accounts))
			rows := make([][]any, 0, len(accounts))
			for _, acct := range accounts {
				st, err := be.Ledger.Stats(acct.Username)
				if err != nil {
					return err
				}
				r := userRow{
					Username:     acct.Username,
					Role:         acct.Role,
					Transactions: st.Count,
					Balance:      core.FormatAmount(st.Summary.Balance),
				}
				out = append(out, r)
				rows = append(rows, []any{r.Username, r.Role, r.Transactions, r.Balance})
			}
			return a.render(cmd.OutOrStdout(), out,
				[]string{"Username", "Role", "Transactions", "Balance"}, rows, 3, 4)
		}),
	}
}

func addUserCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "add USERNAME",
		Short: "Create a user account",
		Long:  "Create an account with role \"user\" and an empty ledger.",
		Args:  cobra.ExactArgs(1),
		RunE: a.withBackend(func(cmd *cobra.Command, args []string, be *backend.Backend) error {
			acct, err := be.Auth.Register(ctxOf(cmd), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %q created with role %s.\n", acct.Username, acct.Role)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password for the new account")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
