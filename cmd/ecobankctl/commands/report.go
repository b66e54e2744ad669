package commands

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"ecobank/cmd/ecobankctl/output"
	"ecobank/internal/backend"
	"ecobank/internal/core"
)

var errNoAdmin = errors.New("ledger has no administrator account")

type rollupOutput struct {
	Totals  []summaryRow   `json:"totals"`
	PerUser []userTotalRow `json:"per_user"`
	ByDay   []dayTotalRow  `json:"by_day"`
	Count   int            `json:"count"`
}

type userTotalRow struct {
	Username string `json:"username"`
	Amount   string `json:"amount"`
}

type dayTotalRow struct {
	Day    string `json:"day"`
	Amount string `json:"amount"`
}

type verifyOutput struct {
	Backend      string `json:"backend"`
	Users        int    `json:"users"`
	Admins       int    `json:"admins"`
	Transactions int    `json:"transactions"`
	UnknownTypes int    `json:"unknown_types"`
	Balance      string `json:"balance"`
}

func newRollupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rollup",
		Short: "Show totals across every user",
		Args:  cobra.NoArgs,
		RunE: a.withBackend(func(cmd *cobra.Command, _ []string, be *backend.Backend) error {
			r := be.Ledger.Rollup()

			out := rollupOutput{Count: r.Count}
			for _, k := range core.Kinds() {
				out.Totals = append(out.Totals, summaryRow{Type: string(k), Amount: core.FormatAmount(r.Totals.Total(k))})
			}
			out.Totals = append(out.Totals, summaryRow{Type: "Balance", Amount: core.FormatAmount(r.Totals.Balance)})
			out.PerUser = make([]userTotalRow, 0, len(r.PerUser))
			for _, ut := range r.PerUser {
				out.PerUser = append(out.PerUser, userTotalRow{Username: ut.Username, Amount: core.FormatAmount(ut.Amount)})
			}
			out.ByDay = make([]dayTotalRow, 0, len(r.ByDay))
			for _, d := range r.ByDay {
				out.ByDay = append(out.ByDay, dayTotalRow{Day: d.Day, Amount: core.FormatAmount(d.Amount)})
			}

			w := cmd.OutOrStdout()
			if a.opts.jsonOut {
				return a.render(w, out, nil, nil)
			}

			totals := make([][]any, 0, len(out.Totals))
			for _, t := range out.Totals {
				totals = append(totals, []any{t.Type, t.Amount})
			}
			output.RenderTable(w, []string{"Type", "Total"}, totals, 2)

			perUser := make([][]any, 0, len(out.PerUser))
			for _, u := range out.PerUser {
				perUser = append(perUser, []any{u.Username, u.Amount})
			}
			output.RenderTable(w, []string{"User", "Recorded"}, perUser, 2)

			byDay := make([][]any, 0, len(out.ByDay))
			for _, d := range out.ByDay {
				byDay = append(byDay, []any{d.Day, d.Amount})
			}
			output.RenderTable(w, []string{"Day", "Recorded"}, byDay, 2)

			fmt.Fprintf(w, "%d transactions\n", out.Count)
			return nil
		}),
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Load the ledger and report its shape",
		Long: `Load the persisted document through the configured backend and report
account and transaction counts. Fails when the document cannot be read or
has no administrator account. Transactions of unknown types are counted
but do not fail the check.`,
		Args: cobra.NoArgs,
		RunE: a.withBackend(func(cmd *cobra.Command, _ []string, be *backend.Backend) error {
			doc := be.Book.Snapshot()

			out := verifyOutput{Backend: be.Type.String(), Users: len(doc.Users)}
			for _, u := range doc.Users {
				if u.Role == core.RoleAdmin {
					out.Admins++
				}
				for _, tx := range u.Logs {
					out.Transactions++
					if tx.Kind.Validate() != nil {
						out.UnknownTypes++
					}
				}
			}
			out.Balance = core.FormatAmount(core.BuildRollup(doc).Totals.Balance)

			if err := a.render(cmd.OutOrStdout(), out,
				[]string{"Backend", "Users", "Admins", "Transactions", "Unknown types", "Balance"},
				[][]any{{out.Backend, out.Users, out.Admins, out.Transactions, out.UnknownTypes, out.Balance}},
				2, 3, 4, 5, 6); err != nil {
				return err
			}
			if out.Admins == 0 {
				return errNoAdmin
			}
			return nil
		}),
	}
}

func decimalOf(tx core.Transaction) decimal.Decimal {
	return decimal.NewFromFloat(tx.Amount)
}
