package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ecobank/internal/backend"
	"ecobank/internal/core"
)

var errAdminLedger = errors.New("administrator accounts do not keep a ledger")

type transactionRow struct {
	Username    string `json:"username,omitempty"`
	Timestamp   string `json:"timestamp"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type summaryRow struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

func newTxnCmd(a *app) *cobra.Command {
	txnCmd := &cobra.Command{
		Use:   "txn",
		Short: "Record transactions",
	}
	txnCmd.AddCommand(addTxnCmd(a))
	return txnCmd
}

func addTxnCmd(a *app) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add USERNAME TYPE AMOUNT",
		Short: "Append a transaction to a user's ledger",
		Long: `Append a transaction stamped with the current time.

TYPE is one of Earned, Spent, Given, Received. AMOUNT accepts "12.50",
"12,50" or "$12.50" and must be greater than zero.`,
		Args: cobra.ExactArgs(3),
		RunE: a.withBackend(func(cmd *cobra.Command, args []string, be *backend.Backend) error {
			username := args[0]
			kind, err := core.ParseKind(args[1])
			if err != nil {
				return err
			}
			amount, err := core.ParseAmount(args[2])
			if err != nil {
				return err
			}

			acct, err := be.Auth.Lookup(username)
			if err != nil {
				return err
			}
			if acct.Role != core.RoleUser {
				return errAdminLedger
			}

			tx, err := be.Ledger.Append(ctxOf(cmd), username, kind, amount, description)
			if err != nil {
				return err
			}
			sum, err := be.Ledger.Summary(username)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s for %s at %s. Balance: %s\n",
				tx.Kind, core.FormatAmount(decimalOf(tx)), username, tx.Timestamp, core.FormatAmount(sum.Balance))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "free-text description")
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary USERNAME",
		Short: "Show a user's totals per type and balance",
		Args:  cobra.ExactArgs(1),
		RunE: a.withBackend(func(cmd *cobra.Command, args []string, be *backend.Backend) error {
			sum, err := be.Ledger.Summary(args[0])
			if err != nil {
				return err
			}

			out := make([]summaryRow, 0, len(core.Kinds())+1)
			for _, k := range core.Kinds() {
				out = append(out, summaryRow{Type: string(k), Amount: core.FormatAmount(sum.Total(k))})
			}
			out = append(out, summaryRow{Type: "Balance", Amount: core.FormatAmount(sum.Balance)})

			rows := make([][]any, 0, len(out))
			for _, r := range out {
				rows = append(rows, []any{r.Type, r.Amount})
			}
			return a.render(cmd.OutOrStdout(), out, []string{"Type", "Amount"}, rows, 2)
		}),
	}
}

func newTransactionsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "transactions [USERNAME]",
		Short: "List transactions",
		Long: `List one user's transactions in the order they were recorded, or every
user's transactions newest first when USERNAME is omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.withBackend(func(cmd *cobra.Command, args []string, be *backend.Backend) error {
			if limit < 0 {
				return usageError("--limit must not be negative")
			}

			var out []transactionRow
			if len(args) == 1 {
				logs, err := be.Ledger.Transactions(args[0])
				if err != nil {
					return err
				}
				for _, tx := range logs {
					out = append(out, newTransactionRow("", tx))
				}
			} else {
				for _, e := range be.Ledger.AllTransactions() {
					out = append(out, newTransactionRow(e.Username, e.Transaction))
				}
			}
			if limit > 0 && len(out) > limit {
				out = out[:limit]
			}

			headers := []string{"Timestamp", "Type", "Amount", "Description"}
			if len(args) == 0 {
				headers = append([]string{"User"}, headers...)
			}
			rows := make([][]any, 0, len(out))
			for _, r := range out {
				row := []any{r.Timestamp, r.Type, r.Amount, r.Description}
				if len(args) == 0 {
					row = append([]any{r.Username}, row...)
				}
				rows = append(rows, row)
			}
			amountCol := 3
			if len(args) == 0 {
				amountCol = 4
			}
			if out == nil {
				out = []transactionRow{}
			}
			return a.render(cmd.OutOrStdout(), out, headers, rows, amountCol)
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n transactions (0 for all)")
	return cmd
}

func newTransactionRow(username string, tx core.Transaction) transactionRow {
	return transactionRow{
		Username:    username,
		Timestamp:   tx.Timestamp.String(),
		Type:        string(tx.Kind),
		Amount:      core.FormatAmount(decimalOf(tx)),
		Description: tx.Description,
	}
}
