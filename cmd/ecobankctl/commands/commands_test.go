package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecobank/internal/core"
)

func dataFile(t *testing.T) string {
	t.Helper()
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "")
	return filepath.Join(t.TempDir(), "ecobank.json")
}

// execute runs a fresh command tree against the JSON document at path.
func execute(t *testing.T, path string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--backend", "json", "--data-file", path}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, path string, args ...string) string {
	t.Helper()
	out, err := execute(t, path, args...)
	if err != nil {
		t.Fatalf("ecobankctl %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestVerify_FreshLedger(t *testing.T) {
	path := dataFile(t)

	var got verifyOutput
	out := mustExecute(t, path, "verify", "--json")
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	want := verifyOutput{Backend: "json", Users: 1, Admins: 1, Balance: "$0.00"}
	if got != want {
		t.Fatalf("verify = %+v, want %+v", got, want)
	}
}

func TestVerify_ReportsProblems(t *testing.T) {
	path := dataFile(t)
	doc := `{"users":{"bob":{"password":"x","role":"user","logs":[
		{"type":"Earned","amount":10,"description":"","timestamp":"2024-01-02 03:04:05"},
		{"type":"Bonus","amount":5,"description":"","timestamp":"2024-01-02 03:04:06"}]}}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, path, "verify")
	if !errors.Is(err, errNoAdmin) {
		t.Fatalf("expected errNoAdmin, got %v", err)
	}
	if !strings.Contains(out, "Unknown types") || !strings.Contains(out, "$10.00") {
		t.Fatalf("unexpected table:\n%s", out)
	}
}

func TestVerify_UnreadableDocument(t *testing.T) {
	path := dataFile(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, path, "verify"); err == nil {
		t.Fatal("expected load error")
	}
}

func TestUsers_AddAndList(t *testing.T) {
	path := dataFile(t)

	out := mustExecute(t, path, "users", "add", "bob", "--password", "pw")
	if !strings.Contains(out, `User "bob" created`) {
		t.Fatalf("unexpected output %q", out)
	}

	_, err := execute(t, path, "users", "add", "bob", "-p", "other")
	if !errors.Is(err, core.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	_, err = execute(t, path, "users", "add", "carol", "-p", "  ")
	if !errors.Is(err, core.ErrEmptyCredentials) {
		t.Fatalf("expected ErrEmptyCredentials, got %v", err)
	}
	if _, err := execute(t, path, "users", "add", "carol"); err == nil {
		t.Fatal("expected missing --password to fail")
	}

	table := mustExecute(t, path, "users", "list")
	for _, want := range []string{"Username", "admin", "bob", "user"} {
		if !strings.Contains(table, want) {
			t.Errorf("users list missing %q:\n%s", want, table)
		}
	}

	var rows []userRow
	if err := json.Unmarshal([]byte(mustExecute(t, path, "users", "list", "--json")), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Username != "admin" || rows[1].Username != "bob" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestTxn_AddAndSummary(t *testing.T) {
	path := dataFile(t)
	mustExecute(t, path, "users", "add", "alice", "-p", "pw")
	mustExecute(t, path, "txn", "add", "alice", "Earned", "100", "-d", "salary")
	out := mustExecute(t, path, "txn", "add", "alice", "spent", "$30")
	if !strings.Contains(out, "Balance: $70.00") {
		t.Fatalf("unexpected output %q", out)
	}

	var rows []summaryRow
	if err := json.Unmarshal([]byte(mustExecute(t, path, "summary", "alice", "--json")), &rows); err != nil {
		t.Fatal(err)
	}
	want := []summaryRow{
		{"Earned", "$100.00"},
		{"Spent", "$30.00"},
		{"Given", "$0.00"},
		{"Received", "$0.00"},
		{"Balance", "$70.00"},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %+v", rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestTxn_AddRejected(t *testing.T) {
	path := dataFile(t)
	mustExecute(t, path, "users", "add", "alice", "-p", "pw")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown type", []string{"alice", "Bonus", "1"}, core.ErrInvalidKind},
		{"zero amount", []string{"alice", "Earned", "0"}, core.ErrInvalidAmount},
		{"negative amount", []string{"alice", "Earned", "-5"}, core.ErrInvalidAmount},
		{"malformed amount", []string{"alice", "Earned", "ten"}, core.ErrInvalidAmount},
		{"unknown user", []string{"mallory", "Earned", "1"}, core.ErrUnknownUser},
		{"administrator", []string{"admin", "Earned", "1"}, errAdminLedger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, path, append([]string{"txn", "add"}, tt.args...)...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}

	var rows []transactionRow
	if err := json.Unmarshal([]byte(mustExecute(t, path, "transactions", "alice", "--json")), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("rejected transactions were recorded: %+v", rows)
	}
}

func TestTransactions(t *testing.T) {
	path := dataFile(t)
	mustExecute(t, path, "users", "add", "alice", "-p", "pw")
	mustExecute(t, path, "users", "add", "bob", "-p", "pw")
	mustExecute(t, path, "txn", "add", "alice", "Earned", "50")
	mustExecute(t, path, "txn", "add", "alice", "Given", "5")
	mustExecute(t, path, "txn", "add", "bob", "Received", "20")

	var own []transactionRow
	if err := json.Unmarshal([]byte(mustExecute(t, path, "transactions", "alice", "--json")), &own); err != nil {
		t.Fatal(err)
	}
	if len(own) != 2 || own[0].Type != "Earned" || own[1].Type != "Given" {
		t.Fatalf("alice's log out of order: %+v", own)
	}
	if own[0].Username != "" {
		t.Errorf("single-user listing should omit username, got %q", own[0].Username)
	}

	var all []transactionRow
	if err := json.Unmarshal([]byte(mustExecute(t, path, "transactions", "--json")), &all); err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 transactions, got %+v", all)
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Timestamp < all[i].Timestamp {
			t.Fatalf("not newest first: %+v", all)
		}
	}

	var limited []transactionRow
	if err := json.Unmarshal([]byte(mustExecute(t, path, "transactions", "-n", "1", "--json")), &limited); err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %+v", limited)
	}

	table := mustExecute(t, path, "transactions")
	if !strings.Contains(table, "User") || !strings.Contains(table, "bob") {
		t.Fatalf("unexpected table:\n%s", table)
	}
	if _, err := execute(t, path, "transactions", "-n", "-1"); err == nil {
		t.Fatal("expected negative limit to fail")
	}
}

func TestTransactions_DescriptionAsStored(t *testing.T) {
	path := dataFile(t)
	mustExecute(t, path, "users", "add", "alice", "-p", "pw")
	mustExecute(t, path, "txn", "add", "alice", "Earned", "5", "-d", "  padded  ")
	mustExecute(t, path, "txn", "add", "alice", "Spent", "1", "-d", "tab\tinside")

	var rows []transactionRow
	if err := json.Unmarshal([]byte(mustExecute(t, path, "transactions", "alice", "--json")), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Description != "  padded  " || rows[1].Description != "tab\tinside" {
		t.Fatalf("descriptions altered: %+v", rows)
	}
}

func TestRollup(t *testing.T) {
	path := dataFile(t)
	mustExecute(t, path, "users", "add", "alice", "-p", "pw")
	mustExecute(t, path, "users", "add", "bob", "-p", "pw")
	mustExecute(t, path, "txn", "add", "alice", "Earned", "100")
	mustExecute(t, path, "txn", "add", "alice", "Spent", "30")
	mustExecute(t, path, "txn", "add", "bob", "Given", "20")

	var got rollupOutput
	if err := json.Unmarshal([]byte(mustExecute(t, path, "rollup", "--json")), &got); err != nil {
		t.Fatal(err)
	}
	if got.Count != 3 {
		t.Errorf("count = %d, want 3", got.Count)
	}
	if bal := got.Totals[len(got.Totals)-1]; bal != (summaryRow{"Balance", "$50.00"}) {
		t.Errorf("balance row = %+v", bal)
	}
	wantPerUser := []userTotalRow{{"alice", "$130.00"}, {"bob", "$20.00"}}
	if len(got.PerUser) != len(wantPerUser) {
		t.Fatalf("per user = %+v", got.PerUser)
	}
	for i := range wantPerUser {
		if got.PerUser[i] != wantPerUser[i] {
			t.Errorf("per user %d = %+v, want %+v", i, got.PerUser[i], wantPerUser[i])
		}
	}
	if len(got.ByDay) == 0 {
		t.Error("expected at least one day")
	}

	table := mustExecute(t, path, "rollup")
	if !strings.Contains(table, "3 transactions") || !strings.Contains(table, "$130.00") {
		t.Fatalf("unexpected table:\n%s", table)
	}
}

func TestInvalidBackendFlag(t *testing.T) {
	path := dataFile(t)
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--backend", "sheets", "--data-file", path, "verify"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid data backend 'sheets'") {
		t.Fatalf("expected backend error, got %v", err)
	}
}
