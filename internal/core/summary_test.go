package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mkTx(kind Kind, amount float64, at string) Transaction {
	ts, err := ParseTimestamp(at)
	if err != nil {
		panic(err)
	}
	return Transaction{Kind: kind, Amount: amount, Description: "t", Timestamp: ts}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	for _, d := range []decimal.Decimal{s.Earned, s.Spent, s.Given, s.Received, s.Balance} {
		if !d.IsZero() {
			t.Fatalf("expected zero summary, got %+v", s)
		}
	}
}

func TestSummarizeBuckets(t *testing.T) {
	logs := []Transaction{
		mkTx(Earned, 100, "2025-01-01 09:00:00"),
		mkTx(Spent, 30, "2025-01-01 10:00:00"),
		mkTx(Given, 5.5, "2025-01-02 10:00:00"),
		mkTx(Received, 12.25, "2025-01-03 10:00:00"),
		mkTx("Bonus", 1000, "2025-01-03 11:00:00"),
	}
	s := Summarize(logs)

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"earned", s.Earned, "100"},
		{"spent", s.Spent, "30"},
		{"given", s.Given, "5.5"},
		{"received", s.Received, "12.25"},
		{"balance", s.Balance, "76.75"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Fatalf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if !s.Total("Bonus").IsZero() {
		t.Fatal("unknown kind must contribute nothing")
	}
}

func TestSummarizeBalanceIdentity(t *testing.T) {
	amounts := []float64{0.1, 0.2, 0.3, 19.99, 1e6, 0.07, 3.333}
	var logs []Transaction
	for i, amt := range amounts {
		for _, k := range Kinds() {
			logs = append(logs, mkTx(k, amt*float64(i+1), "2025-02-01 00:00:00"))

			s := Summarize(logs)
			want := s.Earned.Add(s.Received).Sub(s.Spent).Sub(s.Given)
			if !s.Balance.Equal(want) {
				t.Fatalf("balance %s != %s after %d entries", s.Balance, want, len(logs))
			}
		}
	}
}

func TestSummarizeSignPerKind(t *testing.T) {
	signs := map[Kind]int64{Earned: 1, Received: 1, Spent: -1, Given: -1}
	base := []Transaction{mkTx(Earned, 10, "2025-01-01 00:00:00"), mkTx(Spent, 4, "2025-01-01 00:00:00")}
	before := Summarize(base)

	for kind, sign := range signs {
		after := Summarize(append(append([]Transaction(nil), base...), mkTx(kind, 2.5, "2025-01-02 00:00:00")))
		delta := after.Balance.Sub(before.Balance)
		if !delta.Equal(dec("2.5").Mul(decimal.NewFromInt(sign))) {
			t.Fatalf("%s changed balance by %s", kind, delta)
		}
		if !after.Total(kind).Sub(before.Total(kind)).Equal(dec("2.5")) {
			t.Fatalf("%s bucket did not grow by the amount", kind)
		}
	}
}

func TestDailyTotals(t *testing.T) {
	logs := []Transaction{
		mkTx(Spent, 3, "2025-01-02 23:59:59"),
		mkTx(Earned, 10, "2025-01-01 08:00:00"),
		mkTx(Given, 2, "2025-01-02 00:00:00"),
	}
	got := DailyTotals(logs)
	if len(got) != 2 {
		t.Fatalf("expected 2 days, got %+v", got)
	}
	if got[0].Day != "2025-01-01" || !got[0].Amount.Equal(dec("10")) {
		t.Fatalf("unexpected first day %+v", got[0])
	}
	if got[1].Day != "2025-01-02" || !got[1].Amount.Equal(dec("5")) {
		t.Fatalf("unexpected second day %+v", got[1])
	}
}

func TestAllTransactionsAndSort(t *testing.T) {
	doc := NewDocument()
	doc.Users["alice"] = &User{Role: RoleUser, Logs: []Transaction{
		mkTx(Earned, 1, "2025-01-01 10:00:00"),
		mkTx(Spent, 2, "2025-01-03 10:00:00"),
	}}
	doc.Users["bob"] = &User{Role: RoleUser, Logs: []Transaction{
		mkTx(Received, 3, "2025-01-02 10:00:00"),
	}}

	entries := AllTransactions(doc)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	SortNewestFirst(entries)
	wantUsers := []string{"alice", "bob", "alice"}
	for i, e := range entries {
		if e.Username != wantUsers[i] {
			t.Fatalf("entry %d owner %s, want %s", i, e.Username, wantUsers[i])
		}
	}
	if !entries[0].Timestamp.After(entries[1].Timestamp.Time) {
		t.Fatal("expected newest first")
	}
}

func TestBuildRollupScenario(t *testing.T) {
	doc := NewDocument()
	now := NewTimestamp(time.Now())
	doc.Users["alice"] = &User{Role: RoleUser, Logs: []Transaction{{Kind: Earned, Amount: 50, Timestamp: now}}}
	doc.Users["bob"] = &User{Role: RoleUser, Logs: []Transaction{{Kind: Earned, Amount: 20, Timestamp: now}}}

	r := BuildRollup(doc)
	if !r.Totals.Earned.Equal(dec("70")) {
		t.Fatalf("total earned %s, want 70", r.Totals.Earned)
	}
	if r.Count != 2 {
		t.Fatalf("count %d, want 2", r.Count)
	}
	per := r.PerUserMap()
	if len(per) != 2 || !per["alice"].Equal(dec("50")) || !per["bob"].Equal(dec("20")) {
		t.Fatalf("unexpected per-user totals %+v", r.PerUser)
	}
	if _, ok := per["admin"]; ok {
		t.Fatal("users without transactions must not appear")
	}
	if len(r.ByDay) != 1 || !r.ByDay[0].Amount.Equal(dec("70")) {
		t.Fatalf("unexpected daily totals %+v", r.ByDay)
	}
}

func TestBuildRollupEmpty(t *testing.T) {
	r := BuildRollup(NewDocument())
	if r.Count != 0 || len(r.PerUser) != 0 || len(r.ByDay) != 0 || !r.Totals.Balance.IsZero() {
		t.Fatalf("expected empty rollup, got %+v", r)
	}
}
