package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Summary holds per-kind totals and the derived balance.
type Summary struct {
	Earned   decimal.Decimal
	Spent    decimal.Decimal
	Given    decimal.Decimal
	Received decimal.Decimal
	Balance  decimal.Decimal
}

// Total returns the bucket for k; unknown kinds are zero.
func (s Summary) Total(k Kind) decimal.Decimal {
	switch k {
	case Earned:
		return s.Earned
	case Spent:
		return s.Spent
	case Given:
		return s.Given
	case Received:
		return s.Received
	default:
		return decimal.Zero
	}
}

// Summarize sums amounts per kind over logs. Transactions of any other kind
// are ignored. Balance = Earned + Received - Spent - Given.
func Summarize(logs []Transaction) Summary {
	var s Summary
	for _, tx := range logs {
		s.add(tx)
	}
	s.derive()
	return s
}

func (s *Summary) add(tx Transaction) {
	amt := amountOf(tx)
	switch tx.Kind {
	case Earned:
		s.Earned = s.Earned.Add(amt)
	case Spent:
		s.Spent = s.Spent.Add(amt)
	case Given:
		s.Given = s.Given.Add(amt)
	case Received:
		s.Received = s.Received.Add(amt)
	}
}

func (s *Summary) derive() {
	s.Balance = s.Earned.Add(s.Received).Sub(s.Spent).Sub(s.Given)
}

// DayTotal is the sum of all amounts recorded on one calendar day.
type DayTotal struct {
	Day    string // YYYY-MM-DD
	Amount decimal.Decimal
}

// DailyTotals groups logs by calendar day, oldest day first. Amounts of
// every kind are added together, as the activity charts plot them.
func DailyTotals(logs []Transaction) []DayTotal {
	byDay := make(map[string]decimal.Decimal)
	for _, tx := range logs {
		day := tx.Timestamp.DayKey()
		byDay[day] = byDay[day].Add(amountOf(tx))
	}
	out := make([]DayTotal, 0, len(byDay))
	for day, amt := range byDay {
		out = append(out, DayTotal{Day: day, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// Entry is a transaction tagged with the user who recorded it.
type Entry struct {
	Username string
	Transaction
}

// AllTransactions flattens every user's log. The order of the result is
// not specified.
func AllTransactions(doc *Document) []Entry {
	var out []Entry
	for name, u := range doc.Users {
		if u == nil {
			continue
		}
		for _, tx := range u.Logs {
			out = append(out, Entry{Username: name, Transaction: tx})
		}
	}
	return out
}

// SortNewestFirst orders entries by timestamp descending, breaking ties by
// username so the result is stable across calls.
func SortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Timestamp.Equal(b.Timestamp.Time) {
			return a.Timestamp.After(b.Timestamp.Time)
		}
		return a.Username < b.Username
	})
}

// UserTotal is the sum of every amount one user recorded, regardless of kind.
type UserTotal struct {
	Username string
	Amount   decimal.Decimal
}

// Rollup is the administrator's view across all ledgers.
type Rollup struct {
	Totals  Summary
	PerUser []UserTotal // sorted by username
	ByDay   []DayTotal  // oldest day first
	Count   int
}

// PerUserMap returns PerUser keyed by username.
func (r Rollup) PerUserMap() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(r.PerUser))
	for _, ut := range r.PerUser {
		m[ut.Username] = ut.Amount
	}
	return m
}

// BuildRollup computes every cross-user aggregate from doc in one pass over
// its transactions. Nothing is cached.
func BuildRollup(doc *Document) Rollup {
	entries := AllTransactions(doc)

	var r Rollup
	perUser := make(map[string]decimal.Decimal)
	logs := make([]Transaction, 0, len(entries))
	for _, e := range entries {
		r.Totals.add(e.Transaction)
		perUser[e.Username] = perUser[e.Username].Add(amountOf(e.Transaction))
		logs = append(logs, e.Transaction)
	}
	r.Totals.derive()
	r.Count = len(entries)

	r.PerUser = make([]UserTotal, 0, len(perUser))
	for name, amt := range perUser {
		r.PerUser = append(r.PerUser, UserTotal{Username: name, Amount: amt})
	}
	sort.Slice(r.PerUser, func(i, j int) bool { return r.PerUser[i].Username < r.PerUser[j].Username })

	r.ByDay = DailyTotals(logs)
	return r
}
