package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"ecobank/internal/amqp"
	"ecobank/internal/core"
	"ecobank/internal/metrics"
)

// LedgerService appends transactions and computes views over them.
type LedgerService struct {
	book   *Book
	events EventPublisher
	now    func() time.Time
}

func NewLedgerService(book *Book, events EventPublisher) *LedgerService {
	return &LedgerService{book: book, events: events, now: time.Now}
}

// Stats is a user's own statistics: totals per kind and per day.
type Stats struct {
	Summary core.Summary
	ByDay   []core.DayTotal
	Count   int
}

// Append records a transaction for username stamped with the current time
// and persists the document. Invalid input leaves the ledger unchanged.
func (s *LedgerService) Append(ctx context.Context, username string, kind core.Kind, amount float64, description string) (core.Transaction, error) {
	tx := core.Transaction{
		Kind:        kind,
		Amount:      amount,
		Description: description,
		Timestamp:   core.NewTimestamp(s.now()),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	err := s.book.update(ctx, func(doc *core.Document) error {
		u, ok := doc.Users[username]
		if !ok {
			return core.ErrUnknownUser
		}
		u.Logs = append(u.Logs, tx)
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	metrics.RecordTransaction(string(kind))
	slog.InfoContext(ctx, "Transaction recorded",
		"username", username,
		"type", kind,
		"amount", amount)
	publish(ctx, s.events, amqp.NewTransactionRecorded(username, tx))

	return tx, nil
}

// Transactions returns a copy of username's log in insertion order.
func (s *LedgerService) Transactions(username string) ([]core.Transaction, error) {
	var out []core.Transaction
	err := s.book.read(func(doc *core.Document) error {
		u, ok := doc.Users[username]
		if !ok {
			return core.ErrUnknownUser
		}
		out = append(make([]core.Transaction, 0, len(u.Logs)), u.Logs...)
		return nil
	})
	return out, err
}

func (s *LedgerService) Summary(username string) (core.Summary, error) {
	logs, err := s.Transactions(username)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(logs), nil
}

func (s *LedgerService) Stats(username string) (Stats, error) {
	logs, err := s.Transactions(username)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Summary: core.Summarize(logs),
		ByDay:   core.DailyTotals(logs),
		Count:   len(logs),
	}, nil
}

// AllTransactions returns every user's transactions, newest first.
func (s *LedgerService) AllTransactions() []core.Entry {
	var entries []core.Entry
	_ = s.book.read(func(doc *core.Document) error {
		entries = core.AllTransactions(doc)
		return nil
	})
	core.SortNewestFirst(entries)
	return entries
}

// Rollup computes the cross-user aggregate from the current document.
func (s *LedgerService) Rollup() core.Rollup {
	var r core.Rollup
	_ = s.book.read(func(doc *core.Document) error {
		r = core.BuildRollup(doc)
		return nil
	})
	return r
}

func sortAccounts(accts []core.Account) {
	sort.Slice(accts, func(i, j int) bool { return accts[i].Username < accts[j].Username })
}
