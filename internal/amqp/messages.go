package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ecobank/internal/core"
)

// EventKind names what happened to the document.
type EventKind string

const (
	TransactionRecorded EventKind = "transaction_recorded"
	UserRegistered      EventKind = "user_registered"
)

// LedgerEvent is published after a mutation has been persisted. It carries
// the full transaction so consumers never read the store. ID is assigned once
// at creation and survives redelivery.
type LedgerEvent struct {
	ID          string            `json:"id"`
	Kind        EventKind         `json:"kind"`
	Username    string            `json:"username"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

func NewTransactionRecorded(username string, tx core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		ID:          uuid.NewString(),
		Kind:        TransactionRecorded,
		Username:    username,
		Transaction: &tx,
		OccurredAt:  time.Now(),
	}
}

func NewUserRegistered(username string) *LedgerEvent {
	return &LedgerEvent{
		ID:         uuid.NewString(),
		Kind:       UserRegistered,
		Username:   username,
		OccurredAt: time.Now(),
	}
}

// Entry returns the event as a ledger entry. ok is false for events that
// carry no transaction.
func (e *LedgerEvent) Entry() (core.Entry, bool) {
	if e.Kind != TransactionRecorded || e.Transaction == nil {
		return core.Entry{}, false
	}
	return core.Entry{Username: e.Username, Transaction: *e.Transaction}, true
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and checks a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Username == "" {
		return nil, fmt.Errorf("event without username")
	}
	switch e.Kind {
	case TransactionRecorded:
		if e.Transaction == nil {
			return nil, fmt.Errorf("%s event without transaction", e.Kind)
		}
	case UserRegistered:
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return &e, nil
}
