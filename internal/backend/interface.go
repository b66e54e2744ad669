package backend

import (
	"context"

	"ecobank/internal/services"
	"ecobank/internal/storage"
)

// Backend bundles the opened repository and the services built on it.
type Backend struct {
	Type   BackendType
	Repo   storage.Repository
	Book   *services.Book
	Auth   *services.AuthService
	Ledger *services.LedgerService
	// Events is nil when AMQP is disabled or unreachable at start-up.
	Events services.EventPublisher
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

type BackendResult struct {
	Backend *Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds what the factory needs to open a backend.
type Config struct {
	Type BackendType

	DataFile     string
	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	JSONBackend   BackendType = "json"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case JSONBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
