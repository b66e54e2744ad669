package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ecobank/internal/amqp"
	"ecobank/internal/services"
	"ecobank/internal/storage"
)

type DefaultFactory struct {
	logger *slog.Logger
	dial   func(url, exchange, queue string) (*amqp.Client, error)
}

func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		dial:   amqp.NewClient,
	}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateBackend opens the repository, loads the document and wires the
// services. AMQP is optional: a dial failure is logged and events are off.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := OpenRepository(config)
	if err != nil {
		return nil, err
	}

	book, err := services.OpenBook(ctx, repo)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	var events services.EventPublisher
	var client *amqp.Client
	if config.AMQPURL != "" {
		client, err = f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			client = nil
		} else {
			events = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	be := &Backend{
		Type:   config.Type,
		Repo:   repo,
		Book:   book,
		Auth:   services.NewAuthService(book, events),
		Ledger: services.NewLedgerService(book, events),
		Events: events,
	}

	f.logger.Info("Initialized backend",
		"type", config.Type,
		"users", len(book.Snapshot().Users),
		"events_enabled", events != nil)

	cleanup := func() error {
		var errs []error
		if client != nil {
			errs = append(errs, client.Close())
		}
		errs = append(errs, book.Close())
		return errors.Join(errs...)
	}

	return &BackendResult{Backend: be, Cleanup: cleanup}, nil
}

// OpenRepository opens the repository named by config without loading it.
func OpenRepository(config Config) (storage.Repository, error) {
	switch config.Type {
	case JSONBackend:
		return storage.NewFileRepository(config.DataFile), nil
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		return repo, nil
	case MemoryBackend:
		return storage.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
