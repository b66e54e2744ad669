package services

import (
	"context"
	"log/slog"
	"strings"

	"ecobank/internal/amqp"
	"ecobank/internal/core"
	"ecobank/internal/metrics"
)

// AuthService checks credentials and creates accounts.
type AuthService struct {
	book   *Book
	events EventPublisher
}

func NewAuthService(book *Book, events EventPublisher) *AuthService {
	return &AuthService{book: book, events: events}
}

// Authenticate returns the account when password matches the stored
// digest. Unknown users and wrong passwords yield the same error.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (core.Account, error) {
	var acct core.Account
	err := s.book.read(func(doc *core.Document) error {
		u, ok := doc.Users[username]
		if !ok || !core.PasswordMatches(u.PasswordHash, password) {
			return core.ErrInvalidCredentials
		}
		acct = core.Account{Username: username, Role: u.Role}
		return nil
	})

	metrics.RecordAuth("login", err == nil)
	if err != nil {
		slog.InfoContext(ctx, "Login rejected", "username", username)
		return core.Account{}, err
	}
	slog.InfoContext(ctx, "Login succeeded", "username", username, "role", acct.Role)
	return acct, nil
}

// Register creates a "user" account with an empty ledger and persists it.
// The returned account can be used to open a session right away.
func (s *AuthService) Register(ctx context.Context, username, password string) (core.Account, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		metrics.RecordAuth("register", false)
		return core.Account{}, core.ErrEmptyCredentials
	}

	err := s.book.update(ctx, func(doc *core.Document) error {
		if _, exists := doc.Users[username]; exists {
			return core.ErrUsernameTaken
		}
		doc.Users[username] = &core.User{
			PasswordHash: core.HashPassword(password),
			Role:         core.RoleUser,
			Logs:         []core.Transaction{},
		}
		return nil
	})
	metrics.RecordAuth("register", err == nil)
	if err != nil {
		return core.Account{}, err
	}

	slog.InfoContext(ctx, "User registered", "username", username)
	publish(ctx, s.events, amqp.NewUserRegistered(username))

	return core.Account{Username: username, Role: core.RoleUser}, nil
}

// Accounts lists every account ordered by username.
func (s *AuthService) Accounts() []core.Account {
	var out []core.Account
	_ = s.book.read(func(doc *core.Document) error {
		out = make([]core.Account, 0, len(doc.Users))
		for name := range doc.Users {
			acct, _ := doc.Account(name)
			out = append(out, acct)
		}
		return nil
	})
	sortAccounts(out)
	return out
}

// Lookup returns the account for username.
func (s *AuthService) Lookup(username string) (core.Account, error) {
	var (
		acct core.Account
		ok   bool
	)
	_ = s.book.read(func(doc *core.Document) error {
		acct, ok = doc.Account(username)
		return nil
	})
	if !ok {
		return core.Account{}, core.ErrUnknownUser
	}
	return acct, nil
}
