// Package session issues and verifies signed bearer tokens.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ecobank/internal/cache"
	"ecobank/internal/core"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrRevoked      = errors.New("session has been revoked")
)

const maxRevoked = 100_000

// Claims carried by a session token. Subject is the username.
type Claims struct {
	Role core.Role `json:"role"`
	jwt.RegisteredClaims
}

// Account returns the account the token was issued for.
func (c *Claims) Account() core.Account {
	return core.Account{Username: c.Subject, Role: c.Role}
}

// Manager signs tokens with HS256. Revoked token IDs are remembered until
// the token would have expired anyway.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	revoked *cache.LRUCache[struct{}]
	now     func() time.Time
}

func NewManager(secret []byte, ttl time.Duration) *Manager {
	return &Manager{
		secret:  secret,
		ttl:     ttl,
		revoked: cache.NewLRUCache[struct{}](maxRevoked, ttl),
		now:     time.Now,
	}
}

// Revocations exposes the revocation cache for periodic cleanup.
func (m *Manager) Revocations() cache.Cleaner { return m.revoked }

// Issue signs a new token for acct.
func (m *Manager) Issue(acct core.Account) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		Role: acct.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   acct.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies token and returns its claims.
func (m *Manager) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.ID == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	if _, revoked := m.revoked.Get(claims.ID); revoked {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Revoke invalidates the token identified by claims.
func (m *Manager) Revoke(claims *Claims) {
	ttl := m.ttl
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(m.now())
	}
	if ttl <= 0 {
		return
	}
	m.revoked.SetWithTTL(claims.ID, struct{}{}, ttl)
}
