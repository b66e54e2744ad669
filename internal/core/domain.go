package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	Earned   Kind = "Earned"
	Spent    Kind = "Spent"
	Given    Kind = "Given"
	Received Kind = "Received"
)

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// TimestampLayout is the textual form of every transaction timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

type (
	// Kind classifies a cash-flow event.
	Kind string

	Role string

	// Timestamp is a wall-clock time with second resolution, serialized
	// as "YYYY-MM-DD HH:MM:SS".
	Timestamp struct {
		time.Time
	}

	Transaction struct {
		Kind        Kind      `json:"type"`
		Amount      float64   `json:"amount"`
		Description string    `json:"description"`
		Timestamp   Timestamp `json:"timestamp"`
	}

	User struct {
		PasswordHash string        `json:"password"`
		Role         Role          `json:"role"`
		Logs         []Transaction `json:"logs"`
	}

	// Document is the whole persisted state: every user keyed by username.
	Document struct {
		Users map[string]*User `json:"users"`
	}

	// Account is the public view of a user, safe to hand to presentation.
	Account struct {
		Username string `json:"username"`
		Role     Role   `json:"role"`
	}
)

var (
	// ErrValidation is wrapped by every rejected-input error.
	ErrValidation = errors.New("validation failed")

	ErrEmptyCredentials = fmt.Errorf("%w: username and password cannot be empty", ErrValidation)
	ErrUsernameTaken    = fmt.Errorf("%w: username already exists", ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be greater than 0", ErrValidation)
	ErrInvalidKind      = fmt.Errorf("%w: unknown transaction type", ErrValidation)

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnknownUser        = errors.New("unknown user")
)

// Kinds lists the canonical transaction kinds in display order.
func Kinds() []Kind {
	return []Kind{Earned, Spent, Given, Received}
}

func (k Kind) Validate() error {
	switch k {
	case Earned, Spent, Given, Received:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
}

// ParseKind accepts any letter case, e.g. "earned" or "EARNED".
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for _, k := range Kinds() {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ValidateAmount rejects zero, negative and non-finite amounts.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NewTimestamp keeps the wall clock of t to the second. Timestamps carry no
// zone on disk, so they are held as UTC with the same clock reading; parsing
// in a real zone would rewrite readings that fall in a DST gap.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

// ParseTimestamp reads a "YYYY-MM-DD HH:MM:SS" wall-clock reading.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return Timestamp{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return Timestamp{Time: t}, nil
}

func (t Timestamp) String() string {
	return t.Format(TimestampLayout)
}

// DayKey returns the calendar date in "YYYY-MM-DD" form.
func (t Timestamp) DayKey() string {
	return t.Format(time.DateOnly)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("timestamp must be a string, got %s", s)
	}
	parsed, err := ParseTimestamp(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (tx Transaction) Validate() error {
	if err := tx.Kind.Validate(); err != nil {
		return err
	}
	return ValidateAmount(tx.Amount)
}

// NewDocument returns the bootstrap document holding only the default
// administrator.
func NewDocument() *Document {
	return &Document{
		Users: map[string]*User{
			BootstrapAdminUsername: {
				PasswordHash: HashPassword(BootstrapAdminPassword),
				Role:         RoleAdmin,
				Logs:         []Transaction{},
			},
		},
	}
}

// Normalize replaces nil collections with empty ones so the document
// always serializes "users": {} and "logs": [].
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = map[string]*User{}
	}
	for name, u := range d.Users {
		if u == nil {
			u = &User{}
			d.Users[name] = u
		}
		if u.Logs == nil {
			u.Logs = []Transaction{}
		}
	}
}

// Clone returns a deep copy; mutations on the copy never reach d.
func (d *Document) Clone() *Document {
	out := &Document{Users: make(map[string]*User, len(d.Users))}
	for name, u := range d.Users {
		if u == nil {
			continue
		}
		cp := *u
		cp.Logs = append(make([]Transaction, 0, len(u.Logs)), u.Logs...)
		out.Users[name] = &cp
	}
	return out
}

// Account returns the public view of username, or false if absent.
func (d *Document) Account(username string) (Account, bool) {
	u, ok := d.Users[username]
	if !ok {
		return Account{}, false
	}
	return Account{Username: username, Role: u.Role}, true
}
