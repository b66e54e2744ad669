package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ecobank/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores the document in two tables, users and
// transactions. Save replaces both inside a single transaction.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Writes are serialized by the book; a single connection avoids
	// SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements Repository. An empty database yields the bootstrap
// document.
func (r *SQLiteRepository) Load(ctx context.Context) (*core.Document, error) {
	doc := &core.Document{Users: make(map[string]*core.User)}

	rows, err := r.db.QueryContext(ctx, `SELECT username, password, role FROM users`)
	if err != nil {
		return nil, &Error{Op: "load", Location: r.path, Err: fmt.Errorf("query users: %w", err)}
	}
	for rows.Next() {
		var name string
		u := &core.User{Logs: []core.Transaction{}}
		if err := rows.Scan(&name, &u.PasswordHash, &u.Role); err != nil {
			rows.Close()
			return nil, &Error{Op: "load", Location: r.path, Err: fmt.Errorf("scan user: %w", err)}
		}
		doc.Users[name] = u
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, &Error{Op: "load", Location: r.path, Err: err}
	}
	rows.Close()

	if len(doc.Users) == 0 {
		slog.InfoContext(ctx, "SQLite database empty, starting from bootstrap document", "path", r.path)
		return core.NewDocument(), nil
	}

	txRows, err := r.db.QueryContext(ctx,
		`SELECT username, type, amount, description, timestamp FROM transactions ORDER BY username, seq`)
	if err != nil {
		return nil, &Error{Op: "load", Location: r.path, Err: fmt.Errorf("query transactions: %w", err)}
	}
	defer txRows.Close()

	for txRows.Next() {
		var (
			name, kind, desc, ts string
			amount               float64
		)
		if err := txRows.Scan(&name, &kind, &amount, &desc, &ts); err != nil {
			return nil, &Error{Op: "load", Location: r.path, Err: fmt.Errorf("scan transaction: %w", err)}
		}
		at, err := core.ParseTimestamp(ts)
		if err != nil {
			return nil, &Error{Op: "load", Location: r.path, Err: err}
		}
		u, ok := doc.Users[name]
		if !ok {
			return nil, &Error{Op: "load", Location: r.path, Err: fmt.Errorf("transaction for unknown user %q", name)}
		}
		u.Logs = append(u.Logs, core.Transaction{
			Kind:        core.Kind(kind),
			Amount:      amount,
			Description: desc,
			Timestamp:   at,
		})
	}
	if err := txRows.Err(); err != nil {
		return nil, &Error{Op: "load", Location: r.path, Err: err}
	}

	if err := validate(doc); err != nil {
		return nil, &Error{Op: "load", Location: r.path, Err: err}
	}
	return doc, nil
}

// Save implements Repository.
func (r *SQLiteRepository) Save(ctx context.Context, doc *core.Document) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Op: "save", Location: r.path, Err: fmt.Errorf("begin: %w", err)}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	wrap := func(step string, e error) error {
		return &Error{Op: "save", Location: r.path, Err: fmt.Errorf("%s: %w", step, e)}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return wrap("clear transactions", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return wrap("clear users", err)
	}

	userStmt, err := tx.PrepareContext(ctx, `INSERT INTO users (username, password, role) VALUES (?, ?, ?)`)
	if err != nil {
		return wrap("prepare users", err)
	}
	defer userStmt.Close()

	txStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (username, seq, type, amount, description, timestamp) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return wrap("prepare transactions", err)
	}
	defer txStmt.Close()

	count := 0
	for name, u := range doc.Users {
		if _, err = userStmt.ExecContext(ctx, name, u.PasswordHash, string(u.Role)); err != nil {
			return wrap("insert user "+name, err)
		}
		for i, t := range u.Logs {
			if _, err = txStmt.ExecContext(ctx, name, i, string(t.Kind), t.Amount, t.Description, t.Timestamp.String()); err != nil {
				return wrap("insert transaction", err)
			}
			count++
		}
	}

	if err = tx.Commit(); err != nil {
		return wrap("commit", err)
	}

	slog.DebugContext(ctx, "Document saved to SQLite", "users", len(doc.Users), "transactions", count)
	return nil
}
