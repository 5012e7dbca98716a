// Package store persists user credentials in a local sqlite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrDuplicateEmail is returned when registering an email that exists.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password; callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT UNIQUE NOT NULL,
	password TEXT NOT NULL,
	display_name TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// User is a stored account. The password hash never leaves this package.
type User struct {
	Email       string
	DisplayName string
}

// Store is a sqlite-backed user store. It becomes Ready once the background
// schema initialization finishes; the HTTP layer gates credential endpoints
// on that flag.
type Store struct {
	db     *sql.DB
	ready  atomic.Bool
	logger *zap.Logger
}

// Open opens the database at path and starts schema initialization in the
// background so the server can bind its listener immediately.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	go s.init(path)
	return s, nil
}

func (s *Store) init(path string) {
	if _, err := s.db.Exec(schema); err != nil {
		s.logger.Error("database initialization failed",
			zap.String("path", path), zap.Error(err))
		return
	}
	s.ready.Store(true)
	s.logger.Info("database ready", zap.String("path", path))
}

// Ready reports whether the schema has been initialized.
func (s *Store) Ready() bool {
	return s.ready.Load()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser hashes password with bcrypt and inserts a new account.
func (s *Store) CreateUser(ctx context.Context, email, password, displayName string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (email, password, display_name) VALUES (?, ?, ?)`,
		email, string(hash), displayName)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Authenticate verifies email and password and returns the stored account.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*User, error) {
	var (
		hash        string
		displayName sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT password, display_name FROM users WHERE email = ?`, email).
		Scan(&hash, &displayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &User{Email: email, DisplayName: displayName.String}, nil
}
