// Package csrf issues and redeems single-use form tokens backed by
// sqlite, so tokens survive a server restart.
package csrf

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"
)

const defaultTTL = time.Hour

// ErrInvalidToken covers unknown, already-used, and expired tokens
// alike; callers have no reason to distinguish them.
var ErrInvalidToken = errors.New("invalid or expired csrf token")

// Store hands out single-use tokens for the contact form.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewStore(db *sql.DB, ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	s := &Store{db: db, ttl: ttl, now: time.Now}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS csrf_tokens (
			token TEXT PRIMARY KEY,
			expires_at DATETIME NOT NULL
		)`)
	return err
}

// Issue creates and persists a fresh token.
func (s *Store) Issue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	_, err := s.db.Exec(
		`INSERT INTO csrf_tokens (token, expires_at) VALUES (?, ?)`,
		token, s.now().Add(s.ttl),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Consume redeems a token. Tokens are single-use: the row is deleted on
// redemption, so a second Consume of the same token fails with
// ErrInvalidToken.
func (s *Store) Consume(token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	res, err := s.db.Exec(
		`DELETE FROM csrf_tokens WHERE token = ? AND expires_at > ?`,
		token, s.now(),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidToken
	}
	return nil
}

// Sweep deletes expired tokens and reports how many were removed.
func (s *Store) Sweep() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM csrf_tokens WHERE expires_at <= ?`, s.now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
