package store

import (
	"context"
	"database/sql"
	"errors"
)

// PutKV writes an ephemeral key-value entry. Best-effort: failures are
// logged and swallowed so a dead side store never fails a workflow.
func (s *Store) PutKV(ctx context.Context, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		s.logger.Warn("kv write failed", "key", key, "error", err)
	}
}

// GetKV reads an entry, returning false when absent or on error.
func (s *Store) GetKV(ctx context.Context, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		s.logger.Warn("kv read failed", "key", key, "error", err)
		return "", false
	}
	return value, true
}
