package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jakechorley/mesctl/pkg/core/model"
)

// SessionStore keeps one session row per key in the mes_session table.
// It satisfies session.Store.
type SessionStore struct {
	db  *DB
	key string
}

// NewSessionStore returns a store for the given session key
func NewSessionStore(db *DB, key string) *SessionStore {
	if key == "" {
		key = "default"
	}
	return &SessionStore{db: db, key: key}
}

// Get retrieves the stored session, or an empty one
func (s *SessionStore) Get(ctx context.Context) (*model.Session, error) {
	var payload []byte
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT payload FROM mes_session WHERE session_key = $1
	`, s.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session payload: %w", err)
	}
	return &sess, nil
}

// Set upserts the session
func (s *SessionStore) Set(ctx context.Context, sess *model.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO mes_session (session_key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = NOW()
	`, s.key, payload)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// Clear deletes the session row
func (s *SessionStore) Clear(ctx context.Context) error {
	_, err := s.db.conn.ExecContext(ctx, `DELETE FROM mes_session WHERE session_key = $1`, s.key)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
