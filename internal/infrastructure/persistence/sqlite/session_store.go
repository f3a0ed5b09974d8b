package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/firm-portal/internal/application/port"
	"github.com/garyjia/firm-portal/internal/domain/entity"
)

// SessionStore implements port.SessionStore on the sessions and visitor tables
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a session store
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Load(ctx context.Context, scope entity.Scope) (*entity.Session, error) {
	query := `SELECT access_token, user_json, expires_at, updated_at FROM sessions WHERE scope = ?`

	var (
		session   = entity.Session{Scope: scope}
		userJSON  string
		expiresAt sql.NullTime
	)
	err := s.db.executor(ctx).QueryRowContext(ctx, query, string(scope)).
		Scan(&session.AccessToken, &userJSON, &expiresAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s session: %w", scope, err)
	}

	if expiresAt.Valid {
		session.ExpiresAt = expiresAt.Time
	}
	if userJSON != "" {
		var user entity.StaffMember
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			return nil, fmt.Errorf("failed to decode %s session user: %w", scope, err)
		}
		session.User = &user
	}
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, session *entity.Session) error {
	userJSON := ""
	if session.User != nil {
		data, err := json.Marshal(session.User)
		if err != nil {
			return fmt.Errorf("failed to encode session user: %w", err)
		}
		userJSON = string(data)
	}

	var expiresAt sql.NullTime
	if !session.ExpiresAt.IsZero() {
		expiresAt = sql.NullTime{Time: session.ExpiresAt.UTC(), Valid: true}
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now()
	}

	query := `
		INSERT INTO sessions (scope, access_token, user_json, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
			access_token = excluded.access_token,
			user_json    = excluded.user_json,
			expires_at   = excluded.expires_at,
			updated_at   = excluded.updated_at`

	_, err := s.db.executor(ctx).ExecContext(ctx, query,
		string(session.Scope), session.AccessToken, userJSON, expiresAt, session.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save %s session: %w", session.Scope, err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, scope entity.Scope) error {
	if _, err := s.db.executor(ctx).ExecContext(ctx, `DELETE FROM sessions WHERE scope = ?`, string(scope)); err != nil {
		return fmt.Errorf("failed to delete %s session: %w", scope, err)
	}
	return nil
}

func (s *SessionStore) VisitorID(ctx context.Context) (string, error) {
	var id string
	err := s.db.executor(ctx).QueryRowContext(ctx, `SELECT visitor_id FROM visitor WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", port.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load visitor id: %w", err)
	}
	return id, nil
}

// SaveVisitorID keeps the first id ever saved
func (s *SessionStore) SaveVisitorID(ctx context.Context, id string) error {
	query := `INSERT INTO visitor (id, visitor_id, created_at) VALUES (1, ?, ?) ON CONFLICT(id) DO NOTHING`
	if _, err := s.db.executor(ctx).ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save visitor id: %w", err)
	}
	return nil
}

var _ port.SessionStore = (*SessionStore)(nil)
