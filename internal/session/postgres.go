package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/google/uuid"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// PostgresStore is the crash-recoverable Session Store (C2), backed
// directly by pgx/v5 (see internal/job/postgres.go for why ent is not
// used). TTL is enforced at read-time via the expires_at column.
type PostgresStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewPostgresStore(pool *pgxpool.Pool, ttl time.Duration) *PostgresStore {
	return &PostgresStore{pool: pool, ttl: ttl}
}

func (s *PostgresStore) Create(ctx context.Context, userID string) (*Session, error) {
	now := time.Now()
	sess := &Session{ID: uuid.NewString(), UserID: userID, CreatedAt: now, LastSeen: now}

	const q = `INSERT INTO sessions (session_id, user_id, created_at, last_seen, expires_at) VALUES ($1, $2, $3, $3, $4)`
	_, err := s.pool.Exec(ctx, q, sess.ID, userID, now, now.Add(s.ttl))
	if err != nil {
		return nil, searcherr.Wrap(searcherr.KindDependencyDown, "session.create", err)
	}
	return sess, nil
}

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	const q = `
		UPDATE sessions SET last_seen = now(), expires_at = now() + $2
		WHERE session_id = $1 AND expires_at > now()
		RETURNING session_id, user_id, created_at, last_seen`

	row := s.pool.QueryRow(ctx, q, sessionID, s.ttl)
	sess := &Session{}
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.LastSeen); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, searcherr.Wrap(searcherr.KindNotFound, "session.not_found", searcherr.ErrNotFound)
		}
		return nil, searcherr.Wrap(searcherr.KindDependencyDown, "session.get", err)
	}
	return sess, nil
}

func (s *PostgresStore) Touch(ctx context.Context, sessionID string) error {
	const q = `UPDATE sessions SET last_seen = now(), expires_at = now() + $2 WHERE session_id = $1 AND expires_at > now()`
	tag, err := s.pool.Exec(ctx, q, sessionID, s.ttl)
	if err != nil {
		return searcherr.Wrap(searcherr.KindDependencyDown, "session.touch", err)
	}
	if tag.RowsAffected() == 0 {
		return searcherr.Wrap(searcherr.KindNotFound, "session.not_found", searcherr.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return searcherr.Wrap(searcherr.KindDependencyDown, "session.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return searcherr.Wrap(searcherr.KindNotFound, "session.not_found", searcherr.ErrNotFound)
	}
	return nil
}
