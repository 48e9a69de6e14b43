package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// PostgresStore is the production Job Store (C1), backed directly by
// pgx/v5 rather than the teacher's ent-generated client — see DESIGN.md for
// why ent could not be reproduced without running its code generator.
// Single-writer-per-request is enforced by the UPDATE ... WHERE clauses
// below, which only ever advance status/progress, never regress them.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, requestID string, params CreateParams) (*Job, error) {
	now := time.Now()
	const q = `
		INSERT INTO jobs (
			request_id, session_id, owner_user_id, owner_session_id, query,
			trace_id, detected_language, status, progress, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $9)`

	_, err := s.pool.Exec(ctx, q,
		requestID, params.SessionID, params.OwnerUserID, params.OwnerSessionID,
		params.Query, params.TraceID, params.DetectedLanguage, StatusPending, now)
	if err != nil {
		return nil, dependencyDown("job.create", err)
	}

	return &Job{
		RequestID:        requestID,
		SessionID:        params.SessionID,
		OwnerUserID:      params.OwnerUserID,
		OwnerSessionID:   params.OwnerSessionID,
		Query:            params.Query,
		TraceID:          params.TraceID,
		DetectedLanguage: params.DetectedLanguage,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, requestID string, status Status, progress *int) error {
	// Absorbing-terminal + non-decreasing-progress is enforced server-side
	// via the status_rank() CASE expression so concurrent writers racing on
	// the same row can never regress it (single round-trip, no read-then-write).
	const q = `
		UPDATE jobs SET
			status = CASE WHEN status_rank(status) < status_rank($2) THEN $2 ELSE status END,
			progress = CASE WHEN $3::int IS NOT NULL AND $3::int > progress THEN $3 ELSE progress END,
			updated_at = now()
		WHERE request_id = $1 AND status_rank(status) < 2`

	tag, err := s.pool.Exec(ctx, q, requestID, status, progress)
	if err != nil {
		return dependencyDown("job.set_status", err)
	}
	if tag.RowsAffected() == 0 {
		return s.assertExists(ctx, requestID)
	}
	return nil
}

func (s *PostgresStore) SetResult(ctx context.Context, requestID string, result []byte) error {
	const q = `
		UPDATE jobs SET status = $2, progress = 100, result = $3, updated_at = now()
		WHERE request_id = $1 AND status_rank(status) < 2`

	tag, err := s.pool.Exec(ctx, q, requestID, StatusDoneSuccess, result)
	if err != nil {
		return dependencyDown("job.set_result", err)
	}
	if tag.RowsAffected() == 0 {
		return s.assertExists(ctx, requestID)
	}
	return nil
}

func (s *PostgresStore) SetError(ctx context.Context, requestID string, errInfo ErrorInfo) error {
	const q = `
		UPDATE jobs SET
			status = $2, error_code = $3, error_message = $4, error_kind = $5, updated_at = now()
		WHERE request_id = $1 AND status_rank(status) < 2`

	tag, err := s.pool.Exec(ctx, q, requestID, StatusDoneFailed, errInfo.Code, errInfo.Message, errInfo.Kind)
	if err != nil {
		return dependencyDown("job.set_error", err)
	}
	if tag.RowsAffected() == 0 {
		return s.assertExists(ctx, requestID)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, requestID string) (*Job, error) {
	const q = `
		SELECT request_id, session_id, owner_user_id, owner_session_id, query,
			trace_id, detected_language, status, progress, result,
			error_code, error_message, error_kind, created_at, updated_at
		FROM jobs WHERE request_id = $1`

	row := s.pool.QueryRow(ctx, q, requestID)
	j := &Job{}
	var errCode, errMsg, errKind *string
	if err := row.Scan(
		&j.RequestID, &j.SessionID, &j.OwnerUserID, &j.OwnerSessionID, &j.Query,
		&j.TraceID, &j.DetectedLanguage, &j.Status, &j.Progress, &j.Result,
		&errCode, &errMsg, &errKind, &j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, searcherr.Wrap(searcherr.KindNotFound, "job.not_found", searcherr.ErrNotFound)
		}
		return nil, dependencyDown("job.get", err)
	}
	if errCode != nil {
		j.Error = &ErrorInfo{Code: *errCode, Message: derefOr(errMsg, ""), Kind: derefOr(errKind, "")}
	}
	return j, nil
}

func (s *PostgresStore) Delete(ctx context.Context, requestID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE request_id = $1`, requestID)
	if err != nil {
		return dependencyDown("job.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return searcherr.Wrap(searcherr.KindNotFound, "job.not_found", searcherr.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) assertExists(ctx context.Context, requestID string) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM jobs WHERE request_id = $1)`, requestID).Scan(&exists)
	if err != nil {
		return dependencyDown("job.exists_check", err)
	}
	if !exists {
		return searcherr.Wrap(searcherr.KindNotFound, "job.not_found", searcherr.ErrNotFound)
	}
	return nil // row existed but was already terminal — treated as a no-op, not an error
}

func dependencyDown(code string, err error) error {
	return searcherr.Wrap(searcherr.KindDependencyDown, code, fmt.Errorf("job store unavailable: %w", err))
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
