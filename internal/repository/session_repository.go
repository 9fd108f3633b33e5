package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mbayedev/immoka/internal/domain"
	"github.com/mbayedev/immoka/pkg/database"
)

// sessionRepository implements SessionRepository interface
type sessionRepository struct {
	db *database.Postgres
}

// NewSessionRepository creates a new refresh session repository
func NewSessionRepository(db *database.Postgres) SessionRepository {
	return &sessionRepository{db: db}
}

// Create inserts a refresh session row.
func (r *sessionRepository) Create(ctx context.Context, session *domain.RefreshSession) error {
	query := `
		INSERT INTO refresh_sessions (id, user_key, token_hash, expires_at, created_at, user_agent, ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		session.ID,
		session.UserKey,
		session.TokenHash,
		session.ExpiresAt,
		session.CreatedAt,
		session.UserAgent,
		session.IP,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("refresh session already recorded: %w", ErrDuplicateSession)
			}
		}
		return fmt.Errorf("failed to create refresh session: %w", err)
	}

	return nil
}

// GetByTokenHash retrieves a session by the sha256 hash of its refresh token.
func (r *sessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshSession, error) {
	query := `
		SELECT id, user_key, token_hash, expires_at, created_at, user_agent, ip
		FROM refresh_sessions
		WHERE token_hash = $1
	`

	session, err := r.scanSession(r.db.DB.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("refresh session not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get refresh session: %w", err)
	}

	return session, nil
}

// ListByUserKey returns all sessions of a user, newest first.
func (r *sessionRepository) ListByUserKey(ctx context.Context, userKey string) ([]*domain.RefreshSession, error) {
	query := `
		SELECT id, user_key, token_hash, expires_at, created_at, user_agent, ip
		FROM refresh_sessions
		WHERE user_key = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, userKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.RefreshSession
	for rows.Next() {
		session, err := r.scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refresh session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate refresh sessions: %w", err)
	}

	return sessions, nil
}

// DeleteByTokenHash removes a single session. Missing rows are not an error,
// logout is idempotent.
func (r *sessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	query := `DELETE FROM refresh_sessions WHERE token_hash = $1`

	if _, err := r.db.DB.ExecContext(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("failed to delete refresh session: %w", err)
	}

	return nil
}

// DeleteAllForUser removes every session of a user and returns how many were
// dropped.
func (r *sessionRepository) DeleteAllForUser(ctx context.Context, userKey string) (int, error) {
	query := `DELETE FROM refresh_sessions WHERE user_key = $1`

	result, err := r.db.DB.ExecContext(ctx, query, userKey)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user sessions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

// PruneToMostRecent keeps only the `keep` newest sessions of a user, evicting
// the oldest ones beyond that bound.
func (r *sessionRepository) PruneToMostRecent(ctx context.Context, userKey string, keep int) error {
	query := `
		DELETE FROM refresh_sessions
		WHERE user_key = $1
		AND id NOT IN (
			SELECT id FROM refresh_sessions
			WHERE user_key = $1
			ORDER BY created_at DESC
			LIMIT $2
		)
	`

	if _, err := r.db.DB.ExecContext(ctx, query, userKey, keep); err != nil {
		return fmt.Errorf("failed to prune refresh sessions: %w", err)
	}

	return nil
}

// DeleteExpired removes sessions past their expiry. Called opportunistically
// when sessions are listed, expiry has no scheduled job.
func (r *sessionRepository) DeleteExpired(ctx context.Context) (int, error) {
	query := `DELETE FROM refresh_sessions WHERE expires_at < NOW()`

	result, err := r.db.DB.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

func (r *sessionRepository) scanSession(row interface{ Scan(...any) error }) (*domain.RefreshSession, error) {
	session := &domain.RefreshSession{}
	var userAgent, ip sql.NullString

	err := row.Scan(
		&session.ID,
		&session.UserKey,
		&session.TokenHash,
		&session.ExpiresAt,
		&session.CreatedAt,
		&userAgent,
		&ip,
	)
	if err != nil {
		return nil, err
	}

	if userAgent.Valid {
		session.UserAgent = &userAgent.String
	}
	if ip.Valid {
		session.IP = &ip.String
	}

	return session, nil
}
