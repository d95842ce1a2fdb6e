package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sellora/identity/internal/domain"
	"github.com/sellora/identity/pkg/database"
	apperrors "github.com/sellora/identity/pkg/errors"
)

const sessionColumns = `id, user_id, token, expires_at, last_renewed_at, ip_address, user_agent, impersonated_by, created_at`

// SessionRepository implements repository.SessionRepository using PostgreSQL.
type SessionRepository struct {
	pool database.DBTX
}

// NewSessionRepository creates a new PostgreSQL-backed session repository.
func NewSessionRepository(pool database.DBTX) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts a new session into the database.
func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.Token,
		s.ExpiresAt,
		s.LastRenewedAt,
		s.IPAddress,
		s.UserAgent,
		nullable(s.ImpersonatedBy),
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetByToken retrieves a session by its opaque token.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = $1`, token,
	)
	return scanSessionRow(row)
}

// Update modifies an existing session in the database.
func (r *SessionRepository) Update(ctx context.Context, s *domain.Session) error {
	query := `
		UPDATE sessions
		SET expires_at = $1, last_renewed_at = $2
		WHERE id = $3`

	ct, err := r.pool.Exec(ctx, query, s.ExpiresAt, s.LastRenewedAt, s.ID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("session", s.ID)
	}

	return nil
}

// DeleteByToken removes a session. Deleting an absent session is not an error.
func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByUserID removes all sessions for a user and returns the deleted
// tokens so callers can purge the session cache.
func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`DELETE FROM sessions WHERE user_id = $1 RETURNING token`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("delete sessions: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan deleted token: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted tokens: %w", err)
	}

	return tokens, nil
}

// ListByUserID returns all unexpired sessions for the given user, newest first.
func (r *SessionRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 AND expires_at > $2 ORDER BY created_at DESC`,
		userID, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		s, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	if sessions == nil {
		sessions = []domain.Session{}
	}
	return sessions, nil
}

func scanSessionRow(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	var impersonatedBy *string

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Token,
		&s.ExpiresAt,
		&s.LastRenewedAt,
		&s.IPAddress,
		&s.UserAgent,
		&impersonatedBy,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if impersonatedBy != nil {
		s.ImpersonatedBy = *impersonatedBy
	}
	return &s, nil
}
