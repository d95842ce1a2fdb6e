package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sellora/identity/internal/domain"
	"github.com/sellora/identity/pkg/database"
	apperrors "github.com/sellora/identity/pkg/errors"
)

// VerificationRepository implements repository.VerificationRepository using
// PostgreSQL.
type VerificationRepository struct {
	pool database.DBTX
}

// NewVerificationRepository creates a new PostgreSQL-backed verification
// repository.
func NewVerificationRepository(pool database.DBTX) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

// Create inserts a new verification row into the database.
func (r *VerificationRepository) Create(ctx context.Context, v *domain.Verification) error {
	query := `
		INSERT INTO verifications (id, identifier, purpose, value, expires_at, consumed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		v.ID,
		v.Identifier,
		v.Purpose,
		v.Value,
		v.ExpiresAt,
		v.Consumed,
		v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}

	return nil
}

// Get retrieves a verification row by identifier, purpose, and value.
func (r *VerificationRepository) Get(ctx context.Context, identifier string, purpose domain.VerificationPurpose, value string) (*domain.Verification, error) {
	query := `
		SELECT id, identifier, purpose, value, expires_at, consumed, created_at
		FROM verifications
		WHERE identifier = $1 AND purpose = $2 AND value = $3`

	var v domain.Verification
	err := r.pool.QueryRow(ctx, query, identifier, purpose, value).Scan(
		&v.ID,
		&v.Identifier,
		&v.Purpose,
		&v.Value,
		&v.ExpiresAt,
		&v.Consumed,
		&v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan verification: %w", err)
	}

	return &v, nil
}

// Consume marks the row consumed. The WHERE clause makes the check-and-set
// atomic: two racing consumers see exactly one true result.
func (r *VerificationRepository) Consume(ctx context.Context, id string) (bool, error) {
	ct, err := r.pool.Exec(ctx,
		`UPDATE verifications SET consumed = TRUE WHERE id = $1 AND consumed = FALSE`, id,
	)
	if err != nil {
		return false, fmt.Errorf("consume verification: %w", err)
	}

	return ct.RowsAffected() == 1, nil
}
