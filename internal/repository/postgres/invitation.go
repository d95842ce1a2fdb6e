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

const invitationColumns = `id, organization_id, inviter_id, identifier, role_id, status, expires_at, created_at, updated_at`

// InvitationRepository implements repository.InvitationRepository using
// PostgreSQL.
type InvitationRepository struct {
	pool database.DBTX
}

// NewInvitationRepository creates a new PostgreSQL-backed invitation
// repository.
func NewInvitationRepository(pool database.DBTX) *InvitationRepository {
	return &InvitationRepository{pool: pool}
}

// Create inserts a new invitation into the database.
func (r *InvitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO invitations (` + invitationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		inv.ID,
		inv.OrganizationID,
		inv.InviterID,
		inv.Identifier,
		inv.RoleID,
		inv.Status,
		inv.ExpiresAt,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}

	return nil
}

// GetByID retrieves an invitation by its unique identifier.
func (r *InvitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id,
	)
	return scanInvitationRow(row)
}

// GetPending retrieves the unexpired pending invitation for an
// (organization, identifier) pair, if one exists.
func (r *InvitationRepository) GetPending(ctx context.Context, orgID, identifier string) (*domain.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE organization_id = $1 AND identifier = $2 AND status = $3 AND expires_at > $4
		ORDER BY created_at DESC
		LIMIT 1`

	row := r.pool.QueryRow(ctx, query, orgID, identifier, domain.InvitationPending, time.Now().UTC())
	return scanInvitationRow(row)
}

// ListByOrg returns all invitations of an organization, newest first.
func (r *InvitationRepository) ListByOrg(ctx context.Context, orgID string) ([]domain.Invitation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE organization_id = $1 ORDER BY created_at DESC`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitationRow(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invitation rows: %w", err)
	}

	if invitations == nil {
		invitations = []domain.Invitation{}
	}
	return invitations, nil
}

// Update modifies an existing invitation in the database.
func (r *InvitationRepository) Update(ctx context.Context, inv *domain.Invitation) error {
	inv.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE invitations
		SET status = $1, updated_at = $2
		WHERE id = $3`

	ct, err := r.pool.Exec(ctx, query, inv.Status, inv.UpdatedAt, inv.ID)
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("invitation", inv.ID)
	}

	return nil
}

// Accept marks the invitation accepted and inserts the member row in one
// transaction, so an invitation can never be consumed without producing a
// membership.
func (r *InvitationRepository) Accept(ctx context.Context, inv *domain.Invitation, member *domain.Member) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inv.Status = domain.InvitationAccepted
	inv.UpdatedAt = time.Now().UTC()

	ct, err := tx.Exec(ctx,
		`UPDATE invitations SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		inv.Status, inv.UpdatedAt, inv.ID, domain.InvitationPending,
	)
	if err != nil {
		return fmt.Errorf("accept invitation: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.InvalidInput("invitation is no longer pending")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO members (`+memberColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		member.ID,
		member.OrganizationID,
		member.UserID,
		member.RoleID,
		member.Enabled,
		member.CreatedAt,
		member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func scanInvitationRow(row rowScanner) (*domain.Invitation, error) {
	var inv domain.Invitation

	err := row.Scan(
		&inv.ID,
		&inv.OrganizationID,
		&inv.InviterID,
		&inv.Identifier,
		&inv.RoleID,
		&inv.Status,
		&inv.ExpiresAt,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan invitation: %w", err)
	}

	return &inv, nil
}
