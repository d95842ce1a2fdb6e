package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sellora/identity/internal/domain"
	"github.com/sellora/identity/pkg/database"
	apperrors "github.com/sellora/identity/pkg/errors"
)

const organizationColumns = `id, name, slug, status, metadata, created_at, updated_at, deleted_at`

// OrganizationRepository implements repository.OrganizationRepository using
// PostgreSQL.
type OrganizationRepository struct {
	pool database.DBTX
}

// NewOrganizationRepository creates a new PostgreSQL-backed organization
// repository.
func NewOrganizationRepository(pool database.DBTX) *OrganizationRepository {
	return &OrganizationRepository{pool: pool}
}

// CreateWithOwner inserts the organization, its seed roles, and the creator's
// owner membership in one transaction so a tenant can never exist half-built.
func (r *OrganizationRepository) CreateWithOwner(ctx context.Context, org *domain.Organization, roles []domain.OrganizationRole, owner *domain.Member) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO organizations (`+organizationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		org.ID,
		org.Name,
		org.Slug,
		org.Status,
		org.Metadata,
		org.CreatedAt,
		org.UpdatedAt,
		org.DeletedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "23505") {
			return apperrors.AlreadyExists("organization", "slug", org.Slug)
		}
		return fmt.Errorf("insert organization: %w", err)
	}

	for i := range roles {
		role := &roles[i]
		_, err = tx.Exec(ctx,
			`INSERT INTO organization_roles (`+roleColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			role.ID,
			role.OrganizationID,
			role.Name,
			role.Permissions,
			role.IsSystem,
			role.Position,
			role.CreatedAt,
			role.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert seed role %s: %w", role.Name, err)
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO members (`+memberColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		owner.ID,
		owner.OrganizationID,
		owner.UserID,
		owner.RoleID,
		owner.Enabled,
		owner.CreatedAt,
		owner.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert owner member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an organization by its unique identifier.
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id,
	)
	return scanOrganizationRow(row)
}

// GetBySlug retrieves an organization by its slug.
func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE slug = $1`, slug,
	)
	return scanOrganizationRow(row)
}

// Update modifies an existing organization in the database.
func (r *OrganizationRepository) Update(ctx context.Context, org *domain.Organization) error {
	org.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE organizations
		SET name = $1, slug = $2, status = $3, metadata = $4, updated_at = $5, deleted_at = $6
		WHERE id = $7`

	ct, err := r.pool.Exec(ctx, query,
		org.Name,
		org.Slug,
		org.Status,
		org.Metadata,
		org.UpdatedAt,
		org.DeletedAt,
		org.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "23505") {
			return apperrors.AlreadyExists("organization", "slug", org.Slug)
		}
		return fmt.Errorf("update organization: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("organization", org.ID)
	}

	return nil
}

func scanOrganizationRow(row rowScanner) (*domain.Organization, error) {
	var org domain.Organization

	err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Slug,
		&org.Status,
		&org.Metadata,
		&org.CreatedAt,
		&org.UpdatedAt,
		&org.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan organization: %w", err)
	}

	return &org, nil
}
