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

const roleColumns = `id, organization_id, name, permissions, is_system, position, created_at, updated_at`

// RoleRepository implements repository.RoleRepository using PostgreSQL.
type RoleRepository struct {
	pool database.DBTX
}

// NewRoleRepository creates a new PostgreSQL-backed role repository.
func NewRoleRepository(pool database.DBTX) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// Create inserts a new role into the database.
func (r *RoleRepository) Create(ctx context.Context, role *domain.OrganizationRole) error {
	query := `
		INSERT INTO organization_roles (` + roleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
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
		if strings.Contains(err.Error(), "23505") {
			return apperrors.AlreadyExists("role", "name", role.Name)
		}
		return fmt.Errorf("insert role: %w", err)
	}

	return nil
}

// GetByID retrieves a role by its unique identifier.
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*domain.OrganizationRole, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM organization_roles WHERE id = $1`, id,
	)
	return scanRoleRow(row)
}

// GetByName retrieves a role by name within an organization.
func (r *RoleRepository) GetByName(ctx context.Context, orgID, name string) (*domain.OrganizationRole, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM organization_roles WHERE organization_id = $1 AND name = $2`,
		orgID, name,
	)
	return scanRoleRow(row)
}

// ListByOrg returns all roles of an organization ordered by position.
func (r *RoleRepository) ListByOrg(ctx context.Context, orgID string) ([]domain.OrganizationRole, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+roleColumns+` FROM organization_roles WHERE organization_id = $1 ORDER BY position`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.OrganizationRole
	for rows.Next() {
		role, err := scanRoleRow(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role rows: %w", err)
	}

	if roles == nil {
		roles = []domain.OrganizationRole{}
	}
	return roles, nil
}

// Update modifies an existing role in the database.
func (r *RoleRepository) Update(ctx context.Context, role *domain.OrganizationRole) error {
	role.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE organization_roles
		SET name = $1, permissions = $2, position = $3, updated_at = $4
		WHERE id = $5`

	ct, err := r.pool.Exec(ctx, query,
		role.Name,
		role.Permissions,
		role.Position,
		role.UpdatedAt,
		role.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "23505") {
			return apperrors.AlreadyExists("role", "name", role.Name)
		}
		return fmt.Errorf("update role: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("role", role.ID)
	}

	return nil
}

// Delete removes a role from the database.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM organization_roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("role", id)
	}

	return nil
}

func scanRoleRow(row rowScanner) (*domain.OrganizationRole, error) {
	var role domain.OrganizationRole

	err := row.Scan(
		&role.ID,
		&role.OrganizationID,
		&role.Name,
		&role.Permissions,
		&role.IsSystem,
		&role.Position,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}

	return &role, nil
}
