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

const memberColumns = `id, organization_id, user_id, role_id, enabled, created_at, updated_at`

// MemberRepository implements repository.MemberRepository using PostgreSQL.
type MemberRepository struct {
	pool database.DBTX
}

// NewMemberRepository creates a new PostgreSQL-backed member repository.
func NewMemberRepository(pool database.DBTX) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// Create inserts a new member into the database.
func (r *MemberRepository) Create(ctx context.Context, m *domain.Member) error {
	query := `
		INSERT INTO members (` + memberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		m.ID,
		m.OrganizationID,
		m.UserID,
		m.RoleID,
		m.Enabled,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "23505") {
			return apperrors.AlreadyExists("member", "user", m.UserID)
		}
		return fmt.Errorf("insert member: %w", err)
	}

	return nil
}

// GetByID retrieves a member by its unique identifier.
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1`, id,
	)
	return scanMemberRow(row)
}

// GetByOrgAndUser retrieves the member row for a (organization, user) pair.
func (r *MemberRepository) GetByOrgAndUser(ctx context.Context, orgID, userID string) (*domain.Member, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE organization_id = $1 AND user_id = $2`,
		orgID, userID,
	)
	return scanMemberRow(row)
}

// ListByOrg returns a page of members plus the total count, oldest first.
func (r *MemberRepository) ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]domain.Member, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM members WHERE organization_id = $1`, orgID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+memberColumns+` FROM members WHERE organization_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`,
		orgID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMemberRow(rows)
		if err != nil {
			return nil, 0, err
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate member rows: %w", err)
	}

	if members == nil {
		members = []domain.Member{}
	}
	return members, total, nil
}

// Update modifies an existing member in the database.
func (r *MemberRepository) Update(ctx context.Context, m *domain.Member) error {
	m.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE members
		SET role_id = $1, enabled = $2, updated_at = $3
		WHERE id = $4`

	ct, err := r.pool.Exec(ctx, query, m.RoleID, m.Enabled, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("member", m.ID)
	}

	return nil
}

// Delete removes a member from the database.
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("member", id)
	}

	return nil
}

// CountByRole returns the number of enabled members holding the given role.
func (r *MemberRepository) CountByRole(ctx context.Context, orgID, roleID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM members WHERE organization_id = $1 AND role_id = $2 AND enabled = TRUE`,
		orgID, roleID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count members by role: %w", err)
	}

	return count, nil
}

func scanMemberRow(row rowScanner) (*domain.Member, error) {
	var m domain.Member

	err := row.Scan(
		&m.ID,
		&m.OrganizationID,
		&m.UserID,
		&m.RoleID,
		&m.Enabled,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan member: %w", err)
	}

	return &m, nil
}
