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

const userColumns = `id, email, username, phone, name, avatar_url, role, status, email_verified, banned, ban_reason, ban_expires_at, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		u.ID,
		u.Email,
		u.Username,
		nullable(u.Phone),
		u.Name,
		u.AvatarURL,
		u.Role,
		u.Status,
		u.EmailVerified,
		u.Banned,
		u.BanReason,
		u.BanExpiresAt,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return apperrors.AlreadyExists("user", field, userFieldValue(u, field))
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByUsername retrieves a user by their username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// GetByPhone retrieves a user by their phone number.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
}

// UsernameExists reports whether any user holds the given username.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

// Update modifies an existing user in the database.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = $1, username = $2, phone = $3, name = $4, avatar_url = $5,
		    role = $6, status = $7, email_verified = $8, banned = $9,
		    ban_reason = $10, ban_expires_at = $11, updated_at = $12
		WHERE id = $13`

	ct, err := r.pool.Exec(ctx, query,
		u.Email,
		u.Username,
		nullable(u.Phone),
		u.Name,
		u.AvatarURL,
		u.Role,
		u.Status,
		u.EmailVerified,
		u.Banned,
		u.BanReason,
		u.BanExpiresAt,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return apperrors.AlreadyExists("user", field, userFieldValue(u, field))
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// List returns a page of users plus the total count, newest first.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", err)
	}

	if users == nil {
		users = []domain.User{}
	}
	return users, total, nil
}

// scanUser executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	u, err := scanUserRow(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(row rowScanner) (*domain.User, error) {
	var u domain.User
	var phone *string

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&phone,
		&u.Name,
		&u.AvatarURL,
		&u.Role,
		&u.Status,
		&u.EmailVerified,
		&u.Banned,
		&u.BanReason,
		&u.BanExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if phone != nil {
		u.Phone = *phone
	}
	return &u, nil
}

// nullable maps an empty string to NULL so partial unique indexes on optional
// columns behave correctly.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// uniqueViolationField maps a unique constraint violation (SQLSTATE 23505) to
// the user-facing field name it protects.
func uniqueViolationField(err error) (string, bool) {
	if err == nil || !strings.Contains(err.Error(), "23505") {
		return "", false
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users_username"):
		return "username", true
	case strings.Contains(msg, "users_phone"):
		return "phone", true
	default:
		return "email", true
	}
}

func userFieldValue(u *domain.User, field string) string {
	switch field {
	case "username":
		return u.Username
	case "phone":
		return u.Phone
	default:
		return u.Email
	}
}
