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

const accountColumns = `id, user_id, provider_id, provider_account_id, password_hash, scopes, access_token, refresh_token, created_at, updated_at`

// AccountRepository implements repository.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool database.DBTX
}

// NewAccountRepository creates a new PostgreSQL-backed account repository.
func NewAccountRepository(pool database.DBTX) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account into the database.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.UserID,
		a.ProviderID,
		a.ProviderAccountID,
		a.PasswordHash,
		a.Scopes,
		a.AccessToken,
		a.RefreshToken,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "23505") {
			return apperrors.AlreadyExists("account", "provider identity", a.ProviderID)
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByProvider retrieves an account by its provider-scoped identity.
func (r *AccountRepository) GetByProvider(ctx context.Context, providerID, providerAccountID string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE provider_id = $1 AND provider_account_id = $2`,
		providerID, providerAccountID,
	)
	return scanAccountRow(row)
}

// GetCredentialByUserID retrieves the password-bearing account for a user.
func (r *AccountRepository) GetCredentialByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 AND provider_id = $2`,
		userID, domain.ProviderCredential,
	)
	return scanAccountRow(row)
}

// ListByUserID returns all accounts linked to the given user.
func (r *AccountRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}

	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

// Update modifies an existing account in the database.
func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) error {
	a.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE accounts
		SET password_hash = $1, scopes = $2, access_token = $3, refresh_token = $4, updated_at = $5
		WHERE id = $6`

	ct, err := r.pool.Exec(ctx, query,
		a.PasswordHash,
		a.Scopes,
		a.AccessToken,
		a.RefreshToken,
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", a.ID)
	}

	return nil
}

func scanAccountRow(row rowScanner) (*domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.ProviderID,
		&a.ProviderAccountID,
		&a.PasswordHash,
		&a.Scopes,
		&a.AccessToken,
		&a.RefreshToken,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return &a, nil
}
