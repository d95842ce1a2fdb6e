package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellora/identity/internal/domain"
	apperrors "github.com/sellora/identity/pkg/errors"
)

func newInvitationTestFixture(t *testing.T) (*InvitationRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewInvitationRepository(mock)
	return repo, mock
}

func sampleInvitation() *domain.Invitation {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Invitation{
		ID:             "inv-1234",
		OrganizationID: "org-1234",
		InviterID:      "u-owner",
		Identifier:     "bob@example.com",
		RoleID:         "r-member",
		Status:         domain.InvitationPending,
		ExpiresAt:      now.Add(72 * time.Hour),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestInvitationRepository_GetPending_Success(t *testing.T) {
	repo, mock := newInvitationTestFixture(t)
	defer mock.Close()

	inv := sampleInvitation()

	mock.ExpectQuery("SELECT .+ FROM invitations").
		WithArgs(inv.OrganizationID, inv.Identifier, domain.InvitationPending, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "organization_id", "inviter_id", "identifier", "role_id",
			"status", "expires_at", "created_at", "updated_at",
		}).AddRow(
			inv.ID, inv.OrganizationID, inv.InviterID, inv.Identifier, inv.RoleID,
			inv.Status, inv.ExpiresAt, inv.CreatedAt, inv.UpdatedAt,
		))

	got, err := repo.GetPending(context.Background(), inv.OrganizationID, inv.Identifier)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
	assert.Equal(t, domain.InvitationPending, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationRepository_Accept_Success(t *testing.T) {
	repo, mock := newInvitationTestFixture(t)
	defer mock.Close()

	inv := sampleInvitation()
	now := time.Now().UTC().Truncate(time.Microsecond)
	member := &domain.Member{
		ID:             "m-2",
		OrganizationID: inv.OrganizationID,
		UserID:         "u-bob",
		RoleID:         inv.RoleID,
		Enabled:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE invitations SET status =").
		WithArgs(domain.InvitationAccepted, pgxmock.AnyArg(), inv.ID, domain.InvitationPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO members").
		WithArgs(member.ID, member.OrganizationID, member.UserID, member.RoleID, member.Enabled, member.CreatedAt, member.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.Accept(context.Background(), inv, member)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationAccepted, inv.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationRepository_Accept_NoLongerPending(t *testing.T) {
	repo, mock := newInvitationTestFixture(t)
	defer mock.Close()

	inv := sampleInvitation()
	member := &domain.Member{ID: "m-2", OrganizationID: inv.OrganizationID, UserID: "u-bob", RoleID: inv.RoleID, Enabled: true}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE invitations SET status =").
		WithArgs(domain.InvitationAccepted, pgxmock.AnyArg(), inv.ID, domain.InvitationPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.Accept(context.Background(), inv, member)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.NoError(t, mock.ExpectationsWereMet())
}
