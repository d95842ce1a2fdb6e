package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sellora/identity/internal/domain"
	apperrors "github.com/sellora/identity/pkg/errors"
)

type mockVerificationRepository struct {
	mock.Mock
}

func (m *mockVerificationRepository) Create(ctx context.Context, v *domain.Verification) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *mockVerificationRepository) Get(ctx context.Context, identifier string, purpose domain.VerificationPurpose, value string) (*domain.Verification, error) {
	args := m.Called(ctx, identifier, purpose, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Verification), args.Error(1)
}

func (m *mockVerificationRepository) Consume(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func TestIssue_MintsUnguessableValues(t *testing.T) {
	repo := new(mockVerificationRepository)
	issuer := NewIssuer(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Verification")).Return(nil)

	v1, err := issuer.Issue(ctx, "alice@example.com", domain.PurposeEmailVerification, time.Hour)
	require.NoError(t, err)
	v2, err := issuer.Issue(ctx, "alice@example.com", domain.PurposeEmailVerification, time.Hour)
	require.NoError(t, err)

	assert.NotEmpty(t, v1.Value)
	assert.NotEqual(t, v1.Value, v2.Value)
	assert.NotEqual(t, v1.ID, v2.ID)
	assert.True(t, v1.ExpiresAt.After(time.Now().UTC()))
	repo.AssertExpectations(t)
}

func TestRedeem_Success(t *testing.T) {
	repo := new(mockVerificationRepository)
	issuer := NewIssuer(repo)
	ctx := context.Background()

	stored := &domain.Verification{
		ID:         "v-1",
		Identifier: "alice@example.com",
		Purpose:    domain.PurposePasswordReset,
		Value:      "tok-value",
		ExpiresAt:  time.Now().UTC().Add(time.Hour),
	}

	repo.On("Get", ctx, "alice@example.com", domain.PurposePasswordReset, "tok-value").Return(stored, nil)
	repo.On("Consume", ctx, "v-1").Return(true, nil)

	v, err := issuer.Redeem(ctx, "alice@example.com", domain.PurposePasswordReset, "tok-value")
	require.NoError(t, err)
	assert.Equal(t, "v-1", v.ID)
	repo.AssertExpectations(t)
}

func TestRedeem_UnknownTokenIsInvalid(t *testing.T) {
	repo := new(mockVerificationRepository)
	issuer := NewIssuer(repo)
	ctx := context.Background()

	repo.On("Get", ctx, "alice@example.com", domain.PurposePasswordReset, "wrong").
		Return(nil, apperrors.ErrNotFound)

	v, err := issuer.Redeem(ctx, "alice@example.com", domain.PurposePasswordReset, "wrong")
	assert.Nil(t, v)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRedeem_ExpiredTokenIsRejected(t *testing.T) {
	repo := new(mockVerificationRepository)
	issuer := NewIssuer(repo)
	ctx := context.Background()

	stored := &domain.Verification{
		ID:         "v-1",
		Identifier: "alice@example.com",
		Purpose:    domain.PurposePasswordReset,
		Value:      "tok-value",
		ExpiresAt:  time.Now().UTC().Add(-time.Minute),
	}

	repo.On("Get", ctx, "alice@example.com", domain.PurposePasswordReset, "tok-value").Return(stored, nil)

	v, err := issuer.Redeem(ctx, "alice@example.com", domain.PurposePasswordReset, "tok-value")
	assert.Nil(t, v)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Consume", ctx, "v-1")
}

func TestRedeem_SecondRedeemLoses(t *testing.T) {
	repo := new(mockVerificationRepository)
	issuer := NewIssuer(repo)
	ctx := context.Background()

	stored := &domain.Verification{
		ID:         "v-1",
		Identifier: "alice@example.com",
		Purpose:    domain.PurposeEmailChange,
		Value:      "tok-value",
		ExpiresAt:  time.Now().UTC().Add(time.Hour),
	}

	repo.On("Get", ctx, "alice@example.com", domain.PurposeEmailChange, "tok-value").Return(stored, nil)
	repo.On("Consume", ctx, "v-1").Return(false, nil)

	v, err := issuer.Redeem(ctx, "alice@example.com", domain.PurposeEmailChange, "tok-value")
	assert.Nil(t, v)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGenerateSessionToken_Unique(t *testing.T) {
	t1, err := GenerateSessionToken()
	require.NoError(t, err)
	t2, err := GenerateSessionToken()
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
	assert.GreaterOrEqual(t, len(t1), 43)
}
