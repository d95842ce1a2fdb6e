package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sellora/identity/internal/domain"
	"github.com/sellora/identity/internal/repository"
	apperrors "github.com/sellora/identity/pkg/errors"
)

// tokenBytes is the entropy of an issued token value before encoding.
const tokenBytes = 32

// Issuer mints and redeems single-use opaque tokens for verification flows.
// Values are unguessable and never derived from user data; the store is the
// only place they exist.
type Issuer struct {
	verifications repository.VerificationRepository
}

// NewIssuer creates a token issuer on top of the verification store.
func NewIssuer(verifications repository.VerificationRepository) *Issuer {
	return &Issuer{verifications: verifications}
}

// Issue mints a fresh token bound to the identifier and purpose. Earlier
// tokens for the same pair stay valid until consumed or expired; redeeming
// any one of them is enough.
func (i *Issuer) Issue(ctx context.Context, identifier string, purpose domain.VerificationPurpose, ttl time.Duration) (*domain.Verification, error) {
	value, err := generateValue()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	v := &domain.Verification{
		ID:         uuid.New().String(),
		Identifier: identifier,
		Purpose:    purpose,
		Value:      value,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}

	if err := i.verifications.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("store verification token: %w", err)
	}

	return v, nil
}

// Redeem consumes the token for the identifier and purpose. A token that does
// not exist, belongs to another purpose, has expired, or was already consumed
// is rejected; the winner of a concurrent redeem race is decided by the store.
func (i *Issuer) Redeem(ctx context.Context, identifier string, purpose domain.VerificationPurpose, value string) (*domain.Verification, error) {
	v, err := i.verifications.Get(ctx, identifier, purpose, value)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidInput("verification token is invalid")
		}
		return nil, fmt.Errorf("load verification token: %w", err)
	}

	if v.Expired(time.Now().UTC()) {
		return nil, apperrors.InvalidInput("verification token has expired")
	}

	consumed, err := i.verifications.Consume(ctx, v.ID)
	if err != nil {
		return nil, fmt.Errorf("consume verification token: %w", err)
	}
	if !consumed {
		return nil, apperrors.InvalidInput("verification token was already used")
	}

	return v, nil
}

func generateValue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token value: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateSessionToken mints an opaque bearer token for sessions. Same
// entropy, same encoding; session tokens and verification tokens simply live
// in different stores.
func GenerateSessionToken() (string, error) {
	return generateValue()
}
