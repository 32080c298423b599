package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
)

const (
	refreshKeyPrefix   = "refresh:"
	userTokensPrefix   = "user_tokens:"
	denylistKeyPrefix  = "denylist:"
	refreshTokenLength = 32
)

// TokenManager maps opaque refresh tokens to users and keeps a denylist of
// revoked access tokens. It works on Redis or the in-process fallback.
type TokenManager struct {
	kv  database.KVStore
	ttl time.Duration
}

// NewTokenManager creates a token manager whose refresh tokens live for ttl
func NewTokenManager(kv database.KVStore, ttl time.Duration) *TokenManager {
	return &TokenManager{kv: kv, ttl: ttl}
}

// TTL is the lifetime of issued refresh tokens
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a refresh token for userID
func (m *TokenManager) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	buf := make([]byte, refreshTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	if err := m.kv.Set(ctx, refreshKeyPrefix+token, userID.String(), m.ttl); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	if err := m.kv.SAdd(ctx, userTokensPrefix+userID.String(), m.ttl, token); err != nil {
		return "", fmt.Errorf("failed to index refresh token: %w", err)
	}
	return token, nil
}

// Resolve returns the user a refresh token was issued to
func (m *TokenManager) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	raw, err := m.kv.Get(ctx, refreshKeyPrefix+token)
	if err != nil {
		if errors.Is(err, database.ErrCacheMiss) {
			return uuid.Nil, apperrors.Unauthorized("invalid refresh token")
		}
		return uuid.Nil, fmt.Errorf("failed to resolve refresh token: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Unauthorized("invalid refresh token")
	}
	return id, nil
}

// Revoke deletes a single refresh token
func (m *TokenManager) Revoke(ctx context.Context, token string) error {
	userID, err := m.Resolve(ctx, token)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			return nil
		}
		return err
	}
	if err := m.kv.Del(ctx, refreshKeyPrefix+token); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if err := m.kv.SRem(ctx, userTokensPrefix+userID.String(), token); err != nil {
		return fmt.Errorf("failed to unindex refresh token: %w", err)
	}
	return nil
}

// RevokeAll deletes every refresh token issued to userID
func (m *TokenManager) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	setKey := userTokensPrefix + userID.String()
	tokens, err := m.kv.SMembers(ctx, setKey)
	if err != nil {
		return fmt.Errorf("failed to list refresh tokens: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, refreshKeyPrefix+t)
	}
	keys = append(keys, setKey)
	if err := m.kv.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

// Deny blocks an access token id until it would have expired anyway
func (m *TokenManager) Deny(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if jti == "" || ttl <= 0 {
		return nil
	}
	if err := m.kv.Set(ctx, denylistKeyPrefix+jti, "1", ttl); err != nil {
		return fmt.Errorf("failed to deny access token: %w", err)
	}
	return nil
}

// IsDenied reports whether an access token id was revoked
func (m *TokenManager) IsDenied(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := m.kv.Get(ctx, denylistKeyPrefix+jti)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, database.ErrCacheMiss):
		return false, nil
	}
	return false, fmt.Errorf("failed to check denylist: %w", err)
}
