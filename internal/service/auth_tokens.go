package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const tokenIssuer = "meorganiza-api"

// issueTokenPair signs a short-lived access token and stores the hash of
// a fresh opaque refresh token.
func (s *AuthService) issueTokenPair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	access, err := s.signAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, hash, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveRefreshToken(ctx, domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().UTC().Add(s.cfg.JWTRefreshTTL),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.JWTAccessTTL.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func (s *AuthService) signAccessToken(user *domain.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iss":   tokenIssuer,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.JWTAccessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair issued. An expired or revoked token is rejected.
func (s *AuthService) Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.TokenPair, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	if req.RefreshToken == "" {
		return nil, &domain.ErrInvalidToken{}
	}

	stored, err := s.store.GetRefreshToken(ctx, hashToken(req.RefreshToken))
	if err != nil || stored == nil {
		return nil, &domain.ErrInvalidToken{}
	}
	if stored.Revoked || stored.ExpiresAt.Before(time.Now().UTC()) {
		return nil, &domain.ErrInvalidToken{}
	}

	user, err := s.store.GetUserByID(ctx, stored.UserID)
	if err != nil || user == nil || !user.Active {
		return nil, &domain.ErrInvalidToken{}
	}

	if err := s.store.RevokeRefreshToken(ctx, stored.ID); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("refresh token rotated", zap.String("user_id", user.ID))
	return pair, nil
}

// ValidateAccessToken parses and verifies an access token, returning the
// user id from the subject claim.
func (s *AuthService) ValidateAccessToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", &domain.ErrInvalidToken{}
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", &domain.ErrInvalidToken{}
	}
	return sub, nil
}

// newOpaqueToken returns a random token and the SHA-256 hash stored in
// its place.
func newOpaqueToken() (token, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
