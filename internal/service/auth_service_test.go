package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/config"
	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// --- Mocks ---

type mockAuthStore struct {
	user       *domain.User
	refresh    *domain.RefreshToken
	resetToken *domain.PasswordResetToken

	createdUser   *domain.User
	updatedFields map[string]any
	savedRefresh  []domain.RefreshToken
	savedReset    *domain.PasswordResetToken
	revokedID     string
	usedResetID   string
}

func (m *mockAuthStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	if m.user == nil || m.user.Email != email {
		return nil, &domain.ErrNotFound{Resource: "user", ID: email}
	}
	return m.user, nil
}

func (m *mockAuthStore) GetUserByID(_ context.Context, userID string) (*domain.User, error) {
	if m.user == nil || m.user.ID != userID {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return m.user, nil
}

func (m *mockAuthStore) CreateUser(_ context.Context, u domain.User) (*domain.User, error) {
	m.createdUser = &u
	return &u, nil
}

func (m *mockAuthStore) UpdateUser(_ context.Context, _ string, fields map[string]any) error {
	m.updatedFields = fields
	return nil
}

func (m *mockAuthStore) SaveRefreshToken(_ context.Context, t domain.RefreshToken) error {
	m.savedRefresh = append(m.savedRefresh, t)
	return nil
}

func (m *mockAuthStore) GetRefreshToken(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	if m.refresh == nil || m.refresh.TokenHash != tokenHash {
		return nil, &domain.ErrInvalidToken{}
	}
	return m.refresh, nil
}

func (m *mockAuthStore) RevokeRefreshToken(_ context.Context, tokenID string) error {
	m.revokedID = tokenID
	return nil
}

func (m *mockAuthStore) SaveResetToken(_ context.Context, t domain.PasswordResetToken) error {
	m.savedReset = &t
	return nil
}

func (m *mockAuthStore) GetResetToken(_ context.Context, tokenHash string) (*domain.PasswordResetToken, error) {
	if m.resetToken == nil || m.resetToken.TokenHash != tokenHash {
		return nil, &domain.ErrInvalidToken{}
	}
	return m.resetToken, nil
}

func (m *mockAuthStore) MarkResetTokenUsed(_ context.Context, tokenID string) error {
	m.usedResetID = tokenID
	return nil
}

func authTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "test-secret",
		JWTAccessTTL:  time.Minute,
		JWTRefreshTTL: time.Hour,
		ResetTokenTTL: time.Hour,
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

// --- Tests ---

func TestLogin_Success(t *testing.T) {
	store := &mockAuthStore{
		user: &domain.User{
			ID:           "user-1",
			Email:        "ana@example.com",
			PasswordHash: hashPassword(t, "senha-correta"),
			Active:       true,
		},
	}
	svc := service.NewAuthService(store, authTestConfig(), zap.NewNop())

	pair, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "Ana@Example.com",
		Password: "senha-correta",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("expected Bearer, got %s", pair.TokenType)
	}
	if pair.ExpiresIn != 60 {
		t.Errorf("expected expiresIn 60, got %d", pair.ExpiresIn)
	}
	if len(store.savedRefresh) != 1 {
		t.Errorf("expected refresh token persisted")
	}

	userID, err := svc.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("expected valid access token, got %v", err)
	}
	if userID != "user-1" {
		t.Errorf("expected subject user-1, got %s", userID)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := service.NewAuthService(&mockAuthStore{}, authTestConfig(), zap.NewNop())

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogin_WrongPasswordCountsAttempt(t *testing.T) {
	store := &mockAuthStore{
		user: &domain.User{
			ID:           "user-1",
			Email:        "ana@example.com",
			PasswordHash: hashPassword(t, "senha-correta"),
			Active:       true,
			FailedLogins: 1,
		},
	}
	svc := service.NewAuthService(store, authTestConfig(), zap.NewNop())

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "senha-errada",
	})

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if store.updatedFields["failed_logins"] != 2 {
		t.Errorf("expected failed_logins 2, got %v", store.updatedFields["failed_logins"])
	}
}

func TestLogin_LocksAfterFifthFailure(t *testing.T) {
	store := &mockAuthStore{
		user: &domain.User{
			ID:           "user-1",
			Email:        "ana@example.com",
			PasswordHash: hashPassword(t, "senha-correta"),
			Active:       true,
			FailedLogins: 4,
		},
	}
	svc := service.NewAuthService(store, authTestConfig(), zap.NewNop())

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "senha-errada",
	})

	var locked *domain.ErrUserLocked
	if !errors.As(err, &locked) {
		t.Fatalf("expected locked, got %v", err)
	}
	if locked.Until.Before(time.Now().UTC()) {
		t.Error("expected lock in the future")
	}
	if _, ok := store.updatedFields["locked_until"]; !ok {
		t.Error("expected locked_until persisted")
	}
}

func TestLogin_RejectsWhileLocked(t *testing.T) {
	until := time.Now().UTC().Add(10 * time.Minute)
	store := &mockAuthStore{
		user: &domain.User{
			ID:           "user-1",
			Email:        "ana@example.com",
			PasswordHash: hashPassword(t, "senha-correta"),
			Active:       true,
			FailedLogins: 5,
			LockedUntil:  &until,
		},
	}
	svc := service.NewAuthService(store, authTestConfig(), zap.NewNop())

	// even the correct password is rejected until the lock expires
	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "senha-correta",
	})

	var locked *domain.ErrUserLocked
	if !errors.As(err, &locked) {
		t.Fatalf("expected locked, got %v", err)
	}
}

func TestLogin_ExpiredLockClearsOnSuccess(t *testing.T) {
	until := time.Now().UTC().Add(-time.Minute)
	store := &mockAuthStore{
		user: &domain.User{
			ID:           "user-1",
			Email:        "ana@example.com",
			PasswordHash: hashPassword(t, "senha-correta"),
			Active:       true,
			FailedLogins: 5,
			LockedUntil:  &until,
		},
	}
	svc := service.NewAuthService(store, authTestConfig(), zap.NewNop())

	if _, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "senha-correta",
	}); err != nil {
		t.Fatalf("expected login after lock expiry, got %v", err)
	}
	if store.updatedFields["failed_logins"] != 0 {
		t.Errorf("expected counters reset, got %v", store.updatedFields)
	}
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	svc := service.NewAuthService(&mockAuthStore{}, authTestConfig(), zap.NewNop())

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "curta",
	})

	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := &mockAuthStore{
		user: &domain.User{ID: "user-1", Email: "ana@example.com"},
	}
	svc := service.NewAuthService(store, authTestConfig(), zap.NewNop())

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "senha-muito-segura",
	})

	var dup *domain.ErrDuplicate
	if !errors.As(err, &dup) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestRegister_HashesPassword(t *testing.T) {
	store := &mockAuthStore{}
	svc := service.NewAuthService(store, authTestConfig(), zap.NewNop())

	user, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Name:     "Ana",
		Email:    "ANA@example.com",
		Password: "senha-muito-segura",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if user.Email != "ana@example.com" {
		t.Errorf("expected lowercased email, got %s", user.Email)
	}
	if store.createdUser.PasswordHash == "senha-muito-segura" {
		t.Error("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(store.createdUser.PasswordHash), []byte("senha-muito-segura")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	store := &mockAuthStore{
		user: &domain.User{
			ID:           "user-1",
			Email:        "ana@example.com",
			PasswordHash: hashPassword(t, "senha-correta"),
			Active:       true,
		},
	}
	issuer := service.NewAuthService(store, authTestConfig(), zap.NewNop())
	pair, err := issuer.Login(context.Background(), &domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "senha-correta",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	otherCfg := authTestConfig()
	otherCfg.JWTSecret = "a-different-secret"
	verifier := service.NewAuthService(store, otherCfg, zap.NewNop())

	if _, err := verifier.ValidateAccessToken(pair.AccessToken); err == nil {
		t.Fatal("expected rejection with wrong secret")
	}
}

func TestRefresh_RevokedToken(t *testing.T) {
	store := &mockAuthStore{
		refresh: &domain.RefreshToken{
			ID:        "rt-1",
			UserID:    "user-1",
			TokenHash: "does-not-match",
			Revoked:   true,
			ExpiresAt: time.Now().UTC().Add(time.Hour),
		},
	}
	svc := service.NewAuthService(store, authTestConfig(), zap.NewNop())

	_, err := svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: "some-token"})

	var invalid *domain.ErrInvalidToken
	if !errors.As(err, &invalid) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestResetPassword_SingleUse(t *testing.T) {
	store := &mockAuthStore{
		resetToken: &domain.PasswordResetToken{
			ID:        "prt-1",
			UserID:    "user-1",
			TokenHash: "unknown-hash",
			Used:      true,
			ExpiresAt: time.Now().UTC().Add(time.Hour),
		},
	}
	svc := service.NewAuthService(store, authTestConfig(), zap.NewNop())

	err := svc.ResetPassword(context.Background(), "raw-token", &domain.ResetPasswordRequest{Password: "senha-nova-segura"})

	var invalid *domain.ErrInvalidToken
	if !errors.As(err, &invalid) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}
