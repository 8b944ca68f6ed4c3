package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/config"
	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const (
	bcryptCost        = 12
	maxFailedAttempts = 5
	lockDuration      = 30 * time.Minute
)

// AuthService handles registration, login with lockout, token issuance
// and the password reset flow.
type AuthService struct {
	store  port.AuthStore
	cfg    *config.Config
	logger *zap.Logger
}

func NewAuthService(store port.AuthStore, cfg *config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{store: store, cfg: cfg, logger: logger}
}

// Register creates a new user. Email must be unique.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nome é obrigatório"}
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "E-mail inválido"}
	}
	if len(req.Password) < 8 {
		return nil, &domain.ErrValidation{Field: "password", Message: "Senha deve ter ao menos 8 caracteres"}
	}

	if existing, err := s.store.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, &domain.ErrDuplicate{Key: email}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, domain.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifies credentials and issues a token pair. Five consecutive
// failures lock the account for thirty minutes.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenPair, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		// burn a hash comparison so missing users cost the same as bad passwords
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$12$invalidsaltinvalidsaltinvalidsaltinvalids"), []byte(req.Password))
		return nil, &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
	}
	if !user.Active {
		return nil, &domain.ErrUnauthorized{Message: "Usuário inativo"}
	}

	now := time.Now().UTC()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, &domain.ErrUserLocked{Until: *user.LockedUntil}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, s.registerFailedAttempt(ctx, user)
	}

	if user.FailedLogins > 0 || user.LockedUntil != nil {
		if err := s.store.UpdateUser(ctx, user.ID, map[string]any{
			"failed_logins": 0,
			"locked_until":  nil,
		}); err != nil {
			s.logger.Warn("failed to reset lockout counters", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return pair, nil
}

func (s *AuthService) registerFailedAttempt(ctx context.Context, user *domain.User) error {
	attempts := user.FailedLogins + 1
	fields := map[string]any{"failed_logins": attempts}

	if attempts >= maxFailedAttempts {
		until := time.Now().UTC().Add(lockDuration)
		fields["locked_until"] = until.Format(time.RFC3339)
		if err := s.store.UpdateUser(ctx, user.ID, fields); err != nil {
			s.logger.Error("failed to lock account", zap.String("user_id", user.ID), zap.Error(err))
		}
		s.logger.Warn("account locked after repeated failures", zap.String("user_id", user.ID))
		return &domain.ErrUserLocked{Until: until}
	}

	if err := s.store.UpdateUser(ctx, user.ID, fields); err != nil {
		s.logger.Error("failed to record login attempt", zap.String("user_id", user.ID), zap.Error(err))
	}
	remaining := maxFailedAttempts - attempts
	return &domain.ErrUnauthorized{Message: fmt.Sprintf("Credenciais inválidas. %d tentativa(s) restante(s)", remaining)}
}

// CurrentUser returns the profile of the authenticated user.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.CurrentUser")
	defer span.End()

	return s.store.GetUserByID(ctx, userID)
}

// ForgotPassword issues a single-use reset token. The response is the
// same whether or not the email exists; the token is returned to the
// caller only for delivery by the mail pipeline.
func (s *AuthService) ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) (string, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.ForgotPassword")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		s.logger.Info("password reset requested for unknown email")
		return "", nil
	}

	token, hash, err := newOpaqueToken()
	if err != nil {
		return "", err
	}
	if err := s.store.SaveResetToken(ctx, domain.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().UTC().Add(s.cfg.ResetTokenTTL),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return "", fmt.Errorf("save reset token: %w", err)
	}

	s.logger.Info("password reset token issued", zap.String("user_id", user.ID))
	return token, nil
}

// ResetPassword consumes a reset token and sets the new password. The
// token is single use and expires after ResetTokenTTL.
func (s *AuthService) ResetPassword(ctx context.Context, token string, req *domain.ResetPasswordRequest) error {
	ctx, span := authTracer.Start(ctx, "AuthService.ResetPassword")
	defer span.End()

	if len(req.Password) < 8 {
		return &domain.ErrValidation{Field: "password", Message: "Senha deve ter ao menos 8 caracteres"}
	}

	stored, err := s.store.GetResetToken(ctx, hashToken(token))
	if err != nil || stored == nil {
		return &domain.ErrInvalidToken{}
	}
	if stored.Used || stored.ExpiresAt.Before(time.Now().UTC()) {
		return &domain.ErrInvalidToken{}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdateUser(ctx, stored.UserID, map[string]any{
		"password_hash": string(hash),
		"failed_logins": 0,
		"locked_until":  nil,
	}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.store.MarkResetTokenUsed(ctx, stored.ID); err != nil {
		s.logger.Error("failed to mark reset token used", zap.String("token_id", stored.ID), zap.Error(err))
	}

	s.logger.Info("password reset completed", zap.String("user_id", stored.UserID))
	return nil
}
