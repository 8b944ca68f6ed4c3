package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/domain"
)

// ============================================================
// Users, refresh tokens and password reset tokens
// ============================================================

type userRow struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"password_hash"`
	Active       bool    `json:"active"`
	FailedLogins int     `json:"failed_logins"`
	LockedUntil  *string `json:"locked_until"`
	CreatedAt    string  `json:"created_at"`
}

func (r userRow) toDomain() domain.User {
	u := domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Active:       r.Active,
		FailedLogins: r.FailedLogins,
	}
	if r.LockedUntil != nil {
		if t, ok := parseDate(*r.LockedUntil); ok {
			u.LockedUntil = &t
		}
	}
	if t, ok := parseDate(r.CreatedAt); ok {
		u.CreatedAt = t
	}
	return u
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByEmail")
	defer span.End()

	path := fmt.Sprintf("users?email=eq.%s&limit=1", url.QueryEscape(email))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []userRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "user", ID: email}
	}
	u := rows[0].toDomain()
	return &u, nil
}

func (c *Client) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByID")
	defer span.End()

	path := fmt.Sprintf("users?id=eq.%s&limit=1", url.QueryEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []userRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	u := rows[0].toDomain()
	return &u, nil
}

func (c *Client) CreateUser(ctx context.Context, u domain.User) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateUser")
	defer span.End()

	body, err := c.doPost(ctx, "users", map[string]any{
		"id":            u.ID,
		"name":          u.Name,
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"active":        true,
	})
	if err != nil {
		return nil, err
	}

	var rows []userRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return &u, nil
	}
	created := rows[0].toDomain()
	return &created, nil
}

func (c *Client) UpdateUser(ctx context.Context, userID string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateUser")
	defer span.End()

	return c.doPatch(ctx, fmt.Sprintf("users?id=eq.%s", url.QueryEscape(userID)), fields)
}

// --- Refresh tokens ---

type refreshTokenRow struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	TokenHash string `json:"token_hash"`
	ExpiresAt string `json:"expires_at"`
	Revoked   bool   `json:"revoked"`
	CreatedAt string `json:"created_at"`
}

func (c *Client) SaveRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveRefreshToken")
	defer span.End()

	_, err := c.doPost(ctx, "refresh_tokens", map[string]any{
		"id":         t.ID,
		"user_id":    t.UserID,
		"token_hash": t.TokenHash,
		"expires_at": t.ExpiresAt.UTC().Format(time.RFC3339),
		"revoked":    false,
	})
	return err
}

func (c *Client) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRefreshToken")
	defer span.End()

	path := fmt.Sprintf("refresh_tokens?token_hash=eq.%s&revoked=eq.false&limit=1", url.QueryEscape(tokenHash))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []refreshTokenRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode refresh token: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrInvalidToken{}
	}

	r := rows[0]
	t := domain.RefreshToken{
		ID:        r.ID,
		UserID:    r.UserID,
		TokenHash: r.TokenHash,
		Revoked:   r.Revoked,
	}
	if v, ok := parseDate(r.ExpiresAt); ok {
		t.ExpiresAt = v
	}
	if v, ok := parseDate(r.CreatedAt); ok {
		t.CreatedAt = v
	}
	return &t, nil
}

func (c *Client) RevokeRefreshToken(ctx context.Context, tokenID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeRefreshToken")
	defer span.End()

	return c.doPatch(ctx, fmt.Sprintf("refresh_tokens?id=eq.%s", url.QueryEscape(tokenID)), map[string]any{
		"revoked": true,
	})
}

// --- Password reset tokens ---

type resetTokenRow struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	TokenHash string `json:"token_hash"`
	ExpiresAt string `json:"expires_at"`
	Used      bool   `json:"used"`
}

func (c *Client) SaveResetToken(ctx context.Context, t domain.PasswordResetToken) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveResetToken")
	defer span.End()

	_, err := c.doPost(ctx, "password_reset_tokens", map[string]any{
		"id":         t.ID,
		"user_id":    t.UserID,
		"token_hash": t.TokenHash,
		"expires_at": t.ExpiresAt.UTC().Format(time.RFC3339),
		"used":       false,
	})
	return err
}

func (c *Client) GetResetToken(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetResetToken")
	defer span.End()

	path := fmt.Sprintf("password_reset_tokens?token_hash=eq.%s&used=eq.false&limit=1", url.QueryEscape(tokenHash))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []resetTokenRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode reset token: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrInvalidToken{}
	}

	r := rows[0]
	t := domain.PasswordResetToken{
		ID:        r.ID,
		UserID:    r.UserID,
		TokenHash: r.TokenHash,
		Used:      r.Used,
	}
	if v, ok := parseDate(r.ExpiresAt); ok {
		t.ExpiresAt = v
	}
	return &t, nil
}

func (c *Client) MarkResetTokenUsed(ctx context.Context, tokenID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.MarkResetTokenUsed")
	defer span.End()

	return c.doPatch(ctx, fmt.Sprintf("password_reset_tokens?id=eq.%s", url.QueryEscape(tokenID)), map[string]any{
		"used": true,
	})
}
