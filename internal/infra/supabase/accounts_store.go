package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/meorganiza/meorganiza-api/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Accounts and banks: CRUD via PostgREST
// ============================================================

type accountRow struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Balance   float64  `json:"balance"`
	BankID    *string  `json:"bank_id"`
	Active    bool     `json:"active"`
	CreatedAt string   `json:"created_at"`
	Bank      *bankRow `json:"banks,omitempty"`
}

type bankRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

func (r accountRow) toDomain() domain.Account {
	a := domain.Account{
		ID:      r.ID,
		UserID:  r.UserID,
		Name:    r.Name,
		Type:    r.Type,
		Balance: r.Balance,
		Active:  r.Active,
	}
	if r.BankID != nil {
		a.BankID = *r.BankID
	}
	if r.Bank != nil {
		a.Bank = &domain.Bank{ID: r.Bank.ID, Name: r.Bank.Name, Code: r.Bank.Code}
	}
	if t, ok := parseDate(r.CreatedAt); ok {
		a.CreatedAt = t
	}
	return a
}

func (c *Client) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAccounts")
	defer span.End()

	path := fmt.Sprintf("accounts?user_id=eq.%s&select=*,banks(*)&order=created_at.asc", url.QueryEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []accountRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	out := make([]domain.Account, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAccount")
	defer span.End()

	path := fmt.Sprintf("accounts?user_id=eq.%s&id=eq.%s&select=*,banks(*)&limit=1",
		url.QueryEscape(userID), url.QueryEscape(accountID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []accountRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	a := rows[0].toDomain()
	return &a, nil
}

func (c *Client) CreateAccount(ctx context.Context, a domain.Account) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateAccount")
	defer span.End()

	data := map[string]any{
		"id":      a.ID,
		"user_id": a.UserID,
		"name":    a.Name,
		"type":    a.Type,
		"balance": a.Balance,
		"active":  true,
	}
	if a.BankID != "" {
		data["bank_id"] = a.BankID
	}

	body, err := c.doPost(ctx, "accounts", data)
	if err != nil {
		return nil, err
	}

	var rows []accountRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return &a, nil // representation unavailable, echo input
	}
	created := rows[0].toDomain()
	return &created, nil
}

func (c *Client) UpdateAccount(ctx context.Context, userID, accountID string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateAccount")
	defer span.End()

	path := fmt.Sprintf("accounts?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(accountID))
	return c.doPatch(ctx, path, fields)
}

func (c *Client) DeleteAccount(ctx context.Context, userID, accountID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteAccount")
	defer span.End()

	path := fmt.Sprintf("accounts?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(accountID))
	return c.doDelete(ctx, path)
}

// AdjustAccountBalance applies a delta to an account balance and returns
// the updated record.
func (c *Client) AdjustAccountBalance(ctx context.Context, userID, accountID string, delta float64) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.AdjustAccountBalance")
	defer span.End()

	acct, err := c.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	err = c.doPatch(ctx, fmt.Sprintf("accounts?id=eq.%s", url.QueryEscape(acct.ID)), map[string]any{
		"balance": acct.Balance + delta,
	})
	if err != nil {
		return nil, err
	}

	updated, err := c.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("re-fetch after balance update: %w", err)
	}

	c.logger.Info("supabase: balance updated",
		zap.String("account_id", updated.ID),
		zap.Float64("old_balance", acct.Balance),
		zap.Float64("new_balance", updated.Balance),
	)

	return updated, nil
}

func (c *Client) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBanks")
	defer span.End()

	body, err := c.doRequest(ctx, http.MethodGet, "banks?order=name.asc")
	if err != nil {
		return nil, err
	}

	var rows []bankRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode banks: %w", err)
	}
	out := make([]domain.Bank, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Bank{ID: r.ID, Name: r.Name, Code: r.Code})
	}
	return out, nil
}
