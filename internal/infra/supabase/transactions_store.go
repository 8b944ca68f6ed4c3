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
// Transactions: CRUD via PostgREST
// ============================================================

type transactionRow struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	Description     string       `json:"description"`
	Value           float64      `json:"value"`
	Type            string       `json:"type"`
	Date            string       `json:"date"`
	Paid            bool         `json:"paid"`
	CategoryID      *string      `json:"category_id"`
	AccountID       *string      `json:"account_id"`
	CardID          *string      `json:"card_id"`
	TargetAccountID *string      `json:"target_account_id"`
	Installments    int          `json:"installments"`
	CreatedAt       string       `json:"created_at"`
	Category        *categoryRow `json:"categories,omitempty"`
	Account         *accountRow  `json:"accounts,omitempty"`
}

func (r transactionRow) toDomain() domain.Transaction {
	t := domain.Transaction{
		ID:           r.ID,
		UserID:       r.UserID,
		Description:  r.Description,
		Value:        r.Value,
		Type:         r.Type,
		Paid:         r.Paid,
		Installments: r.Installments,
	}
	if d, ok := parseDate(r.Date); ok {
		t.Date = d
	}
	if d, ok := parseDate(r.CreatedAt); ok {
		t.CreatedAt = d
	}
	if r.CategoryID != nil {
		t.CategoryID = *r.CategoryID
	}
	if r.AccountID != nil {
		t.AccountID = *r.AccountID
	}
	if r.CardID != nil {
		t.CardID = *r.CardID
	}
	if r.TargetAccountID != nil {
		t.TargetAccountID = *r.TargetAccountID
	}
	if r.Category != nil {
		cat := r.Category.toDomain()
		t.Category = &cat
	}
	if r.Account != nil {
		acct := r.Account.toDomain()
		t.Account = &acct
	}
	return t
}

func (c *Client) ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&select=*,categories(*),accounts(*)&order=date.desc", url.QueryEscape(userID))
	if f.AccountID != "" {
		path += "&account_id=eq." + url.QueryEscape(f.AccountID)
	}
	if f.CardID != "" {
		path += "&card_id=eq." + url.QueryEscape(f.CardID)
	}
	if f.Type != "" {
		path += "&type=eq." + url.QueryEscape(f.Type)
	}
	if !f.StartDate.IsZero() {
		path += "&date=gte." + f.StartDate.UTC().Format("2006-01-02")
	}
	if !f.EndDate.IsZero() {
		path += "&date=lte." + f.EndDate.UTC().Format("2006-01-02")
	}

	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	out := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&id=eq.%s&select=*,categories(*),accounts(*)&limit=1",
		url.QueryEscape(userID), url.QueryEscape(transactionID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
	}
	t := rows[0].toDomain()
	return &t, nil
}

func (c *Client) CreateTransaction(ctx context.Context, t domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTransaction")
	defer span.End()

	data := map[string]any{
		"id":          t.ID,
		"user_id":     t.UserID,
		"description": t.Description,
		"value":       t.Value,
		"type":        t.Type,
		"date":        t.Date.UTC().Format(time.RFC3339),
		"paid":        t.Paid,
	}
	if t.CategoryID != "" {
		data["category_id"] = t.CategoryID
	}
	if t.AccountID != "" {
		data["account_id"] = t.AccountID
	}
	if t.CardID != "" {
		data["card_id"] = t.CardID
	}
	if t.TargetAccountID != "" {
		data["target_account_id"] = t.TargetAccountID
	}
	if t.Installments > 1 {
		data["installments"] = t.Installments
	}

	body, err := c.doPost(ctx, "transactions", data)
	if err != nil {
		return nil, err
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return &t, nil
	}
	created := rows[0].toDomain()
	return &created, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, userID, transactionID string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(transactionID))
	return c.doPatch(ctx, path, fields)
}

func (c *Client) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(transactionID))
	return c.doDelete(ctx, path)
}
