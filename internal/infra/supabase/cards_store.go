package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/meorganiza/meorganiza-api/internal/domain"
)

// ============================================================
// Cards: CRUD via PostgREST
// ============================================================

type cardRow struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Limit      float64     `json:"credit_limit"`
	ClosingDay int         `json:"closing_day"`
	DueDay     int         `json:"due_day"`
	AccountID  string      `json:"account_id"`
	Active     bool        `json:"active"`
	CreatedAt  string      `json:"created_at"`
	Account    *accountRow `json:"accounts,omitempty"`
}

func (r cardRow) toDomain() domain.Card {
	card := domain.Card{
		ID:         r.ID,
		UserID:     r.UserID,
		Name:       r.Name,
		Type:       r.Type,
		Limit:      r.Limit,
		ClosingDay: r.ClosingDay,
		DueDay:     r.DueDay,
		AccountID:  r.AccountID,
		Active:     r.Active,
	}
	if t, ok := parseDate(r.CreatedAt); ok {
		card.CreatedAt = t
	}
	if r.Account != nil {
		acct := r.Account.toDomain()
		card.Account = &acct
	}
	return card
}

func (c *Client) ListCards(ctx context.Context, userID string) ([]domain.Card, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCards")
	defer span.End()

	path := fmt.Sprintf("cards?user_id=eq.%s&select=*,accounts(*,banks(*))&order=created_at.asc", url.QueryEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []cardRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode cards: %w", err)
	}
	out := make([]domain.Card, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) GetCard(ctx context.Context, userID, cardID string) (*domain.Card, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCard")
	defer span.End()

	path := fmt.Sprintf("cards?user_id=eq.%s&id=eq.%s&select=*,accounts(*,banks(*))&limit=1",
		url.QueryEscape(userID), url.QueryEscape(cardID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []cardRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode card: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "card", ID: cardID}
	}
	card := rows[0].toDomain()
	return &card, nil
}

func (c *Client) CreateCard(ctx context.Context, card domain.Card) (*domain.Card, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCard")
	defer span.End()

	data := map[string]any{
		"id":         card.ID,
		"user_id":    card.UserID,
		"name":       card.Name,
		"type":       card.Type,
		"account_id": card.AccountID,
		"active":     true,
	}
	if card.Type == domain.CardCredito {
		data["credit_limit"] = card.Limit
		data["closing_day"] = card.ClosingDay
		data["due_day"] = card.DueDay
	}

	body, err := c.doPost(ctx, "cards", data)
	if err != nil {
		return nil, err
	}

	var rows []cardRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return &card, nil
	}
	created := rows[0].toDomain()
	return &created, nil
}

func (c *Client) UpdateCard(ctx context.Context, userID, cardID string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCard")
	defer span.End()

	path := fmt.Sprintf("cards?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(cardID))
	return c.doPatch(ctx, path, fields)
}

func (c *Client) DeleteCard(ctx context.Context, userID, cardID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCard")
	defer span.End()

	path := fmt.Sprintf("cards?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(cardID))
	return c.doDelete(ctx, path)
}
