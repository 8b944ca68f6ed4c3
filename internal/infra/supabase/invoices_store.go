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
// Invoices: credit card statements via PostgREST
// ============================================================

type invoiceRow struct {
	ID          string   `json:"id"`
	CardID      string   `json:"card_id"`
	Month       int      `json:"month"`
	Year        int      `json:"year"`
	TotalAmount float64  `json:"total_amount"`
	Paid        bool     `json:"is_paid"`
	Card        *cardRow `json:"cards,omitempty"`
}

func (r invoiceRow) toDomain() domain.Invoice {
	inv := domain.Invoice{
		ID:          r.ID,
		CardID:      r.CardID,
		Month:       r.Month,
		Year:        r.Year,
		TotalAmount: r.TotalAmount,
		Paid:        r.Paid,
	}
	if r.Card != nil {
		card := r.Card.toDomain()
		inv.Card = &card
	}
	return inv
}

func (c *Client) ListInvoices(ctx context.Context, userID string) ([]domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListInvoices")
	defer span.End()

	path := fmt.Sprintf("invoices?select=*,cards!inner(*)&cards.user_id=eq.%s&order=year.desc,month.desc", url.QueryEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []invoiceRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode invoices: %w", err)
	}
	out := make([]domain.Invoice, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) GetInvoice(ctx context.Context, userID, invoiceID string) (*domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetInvoice")
	defer span.End()

	path := fmt.Sprintf("invoices?id=eq.%s&select=*,cards!inner(*)&cards.user_id=eq.%s&limit=1",
		url.QueryEscape(invoiceID), url.QueryEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []invoiceRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "invoice", ID: invoiceID}
	}
	inv := rows[0].toDomain()
	return &inv, nil
}

// MarkInvoicePaid settles an invoice.
func (c *Client) MarkInvoicePaid(ctx context.Context, invoiceID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.MarkInvoicePaid")
	defer span.End()

	return c.doPatch(ctx, fmt.Sprintf("invoices?id=eq.%s", url.QueryEscape(invoiceID)), map[string]any{
		"is_paid": true,
	})
}
