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
// Investments: CRUD via PostgREST
// ============================================================

type investmentRow struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	Type             string  `json:"type"`
	Description      string  `json:"description"`
	Quantity         float64 `json:"quantity"`
	AcquisitionValue float64 `json:"acquisition_value"`
	CurrentPrice     float64 `json:"current_price"`
	InitialAmount    float64 `json:"initial_amount"`
	CurrentValue     float64 `json:"current_value"`
	Indexer          *string `json:"indexer"`
	Rate             float64 `json:"rate"`
	AcquisitionDate  string  `json:"acquisition_date"`
	MaturityDate     *string `json:"maturity_date"`
	Active           bool    `json:"active"`
}

func (r investmentRow) toDomain() domain.Investment {
	inv := domain.Investment{
		ID:               r.ID,
		UserID:           r.UserID,
		Type:             r.Type,
		Description:      r.Description,
		Quantity:         r.Quantity,
		AcquisitionValue: r.AcquisitionValue,
		CurrentPrice:     r.CurrentPrice,
		InitialAmount:    r.InitialAmount,
		CurrentValue:     r.CurrentValue,
		Rate:             r.Rate,
		Active:           r.Active,
	}
	if r.Indexer != nil {
		inv.Indexer = *r.Indexer
	}
	if t, ok := parseDate(r.AcquisitionDate); ok {
		inv.AcquisitionDate = t
	}
	if r.MaturityDate != nil {
		if t, ok := parseDate(*r.MaturityDate); ok {
			inv.MaturityDate = &t
		}
	}
	return inv
}

func (c *Client) ListInvestments(ctx context.Context, userID string, activeOnly bool) ([]domain.Investment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListInvestments")
	defer span.End()

	path := fmt.Sprintf("investments?user_id=eq.%s&order=acquisition_date.asc", url.QueryEscape(userID))
	if activeOnly {
		path += "&active=eq.true"
	}
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []investmentRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode investments: %w", err)
	}
	out := make([]domain.Investment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) GetInvestment(ctx context.Context, userID, investmentID string) (*domain.Investment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetInvestment")
	defer span.End()

	path := fmt.Sprintf("investments?user_id=eq.%s&id=eq.%s&limit=1", url.QueryEscape(userID), url.QueryEscape(investmentID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []investmentRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode investment: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "investment", ID: investmentID}
	}
	inv := rows[0].toDomain()
	return &inv, nil
}

func (c *Client) CreateInvestment(ctx context.Context, inv domain.Investment) (*domain.Investment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateInvestment")
	defer span.End()

	data := map[string]any{
		"id":               inv.ID,
		"user_id":          inv.UserID,
		"type":             inv.Type,
		"description":      inv.Description,
		"acquisition_date": inv.AcquisitionDate.UTC().Format("2006-01-02"),
		"active":           true,
	}
	if domain.UnitPricedInvestment(inv.Type) {
		data["quantity"] = inv.Quantity
		data["acquisition_value"] = inv.AcquisitionValue
	} else {
		data["initial_amount"] = inv.InitialAmount
		data["current_value"] = inv.InitialAmount
		if inv.Indexer != "" {
			data["indexer"] = inv.Indexer
		}
		if inv.Rate != 0 {
			data["rate"] = inv.Rate
		}
		if inv.MaturityDate != nil {
			data["maturity_date"] = inv.MaturityDate.UTC().Format("2006-01-02")
		}
	}

	body, err := c.doPost(ctx, "investments", data)
	if err != nil {
		return nil, err
	}

	var rows []investmentRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return &inv, nil
	}
	created := rows[0].toDomain()
	return &created, nil
}

func (c *Client) UpdateInvestment(ctx context.Context, userID, investmentID string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateInvestment")
	defer span.End()

	path := fmt.Sprintf("investments?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(investmentID))
	return c.doPatch(ctx, path, fields)
}

func (c *Client) DeleteInvestment(ctx context.Context, userID, investmentID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteInvestment")
	defer span.End()

	path := fmt.Sprintf("investments?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(investmentID))
	return c.doDelete(ctx, path)
}
