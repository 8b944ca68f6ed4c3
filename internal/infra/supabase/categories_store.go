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
// Categories: CRUD via PostgREST
// ============================================================

type categoryRow struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Active      bool   `json:"active"`
}

func (r categoryRow) toDomain() domain.Category {
	return domain.Category{
		ID:          r.ID,
		UserID:      r.UserID,
		Description: r.Description,
		Type:        r.Type,
		Active:      r.Active,
	}
}

func (c *Client) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCategories")
	defer span.End()

	path := fmt.Sprintf("categories?user_id=eq.%s&order=description.asc", url.QueryEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []categoryRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	out := make([]domain.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) GetCategory(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCategory")
	defer span.End()

	path := fmt.Sprintf("categories?user_id=eq.%s&id=eq.%s&limit=1", url.QueryEscape(userID), url.QueryEscape(categoryID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []categoryRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode category: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "category", ID: categoryID}
	}
	cat := rows[0].toDomain()
	return &cat, nil
}

func (c *Client) CreateCategory(ctx context.Context, cat domain.Category) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCategory")
	defer span.End()

	body, err := c.doPost(ctx, "categories", map[string]any{
		"id":          cat.ID,
		"user_id":     cat.UserID,
		"description": cat.Description,
		"type":        cat.Type,
		"active":      true,
	})
	if err != nil {
		return nil, err
	}

	var rows []categoryRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return &cat, nil
	}
	created := rows[0].toDomain()
	return &created, nil
}

func (c *Client) UpdateCategory(ctx context.Context, userID, categoryID string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCategory")
	defer span.End()

	path := fmt.Sprintf("categories?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(categoryID))
	return c.doPatch(ctx, path, fields)
}

func (c *Client) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCategory")
	defer span.End()

	path := fmt.Sprintf("categories?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(categoryID))
	return c.doDelete(ctx, path)
}
