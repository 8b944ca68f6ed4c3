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
// AI reports and balance forecasts
// ============================================================

type reportRow struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Title        string          `json:"title"`
	DisplayType  string          `json:"display_type"`
	Data         json.RawMessage `json:"data"`
	UserQuestion string          `json:"user_question"`
	CreatedAt    string          `json:"created_at"`
}

func (r reportRow) toDomain() domain.GeneratedReport {
	rep := domain.GeneratedReport{
		ID:           r.ID,
		UserID:       r.UserID,
		Title:        r.Title,
		DisplayType:  r.DisplayType,
		Data:         r.Data,
		UserQuestion: r.UserQuestion,
	}
	if t, ok := parseDate(r.CreatedAt); ok {
		rep.CreatedAt = t
	}
	return rep
}

func (c *Client) ListReports(ctx context.Context, userID string) ([]domain.GeneratedReport, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListReports")
	defer span.End()

	path := fmt.Sprintf("ai_reports?user_id=eq.%s&order=created_at.desc", url.QueryEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []reportRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	out := make([]domain.GeneratedReport, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) GetReport(ctx context.Context, userID, reportID string) (*domain.GeneratedReport, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetReport")
	defer span.End()

	path := fmt.Sprintf("ai_reports?user_id=eq.%s&id=eq.%s&limit=1", url.QueryEscape(userID), url.QueryEscape(reportID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []reportRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "report", ID: reportID}
	}
	rep := rows[0].toDomain()
	return &rep, nil
}

func (c *Client) SaveReport(ctx context.Context, rep domain.GeneratedReport) (*domain.GeneratedReport, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SaveReport")
	defer span.End()

	body, err := c.doPost(ctx, "ai_reports", map[string]any{
		"id":            rep.ID,
		"user_id":       rep.UserID,
		"title":         rep.Title,
		"display_type":  rep.DisplayType,
		"data":          rep.Data,
		"user_question": rep.UserQuestion,
	})
	if err != nil {
		return nil, err
	}

	var rows []reportRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return &rep, nil
	}
	saved := rows[0].toDomain()
	return &saved, nil
}

func (c *Client) DeleteReport(ctx context.Context, userID, reportID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteReport")
	defer span.End()

	path := fmt.Sprintf("ai_reports?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(reportID))
	return c.doDelete(ctx, path)
}

// --- Forecasts ---

type forecastRow struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	FutureBalance   float64 `json:"future_balance"`
	AnalysisSummary string  `json:"analysis_summary"`
	ForecastDate    string  `json:"forecast_date"`
	CreatedAt       string  `json:"created_at"`
}

func (r forecastRow) toDomain() domain.Forecast {
	f := domain.Forecast{
		ID:              r.ID,
		UserID:          r.UserID,
		FutureBalance:   r.FutureBalance,
		AnalysisSummary: r.AnalysisSummary,
	}
	if t, ok := parseDate(r.ForecastDate); ok {
		f.ForecastDate = t
	}
	if t, ok := parseDate(r.CreatedAt); ok {
		f.CreatedAt = t
	}
	return f
}

func (c *Client) SaveForecast(ctx context.Context, f domain.Forecast) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveForecast")
	defer span.End()

	_, err := c.doPost(ctx, "forecasts", map[string]any{
		"id":               f.ID,
		"user_id":          f.UserID,
		"future_balance":   f.FutureBalance,
		"analysis_summary": f.AnalysisSummary,
		"forecast_date":    f.ForecastDate.UTC().Format(time.RFC3339),
	})
	return err
}

func (c *Client) GetLatestForecast(ctx context.Context, userID string) (*domain.Forecast, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetLatestForecast")
	defer span.End()

	path := fmt.Sprintf("forecasts?user_id=eq.%s&order=created_at.desc&limit=1", url.QueryEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []forecastRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "forecast", ID: userID}
	}
	f := rows[0].toDomain()
	return &f, nil
}
