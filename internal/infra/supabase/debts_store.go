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
// Debts and debt payments: CRUD via PostgREST
// ============================================================

type debtRow struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"user_id"`
	Description        string           `json:"description"`
	Creditor           string           `json:"creditor"`
	Type               string           `json:"type"`
	InitialAmount      float64          `json:"initial_amount"`
	OutstandingBalance float64          `json:"outstanding_balance"`
	InterestRate       float64          `json:"interest_rate"`
	MinimumPayment     float64          `json:"minimum_payment"`
	PaymentDueDay      int              `json:"payment_due_day"`
	StartDate          string           `json:"start_date"`
	EstimatedEndDate   *string          `json:"estimated_end_date"`
	Status             string           `json:"status"`
	BankID             *string          `json:"bank_id"`
	Bank               *bankRow         `json:"banks,omitempty"`
	Payments           []debtPaymentRow `json:"debt_payments,omitempty"`
}

type debtPaymentRow struct {
	ID            string          `json:"id"`
	DebtID        string          `json:"debt_id"`
	Amount        float64         `json:"amount"`
	PaymentDate   string          `json:"payment_date"`
	TransactionID *string         `json:"transaction_id"`
	Transaction   *transactionRow `json:"transactions,omitempty"`
}

func (r debtRow) toDomain() domain.Debt {
	d := domain.Debt{
		ID:                 r.ID,
		UserID:             r.UserID,
		Description:        r.Description,
		Creditor:           r.Creditor,
		Type:               r.Type,
		InitialAmount:      r.InitialAmount,
		OutstandingBalance: r.OutstandingBalance,
		InterestRate:       r.InterestRate,
		MinimumPayment:     r.MinimumPayment,
		PaymentDueDay:      r.PaymentDueDay,
		Status:             r.Status,
	}
	if t, ok := parseDate(r.StartDate); ok {
		d.StartDate = t
	}
	if r.EstimatedEndDate != nil {
		if t, ok := parseDate(*r.EstimatedEndDate); ok {
			d.EstimatedEndDate = &t
		}
	}
	if r.BankID != nil {
		d.BankID = *r.BankID
	}
	if r.Bank != nil {
		d.Bank = &domain.Bank{ID: r.Bank.ID, Name: r.Bank.Name, Code: r.Bank.Code}
	}
	for _, p := range r.Payments {
		d.Payments = append(d.Payments, p.toDomain())
	}
	return d
}

func (r debtPaymentRow) toDomain() domain.DebtPayment {
	p := domain.DebtPayment{
		ID:     r.ID,
		DebtID: r.DebtID,
		Amount: r.Amount,
	}
	if t, ok := parseDate(r.PaymentDate); ok {
		p.PaymentDate = t
	}
	if r.TransactionID != nil {
		p.TransactionID = *r.TransactionID
	}
	if r.Transaction != nil {
		tx := r.Transaction.toDomain()
		p.Transaction = &tx
	}
	return p
}

func (c *Client) ListDebts(ctx context.Context, userID string) ([]domain.Debt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDebts")
	defer span.End()

	path := fmt.Sprintf("debts?user_id=eq.%s&select=*,banks(*),debt_payments(*)&order=start_date.desc", url.QueryEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []debtRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode debts: %w", err)
	}
	out := make([]domain.Debt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) GetDebt(ctx context.Context, userID, debtID string) (*domain.Debt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetDebt")
	defer span.End()

	path := fmt.Sprintf("debts?user_id=eq.%s&id=eq.%s&select=*,banks(*),debt_payments(*)&limit=1",
		url.QueryEscape(userID), url.QueryEscape(debtID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []debtRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode debt: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "debt", ID: debtID}
	}
	d := rows[0].toDomain()
	return &d, nil
}

func (c *Client) CreateDebt(ctx context.Context, d domain.Debt) (*domain.Debt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateDebt")
	defer span.End()

	data := map[string]any{
		"id":                  d.ID,
		"user_id":             d.UserID,
		"description":         d.Description,
		"creditor":            d.Creditor,
		"type":                d.Type,
		"initial_amount":      d.InitialAmount,
		"outstanding_balance": d.OutstandingBalance,
		"interest_rate":       d.InterestRate,
		"minimum_payment":     d.MinimumPayment,
		"payment_due_day":     d.PaymentDueDay,
		"start_date":          d.StartDate.UTC().Format("2006-01-02"),
		"status":              d.Status,
	}
	if d.EstimatedEndDate != nil {
		data["estimated_end_date"] = d.EstimatedEndDate.UTC().Format("2006-01-02")
	}
	if d.BankID != "" {
		data["bank_id"] = d.BankID
	}

	body, err := c.doPost(ctx, "debts", data)
	if err != nil {
		return nil, err
	}

	var rows []debtRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return &d, nil
	}
	created := rows[0].toDomain()
	return &created, nil
}

func (c *Client) UpdateDebt(ctx context.Context, userID, debtID string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateDebt")
	defer span.End()

	path := fmt.Sprintf("debts?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(debtID))
	return c.doPatch(ctx, path, fields)
}

func (c *Client) DeleteDebt(ctx context.Context, userID, debtID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteDebt")
	defer span.End()

	// the payment history goes with the debt
	if err := c.doDelete(ctx, fmt.Sprintf("debt_payments?debt_id=eq.%s", url.QueryEscape(debtID))); err != nil {
		return err
	}
	return c.doDelete(ctx, fmt.Sprintf("debts?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(debtID)))
}

func (c *Client) ListDebtPayments(ctx context.Context, debtID string) ([]domain.DebtPayment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDebtPayments")
	defer span.End()

	path := fmt.Sprintf("debt_payments?debt_id=eq.%s&select=*,transactions(*)&order=payment_date.desc", url.QueryEscape(debtID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []debtPaymentRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode debt payments: %w", err)
	}
	out := make([]domain.DebtPayment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) CreateDebtPayment(ctx context.Context, p domain.DebtPayment) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateDebtPayment")
	defer span.End()

	data := map[string]any{
		"id":           p.ID,
		"debt_id":      p.DebtID,
		"amount":       p.Amount,
		"payment_date": p.PaymentDate.UTC().Format(time.RFC3339),
	}
	if p.TransactionID != "" {
		data["transaction_id"] = p.TransactionID
	}
	_, err := c.doPost(ctx, "debt_payments", data)
	return err
}
