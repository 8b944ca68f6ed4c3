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
// Bills and bill payments: CRUD via PostgREST
// ============================================================

type billRow struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Description string       `json:"description"`
	Amount      float64      `json:"amount"`
	DueDateDay  int          `json:"due_date_day"`
	Recurring   string       `json:"recurring"`
	CategoryID  string       `json:"category_id"`
	AccountID   *string      `json:"account_id"`
	CardID      *string      `json:"card_id"`
	Active      bool         `json:"active"`
	CreatedAt   string       `json:"created_at"`
	Category    *categoryRow `json:"categories,omitempty"`
	Account     *accountRow  `json:"accounts,omitempty"`
	Card        *cardRow     `json:"cards,omitempty"`
}

func (r billRow) toDomain() domain.Bill {
	b := domain.Bill{
		ID:          r.ID,
		UserID:      r.UserID,
		Description: r.Description,
		Amount:      r.Amount,
		DueDateDay:  r.DueDateDay,
		Recurring:   r.Recurring,
		CategoryID:  r.CategoryID,
		Active:      r.Active,
	}
	if r.AccountID != nil {
		b.AccountID = *r.AccountID
	}
	if r.CardID != nil {
		b.CardID = *r.CardID
	}
	if t, ok := parseDate(r.CreatedAt); ok {
		b.CreatedAt = t
	}
	if r.Category != nil {
		cat := r.Category.toDomain()
		b.Category = &cat
	}
	if r.Account != nil {
		acct := r.Account.toDomain()
		b.Account = &acct
	}
	if r.Card != nil {
		card := r.Card.toDomain()
		b.Card = &card
	}
	return b
}

type billPaymentRow struct {
	ID            string   `json:"id"`
	BillID        string   `json:"bill_id"`
	DueDate       string   `json:"due_date"`
	Amount        float64  `json:"amount"`
	Status        string   `json:"status"`
	TransactionID *string  `json:"transaction_id"`
	PaidAt        *string  `json:"paid_at"`
	Bill          *billRow `json:"bills,omitempty"`
}

func (r billPaymentRow) toDomain() domain.BillPayment {
	p := domain.BillPayment{
		ID:     r.ID,
		BillID: r.BillID,
		Amount: r.Amount,
		Status: r.Status,
	}
	if t, ok := parseDate(r.DueDate); ok {
		p.DueDate = t
	}
	if r.TransactionID != nil {
		p.TransactionID = *r.TransactionID
	}
	if r.PaidAt != nil {
		if t, ok := parseDate(*r.PaidAt); ok {
			p.PaidAt = &t
		}
	}
	if r.Bill != nil {
		b := r.Bill.toDomain()
		p.Bill = &b
	}
	return p
}

func (c *Client) ListBills(ctx context.Context, userID string) ([]domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBills")
	defer span.End()

	path := fmt.Sprintf("bills?user_id=eq.%s&select=*,categories(*),accounts(*),cards(*)&order=due_date_day.asc", url.QueryEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []billRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode bills: %w", err)
	}
	out := make([]domain.Bill, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) GetBill(ctx context.Context, userID, billID string) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBill")
	defer span.End()

	path := fmt.Sprintf("bills?user_id=eq.%s&id=eq.%s&select=*,categories(*),accounts(*),cards(*)&limit=1",
		url.QueryEscape(userID), url.QueryEscape(billID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []billRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode bill: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	b := rows[0].toDomain()
	return &b, nil
}

func (c *Client) CreateBill(ctx context.Context, b domain.Bill) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateBill")
	defer span.End()

	data := map[string]any{
		"id":           b.ID,
		"user_id":      b.UserID,
		"description":  b.Description,
		"amount":       b.Amount,
		"due_date_day": b.DueDateDay,
		"recurring":    b.Recurring,
		"category_id":  b.CategoryID,
		"active":       true,
	}
	if b.AccountID != "" {
		data["account_id"] = b.AccountID
	}
	if b.CardID != "" {
		data["card_id"] = b.CardID
	}

	body, err := c.doPost(ctx, "bills", data)
	if err != nil {
		return nil, err
	}

	var rows []billRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return &b, nil
	}
	created := rows[0].toDomain()
	return &created, nil
}

func (c *Client) UpdateBill(ctx context.Context, userID, billID string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateBill")
	defer span.End()

	path := fmt.Sprintf("bills?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(billID))
	return c.doPatch(ctx, path, fields)
}

func (c *Client) DeleteBill(ctx context.Context, userID, billID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteBill")
	defer span.End()

	// pending occurrences go with the rule
	if err := c.doDelete(ctx, fmt.Sprintf("bill_payments?bill_id=eq.%s&status=eq.PENDING", url.QueryEscape(billID))); err != nil {
		return err
	}
	return c.doDelete(ctx, fmt.Sprintf("bills?user_id=eq.%s&id=eq.%s", url.QueryEscape(userID), url.QueryEscape(billID)))
}

// ListPendingPayments returns unpaid occurrences of the user's bills,
// bill expanded, ordered by due date.
func (c *Client) ListPendingPayments(ctx context.Context, userID string) ([]domain.BillPayment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPendingPayments")
	defer span.End()

	path := fmt.Sprintf("bill_payments?select=*,bills!inner(*,categories(*),accounts(*),cards(*))&bills.user_id=eq.%s&status=neq.PAID&order=due_date.asc",
		url.QueryEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []billPaymentRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode bill payments: %w", err)
	}
	out := make([]domain.BillPayment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) GetBillPayment(ctx context.Context, paymentID string) (*domain.BillPayment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBillPayment")
	defer span.End()

	path := fmt.Sprintf("bill_payments?id=eq.%s&select=*,bills(*,categories(*),accounts(*),cards(*))&limit=1", url.QueryEscape(paymentID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []billPaymentRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode bill payment: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "bill payment", ID: paymentID}
	}
	p := rows[0].toDomain()
	return &p, nil
}

func (c *Client) CreateBillPayment(ctx context.Context, p domain.BillPayment) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateBillPayment")
	defer span.End()

	_, err := c.doPost(ctx, "bill_payments", map[string]any{
		"id":       p.ID,
		"bill_id":  p.BillID,
		"due_date": p.DueDate.UTC().Format("2006-01-02"),
		"amount":   p.Amount,
		"status":   p.Status,
	})
	return err
}

// MarkPaymentPaid settles an occurrence, linking the spawned transaction.
func (c *Client) MarkPaymentPaid(ctx context.Context, paymentID, transactionID string, paidAt time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.MarkPaymentPaid")
	defer span.End()

	return c.doPatch(ctx, fmt.Sprintf("bill_payments?id=eq.%s", url.QueryEscape(paymentID)), map[string]any{
		"status":         domain.PaymentPaid,
		"transaction_id": transactionID,
		"paid_at":        paidAt.UTC().Format(time.RFC3339),
	})
}
