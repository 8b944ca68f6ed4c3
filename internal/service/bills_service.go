package service

import (
	"context"
	"fmt"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/finance"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var billsTracer = otel.Tracer("service/bills")

// BillsService orchestrates bill rules, their payment occurrences and
// the due-date alert feed.
type BillsService struct {
	store       port.BillStore
	txs         port.TransactionStore
	accounts    port.AccountStore
	metrics     *observability.Metrics
	logger      *zap.Logger
	dueSoonDays int
}

// NewBillsService creates a new bills service. dueSoonDays is the alert
// window applied when classifying pending occurrences.
func NewBillsService(store port.BillStore, txs port.TransactionStore, accounts port.AccountStore, metrics *observability.Metrics, logger *zap.Logger, dueSoonDays int) *BillsService {
	if dueSoonDays < 0 {
		dueSoonDays = finance.DefaultDueSoonDays
	}
	return &BillsService{
		store:       store,
		txs:         txs,
		accounts:    accounts,
		metrics:     metrics,
		logger:      logger,
		dueSoonDays: dueSoonDays,
	}
}

func (s *BillsService) ListBills(ctx context.Context, userID string) ([]domain.Bill, error) {
	ctx, span := billsTracer.Start(ctx, "BillsService.ListBills")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.store.ListBills(ctx, userID)
}

func (s *BillsService) CreateBill(ctx context.Context, userID string, req *domain.BillRequest) (*domain.Bill, error) {
	ctx, span := billsTracer.Start(ctx, "BillsService.CreateBill")
	defer span.End()

	if err := validateBillRequest(req); err != nil {
		return nil, err
	}

	bill, err := s.store.CreateBill(ctx, domain.Bill{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: req.Description,
		Amount:      req.Amount,
		DueDateDay:  req.DueDateDay,
		Recurring:   req.Recurring,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		CardID:      req.CardID,
		Active:      true,
	})
	if err != nil {
		return nil, err
	}

	// first occurrence: this month's due day, or next month's if already past
	if err := s.store.CreateBillPayment(ctx, domain.BillPayment{
		ID:      uuid.NewString(),
		BillID:  bill.ID,
		DueDate: nextDueDate(bill.DueDateDay, time.Now().UTC()),
		Amount:  bill.Amount,
		Status:  domain.PaymentPending,
	}); err != nil {
		s.logger.Error("bill created but first occurrence failed",
			zap.String("bill_id", bill.ID),
			zap.Error(err),
		)
	}

	return bill, nil
}

func validateBillRequest(req *domain.BillRequest) error {
	if req.Description == "" {
		return &domain.ErrValidation{Field: "description", Message: "Descrição é obrigatória"}
	}
	if req.Amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "Valor deve ser positivo"}
	}
	if req.DueDateDay < 1 || req.DueDateDay > 31 {
		return &domain.ErrValidation{Field: "dueDateDay", Message: "Dia de vencimento deve estar entre 1 e 31"}
	}
	switch req.Recurring {
	case domain.RecurringNone, domain.RecurringMonthly, domain.RecurringAnnually:
	default:
		return &domain.ErrValidation{Field: "recurring", Message: "Recorrência inválida"}
	}
	if req.CategoryID == "" {
		return &domain.ErrValidation{Field: "categoryId", Message: "Categoria é obrigatória"}
	}
	if req.AccountID != "" && req.CardID != "" {
		return &domain.ErrValidation{Field: "accountId", Message: "Informe conta ou cartão, não ambos"}
	}
	return nil
}

// nextDueDate maps a 1-31 due day onto the next occurrence on or after
// ref, clamping short months.
func nextDueDate(day int, ref time.Time) time.Time {
	y, m, _ := ref.Date()
	due := clampedDate(y, m, day)
	if due.Before(finance.DateOnly(ref)) {
		due = clampedDate(y, m+1, day)
	}
	return due
}

func clampedDate(year int, month time.Month, day int) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func (s *BillsService) UpdateBill(ctx context.Context, userID, billID string, req *domain.BillRequest) (*domain.Bill, error) {
	ctx, span := billsTracer.Start(ctx, "BillsService.UpdateBill")
	defer span.End()

	if _, err := s.store.GetBill(ctx, userID, billID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Description != "" {
		fields["description"] = req.Description
	}
	if req.Amount > 0 {
		fields["amount"] = req.Amount
	}
	if req.DueDateDay >= 1 && req.DueDateDay <= 31 {
		fields["due_date_day"] = req.DueDateDay
	}
	if req.Recurring != "" {
		fields["recurring"] = req.Recurring
	}
	if req.CategoryID != "" {
		fields["category_id"] = req.CategoryID
	}
	if len(fields) > 0 {
		if err := s.store.UpdateBill(ctx, userID, billID, fields); err != nil {
			return nil, err
		}
	}
	return s.store.GetBill(ctx, userID, billID)
}

// AlterBillStatus flips the active flag of a bill rule.
func (s *BillsService) AlterBillStatus(ctx context.Context, userID, billID string) (*domain.Bill, error) {
	ctx, span := billsTracer.Start(ctx, "BillsService.AlterBillStatus")
	defer span.End()

	bill, err := s.store.GetBill(ctx, userID, billID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateBill(ctx, userID, billID, map[string]any{"active": !bill.Active}); err != nil {
		return nil, err
	}
	bill.Active = !bill.Active
	return bill, nil
}

func (s *BillsService) DeleteBill(ctx context.Context, userID, billID string) error {
	ctx, span := billsTracer.Start(ctx, "BillsService.DeleteBill")
	defer span.End()

	if _, err := s.store.GetBill(ctx, userID, billID); err != nil {
		return err
	}
	return s.store.DeleteBill(ctx, userID, billID)
}

// PendingBills returns unpaid occurrences classified against today.
// Occurrences tied to a card are excluded from the alert feed; those
// surface through the card's invoice instead.
func (s *BillsService) PendingBills(ctx context.Context, userID string) ([]domain.PendingBill, error) {
	ctx, span := billsTracer.Start(ctx, "BillsService.PendingBills")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	payments, err := s.store.ListPendingPayments(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := time.Now()
	out := make([]domain.PendingBill, 0, len(payments))
	for _, p := range payments {
		if p.Bill != nil && p.Bill.CardID != "" {
			continue
		}

		c := finance.ClassifyDueDate(p.DueDate, today, s.dueSoonDays)
		s.metrics.IncrBillAlert(c.Status)

		pb := domain.PendingBill{
			BillPayment: p,
			DaysDelta:   c.DaysDelta,
			AlertStatus: c.Status,
			AlertText:   c.Text,
		}
		if p.Bill != nil {
			pb.Description = p.Bill.Description
		}
		out = append(out, pb)
	}
	return out, nil
}

// PayBill settles a pending occurrence: spawns the DESPESA transaction,
// debits the paying account and marks the occurrence PAID. A PAID
// occurrence stays PAID; paying it again is a duplicate.
func (s *BillsService) PayBill(ctx context.Context, userID, paymentID string) (*domain.BillPayment, error) {
	ctx, span := billsTracer.Start(ctx, "BillsService.PayBill")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("bill_pay", time.Since(start)) }()

	payment, err := s.store.GetBillPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Bill == nil || payment.Bill.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "bill payment", ID: paymentID}
	}
	if payment.Status == domain.PaymentPaid {
		return nil, &domain.ErrDuplicate{Key: paymentID}
	}

	bill := payment.Bill
	tx, err := s.txs.CreateTransaction(ctx, domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: fmt.Sprintf("Pagamento: %s", bill.Description),
		Value:       payment.Amount,
		Type:        domain.TypeDespesa,
		Date:        time.Now().UTC(),
		Paid:        true,
		CategoryID:  bill.CategoryID,
		AccountID:   bill.AccountID,
		CardID:      bill.CardID,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment transaction: %w", err)
	}

	if bill.AccountID != "" {
		if _, err := s.accounts.AdjustAccountBalance(ctx, userID, bill.AccountID, -payment.Amount); err != nil {
			s.logger.Error("bill paid but balance update failed",
				zap.String("payment_id", paymentID),
				zap.Error(err),
			)
		}
	}

	now := time.Now().UTC()
	if err := s.store.MarkPaymentPaid(ctx, paymentID, tx.ID, now); err != nil {
		return nil, fmt.Errorf("mark payment paid: %w", err)
	}

	// schedule the next occurrence for recurring rules
	if bill.Recurring != domain.RecurringNone {
		months := time.Month(1)
		if bill.Recurring == domain.RecurringAnnually {
			months = 12
		}
		// Clamp to the bill's due day rather than AddDate, which would
		// normalize a day-31 occurrence past February and drift the
		// schedule onto the 3rd for good.
		y, m, _ := payment.DueDate.Date()
		next := clampedDate(y, m+months, bill.DueDateDay)
		if err := s.store.CreateBillPayment(ctx, domain.BillPayment{
			ID:      uuid.NewString(),
			BillID:  bill.ID,
			DueDate: next,
			Amount:  bill.Amount,
			Status:  domain.PaymentPending,
		}); err != nil {
			s.logger.Error("failed to schedule next occurrence",
				zap.String("bill_id", bill.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("bill payment settled",
		zap.String("payment_id", paymentID),
		zap.String("transaction_id", tx.ID),
		zap.Float64("amount", payment.Amount),
	)

	payment.Status = domain.PaymentPaid
	payment.TransactionID = tx.ID
	payment.PaidAt = &now
	return payment, nil
}
