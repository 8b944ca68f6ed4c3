package service

import (
	"context"
	"fmt"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var debtsTracer = otel.Tracer("service/debts")

// DebtsService manages negotiated debts and their amortizations.
type DebtsService struct {
	store    port.DebtStore
	txs      port.TransactionStore
	accounts port.AccountStore
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func NewDebtsService(store port.DebtStore, txs port.TransactionStore, accounts port.AccountStore, metrics *observability.Metrics, logger *zap.Logger) *DebtsService {
	return &DebtsService{store: store, txs: txs, accounts: accounts, metrics: metrics, logger: logger}
}

func (s *DebtsService) ListDebts(ctx context.Context, userID string) ([]domain.Debt, error) {
	ctx, span := debtsTracer.Start(ctx, "DebtsService.ListDebts")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.store.ListDebts(ctx, userID)
}

func (s *DebtsService) GetDebt(ctx context.Context, userID, debtID string) (*domain.Debt, error) {
	ctx, span := debtsTracer.Start(ctx, "DebtsService.GetDebt")
	defer span.End()

	return s.store.GetDebt(ctx, userID, debtID)
}

func (s *DebtsService) CreateDebt(ctx context.Context, userID string, req *domain.DebtRequest) (*domain.Debt, error) {
	ctx, span := debtsTracer.Start(ctx, "DebtsService.CreateDebt")
	defer span.End()

	if req.Description == "" {
		return nil, &domain.ErrValidation{Field: "description", Message: "Descrição é obrigatória"}
	}
	if req.InitialAmount <= 0 {
		return nil, &domain.ErrValidation{Field: "initialAmount", Message: "Valor inicial deve ser positivo"}
	}
	startDate, ok := parseISODate(req.StartDate)
	if !ok {
		return nil, &domain.ErrValidation{Field: "startDate", Message: "Data de início inválida"}
	}

	outstanding := req.OutstandingBalance
	if outstanding <= 0 {
		outstanding = req.InitialAmount
	}

	d := domain.Debt{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Description:        req.Description,
		Creditor:           req.Creditor,
		Type:               req.Type,
		InitialAmount:      req.InitialAmount,
		OutstandingBalance: outstanding,
		InterestRate:       req.InterestRate,
		MinimumPayment:     req.MinimumPayment,
		PaymentDueDay:      req.PaymentDueDay,
		StartDate:          startDate,
		Status:             domain.DebtActive,
		BankID:             req.BankID,
	}
	if req.EstimatedEndDate != "" {
		end, ok := parseISODate(req.EstimatedEndDate)
		if !ok {
			return nil, &domain.ErrValidation{Field: "estimatedEndDate", Message: "Data final estimada inválida"}
		}
		d.EstimatedEndDate = &end
	}

	return s.store.CreateDebt(ctx, d)
}

func (s *DebtsService) UpdateDebt(ctx context.Context, userID, debtID string, req *domain.DebtRequest) (*domain.Debt, error) {
	ctx, span := debtsTracer.Start(ctx, "DebtsService.UpdateDebt")
	defer span.End()

	if _, err := s.store.GetDebt(ctx, userID, debtID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Description != "" {
		fields["description"] = req.Description
	}
	if req.Creditor != "" {
		fields["creditor"] = req.Creditor
	}
	if req.InterestRate > 0 {
		fields["interest_rate"] = req.InterestRate
	}
	if req.MinimumPayment > 0 {
		fields["minimum_payment"] = req.MinimumPayment
	}
	if req.PaymentDueDay >= 1 && req.PaymentDueDay <= 31 {
		fields["payment_due_day"] = req.PaymentDueDay
	}
	if req.OutstandingBalance > 0 {
		fields["outstanding_balance"] = req.OutstandingBalance
	}
	if req.EstimatedEndDate != "" {
		end, ok := parseISODate(req.EstimatedEndDate)
		if !ok {
			return nil, &domain.ErrValidation{Field: "estimatedEndDate", Message: "Data final estimada inválida"}
		}
		fields["estimated_end_date"] = end.Format("2006-01-02")
	}
	if len(fields) > 0 {
		if err := s.store.UpdateDebt(ctx, userID, debtID, fields); err != nil {
			return nil, err
		}
	}
	return s.store.GetDebt(ctx, userID, debtID)
}

func (s *DebtsService) ListDebtPayments(ctx context.Context, userID, debtID string) ([]domain.DebtPayment, error) {
	ctx, span := debtsTracer.Start(ctx, "DebtsService.ListDebtPayments")
	defer span.End()

	if _, err := s.store.GetDebt(ctx, userID, debtID); err != nil {
		return nil, err
	}
	return s.store.ListDebtPayments(ctx, debtID)
}

// DeleteDebt removes the debt and its amortization history. Settled
// transactions stay on the ledger.
func (s *DebtsService) DeleteDebt(ctx context.Context, userID, debtID string) error {
	ctx, span := debtsTracer.Start(ctx, "DebtsService.DeleteDebt")
	defer span.End()

	if _, err := s.store.GetDebt(ctx, userID, debtID); err != nil {
		return err
	}
	if err := s.store.DeleteDebt(ctx, userID, debtID); err != nil {
		return err
	}
	s.logger.Info("debt deleted", zap.String("debt_id", debtID))
	return nil
}

// PayDebt registers an amortization: spawns the DESPESA transaction,
// debits the paying account and lowers the outstanding balance. When the
// balance reaches zero the debt flips to PAID_OFF.
func (s *DebtsService) PayDebt(ctx context.Context, userID, debtID string, req *domain.DebtPayRequest) (*domain.Debt, error) {
	ctx, span := debtsTracer.Start(ctx, "DebtsService.PayDebt")
	defer span.End()
	span.SetAttributes(attribute.String("debt.id", debtID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("debt_pay", time.Since(start)) }()

	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "Valor deve ser positivo"}
	}
	if req.AccountID == "" {
		return nil, &domain.ErrValidation{Field: "accountId", Message: "Conta é obrigatória"}
	}

	debt, err := s.store.GetDebt(ctx, userID, debtID)
	if err != nil {
		return nil, err
	}
	if debt.Status == domain.DebtPaidOff || debt.Status == domain.DebtCancelled {
		return nil, &domain.ErrConflict{Message: "Dívida já quitada ou cancelada"}
	}

	paymentDate := time.Now().UTC()
	if req.Date != "" {
		d, ok := parseISODate(req.Date)
		if !ok {
			return nil, &domain.ErrValidation{Field: "date", Message: "Data inválida"}
		}
		paymentDate = d
	}

	tx, err := s.txs.CreateTransaction(ctx, domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: fmt.Sprintf("Pagamento dívida: %s", debt.Description),
		Value:       req.Amount,
		Type:        domain.TypeDespesa,
		Date:        paymentDate,
		Paid:        true,
		AccountID:   req.AccountID,
	})
	if err != nil {
		return nil, fmt.Errorf("create amortization transaction: %w", err)
	}

	if _, err := s.accounts.AdjustAccountBalance(ctx, userID, req.AccountID, -req.Amount); err != nil {
		s.logger.Error("debt paid but balance update failed",
			zap.String("debt_id", debtID),
			zap.Error(err),
		)
	}

	if err := s.store.CreateDebtPayment(ctx, domain.DebtPayment{
		ID:            uuid.NewString(),
		DebtID:        debtID,
		Amount:        req.Amount,
		PaymentDate:   paymentDate,
		TransactionID: tx.ID,
	}); err != nil {
		return nil, fmt.Errorf("record amortization: %w", err)
	}

	remaining := debt.OutstandingBalance - req.Amount
	if remaining < 0 {
		remaining = 0
	}
	fields := map[string]any{"outstanding_balance": remaining}
	if remaining == 0 {
		fields["status"] = domain.DebtPaidOff
	}
	if err := s.store.UpdateDebt(ctx, userID, debtID, fields); err != nil {
		return nil, fmt.Errorf("update outstanding balance: %w", err)
	}

	s.logger.Info("debt amortization recorded",
		zap.String("debt_id", debtID),
		zap.Float64("amount", req.Amount),
		zap.Float64("remaining", remaining),
	)

	debt.OutstandingBalance = remaining
	if remaining == 0 {
		debt.Status = domain.DebtPaidOff
	}
	return debt, nil
}

// parseISODate accepts RFC 3339 or a plain calendar date.
func parseISODate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
