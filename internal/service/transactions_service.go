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

var txTracer = otel.Tracer("service/transactions")

// TransactionsService orchestrates transaction records: CRUD, transfer
// legs, card installments and the account bank statement.
type TransactionsService struct {
	store      port.TransactionStore
	accounts   port.AccountStore
	categories port.CategoryStore
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewTransactionsService creates a new transactions service.
func NewTransactionsService(store port.TransactionStore, accounts port.AccountStore, categories port.CategoryStore, metrics *observability.Metrics, logger *zap.Logger) *TransactionsService {
	return &TransactionsService{store: store, accounts: accounts, categories: categories, metrics: metrics, logger: logger}
}

func (s *TransactionsService) ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.store.ListTransactions(ctx, userID, f)
}

func (s *TransactionsService) GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.GetTransaction")
	defer span.End()

	return s.store.GetTransaction(ctx, userID, transactionID)
}

// CreateTransaction validates and persists a movement. DESPESA on a
// credit card with installments > 1 is split into N dated child
// transactions of value/N each. TRANSFERENCIA adjusts both account
// balances; RECEITA and DESPESA on an account adjust its balance.
func (s *TransactionsService) CreateTransaction(ctx context.Context, userID string, req *domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.CreateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Float64("value", req.Value))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("transaction_create", time.Since(start)) }()

	date, err := s.validateRequest(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	if req.Type == domain.TypeDespesa && req.CardID != "" && req.Installments > 1 {
		return s.createInstallments(ctx, userID, req, date)
	}

	created, err := s.store.CreateTransaction(ctx, domain.Transaction{
		ID:              uuid.NewString(),
		UserID:          userID,
		Description:     req.Description,
		Value:           req.Value,
		Type:            req.Type,
		Date:            date,
		Paid:            req.Paid,
		CategoryID:      req.CategoryID,
		AccountID:       req.AccountID,
		CardID:          req.CardID,
		TargetAccountID: req.TargetAccountID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.applyBalances(ctx, userID, created); err != nil {
		s.logger.Error("transaction created but balance update failed",
			zap.String("transaction_id", created.ID),
			zap.Error(err),
		)
	}

	return created, nil
}

// validateRequest enforces the structural invariants of a movement and
// returns its parsed date.
func (s *TransactionsService) validateRequest(ctx context.Context, userID string, req *domain.TransactionRequest) (time.Time, error) {
	if req.Value <= 0 {
		return time.Time{}, &domain.ErrValidation{Field: "value", Message: "Valor deve ser positivo"}
	}
	if req.Description == "" {
		return time.Time{}, &domain.ErrValidation{Field: "description", Message: "Descrição é obrigatória"}
	}
	if req.AccountID != "" && req.CardID != "" {
		return time.Time{}, &domain.ErrValidation{Field: "accountId", Message: "Informe conta ou cartão, não ambos"}
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		date, err = time.Parse("2006-01-02", req.Date)
	}
	if err != nil {
		return time.Time{}, &domain.ErrValidation{Field: "date", Message: "Data inválida"}
	}

	switch req.Type {
	case domain.TypeTransferencia:
		if req.AccountID == "" || req.TargetAccountID == "" {
			return time.Time{}, &domain.ErrValidation{Field: "targetAccountId", Message: "Transferência exige conta de origem e destino"}
		}
		if req.AccountID == req.TargetAccountID {
			return time.Time{}, &domain.ErrValidation{Field: "targetAccountId", Message: "Conta de destino deve ser diferente da origem"}
		}
		if req.CategoryID != "" {
			return time.Time{}, &domain.ErrValidation{Field: "categoryId", Message: "Transferência não tem categoria"}
		}
	case domain.TypeReceita, domain.TypeDespesa:
		if req.CategoryID == "" {
			return time.Time{}, &domain.ErrValidation{Field: "categoryId", Message: "Categoria é obrigatória"}
		}
		cat, err := s.categories.GetCategory(ctx, userID, req.CategoryID)
		if err != nil {
			return time.Time{}, err
		}
		if cat.Type != req.Type {
			return time.Time{}, &domain.ErrValidation{Field: "categoryId", Message: "Tipo da categoria não corresponde ao tipo do lançamento"}
		}
	default:
		return time.Time{}, &domain.ErrValidation{Field: "type", Message: "Tipo inválido"}
	}

	return date, nil
}

// createInstallments splits a card expense into N monthly children.
func (s *TransactionsService) createInstallments(ctx context.Context, userID string, req *domain.TransactionRequest, date time.Time) (*domain.Transaction, error) {
	per := req.Value / float64(req.Installments)

	var first *domain.Transaction
	for i := 0; i < req.Installments; i++ {
		child, err := s.store.CreateTransaction(ctx, domain.Transaction{
			ID:           uuid.NewString(),
			UserID:       userID,
			Description:  fmt.Sprintf("%s (%d/%d)", req.Description, i+1, req.Installments),
			Value:        per,
			Type:         domain.TypeDespesa,
			Date:         date.AddDate(0, i, 0),
			Paid:         req.Paid && i == 0,
			CategoryID:   req.CategoryID,
			CardID:       req.CardID,
			Installments: req.Installments,
		})
		if err != nil {
			return nil, fmt.Errorf("create installment %d/%d: %w", i+1, req.Installments, err)
		}
		if first == nil {
			first = child
		}
	}

	s.logger.Info("installment purchase created",
		zap.String("user_id", userID),
		zap.Int("installments", req.Installments),
		zap.Float64("total", req.Value),
	)
	return first, nil
}

// applyBalances adjusts account balances for account-backed movements.
// Card expenses settle through invoices, never directly.
func (s *TransactionsService) applyBalances(ctx context.Context, userID string, t *domain.Transaction) error {
	switch {
	case t.Type == domain.TypeTransferencia:
		if _, err := s.accounts.AdjustAccountBalance(ctx, userID, t.AccountID, -t.Value); err != nil {
			return err
		}
		_, err := s.accounts.AdjustAccountBalance(ctx, userID, t.TargetAccountID, t.Value)
		return err
	case t.AccountID != "" && t.Type == domain.TypeReceita:
		_, err := s.accounts.AdjustAccountBalance(ctx, userID, t.AccountID, t.Value)
		return err
	case t.AccountID != "" && t.Type == domain.TypeDespesa:
		_, err := s.accounts.AdjustAccountBalance(ctx, userID, t.AccountID, -t.Value)
		return err
	}
	return nil
}

func (s *TransactionsService) UpdateTransaction(ctx context.Context, userID, transactionID string, req *domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.UpdateTransaction")
	defer span.End()

	if _, err := s.store.GetTransaction(ctx, userID, transactionID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Description != "" {
		fields["description"] = req.Description
	}
	if req.Value > 0 {
		fields["value"] = req.Value
	}
	if req.Date != "" {
		if date, err := time.Parse(time.RFC3339, req.Date); err == nil {
			fields["date"] = date.UTC().Format(time.RFC3339)
		} else if date, err := time.Parse("2006-01-02", req.Date); err == nil {
			fields["date"] = date.UTC().Format(time.RFC3339)
		} else {
			return nil, &domain.ErrValidation{Field: "date", Message: "Data inválida"}
		}
	}
	if req.CategoryID != "" {
		fields["category_id"] = req.CategoryID
	}
	fields["paid"] = req.Paid

	if err := s.store.UpdateTransaction(ctx, userID, transactionID, fields); err != nil {
		return nil, err
	}
	return s.store.GetTransaction(ctx, userID, transactionID)
}

func (s *TransactionsService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	ctx, span := txTracer.Start(ctx, "TransactionsService.DeleteTransaction")
	defer span.End()

	t, err := s.store.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(ctx, userID, transactionID); err != nil {
		return err
	}

	// undo the balance effect
	switch {
	case t.Type == domain.TypeTransferencia:
		_, _ = s.accounts.AdjustAccountBalance(ctx, userID, t.AccountID, t.Value)
		_, _ = s.accounts.AdjustAccountBalance(ctx, userID, t.TargetAccountID, -t.Value)
	case t.AccountID != "" && t.Type == domain.TypeReceita:
		_, _ = s.accounts.AdjustAccountBalance(ctx, userID, t.AccountID, -t.Value)
	case t.AccountID != "" && t.Type == domain.TypeDespesa:
		_, _ = s.accounts.AdjustAccountBalance(ctx, userID, t.AccountID, t.Value)
	}
	return nil
}

// BankStatement builds the statement of one account over a period, with
// a running balance per entry.
func (s *TransactionsService) BankStatement(ctx context.Context, userID, accountID string, startDate, endDate time.Time) (*domain.BankStatement, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.BankStatement")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	acct, err := s.accounts.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	list, err := s.store.ListTransactions(ctx, userID, domain.TransactionFilter{
		AccountID: accountID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		return nil, err
	}

	// store returns newest first; statements read oldest first
	stmt := &domain.BankStatement{
		AccountID:   acct.ID,
		AccountName: acct.Name,
		StartDate:   startDate.UTC().Format("2006-01-02"),
		EndDate:     endDate.UTC().Format("2006-01-02"),
	}

	var periodDelta float64
	for _, t := range list {
		periodDelta += signedValue(t, accountID)
	}
	stmt.ClosingBalance = acct.Balance
	stmt.OpeningBalance = acct.Balance - periodDelta

	running := stmt.OpeningBalance
	for i := len(list) - 1; i >= 0; i-- {
		t := list[i]
		running += signedValue(t, accountID)
		stmt.Entries = append(stmt.Entries, domain.StatementEntry{
			ID:          t.ID,
			Date:        t.Date,
			Description: t.Description,
			Type:        t.Type,
			Value:       t.Value,
			Balance:     running,
		})
	}

	return stmt, nil
}

// signedValue is the effect of a movement on the given account balance.
func signedValue(t domain.Transaction, accountID string) float64 {
	switch t.Type {
	case domain.TypeReceita:
		return t.Value
	case domain.TypeDespesa:
		return -t.Value
	case domain.TypeTransferencia:
		if t.TargetAccountID == accountID {
			return t.Value
		}
		return -t.Value
	}
	return 0
}
