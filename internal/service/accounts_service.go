// Package service provides the business logic layer (use cases).
// Each service wraps a store port, validates input and applies the
// derivation rules from internal/finance where aggregates are served.
package service

import (
	"context"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var accountsTracer = otel.Tracer("service/accounts")

// AccountsService orchestrates account and bank reference operations.
type AccountsService struct {
	store   port.AccountStore
	banks   port.Cache[[]domain.Bank]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAccountsService creates a new accounts service.
func NewAccountsService(store port.AccountStore, banks port.Cache[[]domain.Bank], metrics *observability.Metrics, logger *zap.Logger) *AccountsService {
	return &AccountsService{store: store, banks: banks, metrics: metrics, logger: logger}
}

func (s *AccountsService) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.ListAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.store.ListAccounts(ctx, userID)
}

func (s *AccountsService) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.GetAccount")
	defer span.End()

	return s.store.GetAccount(ctx, userID, accountID)
}

func (s *AccountsService) CreateAccount(ctx context.Context, userID string, req *domain.AccountRequest) (*domain.Account, error) {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.CreateAccount")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nome da conta é obrigatório"}
	}
	if !domain.ValidAccountType(req.Type) {
		return nil, &domain.ErrValidation{Field: "type", Message: "Tipo de conta inválido"}
	}

	return s.store.CreateAccount(ctx, domain.Account{
		ID:      uuid.NewString(),
		UserID:  userID,
		Name:    req.Name,
		Type:    req.Type,
		Balance: req.Balance,
		BankID:  req.BankID,
		Active:  true,
	})
}

func (s *AccountsService) UpdateAccount(ctx context.Context, userID, accountID string, req *domain.AccountRequest) (*domain.Account, error) {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.UpdateAccount")
	defer span.End()

	if req.Type != "" && !domain.ValidAccountType(req.Type) {
		return nil, &domain.ErrValidation{Field: "type", Message: "Tipo de conta inválido"}
	}

	fields := map[string]any{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Type != "" {
		fields["type"] = req.Type
	}
	if req.BankID != "" {
		fields["bank_id"] = req.BankID
	}
	if len(fields) == 0 {
		return s.store.GetAccount(ctx, userID, accountID)
	}

	if err := s.store.UpdateAccount(ctx, userID, accountID, fields); err != nil {
		return nil, err
	}
	return s.store.GetAccount(ctx, userID, accountID)
}

// AlternateAccountStatus flips the active flag.
func (s *AccountsService) AlternateAccountStatus(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.AlternateAccountStatus")
	defer span.End()

	acct, err := s.store.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateAccount(ctx, userID, accountID, map[string]any{"active": !acct.Active}); err != nil {
		return nil, err
	}
	acct.Active = !acct.Active

	s.logger.Info("account status alternated",
		zap.String("account_id", accountID),
		zap.Bool("active", acct.Active),
	)
	return acct, nil
}

func (s *AccountsService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.DeleteAccount")
	defer span.End()

	if _, err := s.store.GetAccount(ctx, userID, accountID); err != nil {
		return err
	}
	if err := s.store.DeleteAccount(ctx, userID, accountID); err != nil {
		return err
	}
	s.logger.Info("account deleted", zap.String("account_id", accountID))
	return nil
}

// ListBanks serves the bank reference table, cached (it changes rarely).
func (s *AccountsService) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.ListBanks")
	defer span.End()

	if banks, ok := s.banks.Get("banks"); ok {
		s.metrics.IncrCacheHit("banks")
		return banks, nil
	}
	s.metrics.IncrCacheMiss("banks")

	banks, err := s.store.ListBanks(ctx)
	if err != nil {
		return nil, err
	}
	s.banks.Set("banks", banks)
	return banks, nil
}
