package service

import (
	"context"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/finance"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var investTracer = otel.Tracer("service/investments")

// InvestmentsService manages portfolio holdings and derives the
// aggregated summary. Summaries are cached per user and invalidated on
// every write.
type InvestmentsService struct {
	store     port.InvestmentStore
	summaries port.Cache[*finance.PortfolioSummary]
	metrics   *observability.Metrics
	logger    *zap.Logger
}

func NewInvestmentsService(store port.InvestmentStore, summaries port.Cache[*finance.PortfolioSummary], metrics *observability.Metrics, logger *zap.Logger) *InvestmentsService {
	return &InvestmentsService{store: store, summaries: summaries, metrics: metrics, logger: logger}
}

func (s *InvestmentsService) ListInvestments(ctx context.Context, userID string, activeOnly bool) ([]domain.Investment, error) {
	ctx, span := investTracer.Start(ctx, "InvestmentsService.ListInvestments")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.store.ListInvestments(ctx, userID, activeOnly)
}

func (s *InvestmentsService) GetInvestment(ctx context.Context, userID, investmentID string) (*domain.Investment, error) {
	ctx, span := investTracer.Start(ctx, "InvestmentsService.GetInvestment")
	defer span.End()

	return s.store.GetInvestment(ctx, userID, investmentID)
}

func (s *InvestmentsService) CreateInvestment(ctx context.Context, userID string, req *domain.InvestmentRequest) (*domain.Investment, error) {
	ctx, span := investTracer.Start(ctx, "InvestmentsService.CreateInvestment")
	defer span.End()

	if req.Description == "" {
		return nil, &domain.ErrValidation{Field: "description", Message: "Descrição é obrigatória"}
	}
	acqDate, ok := parseISODate(req.AcquisitionDate)
	if !ok {
		return nil, &domain.ErrValidation{Field: "acquisitionDate", Message: "Data de aquisição inválida"}
	}

	inv := domain.Investment{
		ID:              uuid.NewString(),
		UserID:          userID,
		Type:            req.Type,
		Description:     req.Description,
		AcquisitionDate: acqDate,
		Active:          true,
	}
	if domain.UnitPricedInvestment(req.Type) {
		if req.Quantity <= 0 {
			return nil, &domain.ErrValidation{Field: "quantity", Message: "Quantidade deve ser positiva"}
		}
		if req.AcquisitionValue <= 0 {
			return nil, &domain.ErrValidation{Field: "acquisitionValue", Message: "Preço de aquisição deve ser positivo"}
		}
		inv.Quantity = req.Quantity
		inv.AcquisitionValue = req.AcquisitionValue
		inv.CurrentPrice = req.AcquisitionValue
	} else {
		if req.InitialAmount <= 0 {
			return nil, &domain.ErrValidation{Field: "initialAmount", Message: "Valor inicial deve ser positivo"}
		}
		inv.InitialAmount = req.InitialAmount
		inv.CurrentValue = req.InitialAmount
		inv.Indexer = req.Indexer
		inv.Rate = req.Rate
		if req.MaturityDate != "" {
			mat, ok := parseISODate(req.MaturityDate)
			if !ok {
				return nil, &domain.ErrValidation{Field: "maturityDate", Message: "Data de vencimento inválida"}
			}
			inv.MaturityDate = &mat
		}
	}

	created, err := s.store.CreateInvestment(ctx, inv)
	if err != nil {
		return nil, err
	}
	s.summaries.DeletePrefix(summaryKey(userID))
	return created, nil
}

func (s *InvestmentsService) UpdateInvestment(ctx context.Context, userID, investmentID string, req *domain.InvestmentRequest) (*domain.Investment, error) {
	ctx, span := investTracer.Start(ctx, "InvestmentsService.UpdateInvestment")
	defer span.End()

	inv, err := s.store.GetInvestment(ctx, userID, investmentID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Description != "" {
		fields["description"] = req.Description
	}
	if domain.UnitPricedInvestment(inv.Type) {
		if req.Quantity > 0 {
			fields["quantity"] = req.Quantity
		}
		if req.AcquisitionValue > 0 {
			fields["acquisition_value"] = req.AcquisitionValue
		}
	} else {
		if req.InitialAmount > 0 {
			fields["initial_amount"] = req.InitialAmount
		}
		if req.Indexer != "" {
			fields["indexer"] = req.Indexer
		}
		if req.Rate > 0 {
			fields["rate"] = req.Rate
		}
	}
	if len(fields) > 0 {
		if err := s.store.UpdateInvestment(ctx, userID, investmentID, fields); err != nil {
			return nil, err
		}
		s.summaries.DeletePrefix(summaryKey(userID))
	}
	return s.store.GetInvestment(ctx, userID, investmentID)
}

// AlterInvestmentStatus flips the active flag. Inactive holdings drop
// out of listings and the portfolio summary.
func (s *InvestmentsService) AlterInvestmentStatus(ctx context.Context, userID, investmentID string) (*domain.Investment, error) {
	ctx, span := investTracer.Start(ctx, "InvestmentsService.AlterInvestmentStatus")
	defer span.End()

	inv, err := s.store.GetInvestment(ctx, userID, investmentID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateInvestment(ctx, userID, investmentID, map[string]any{"active": !inv.Active}); err != nil {
		return nil, err
	}
	s.summaries.DeletePrefix(summaryKey(userID))
	inv.Active = !inv.Active
	return inv, nil
}

func (s *InvestmentsService) DeleteInvestment(ctx context.Context, userID, investmentID string) error {
	ctx, span := investTracer.Start(ctx, "InvestmentsService.DeleteInvestment")
	defer span.End()

	if _, err := s.store.GetInvestment(ctx, userID, investmentID); err != nil {
		return err
	}
	if err := s.store.DeleteInvestment(ctx, userID, investmentID); err != nil {
		return err
	}
	s.summaries.DeletePrefix(summaryKey(userID))
	s.logger.Info("investment deleted", zap.String("investment_id", investmentID))
	return nil
}

// PortfolioSummary aggregates the user's active holdings. The result is
// recomputed from the raw records on every cache miss, never stored.
func (s *InvestmentsService) PortfolioSummary(ctx context.Context, userID string) (*finance.PortfolioSummary, error) {
	ctx, span := investTracer.Start(ctx, "InvestmentsService.PortfolioSummary")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	key := summaryKey(userID)
	if cached, ok := s.summaries.Get(key); ok {
		s.metrics.IncrCacheHit("portfolio_summary")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("portfolio_summary")

	holdings, err := s.store.ListInvestments(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	agg := finance.AggregateInvestments(holdings)
	summary := &agg
	s.summaries.Set(key, summary)

	s.logger.Debug("portfolio summary computed",
		zap.String("user_id", userID),
		zap.Int("holdings", len(summary.Holdings)),
	)
	return summary, nil
}

func summaryKey(userID string) string { return "portfolio:" + userID }
