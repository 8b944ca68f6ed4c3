package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/finance"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var assistantTracer = otel.Tracer("service/assistant")

// AssistantService drives the AI features: generated reports, balance
// forecasts and the record snapshots the chat strategies attach to their
// agent calls.
type AssistantService struct {
	agent       port.AgentCaller
	reports     port.ReportStore
	accounts    port.AccountStore
	txs         port.TransactionStore
	bills       port.BillStore
	investments port.InvestmentStore
	metrics     *observability.Metrics
	logger      *zap.Logger
}

func NewAssistantService(agent port.AgentCaller, reports port.ReportStore, accounts port.AccountStore, txs port.TransactionStore, bills port.BillStore, investments port.InvestmentStore, metrics *observability.Metrics, logger *zap.Logger) *AssistantService {
	return &AssistantService{
		agent:       agent,
		reports:     reports,
		accounts:    accounts,
		txs:         txs,
		bills:       bills,
		investments: investments,
		metrics:     metrics,
		logger:      logger,
	}
}

// ============================================================
// Generated reports
// ============================================================

// GenerateReport asks the agent to build a chart or table from a
// free-form question and persists the result.
func (s *AssistantService) GenerateReport(ctx context.Context, userID string, req *domain.ReportGenerateRequest) (*domain.GeneratedReport, error) {
	ctx, span := assistantTracer.Start(ctx, "AssistantService.GenerateReport")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if strings.TrimSpace(req.Question) == "" {
		return nil, &domain.ErrValidation{Field: "userQuestion", Message: "Pergunta é obrigatória"}
	}

	resp, err := s.agent.GenerateReport(ctx, &domain.AgentReportRequest{
		UserID:   userID,
		Question: req.Question,
	})
	if err != nil {
		s.metrics.IncrExternalError("agent")
		s.metrics.IncrRequest("error")
		return nil, err
	}
	s.metrics.IncrRequest("success")
	s.metrics.RecordTokens(resp.PromptTokens, resp.CompletionTokens)

	report, err := s.reports.SaveReport(ctx, domain.GeneratedReport{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        resp.Title,
		DisplayType:  resp.DisplayType,
		Data:         resp.Data,
		UserQuestion: req.Question,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("persist generated report: %w", err)
	}

	s.logger.Info("report generated",
		zap.String("report_id", report.ID),
		zap.String("display_type", report.DisplayType),
	)
	return report, nil
}

func (s *AssistantService) ListReports(ctx context.Context, userID string) ([]domain.GeneratedReport, error) {
	ctx, span := assistantTracer.Start(ctx, "AssistantService.ListReports")
	defer span.End()

	return s.reports.ListReports(ctx, userID)
}

func (s *AssistantService) GetReport(ctx context.Context, userID, reportID string) (*domain.GeneratedReport, error) {
	ctx, span := assistantTracer.Start(ctx, "AssistantService.GetReport")
	defer span.End()

	return s.reports.GetReport(ctx, userID, reportID)
}

func (s *AssistantService) DeleteReport(ctx context.Context, userID, reportID string) error {
	ctx, span := assistantTracer.Start(ctx, "AssistantService.DeleteReport")
	defer span.End()

	if _, err := s.reports.GetReport(ctx, userID, reportID); err != nil {
		return err
	}
	return s.reports.DeleteReport(ctx, userID, reportID)
}

// ============================================================
// Balance forecast
// ============================================================

// PredictBalance gathers the aggregates the agent needs, asks it for a
// projection and persists the forecast.
func (s *AssistantService) PredictBalance(ctx context.Context, userID string) (*domain.Forecast, error) {
	ctx, span := assistantTracer.Start(ctx, "AssistantService.PredictBalance")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("predict_balance", time.Since(start)) }()

	var (
		accounts []domain.Account
		monthTxs []domain.Transaction
		pending  []domain.BillPayment
	)
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.accounts.ListAccounts(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		monthTxs, err = s.txs.ListTransactions(gctx, userID, domain.TransactionFilter{StartDate: monthStart, EndDate: monthEnd})
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = s.bills.ListPendingPayments(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var balance float64
	for _, a := range accounts {
		if a.Active {
			balance += a.Balance
		}
	}
	summary := finance.SummarizeTransactions(monthTxs)
	var pendingTotal float64
	for _, p := range pending {
		pendingTotal += p.Amount
	}

	resp, err := s.agent.PredictBalance(ctx, &domain.AgentForecastRequest{
		UserID:         userID,
		CurrentBalance: balance,
		MonthlyIncome:  summary.Income,
		MonthlyExpense: summary.Expenses,
		PendingBills:   pendingTotal,
	})
	if err != nil {
		s.metrics.IncrExternalError("agent")
		s.metrics.IncrRequest("error")
		return nil, err
	}
	s.metrics.IncrRequest("success")

	forecastDate, err := time.Parse(time.RFC3339, resp.ForecastDate)
	if err != nil {
		forecastDate, err = time.Parse("2006-01-02", resp.ForecastDate)
	}
	if err != nil {
		forecastDate = now.AddDate(0, 1, 0)
	}

	f := domain.Forecast{
		ID:              uuid.NewString(),
		UserID:          userID,
		FutureBalance:   resp.FutureBalance,
		AnalysisSummary: resp.AnalysisSummary,
		ForecastDate:    forecastDate,
		CreatedAt:       now,
	}
	if err := s.reports.SaveForecast(ctx, f); err != nil {
		return nil, fmt.Errorf("persist forecast: %w", err)
	}
	return &f, nil
}

// LatestForecast returns the most recent stored projection.
func (s *AssistantService) LatestForecast(ctx context.Context, userID string) (*domain.Forecast, error) {
	ctx, span := assistantTracer.Start(ctx, "AssistantService.LatestForecast")
	defer span.End()

	return s.reports.GetLatestForecast(ctx, userID)
}

// Usage returns the operational snapshot of assistant traffic.
func (s *AssistantService) Usage() *domain.AssistantUsage {
	return s.metrics.GetAssistantSnapshot()
}

// ============================================================
// Chat snapshots
// ============================================================

// BalanceSnapshot digests the user's accounts for the chat agent.
func (s *AssistantService) BalanceSnapshot(ctx context.Context, userID string) (string, error) {
	accounts, err := s.accounts.ListAccounts(ctx, userID)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	var total float64
	for _, a := range accounts {
		if !a.Active {
			continue
		}
		fmt.Fprintf(&b, "%s: R$ %.2f\n", a.Name, a.Balance)
		total += a.Balance
	}
	fmt.Fprintf(&b, "Saldo total: R$ %.2f", total)
	return b.String(), nil
}

// BillsSnapshot digests unpaid bill occurrences for the chat agent.
func (s *AssistantService) BillsSnapshot(ctx context.Context, userID string) (string, error) {
	pending, err := s.bills.ListPendingPayments(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(pending) == 0 {
		return "Nenhuma conta pendente.", nil
	}
	var b strings.Builder
	for _, p := range pending {
		name := p.BillID
		if p.Bill != nil {
			name = p.Bill.Description
		}
		fmt.Fprintf(&b, "%s: R$ %.2f, vence em %s\n", name, p.Amount, p.DueDate.Format("02/01/2006"))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// PortfolioSnapshot digests the aggregated portfolio for the chat agent.
func (s *AssistantService) PortfolioSnapshot(ctx context.Context, userID string) (string, error) {
	holdings, err := s.investments.ListInvestments(ctx, userID, true)
	if err != nil {
		return "", err
	}
	summary := finance.AggregateInvestments(holdings)
	var b strings.Builder
	for _, h := range summary.Holdings {
		fmt.Fprintf(&b, "%s (%s): R$ %.2f, resultado R$ %.2f\n", h.Description, h.Type, h.TotalValue, h.Profit)
	}
	fmt.Fprintf(&b, "Total investido: R$ %.2f, valor atual: R$ %.2f",
		summary.Totals.TotalInvested, summary.Totals.TotalCurrentValue)
	return b.String(), nil
}
