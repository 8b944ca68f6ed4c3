package service

import (
	"context"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/finance"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var reportsTracer = otel.Tracer("service/reports")

// ReportsService derives chart and dashboard summaries from raw records.
// Nothing here is persisted; every call recomputes from the stores.
type ReportsService struct {
	txs         port.TransactionStore
	bills       port.BillStore
	investments port.InvestmentStore
	accounts    port.AccountStore
	metrics     *observability.Metrics
	logger      *zap.Logger
	dueSoonDays int
}

func NewReportsService(txs port.TransactionStore, bills port.BillStore, investments port.InvestmentStore, accounts port.AccountStore, metrics *observability.Metrics, logger *zap.Logger, dueSoonDays int) *ReportsService {
	if dueSoonDays < 0 {
		dueSoonDays = finance.DefaultDueSoonDays
	}
	return &ReportsService{
		txs:         txs,
		bills:       bills,
		investments: investments,
		accounts:    accounts,
		metrics:     metrics,
		logger:      logger,
		dueSoonDays: dueSoonDays,
	}
}

// MonthlySummary returns income/expense totals and month buckets for one
// calendar year, buckets in calendar order.
func (s *ReportsService) MonthlySummary(ctx context.Context, userID string, year int) (*finance.Summary, error) {
	ctx, span := reportsTracer.Start(ctx, "ReportsService.MonthlySummary")
	defer span.End()
	span.SetAttributes(attribute.Int("report.year", year))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("monthly_summary", time.Since(start)) }()

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0).Add(-time.Second)
	txs, err := s.txs.ListTransactions(ctx, userID, domain.TransactionFilter{StartDate: from, EndDate: to})
	if err != nil {
		return nil, err
	}

	summary := finance.SummarizeTransactions(txs)
	summary.Monthly = finance.SortMonthly(summary.Monthly)
	return &summary, nil
}

// ExpensesByCategory returns the expense pie slices for a period.
func (s *ReportsService) ExpensesByCategory(ctx context.Context, userID string, from, to time.Time) ([]finance.CategoryBucket, error) {
	ctx, span := reportsTracer.Start(ctx, "ReportsService.ExpensesByCategory")
	defer span.End()

	txs, err := s.txs.ListTransactions(ctx, userID, domain.TransactionFilter{StartDate: from, EndDate: to})
	if err != nil {
		return nil, err
	}
	summary := finance.SummarizeTransactions(txs)
	if summary.ByCategory == nil {
		return []finance.CategoryBucket{}, nil
	}
	return summary.ByCategory, nil
}

// DashboardSummary fans out over accounts, the current month's
// transactions, pending bills and the portfolio, then combines the
// results. The four reads are independent, so they run concurrently.
func (s *ReportsService) DashboardSummary(ctx context.Context, userID string) (*domain.DashboardSummary, error) {
	ctx, span := reportsTracer.Start(ctx, "ReportsService.DashboardSummary")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("dashboard_summary", time.Since(start)) }()

	var (
		accounts []domain.Account
		monthTxs []domain.Transaction
		pending  []domain.BillPayment
		holdings []domain.Investment
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
	g.Go(func() error {
		var err error
		holdings, err = s.investments.ListInvestments(gctx, userID, true)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &domain.DashboardSummary{}
	for _, a := range accounts {
		if a.Active {
			out.TotalBalance += a.Balance
		}
	}

	monthSummary := finance.SummarizeTransactions(monthTxs)
	out.MonthIncome = monthSummary.Income
	out.MonthExpense = monthSummary.Expenses
	out.MonthBalance = monthSummary.Balance

	for _, p := range pending {
		if p.Bill != nil && p.Bill.CardID != "" {
			continue
		}
		out.PendingBillsCount++
		if finance.ClassifyDueDate(p.DueDate, now, s.dueSoonDays).Status == finance.StatusOverdue {
			out.OverdueBillsCount++
		}
	}

	portfolio := finance.AggregateInvestments(holdings)
	out.PortfolioValue = portfolio.Totals.TotalCurrentValue
	out.PortfolioProfit = portfolio.Totals.TotalProfit

	return out, nil
}
