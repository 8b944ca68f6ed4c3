package finance

import (
	"math"
	"testing"

	"github.com/meorganiza/meorganiza-api/internal/domain"
)

func TestAggregateUnitPriced(t *testing.T) {
	summary := AggregateInvestments([]domain.Investment{
		{ID: "i1", Type: domain.InvestAcao, Description: "PETR4", Quantity: 100, AcquisitionValue: 28.50, CurrentPrice: 31.20},
	})

	h := summary.Holdings[0]
	if h.TotalValue != 3120 {
		t.Errorf("expected totalValue 3120, got %.2f", h.TotalValue)
	}
	if h.CostBasis != 2850 {
		t.Errorf("expected costBasis 2850, got %.2f", h.CostBasis)
	}
	if math.Abs(h.Profit-270) > 1e-9 {
		t.Errorf("expected profit 270, got %.2f", h.Profit)
	}
	want := 270.0 / 2850.0 * 100
	if math.Abs(h.ProfitPercent-want) > 1e-9 {
		t.Errorf("expected profitPercent %.4f, got %.4f", want, h.ProfitPercent)
	}
}

func TestAggregatePrincipalBased(t *testing.T) {
	summary := AggregateInvestments([]domain.Investment{
		{ID: "i1", Type: domain.InvestRendaFixa, InitialAmount: 10000, CurrentValue: 10450},
	})

	h := summary.Holdings[0]
	if h.TotalValue != 10450 || h.CostBasis != 10000 {
		t.Errorf("unexpected valuation: totalValue=%.2f costBasis=%.2f", h.TotalValue, h.CostBasis)
	}
	if math.Abs(h.Profit-450) > 1e-9 || math.Abs(h.ProfitPercent-4.5) > 1e-9 {
		t.Errorf("unexpected profit: %.2f (%.2f%%)", h.Profit, h.ProfitPercent)
	}
}

func TestAggregateZeroGuard(t *testing.T) {
	summary := AggregateInvestments([]domain.Investment{
		{ID: "i1", Type: domain.InvestOutro, InitialAmount: 0, CurrentValue: 0},
	})

	h := summary.Holdings[0]
	if h.ProfitPercent != 0 || math.IsNaN(h.ProfitPercent) {
		t.Errorf("expected profitPercent 0, got %v", h.ProfitPercent)
	}
	if summary.Totals.PercentageProfit != 0 {
		t.Errorf("expected portfolio percentage 0, got %v", summary.Totals.PercentageProfit)
	}
}

func TestAggregateUnknownTypeFailSoft(t *testing.T) {
	summary := AggregateInvestments([]domain.Investment{
		{ID: "i1", Type: "CRIPTO", InitialAmount: 500},
	})

	h := summary.Holdings[0]
	if h.TotalValue != 0 {
		t.Errorf("unknown type without valuation must yield totalValue 0, got %.2f", h.TotalValue)
	}
	if h.Profit != -500 {
		t.Errorf("expected profit -500, got %.2f", h.Profit)
	}
}

func TestAggregatePortfolioAdditivity(t *testing.T) {
	holdings := []domain.Investment{
		{ID: "i1", Type: domain.InvestAcao, Quantity: 50, AcquisitionValue: 10, CurrentPrice: 12},
		{ID: "i2", Type: domain.InvestFII, Quantity: 30, AcquisitionValue: 95.5, CurrentPrice: 91.0},
		{ID: "i3", Type: domain.InvestPoupanca, InitialAmount: 2000, CurrentValue: 2031.77},
		{ID: "i4", Type: domain.InvestTesouro, Quantity: 2.5, AcquisitionValue: 1400, CurrentPrice: 1465},
	}
	summary := AggregateInvestments(holdings)

	var value, profit, invested float64
	for _, h := range summary.Holdings {
		value += h.TotalValue
		profit += h.Profit
		invested += h.CostBasis
	}
	if summary.Totals.TotalCurrentValue != value {
		t.Errorf("totalCurrentValue %.4f != sum of holdings %.4f", summary.Totals.TotalCurrentValue, value)
	}
	if summary.Totals.TotalProfit != profit {
		t.Errorf("totalProfit %.4f != sum of holdings %.4f", summary.Totals.TotalProfit, profit)
	}
	if summary.Totals.TotalInvested != invested {
		t.Errorf("totalInvested %.4f != sum of cost bases %.4f", summary.Totals.TotalInvested, invested)
	}
}

func TestAggregateEmpty(t *testing.T) {
	summary := AggregateInvestments(nil)
	if len(summary.Holdings) != 0 {
		t.Errorf("expected no holdings, got %d", len(summary.Holdings))
	}
	if summary.Totals != (PortfolioTotals{}) {
		t.Errorf("expected zero totals, got %+v", summary.Totals)
	}
}
