package finance

import "github.com/meorganiza/meorganiza-api/internal/domain"

// EnrichedHolding is one investment position with its derived valuation.
type EnrichedHolding struct {
	ID               string  `json:"id"`
	Description      string  `json:"description"`
	Type             string  `json:"type"`
	Quantity         float64 `json:"quantity,omitempty"`
	AcquisitionValue float64 `json:"acquisitionValue,omitempty"`
	CurrentPrice     float64 `json:"currentPrice,omitempty"`
	CostBasis        float64 `json:"costBasis"`
	TotalValue       float64 `json:"totalValue"`
	Profit           float64 `json:"profit"`
	ProfitPercent    float64 `json:"profitPercent"`
}

// PortfolioTotals aggregates the whole portfolio.
type PortfolioTotals struct {
	TotalInvested     float64 `json:"totalInvested"`
	TotalCurrentValue float64 `json:"totalCurrentValue"`
	TotalProfit       float64 `json:"totalProfit"`
	PercentageProfit  float64 `json:"percentageProfit"`
}

// PortfolioSummary is the full output of AggregateInvestments.
type PortfolioSummary struct {
	Holdings []EnrichedHolding `json:"investments"`
	Totals   PortfolioTotals   `json:"totals"`
}

// AggregateInvestments derives per-holding value, profit and percentage
// plus portfolio totals. Unit-priced holdings (ACAO, FII, TESOURO_DIRETO)
// are valued as quantity times price; everything else, including records
// with an unrecognized type, is principal-based with whatever current
// valuation the backend supplied (zero when absent). Ratios with a
// non-positive denominator yield 0, never NaN or Inf, at both levels.
func AggregateInvestments(holdings []domain.Investment) PortfolioSummary {
	out := PortfolioSummary{Holdings: make([]EnrichedHolding, 0, len(holdings))}

	for _, inv := range holdings {
		h := EnrichedHolding{
			ID:          inv.ID,
			Description: inv.Description,
			Type:        inv.Type,
		}
		if domain.UnitPricedInvestment(inv.Type) {
			h.Quantity = inv.Quantity
			h.AcquisitionValue = inv.AcquisitionValue
			h.CurrentPrice = inv.CurrentPrice
			h.CostBasis = inv.Quantity * inv.AcquisitionValue
			h.TotalValue = inv.Quantity * inv.CurrentPrice
		} else {
			h.CostBasis = inv.InitialAmount
			h.TotalValue = inv.CurrentValue
		}
		h.Profit = h.TotalValue - h.CostBasis
		h.ProfitPercent = safePercent(h.Profit, h.CostBasis)

		out.Totals.TotalInvested += h.CostBasis
		out.Totals.TotalCurrentValue += h.TotalValue
		out.Totals.TotalProfit += h.Profit
		out.Holdings = append(out.Holdings, h)
	}

	out.Totals.PercentageProfit = safePercent(out.Totals.TotalProfit, out.Totals.TotalInvested)
	return out
}

// safePercent returns part/base*100 with a zero-guard on the denominator.
func safePercent(part, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return part / base * 100
}
