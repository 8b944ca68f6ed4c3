package domain

import "time"

// ============================================================
// Investments
// ============================================================

// Investment types. ACAO, FII and TESOURO_DIRETO are unit-priced
// (quantity times unit price); the others are principal-based.
const (
	InvestAcao      = "ACAO"
	InvestFII       = "FII"
	InvestTesouro   = "TESOURO_DIRETO"
	InvestRendaFixa = "RENDA_FIXA_CDI"
	InvestPoupanca  = "POUPANCA"
	InvestOutro     = "OUTRO"
)

// Investment indexers for principal-based holdings.
const (
	IndexerCDI   = "CDI"
	IndexerIPCA  = "IPCA"
	IndexerSelic = "SELIC"
	IndexerPre   = "PRE"
)

// Investment represents one holding in the user's portfolio. Exactly one
// valuation shape is populated, selected by Type: unit-priced records
// carry Quantity/AcquisitionValue/CurrentPrice, principal-based records
// carry InitialAmount/Indexer/Rate and a backend-supplied CurrentValue.
type Investment struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	Type             string     `json:"type"`
	Description      string     `json:"description"`
	Quantity         float64    `json:"quantity,omitempty"`
	AcquisitionValue float64    `json:"acquisitionValue,omitempty"` // unit price at acquisition
	CurrentPrice     float64    `json:"currentPrice,omitempty"`     // unit price now
	InitialAmount    float64    `json:"initialAmount,omitempty"`
	CurrentValue     float64    `json:"currentValue,omitempty"` // backend valuation
	Indexer          string     `json:"indexer,omitempty"`      // CDI, IPCA, SELIC, PRE
	Rate             float64    `json:"rate,omitempty"`         // percent
	AcquisitionDate  time.Time  `json:"acquisitionDate"`
	MaturityDate     *time.Time `json:"maturityDate,omitempty"`
	Active           bool       `json:"active"`
}

// InvestmentRequest is the payload to create or update an investment.
type InvestmentRequest struct {
	Type             string  `json:"type"`
	Description      string  `json:"description"`
	Quantity         float64 `json:"quantity,omitempty"`
	AcquisitionValue float64 `json:"acquisitionValue,omitempty"`
	InitialAmount    float64 `json:"initialAmount,omitempty"`
	Indexer          string  `json:"indexer,omitempty"`
	Rate             float64 `json:"rate,omitempty"`
	AcquisitionDate  string  `json:"acquisitionDate"`
	MaturityDate     string  `json:"maturityDate,omitempty"`
}

// UnitPricedInvestment reports whether t is valued as quantity times a
// per-unit price. Unknown types fall back to principal-based.
func UnitPricedInvestment(t string) bool {
	switch t {
	case InvestAcao, InvestFII, InvestTesouro:
		return true
	}
	return false
}
