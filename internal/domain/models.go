// Package domain defines the core business entities for MeOrganiza.
// These models are independent of external services and represent the
// canonical data structures used throughout the API.
package domain

import "time"

// ============================================================
// Categories
// ============================================================

// Transaction / category kinds.
const (
	TypeReceita       = "RECEITA"
	TypeDespesa       = "DESPESA"
	TypeTransferencia = "TRANSFERENCIA"
)

// Category classifies transactions as income or expense buckets.
type Category struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Description string `json:"description"`
	Type        string `json:"type"` // RECEITA, DESPESA
	Active      bool   `json:"active"`
}

// CategoryRequest is the payload to create or update a category.
type CategoryRequest struct {
	Description string `json:"description"`
	Type        string `json:"type"`
}

// ============================================================
// Transactions
// ============================================================

// Transaction represents a single financial movement. Value is always a
// non-negative magnitude; Type tells income from expense. TRANSFERENCIA
// legs carry both AccountID (source) and TargetAccountID.
type Transaction struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Description     string    `json:"description"`
	Value           float64   `json:"value"`
	Type            string    `json:"type"` // RECEITA, DESPESA, TRANSFERENCIA
	Date            time.Time `json:"date"`
	Paid            bool      `json:"paid"`
	CategoryID      string    `json:"categoryId,omitempty"`
	Category        *Category `json:"category,omitempty"`
	AccountID       string    `json:"accountId,omitempty"`
	Account         *Account  `json:"account,omitempty"`
	CardID          string    `json:"cardId,omitempty"`
	Card            *Card     `json:"card,omitempty"`
	TargetAccountID string    `json:"targetAccountId,omitempty"`
	Installments    int       `json:"installments,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// TransactionRequest is the payload to create or update a transaction.
type TransactionRequest struct {
	Description     string  `json:"description"`
	Value           float64 `json:"value"`
	Type            string  `json:"type"`
	Date            string  `json:"date"` // ISO-8601
	Paid            bool    `json:"paid"`
	CategoryID      string  `json:"categoryId,omitempty"`
	AccountID       string  `json:"accountId,omitempty"`
	CardID          string  `json:"cardId,omitempty"`
	TargetAccountID string  `json:"targetAccountId,omitempty"`
	Installments    int     `json:"installments,omitempty"`
}

// TransactionFilter narrows transaction listings. Zero values mean
// "no filter".
type TransactionFilter struct {
	AccountID string
	CardID    string
	Type      string
	StartDate time.Time
	EndDate   time.Time
}

// StatementEntry is one row of a bank statement for an account.
type StatementEntry struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Value       float64   `json:"value"`
	Balance     float64   `json:"balance"` // running balance after this entry
}

// DashboardSummary is the combined home-screen snapshot: account
// balances, the current month's movement, due-bill counts and the
// portfolio position.
type DashboardSummary struct {
	TotalBalance      float64 `json:"totalBalance"`
	MonthIncome       float64 `json:"monthIncome"`
	MonthExpense      float64 `json:"monthExpense"`
	MonthBalance      float64 `json:"monthBalance"`
	PendingBillsCount int     `json:"pendingBillsCount"`
	OverdueBillsCount int     `json:"overdueBillsCount"`
	PortfolioValue    float64 `json:"portfolioValue"`
	PortfolioProfit   float64 `json:"portfolioProfit"`
}

// BankStatement is the statement of an account over a period.
type BankStatement struct {
	AccountID      string           `json:"accountId"`
	AccountName    string           `json:"accountName"`
	StartDate      string           `json:"startDate"`
	EndDate        string           `json:"endDate"`
	OpeningBalance float64          `json:"openingBalance"`
	ClosingBalance float64          `json:"closingBalance"`
	Entries        []StatementEntry `json:"entries"`
}
