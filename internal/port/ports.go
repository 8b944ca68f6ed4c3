// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/domain"
)

// AgentCaller invokes the external AI agent service.
type AgentCaller interface {
	Chat(ctx context.Context, req *domain.AgentChatRequest) (*domain.AgentChatResponse, error)
	GenerateReport(ctx context.Context, req *domain.AgentReportRequest) (*domain.AgentReportResponse, error)
	PredictBalance(ctx context.Context, req *domain.AgentForecastRequest) (*domain.AgentForecastResponse, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	DeletePrefix(prefix string)
}

// AccountStore covers accounts and the bank reference table.
type AccountStore interface {
	ListAccounts(ctx context.Context, userID string) ([]domain.Account, error)
	GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error)
	CreateAccount(ctx context.Context, a domain.Account) (*domain.Account, error)
	UpdateAccount(ctx context.Context, userID, accountID string, fields map[string]any) error
	AdjustAccountBalance(ctx context.Context, userID, accountID string, delta float64) (*domain.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error
	ListBanks(ctx context.Context) ([]domain.Bank, error)
}

// CardStore covers cards and their invoices.
type CardStore interface {
	ListCards(ctx context.Context, userID string) ([]domain.Card, error)
	GetCard(ctx context.Context, userID, cardID string) (*domain.Card, error)
	CreateCard(ctx context.Context, card domain.Card) (*domain.Card, error)
	UpdateCard(ctx context.Context, userID, cardID string, fields map[string]any) error
	DeleteCard(ctx context.Context, userID, cardID string) error
	ListInvoices(ctx context.Context, userID string) ([]domain.Invoice, error)
	GetInvoice(ctx context.Context, userID, invoiceID string) (*domain.Invoice, error)
	MarkInvoicePaid(ctx context.Context, invoiceID string) error
}

// CategoryStore covers transaction categories.
type CategoryStore interface {
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
	GetCategory(ctx context.Context, userID, categoryID string) (*domain.Category, error)
	CreateCategory(ctx context.Context, cat domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID string, fields map[string]any) error
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// TransactionStore covers transaction records.
type TransactionStore interface {
	ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, t domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, fields map[string]any) error
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

// BillStore covers bill rules and their payment occurrences.
type BillStore interface {
	ListBills(ctx context.Context, userID string) ([]domain.Bill, error)
	GetBill(ctx context.Context, userID, billID string) (*domain.Bill, error)
	CreateBill(ctx context.Context, b domain.Bill) (*domain.Bill, error)
	UpdateBill(ctx context.Context, userID, billID string, fields map[string]any) error
	DeleteBill(ctx context.Context, userID, billID string) error
	ListPendingPayments(ctx context.Context, userID string) ([]domain.BillPayment, error)
	GetBillPayment(ctx context.Context, paymentID string) (*domain.BillPayment, error)
	CreateBillPayment(ctx context.Context, p domain.BillPayment) error
	MarkPaymentPaid(ctx context.Context, paymentID, transactionID string, paidAt time.Time) error
}

// DebtStore covers debts and their amortizations.
type DebtStore interface {
	ListDebts(ctx context.Context, userID string) ([]domain.Debt, error)
	GetDebt(ctx context.Context, userID, debtID string) (*domain.Debt, error)
	CreateDebt(ctx context.Context, d domain.Debt) (*domain.Debt, error)
	UpdateDebt(ctx context.Context, userID, debtID string, fields map[string]any) error
	DeleteDebt(ctx context.Context, userID, debtID string) error
	ListDebtPayments(ctx context.Context, debtID string) ([]domain.DebtPayment, error)
	CreateDebtPayment(ctx context.Context, p domain.DebtPayment) error
}

// InvestmentStore covers portfolio holdings.
type InvestmentStore interface {
	ListInvestments(ctx context.Context, userID string, activeOnly bool) ([]domain.Investment, error)
	GetInvestment(ctx context.Context, userID, investmentID string) (*domain.Investment, error)
	CreateInvestment(ctx context.Context, inv domain.Investment) (*domain.Investment, error)
	UpdateInvestment(ctx context.Context, userID, investmentID string, fields map[string]any) error
	DeleteInvestment(ctx context.Context, userID, investmentID string) error
}

// ReportStore covers AI reports and balance forecasts.
type ReportStore interface {
	ListReports(ctx context.Context, userID string) ([]domain.GeneratedReport, error)
	GetReport(ctx context.Context, userID, reportID string) (*domain.GeneratedReport, error)
	SaveReport(ctx context.Context, rep domain.GeneratedReport) (*domain.GeneratedReport, error)
	DeleteReport(ctx context.Context, userID, reportID string) error
	SaveForecast(ctx context.Context, f domain.Forecast) error
	GetLatestForecast(ctx context.Context, userID string) (*domain.Forecast, error)
}

// AuthStore defines all data operations for the authentication system.
type AuthStore interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	CreateUser(ctx context.Context, u domain.User) (*domain.User, error)
	UpdateUser(ctx context.Context, userID string, fields map[string]any) error

	SaveRefreshToken(ctx context.Context, t domain.RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenID string) error

	SaveResetToken(ctx context.Context, t domain.PasswordResetToken) error
	GetResetToken(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error)
	MarkResetTokenUsed(ctx context.Context, tokenID string) error
}
