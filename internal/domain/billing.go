package domain

import "time"

// ============================================================
// Bills (contas recorrentes) and their payment occurrences
// ============================================================

// Bill recurrence kinds.
const (
	RecurringNone     = "NONE"
	RecurringMonthly  = "MONTHLY"
	RecurringAnnually = "ANNUALLY"
)

// Bill payment statuses.
const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
	PaymentOverdue = "OVERDUE"
)

// Bill is a recurring or one-off payable rule. Payment method is an
// account or a card, never both.
type Bill struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	DueDateDay  int       `json:"dueDateDay"` // 1-31
	Recurring   string    `json:"recurring"`  // NONE, MONTHLY, ANNUALLY
	CategoryID  string    `json:"categoryId"`
	Category    *Category `json:"category,omitempty"`
	AccountID   string    `json:"accountId,omitempty"`
	Account     *Account  `json:"account,omitempty"`
	CardID      string    `json:"cardId,omitempty"`
	Card        *Card     `json:"card,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BillRequest is the payload to create or update a bill.
type BillRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	DueDateDay  int     `json:"dueDateDay"`
	Recurring   string  `json:"recurring"`
	CategoryID  string  `json:"categoryId"`
	AccountID   string  `json:"accountId,omitempty"`
	CardID      string  `json:"cardId,omitempty"`
}

// BillPayment is one concrete due occurrence of a Bill. Status is derived
// from the due date while PENDING; once PAID it stays PAID.
type BillPayment struct {
	ID            string    `json:"id"`
	BillID        string    `json:"billId"`
	Bill          *Bill     `json:"bill,omitempty"`
	DueDate       time.Time `json:"dueDate"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"` // PENDING, PAID, OVERDUE
	TransactionID string    `json:"transactionId,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

// PendingBill is a bill payment enriched with its due-date classification
// for the alerts widget.
type PendingBill struct {
	BillPayment
	Description string `json:"description"`
	DaysDelta   int    `json:"daysDelta"`
	AlertStatus string `json:"alertStatus"` // OVERDUE, DUE_SOON, NORMAL
	AlertText   string `json:"alertText"`
}

// ============================================================
// Debts
// ============================================================

// Debt statuses.
const (
	DebtActive    = "ACTIVE"
	DebtPaidOff   = "PAID_OFF"
	DebtPending   = "PENDING"
	DebtCancelled = "CANCELLED"
)

// Debt represents a negotiated debt (loan, financing, renegotiation).
type Debt struct {
	ID                 string        `json:"id"`
	UserID             string        `json:"userId"`
	Description        string        `json:"description"`
	Creditor           string        `json:"creditor"`
	Type               string        `json:"type"`
	InitialAmount      float64       `json:"initialAmount"`
	OutstandingBalance float64       `json:"outstandingBalance"`
	InterestRate       float64       `json:"interestRate"`
	MinimumPayment     float64       `json:"minimumPayment"`
	PaymentDueDay      int           `json:"paymentDueDay"`
	StartDate          time.Time     `json:"startDate"`
	EstimatedEndDate   *time.Time    `json:"estimatedEndDate,omitempty"`
	Status             string        `json:"status"` // ACTIVE, PAID_OFF, PENDING, CANCELLED
	BankID             string        `json:"bankId,omitempty"`
	Bank               *Bank         `json:"bank,omitempty"`
	Payments           []DebtPayment `json:"debtPayments,omitempty"`
}

// DebtRequest is the payload to create or update a debt.
type DebtRequest struct {
	Description        string  `json:"description"`
	Creditor           string  `json:"creditor"`
	Type               string  `json:"type"`
	InitialAmount      float64 `json:"initialAmount"`
	OutstandingBalance float64 `json:"outstandingBalance"`
	InterestRate       float64 `json:"interestRate"`
	MinimumPayment     float64 `json:"minimumPayment"`
	PaymentDueDay      int     `json:"paymentDueDay"`
	StartDate          string  `json:"startDate"`
	EstimatedEndDate   string  `json:"estimatedEndDate,omitempty"`
	BankID             string  `json:"bankId,omitempty"`
}

// DebtPayment records an amortization against a debt, linked to the
// DESPESA transaction that settled it.
type DebtPayment struct {
	ID            string       `json:"id"`
	DebtID        string       `json:"debtId"`
	Amount        float64      `json:"amount"`
	PaymentDate   time.Time    `json:"paymentDate"`
	TransactionID string       `json:"transactionId,omitempty"`
	Transaction   *Transaction `json:"transaction,omitempty"`
}

// DebtPayRequest is the payload for paying down a debt.
type DebtPayRequest struct {
	Amount    float64 `json:"amount"`
	AccountID string  `json:"accountId"`
	Date      string  `json:"date,omitempty"` // ISO-8601, empty = today
}
