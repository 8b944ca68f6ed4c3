package domain

import "time"

// ============================================================
// Cards
// ============================================================

// Card types.
const (
	CardCredito = "CREDITO"
	CardDebito  = "DEBITO"
)

// Card represents a credit or debit card linked to an account.
type Card struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Type       string    `json:"type"` // CREDITO, DEBITO
	Limit      float64   `json:"limit,omitempty"`
	ClosingDay int       `json:"closingDay,omitempty"` // credit cards only, 1-31
	DueDay     int       `json:"dueDay,omitempty"`     // credit cards only, 1-31
	AccountID  string    `json:"accountId"`
	Account    *Account  `json:"account,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CardRequest is the payload to create or update a card.
type CardRequest struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Limit      float64 `json:"limit,omitempty"`
	ClosingDay int     `json:"closingDay,omitempty"`
	DueDay     int     `json:"dueDay,omitempty"`
	AccountID  string  `json:"accountId"`
}

// ============================================================
// Invoices (credit card statements)
// ============================================================

// Invoice represents a monthly credit card invoice.
type Invoice struct {
	ID          string  `json:"id"`
	CardID      string  `json:"cardId"`
	Card        *Card   `json:"card,omitempty"`
	Month       int     `json:"month"` // 1-12
	Year        int     `json:"year"`
	TotalAmount float64 `json:"totalAmount"`
	Paid        bool    `json:"isPaid"`
}

// InvoiceDetails is an invoice with its transactions expanded.
type InvoiceDetails struct {
	Invoice
	Transactions []Transaction `json:"transactions"`
}

// InvoicePayRequest is the payload to settle an invoice from an account.
type InvoicePayRequest struct {
	AccountID string `json:"accountId"`
}
