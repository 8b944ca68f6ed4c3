package domain

import "time"

// ============================================================
// Accounts
// ============================================================

// Account types.
const (
	AccountCorrente     = "CONTA_CORRENTE"
	AccountPoupanca     = "CONTA_POUPANCA"
	AccountInvestimento = "INVESTIMENTO"
	AccountOutros       = "OUTROS"
)

// Account represents a user bank account.
type Account struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Type      string    `json:"type"` // CONTA_CORRENTE, CONTA_POUPANCA, INVESTIMENTO, OUTROS
	Balance   float64   `json:"balance"`
	BankID    string    `json:"bankId,omitempty"`
	Bank      *Bank     `json:"bank,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// AccountRequest is the payload to create or update an account.
type AccountRequest struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Balance float64 `json:"balance"`
	BankID  string  `json:"bankId,omitempty"`
}

// Bank is a reference record for Brazilian banking institutions.
type Bank struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// ValidAccountType reports whether t is one of the known account types.
func ValidAccountType(t string) bool {
	switch t {
	case AccountCorrente, AccountPoupanca, AccountInvestimento, AccountOutros:
		return true
	}
	return false
}
