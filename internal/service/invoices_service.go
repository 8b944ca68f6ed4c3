package service

import (
	"context"
	"fmt"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var invoicesTracer = otel.Tracer("service/invoices")

// InvoicesService exposes card invoices and their settlement.
type InvoicesService struct {
	cards    port.CardStore
	txs      port.TransactionStore
	accounts port.AccountStore
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func NewInvoicesService(cards port.CardStore, txs port.TransactionStore, accounts port.AccountStore, metrics *observability.Metrics, logger *zap.Logger) *InvoicesService {
	return &InvoicesService{cards: cards, txs: txs, accounts: accounts, metrics: metrics, logger: logger}
}

func (s *InvoicesService) ListInvoices(ctx context.Context, userID string) ([]domain.Invoice, error) {
	ctx, span := invoicesTracer.Start(ctx, "InvoicesService.ListInvoices")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.cards.ListInvoices(ctx, userID)
}

// InvoiceDetails returns the invoice with the card transactions that fall
// inside its month.
func (s *InvoicesService) InvoiceDetails(ctx context.Context, userID, invoiceID string) (*domain.InvoiceDetails, error) {
	ctx, span := invoicesTracer.Start(ctx, "InvoicesService.InvoiceDetails")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", invoiceID))

	inv, err := s.cards.GetInvoice(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}

	monthStart := time.Date(inv.Year, time.Month(inv.Month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)
	txs, err := s.txs.ListTransactions(ctx, userID, domain.TransactionFilter{
		CardID:    inv.CardID,
		StartDate: monthStart,
		EndDate:   monthEnd,
	})
	if err != nil {
		return nil, err
	}

	return &domain.InvoiceDetails{Invoice: *inv, Transactions: txs}, nil
}

// PayInvoice settles an open invoice against an account: spawns a DESPESA
// transaction for the total, debits the account and marks the invoice
// paid. A paid invoice cannot be paid again.
func (s *InvoicesService) PayInvoice(ctx context.Context, userID, invoiceID string, req *domain.InvoicePayRequest) (*domain.Invoice, error) {
	ctx, span := invoicesTracer.Start(ctx, "InvoicesService.PayInvoice")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", invoiceID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("invoice_pay", time.Since(start)) }()

	if req.AccountID == "" {
		return nil, &domain.ErrValidation{Field: "accountId", Message: "Conta é obrigatória"}
	}

	inv, err := s.cards.GetInvoice(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Paid {
		return nil, &domain.ErrDuplicate{Key: invoiceID}
	}
	if inv.TotalAmount <= 0 {
		return nil, &domain.ErrConflict{Message: "Fatura sem valor a pagar"}
	}

	cardName := inv.CardID
	if inv.Card != nil {
		cardName = inv.Card.Name
	}
	tx, err := s.txs.CreateTransaction(ctx, domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: fmt.Sprintf("Pagamento fatura %s %02d/%d", cardName, inv.Month, inv.Year),
		Value:       inv.TotalAmount,
		Type:        domain.TypeDespesa,
		Date:        time.Now().UTC(),
		Paid:        true,
		AccountID:   req.AccountID,
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice transaction: %w", err)
	}

	if _, err := s.accounts.AdjustAccountBalance(ctx, userID, req.AccountID, -inv.TotalAmount); err != nil {
		s.logger.Error("invoice paid but balance update failed",
			zap.String("invoice_id", invoiceID),
			zap.Error(err),
		)
	}

	if err := s.cards.MarkInvoicePaid(ctx, invoiceID); err != nil {
		return nil, fmt.Errorf("mark invoice paid: %w", err)
	}

	s.logger.Info("invoice settled",
		zap.String("invoice_id", invoiceID),
		zap.String("transaction_id", tx.ID),
		zap.Float64("amount", inv.TotalAmount),
	)

	inv.Paid = true
	return inv, nil
}
