package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/finance"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockBillStore struct {
	bills   []domain.Bill
	pending []domain.BillPayment
	payment *domain.BillPayment
	err     error

	createdBills    []domain.Bill
	createdPayments []domain.BillPayment
	markedPaymentID string
	markedTxID      string
}

func (m *mockBillStore) ListBills(_ context.Context, _ string) ([]domain.Bill, error) {
	return m.bills, m.err
}

func (m *mockBillStore) GetBill(_ context.Context, _, billID string) (*domain.Bill, error) {
	for i := range m.bills {
		if m.bills[i].ID == billID {
			return &m.bills[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
}

func (m *mockBillStore) CreateBill(_ context.Context, b domain.Bill) (*domain.Bill, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.createdBills = append(m.createdBills, b)
	return &b, nil
}

func (m *mockBillStore) UpdateBill(_ context.Context, _, _ string, _ map[string]any) error {
	return m.err
}

func (m *mockBillStore) DeleteBill(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockBillStore) ListPendingPayments(_ context.Context, _ string) ([]domain.BillPayment, error) {
	return m.pending, m.err
}

func (m *mockBillStore) GetBillPayment(_ context.Context, paymentID string) (*domain.BillPayment, error) {
	if m.payment == nil {
		return nil, &domain.ErrNotFound{Resource: "bill payment", ID: paymentID}
	}
	return m.payment, nil
}

func (m *mockBillStore) CreateBillPayment(_ context.Context, p domain.BillPayment) error {
	m.createdPayments = append(m.createdPayments, p)
	return nil
}

func (m *mockBillStore) MarkPaymentPaid(_ context.Context, paymentID, transactionID string, _ time.Time) error {
	m.markedPaymentID = paymentID
	m.markedTxID = transactionID
	return nil
}

type mockTransactionStore struct {
	transactions []domain.Transaction
	err          error

	created []domain.Transaction
}

func (m *mockTransactionStore) ListTransactions(_ context.Context, _ string, _ domain.TransactionFilter) ([]domain.Transaction, error) {
	return m.transactions, m.err
}

func (m *mockTransactionStore) GetTransaction(_ context.Context, _, transactionID string) (*domain.Transaction, error) {
	return nil, &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
}

func (m *mockTransactionStore) CreateTransaction(_ context.Context, t domain.Transaction) (*domain.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = append(m.created, t)
	return &t, nil
}

func (m *mockTransactionStore) UpdateTransaction(_ context.Context, _, _ string, _ map[string]any) error {
	return m.err
}

func (m *mockTransactionStore) DeleteTransaction(_ context.Context, _, _ string) error {
	return m.err
}

type mockAccountStore struct {
	accounts []domain.Account
	err      error

	adjustedAccountID string
	adjustedDelta     float64
	deletedAccountID  string
}

func (m *mockAccountStore) ListAccounts(_ context.Context, _ string) ([]domain.Account, error) {
	return m.accounts, m.err
}

func (m *mockAccountStore) GetAccount(_ context.Context, _, accountID string) (*domain.Account, error) {
	for i := range m.accounts {
		if m.accounts[i].ID == accountID {
			return &m.accounts[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
}

func (m *mockAccountStore) CreateAccount(_ context.Context, a domain.Account) (*domain.Account, error) {
	return &a, m.err
}

func (m *mockAccountStore) UpdateAccount(_ context.Context, _, _ string, _ map[string]any) error {
	return m.err
}

func (m *mockAccountStore) AdjustAccountBalance(_ context.Context, _, accountID string, delta float64) (*domain.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.adjustedAccountID = accountID
	m.adjustedDelta = delta
	return &domain.Account{ID: accountID}, nil
}

func (m *mockAccountStore) DeleteAccount(_ context.Context, _, accountID string) error {
	m.deletedAccountID = accountID
	return m.err
}

func (m *mockAccountStore) ListBanks(_ context.Context) ([]domain.Bank, error) {
	return nil, m.err
}

func newBillsService(store *mockBillStore, txs *mockTransactionStore, accounts *mockAccountStore) *service.BillsService {
	return service.NewBillsService(store, txs, accounts, observability.NewMetrics(), zap.NewNop(), 7)
}

// --- Tests ---

func TestPendingBills_ClassifiesByDueDate(t *testing.T) {
	today := time.Now().UTC()
	store := &mockBillStore{
		pending: []domain.BillPayment{
			{ID: "p-overdue", DueDate: today.AddDate(0, 0, -3), Amount: 100, Status: domain.PaymentPending, Bill: &domain.Bill{Description: "Aluguel"}},
			{ID: "p-today", DueDate: today, Amount: 50, Status: domain.PaymentPending, Bill: &domain.Bill{Description: "Internet"}},
			{ID: "p-far", DueDate: today.AddDate(0, 0, 20), Amount: 80, Status: domain.PaymentPending, Bill: &domain.Bill{Description: "Seguro"}},
		},
	}

	svc := newBillsService(store, &mockTransactionStore{}, &mockAccountStore{})
	out, err := svc.PendingBills(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 pending bills, got %d", len(out))
	}

	if out[0].AlertStatus != finance.StatusOverdue {
		t.Errorf("expected OVERDUE, got %s", out[0].AlertStatus)
	}
	if out[0].DaysDelta != -3 {
		t.Errorf("expected daysDelta -3, got %d", out[0].DaysDelta)
	}
	if out[0].AlertText != "Vencida há 3 dias" {
		t.Errorf("unexpected alert text: %s", out[0].AlertText)
	}
	if out[0].Description != "Aluguel" {
		t.Errorf("expected description Aluguel, got %s", out[0].Description)
	}

	// due today counts as DUE_SOON, not OVERDUE
	if out[1].AlertStatus != finance.StatusDueSoon {
		t.Errorf("expected DUE_SOON for today, got %s", out[1].AlertStatus)
	}
	if out[1].DaysDelta != 0 {
		t.Errorf("expected daysDelta 0, got %d", out[1].DaysDelta)
	}

	if out[2].AlertStatus != finance.StatusNormal {
		t.Errorf("expected NORMAL, got %s", out[2].AlertStatus)
	}
}

func TestPendingBills_SkipsCardLinkedOccurrences(t *testing.T) {
	today := time.Now().UTC()
	store := &mockBillStore{
		pending: []domain.BillPayment{
			{ID: "p-card", DueDate: today, Amount: 200, Status: domain.PaymentPending, Bill: &domain.Bill{Description: "Streaming", CardID: "card-1"}},
			{ID: "p-account", DueDate: today, Amount: 90, Status: domain.PaymentPending, Bill: &domain.Bill{Description: "Luz", AccountID: "acc-1"}},
		},
	}

	svc := newBillsService(store, &mockTransactionStore{}, &mockAccountStore{})
	out, err := svc.PendingBills(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 pending bill, got %d", len(out))
	}
	if out[0].ID != "p-account" {
		t.Errorf("expected the account-linked occurrence, got %s", out[0].ID)
	}
}

func TestPayBill_SettlesAndSchedulesNextOccurrence(t *testing.T) {
	due := time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC)
	store := &mockBillStore{
		payment: &domain.BillPayment{
			ID:      "pay-1",
			BillID:  "bill-1",
			DueDate: due,
			Amount:  320.5,
			Status:  domain.PaymentPending,
			Bill: &domain.Bill{
				ID:          "bill-1",
				UserID:      "user-1",
				Description: "Aluguel",
				Amount:      320.5,
				DueDateDay:  10,
				Recurring:   domain.RecurringMonthly,
				CategoryID:  "cat-1",
				AccountID:   "acc-1",
			},
		},
	}
	txs := &mockTransactionStore{}
	accounts := &mockAccountStore{}

	svc := newBillsService(store, txs, accounts)
	paid, err := svc.PayBill(context.Background(), "user-1", "pay-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if paid.Status != domain.PaymentPaid {
		t.Errorf("expected PAID, got %s", paid.Status)
	}
	if paid.PaidAt == nil {
		t.Error("expected paidAt to be set")
	}

	if len(txs.created) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs.created))
	}
	tx := txs.created[0]
	if tx.Type != domain.TypeDespesa {
		t.Errorf("expected DESPESA, got %s", tx.Type)
	}
	if tx.Description != "Pagamento: Aluguel" {
		t.Errorf("unexpected transaction description: %s", tx.Description)
	}
	if tx.Value != 320.5 {
		t.Errorf("expected value 320.5, got %v", tx.Value)
	}

	if accounts.adjustedAccountID != "acc-1" || accounts.adjustedDelta != -320.5 {
		t.Errorf("expected acc-1 debited by 320.5, got %s %v", accounts.adjustedAccountID, accounts.adjustedDelta)
	}

	if store.markedPaymentID != "pay-1" || store.markedTxID != tx.ID {
		t.Errorf("expected payment marked paid with transaction link")
	}

	// monthly recurrence schedules the next occurrence one month out
	if len(store.createdPayments) != 1 {
		t.Fatalf("expected next occurrence, got %d", len(store.createdPayments))
	}
	next := store.createdPayments[0]
	want := due.AddDate(0, 1, 0)
	if !next.DueDate.Equal(want) {
		t.Errorf("expected next due %v, got %v", want, next.DueDate)
	}
	if next.Status != domain.PaymentPending {
		t.Errorf("expected next occurrence PENDING, got %s", next.Status)
	}
}

func TestPayBill_KeepsDueDayAcrossShortMonths(t *testing.T) {
	bill := &domain.Bill{
		ID:          "bill-1",
		UserID:      "user-1",
		Description: "Fatura internet",
		Amount:      99.9,
		DueDateDay:  31,
		Recurring:   domain.RecurringMonthly,
		AccountID:   "acc-1",
	}

	cases := []struct {
		name string
		due  time.Time
		want time.Time
	}{
		{
			// day-31 rule entering February clamps to the 28th
			name: "january into february",
			due:  time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			// and a clamped occurrence recovers the 31st afterwards
			name: "february back to march",
			due:  time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockBillStore{
				payment: &domain.BillPayment{
					ID:      "pay-1",
					BillID:  bill.ID,
					DueDate: tc.due,
					Amount:  bill.Amount,
					Status:  domain.PaymentPending,
					Bill:    bill,
				},
			}
			svc := newBillsService(store, &mockTransactionStore{}, &mockAccountStore{})

			if _, err := svc.PayBill(context.Background(), "user-1", "pay-1"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(store.createdPayments) != 1 {
				t.Fatalf("expected next occurrence, got %d", len(store.createdPayments))
			}
			if got := store.createdPayments[0].DueDate; !got.Equal(tc.want) {
				t.Errorf("expected next due %v, got %v", tc.want, got)
			}
		})
	}
}

func TestPayBill_AnnualKeepsDueDay(t *testing.T) {
	store := &mockBillStore{
		payment: &domain.BillPayment{
			ID:      "pay-1",
			BillID:  "bill-1",
			DueDate: time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
			Amount:  1200,
			Status:  domain.PaymentPending,
			Bill: &domain.Bill{
				ID:         "bill-1",
				UserID:     "user-1",
				Amount:     1200,
				DueDateDay: 29,
				Recurring:  domain.RecurringAnnually,
				AccountID:  "acc-1",
			},
		},
	}
	svc := newBillsService(store, &mockTransactionStore{}, &mockAccountStore{})

	if _, err := svc.PayBill(context.Background(), "user-1", "pay-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(store.createdPayments) != 1 {
		t.Fatalf("expected next occurrence, got %d", len(store.createdPayments))
	}
	want := time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)
	if got := store.createdPayments[0].DueDate; !got.Equal(want) {
		t.Errorf("expected next due %v, got %v", want, got)
	}
}

func TestPayBill_AlreadyPaid(t *testing.T) {
	store := &mockBillStore{
		payment: &domain.BillPayment{
			ID:     "pay-1",
			Status: domain.PaymentPaid,
			Bill:   &domain.Bill{UserID: "user-1"},
		},
	}

	svc := newBillsService(store, &mockTransactionStore{}, &mockAccountStore{})
	_, err := svc.PayBill(context.Background(), "user-1", "pay-1")

	var dup *domain.ErrDuplicate
	if !errors.As(err, &dup) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestPayBill_OtherUsersPayment(t *testing.T) {
	store := &mockBillStore{
		payment: &domain.BillPayment{
			ID:     "pay-1",
			Status: domain.PaymentPending,
			Bill:   &domain.Bill{UserID: "someone-else"},
		},
	}

	svc := newBillsService(store, &mockTransactionStore{}, &mockAccountStore{})
	_, err := svc.PayBill(context.Background(), "user-1", "pay-1")

	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPayBill_OneOffDoesNotReschedule(t *testing.T) {
	store := &mockBillStore{
		payment: &domain.BillPayment{
			ID:      "pay-1",
			BillID:  "bill-1",
			DueDate: time.Now().UTC(),
			Amount:  40,
			Status:  domain.PaymentPending,
			Bill: &domain.Bill{
				ID:          "bill-1",
				UserID:      "user-1",
				Description: "Multa",
				Recurring:   domain.RecurringNone,
				CategoryID:  "cat-1",
			},
		},
	}

	svc := newBillsService(store, &mockTransactionStore{}, &mockAccountStore{})
	if _, err := svc.PayBill(context.Background(), "user-1", "pay-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(store.createdPayments) != 0 {
		t.Errorf("expected no next occurrence for NONE recurrence, got %d", len(store.createdPayments))
	}
}

func TestCreateBill_SeedsFirstOccurrence(t *testing.T) {
	store := &mockBillStore{}
	svc := newBillsService(store, &mockTransactionStore{}, &mockAccountStore{})

	bill, err := svc.CreateBill(context.Background(), "user-1", &domain.BillRequest{
		Description: "Condomínio",
		Amount:      550,
		DueDateDay:  10,
		Recurring:   domain.RecurringMonthly,
		CategoryID:  "cat-1",
		AccountID:   "acc-1",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !bill.Active {
		t.Error("expected new bill to be active")
	}

	if len(store.createdPayments) != 1 {
		t.Fatalf("expected first occurrence, got %d", len(store.createdPayments))
	}
	first := store.createdPayments[0]
	if first.BillID != bill.ID {
		t.Errorf("occurrence not linked to bill")
	}
	if first.Amount != 550 {
		t.Errorf("expected amount 550, got %v", first.Amount)
	}
	if first.DueDate.Before(finance.DateOnly(time.Now().UTC())) {
		t.Errorf("first occurrence must not be in the past, got %v", first.DueDate)
	}
}

func TestCreateBill_RejectsAccountAndCard(t *testing.T) {
	svc := newBillsService(&mockBillStore{}, &mockTransactionStore{}, &mockAccountStore{})

	_, err := svc.CreateBill(context.Background(), "user-1", &domain.BillRequest{
		Description: "Assinatura",
		Amount:      30,
		DueDateDay:  5,
		Recurring:   domain.RecurringMonthly,
		CategoryID:  "cat-1",
		AccountID:   "acc-1",
		CardID:      "card-1",
	})

	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateBill_RejectsInvalidDueDay(t *testing.T) {
	svc := newBillsService(&mockBillStore{}, &mockTransactionStore{}, &mockAccountStore{})

	_, err := svc.CreateBill(context.Background(), "user-1", &domain.BillRequest{
		Description: "Luz",
		Amount:      120,
		DueDateDay:  32,
		Recurring:   domain.RecurringMonthly,
		CategoryID:  "cat-1",
	})

	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
