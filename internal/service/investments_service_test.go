package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/finance"
	"github.com/meorganiza/meorganiza-api/internal/infra/cache"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/service"
)

type mockInvestmentStore struct {
	investments []domain.Investment
	err         error

	deletedInvestmentID string
	listCalls           int
}

func (m *mockInvestmentStore) ListInvestments(_ context.Context, _ string, activeOnly bool) ([]domain.Investment, error) {
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	if !activeOnly {
		return m.investments, nil
	}
	out := make([]domain.Investment, 0, len(m.investments))
	for _, inv := range m.investments {
		if inv.Active {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockInvestmentStore) GetInvestment(_ context.Context, _, investmentID string) (*domain.Investment, error) {
	for i := range m.investments {
		if m.investments[i].ID == investmentID {
			return &m.investments[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "investment", ID: investmentID}
}

func (m *mockInvestmentStore) CreateInvestment(_ context.Context, inv domain.Investment) (*domain.Investment, error) {
	m.investments = append(m.investments, inv)
	return &inv, m.err
}

func (m *mockInvestmentStore) UpdateInvestment(_ context.Context, _, _ string, _ map[string]any) error {
	return m.err
}

func (m *mockInvestmentStore) DeleteInvestment(_ context.Context, _, investmentID string) error {
	m.deletedInvestmentID = investmentID
	return m.err
}

func newInvestmentsService(store *mockInvestmentStore) *service.InvestmentsService {
	return service.NewInvestmentsService(store, cache.New[*finance.PortfolioSummary](time.Minute), observability.NewMetrics(), zap.NewNop())
}

func TestDeleteInvestment_RemovesHolding(t *testing.T) {
	store := &mockInvestmentStore{
		investments: []domain.Investment{{
			ID: "inv-1", UserID: "user-1", Type: "ACAO",
			Quantity: 10, AcquisitionValue: 25, CurrentPrice: 30, Active: true,
		}},
	}
	svc := newInvestmentsService(store)

	if err := svc.DeleteInvestment(context.Background(), "user-1", "inv-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if store.deletedInvestmentID != "inv-1" {
		t.Errorf("expected inv-1 deleted, got %q", store.deletedInvestmentID)
	}
}

func TestDeleteInvestment_UnknownHolding(t *testing.T) {
	svc := newInvestmentsService(&mockInvestmentStore{})

	err := svc.DeleteInvestment(context.Background(), "user-1", "inv-missing")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestDeleteInvestment_InvalidatesSummaryCache(t *testing.T) {
	store := &mockInvestmentStore{
		investments: []domain.Investment{{
			ID: "inv-1", UserID: "user-1", Type: "ACAO",
			Quantity: 10, AcquisitionValue: 25, CurrentPrice: 30, Active: true,
		}},
	}
	svc := newInvestmentsService(store)

	// warm the cache, then delete and expect a recompute
	if _, err := svc.PortfolioSummary(context.Background(), "user-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := svc.PortfolioSummary(context.Background(), "user-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if store.listCalls != 1 {
		t.Fatalf("expected cached summary to skip the store, got %d list calls", store.listCalls)
	}

	if err := svc.DeleteInvestment(context.Background(), "user-1", "inv-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := svc.PortfolioSummary(context.Background(), "user-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if store.listCalls != 2 {
		t.Fatalf("expected summary recompute after delete, got %d list calls", store.listCalls)
	}
}
