package service_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/service"
)

type mockCategoryStore struct {
	categories []domain.Category
	err        error
}

func (m *mockCategoryStore) ListCategories(_ context.Context, _ string) ([]domain.Category, error) {
	return m.categories, m.err
}

func (m *mockCategoryStore) GetCategory(_ context.Context, _, categoryID string) (*domain.Category, error) {
	for i := range m.categories {
		if m.categories[i].ID == categoryID {
			return &m.categories[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "category", ID: categoryID}
}

func (m *mockCategoryStore) CreateCategory(_ context.Context, cat domain.Category) (*domain.Category, error) {
	return &cat, m.err
}

func (m *mockCategoryStore) UpdateCategory(_ context.Context, _, _ string, _ map[string]any) error {
	return m.err
}

func (m *mockCategoryStore) DeleteCategory(_ context.Context, _, _ string) error {
	return m.err
}

func newTransactionsService(store *mockTransactionStore, accounts *mockAccountStore, categories *mockCategoryStore) *service.TransactionsService {
	return service.NewTransactionsService(store, accounts, categories, observability.NewMetrics(), zap.NewNop())
}

func TestCreateTransaction_RejectsNonPositiveValue(t *testing.T) {
	store := &mockTransactionStore{}
	svc := newTransactionsService(store, &mockAccountStore{}, &mockCategoryStore{
		categories: []domain.Category{{ID: "cat-1", UserID: "user-1", Type: domain.TypeDespesa}},
	})

	for _, value := range []float64{0, -10} {
		_, err := svc.CreateTransaction(context.Background(), "user-1", &domain.TransactionRequest{
			Description: "Mercado",
			Value:       value,
			Type:        domain.TypeDespesa,
			Date:        "2026-08-15",
			CategoryID:  "cat-1",
			AccountID:   "acc-1",
		})
		var ve *domain.ErrValidation
		if !errors.As(err, &ve) {
			t.Fatalf("value %v: expected validation error, got %v", value, err)
		}
		if ve.Field != "value" {
			t.Errorf("value %v: expected field value, got %s", value, ve.Field)
		}
	}
	if len(store.created) != 0 {
		t.Errorf("expected no transaction persisted, got %d", len(store.created))
	}
}
