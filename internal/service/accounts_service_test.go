package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/infra/cache"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/service"
)

func newAccountsService(store *mockAccountStore) *service.AccountsService {
	return service.NewAccountsService(store, cache.New[[]domain.Bank](time.Minute), observability.NewMetrics(), zap.NewNop())
}

func TestDeleteAccount_RemovesOwnedAccount(t *testing.T) {
	store := &mockAccountStore{
		accounts: []domain.Account{{ID: "acc-1", UserID: "user-1", Name: "Conta Principal"}},
	}
	svc := newAccountsService(store)

	if err := svc.DeleteAccount(context.Background(), "user-1", "acc-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if store.deletedAccountID != "acc-1" {
		t.Errorf("expected acc-1 deleted, got %q", store.deletedAccountID)
	}
}

func TestDeleteAccount_UnknownAccount(t *testing.T) {
	svc := newAccountsService(&mockAccountStore{})

	err := svc.DeleteAccount(context.Background(), "user-1", "acc-missing")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found, got %v", err)
	}
}
