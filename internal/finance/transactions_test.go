package finance

import (
	"testing"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/domain"
)

func tx(kind string, value float64, month time.Month, category string) domain.Transaction {
	t := domain.Transaction{
		Type:  kind,
		Value: value,
		Date:  time.Date(2026, month, 10, 12, 0, 0, 0, time.UTC),
	}
	if category != "" {
		t.Category = &domain.Category{Description: category}
	}
	return t
}

func TestSummarizeTotalsExcludeTransfers(t *testing.T) {
	s := SummarizeTransactions([]domain.Transaction{
		tx(domain.TypeReceita, 100, time.January, ""),
		tx(domain.TypeDespesa, 40, time.January, "Mercado"),
		tx(domain.TypeTransferencia, 1000, time.January, ""),
	})

	if s.Income != 100 || s.Expenses != 40 || s.Balance != 60 {
		t.Errorf("expected 100/40/60, got %.2f/%.2f/%.2f", s.Income, s.Expenses, s.Balance)
	}
	for _, b := range s.Monthly {
		if b.Receitas+b.Despesas > 140 {
			t.Errorf("transfer leaked into monthly buckets: %+v", b)
		}
	}
}

func TestSummarizeMonthlyBuckets(t *testing.T) {
	s := SummarizeTransactions([]domain.Transaction{
		tx(domain.TypeDespesa, 50, time.March, "Luz"),
		tx(domain.TypeReceita, 300, time.January, ""),
		tx(domain.TypeDespesa, 20, time.March, "Luz"),
		tx(domain.TypeReceita, 80, time.February, ""),
	})

	if len(s.Monthly) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(s.Monthly))
	}

	// first-seen order, not calendar order
	gotOrder := []string{s.Monthly[0].Month, s.Monthly[1].Month, s.Monthly[2].Month}
	wantOrder := []string{"Mar", "Jan", "Fev"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("expected first-seen order %v, got %v", wantOrder, gotOrder)
		}
	}
	if s.Monthly[0].Despesas != 70 {
		t.Errorf("expected Mar despesas 70, got %.2f", s.Monthly[0].Despesas)
	}

	sorted := SortMonthly(s.Monthly)
	gotSorted := []string{sorted[0].Month, sorted[1].Month, sorted[2].Month}
	wantSorted := []string{"Jan", "Fev", "Mar"}
	for i := range wantSorted {
		if gotSorted[i] != wantSorted[i] {
			t.Fatalf("expected calendar order %v, got %v", wantSorted, gotSorted)
		}
	}
	// input order untouched
	if s.Monthly[0].Month != "Mar" {
		t.Errorf("SortMonthly must not mutate its input")
	}
}

func TestSummarizeCategoryColorCycling(t *testing.T) {
	names := []string{"Mercado", "Luz", "Água", "Internet", "Transporte", "Lazer", "Saúde", "Educação"}
	var input []domain.Transaction
	for _, n := range names {
		input = append(input, tx(domain.TypeDespesa, 10, time.May, n))
	}

	s := SummarizeTransactions(input)
	if len(s.ByCategory) != 8 {
		t.Fatalf("expected 8 categories, got %d", len(s.ByCategory))
	}
	if s.ByCategory[6].Color != s.ByCategory[0].Color {
		t.Errorf("7th category must reuse color #1: %s vs %s", s.ByCategory[6].Color, s.ByCategory[0].Color)
	}
	if s.ByCategory[7].Color != s.ByCategory[1].Color {
		t.Errorf("8th category must reuse color #2: %s vs %s", s.ByCategory[7].Color, s.ByCategory[1].Color)
	}
	if s.ByCategory[0].Color == s.ByCategory[1].Color {
		t.Errorf("adjacent categories must not share a color")
	}
}

func TestSummarizeCategorySums(t *testing.T) {
	s := SummarizeTransactions([]domain.Transaction{
		tx(domain.TypeDespesa, 120, time.June, "Mercado"),
		tx(domain.TypeDespesa, 80, time.June, "Mercado"),
		tx(domain.TypeDespesa, 55, time.June, ""),
		tx(domain.TypeReceita, 900, time.June, "Salário"),
	})

	if len(s.ByCategory) != 2 {
		t.Fatalf("expected 2 expense categories, got %d", len(s.ByCategory))
	}
	if s.ByCategory[0].Name != "Mercado" || s.ByCategory[0].Value != 200 {
		t.Errorf("unexpected first bucket: %+v", s.ByCategory[0])
	}
	if s.ByCategory[1].Name != "Sem categoria" || s.ByCategory[1].Value != 55 {
		t.Errorf("uncategorized expenses must fall into a fallback bucket: %+v", s.ByCategory[1])
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := SummarizeTransactions(nil)
	if s.Income != 0 || s.Expenses != 0 || s.Balance != 0 {
		t.Errorf("expected zero totals, got %+v", s)
	}
	if len(s.Monthly) != 0 || len(s.ByCategory) != 0 {
		t.Errorf("expected no buckets, got %+v", s)
	}
}
