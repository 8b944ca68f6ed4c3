package finance

import (
	"sort"

	"github.com/meorganiza/meorganiza-api/internal/domain"
)

// Month labels for chart buckets, index 0 = January.
var monthLabels = [12]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// categoryPalette is cycled in first-seen order when coloring expense
// categories; the 7th distinct category reuses the first color.
var categoryPalette = [6]string{
	"#DC2626", "#3B82F6", "#F59E0B", "#22C55E", "#8B5CF6", "#ec4899",
}

// MonthlyBucket is one bar-chart entry. Months with no activity are
// omitted rather than zero-filled.
type MonthlyBucket struct {
	Month    string  `json:"month"`
	Receitas float64 `json:"receitas"`
	Despesas float64 `json:"despesas"`

	monthIndex int
}

// CategoryBucket is one pie-chart slice of expenses by category.
type CategoryBucket struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Summary is the full output of SummarizeTransactions.
type Summary struct {
	Income     float64          `json:"income"`
	Expenses   float64          `json:"expenses"`
	Balance    float64          `json:"balance"`
	Monthly    []MonthlyBucket  `json:"monthly"`
	ByCategory []CategoryBucket `json:"byCategory"`
}

// SummarizeTransactions computes period totals and chart buckets over a
// transaction window. RECEITA values sum into Income, DESPESA into
// Expenses; TRANSFERENCIA legs net to zero inside the user's own accounts
// and are excluded from both sums. Monthly buckets appear in first-seen
// input order (use SortMonthly for chronological output); category buckets
// cover DESPESA only, grouped by category description.
func SummarizeTransactions(transactions []domain.Transaction) Summary {
	var s Summary

	monthAt := map[string]int{}
	categoryAt := map[string]int{}

	for _, t := range transactions {
		switch t.Type {
		case domain.TypeReceita:
			s.Income += t.Value
		case domain.TypeDespesa:
			s.Expenses += t.Value
		default:
			continue
		}

		idx := int(t.Date.UTC().Month()) - 1
		label := monthLabels[idx]
		at, ok := monthAt[label]
		if !ok {
			at = len(s.Monthly)
			monthAt[label] = at
			s.Monthly = append(s.Monthly, MonthlyBucket{Month: label, monthIndex: idx})
		}
		if t.Type == domain.TypeReceita {
			s.Monthly[at].Receitas += t.Value
		} else {
			s.Monthly[at].Despesas += t.Value
		}

		if t.Type == domain.TypeDespesa {
			name := categoryName(t)
			at, ok := categoryAt[name]
			if !ok {
				at = len(s.ByCategory)
				categoryAt[name] = at
				s.ByCategory = append(s.ByCategory, CategoryBucket{
					Name:  name,
					Color: categoryPalette[at%len(categoryPalette)],
				})
			}
			s.ByCategory[at].Value += t.Value
		}
	}

	s.Balance = s.Income - s.Expenses
	return s
}

// SortMonthly returns a copy of buckets in calendar order. The unsorted
// first-seen order is kept as the default for compatibility with existing
// chart consumers.
func SortMonthly(buckets []MonthlyBucket) []MonthlyBucket {
	out := make([]MonthlyBucket, len(buckets))
	copy(out, buckets)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].monthIndex < out[j].monthIndex
	})
	return out
}

func categoryName(t domain.Transaction) string {
	if t.Category != nil && t.Category.Description != "" {
		return t.Category.Description
	}
	return "Sem categoria"
}
