package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Derived reports
// ============================================================

func monthlySummaryHandler(svc *service.ReportsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /report/monthly-summary")
		defer span.End()

		year := time.Now().UTC().Year()
		if v := r.URL.Query().Get("year"); v != "" {
			y, err := strconv.Atoi(v)
			if err != nil || y < 1900 || y > 2200 {
				writeError(w, http.StatusBadRequest, "Parâmetro year inválido")
				return
			}
			year = y
		}

		summary, err := svc.MonthlySummary(ctx, domain.UserIDFromContext(ctx), year)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func expensesByCategoryHandler(svc *service.ReportsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /report/expenses-by-category")
		defer span.End()

		to, ok := parseDateParam(r, "endDate")
		if !ok {
			to = time.Now().UTC()
		}
		from, ok := parseDateParam(r, "startDate")
		if !ok {
			from = to.AddDate(0, -1, 0)
		}

		buckets, err := svc.ExpensesByCategory(ctx, domain.UserIDFromContext(ctx), from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, buckets)
	}
}

func dashboardSummaryHandler(svc *service.ReportsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /dashboard/summary")
		defer span.End()

		summary, err := svc.DashboardSummary(ctx, domain.UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
