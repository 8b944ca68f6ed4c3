package handler

import (
	"encoding/json"
	"net/http"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Investments
// ============================================================

func listInvestmentsHandler(svc *service.InvestmentsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /investment")
		defer span.End()

		activeOnly := r.URL.Query().Get("all") == ""
		investments, err := svc.ListInvestments(ctx, domain.UserIDFromContext(ctx), activeOnly)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if investments == nil {
			investments = []domain.Investment{}
		}
		writeJSON(w, http.StatusOK, investments)
	}
}

func getInvestmentHandler(svc *service.InvestmentsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /investment/{investmentId}")
		defer span.End()

		investment, err := svc.GetInvestment(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "investmentId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, investment)
	}
}

func createInvestmentHandler(svc *service.InvestmentsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /investment")
		defer span.End()

		var req domain.InvestmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
			return
		}

		investment, err := svc.CreateInvestment(ctx, domain.UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, investment)
	}
}

func updateInvestmentHandler(svc *service.InvestmentsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /investment/{investmentId}")
		defer span.End()

		var req domain.InvestmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
			return
		}

		investment, err := svc.UpdateInvestment(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "investmentId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, investment)
	}
}

func alterInvestmentStatusHandler(svc *service.InvestmentsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /investment/inactive/{investmentId}")
		defer span.End()

		investment, err := svc.AlterInvestmentStatus(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "investmentId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, investment)
	}
}

func portfolioSummaryHandler(svc *service.InvestmentsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /investment/summary")
		defer span.End()

		summary, err := svc.PortfolioSummary(ctx, domain.UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func deleteInvestmentHandler(svc *service.InvestmentsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /investment/{investmentId}")
		defer span.End()

		if err := svc.DeleteInvestment(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "investmentId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
