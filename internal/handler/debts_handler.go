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
// Debts
// ============================================================

func listDebtsHandler(svc *service.DebtsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /debt")
		defer span.End()

		debts, err := svc.ListDebts(ctx, domain.UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if debts == nil {
			debts = []domain.Debt{}
		}
		writeJSON(w, http.StatusOK, debts)
	}
}

func getDebtHandler(svc *service.DebtsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /debt/{debtId}")
		defer span.End()

		debt, err := svc.GetDebt(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "debtId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, debt)
	}
}

func createDebtHandler(svc *service.DebtsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /debt")
		defer span.End()

		var req domain.DebtRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
			return
		}

		debt, err := svc.CreateDebt(ctx, domain.UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, debt)
	}
}

func updateDebtHandler(svc *service.DebtsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /debt/{debtId}")
		defer span.End()

		var req domain.DebtRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
			return
		}

		debt, err := svc.UpdateDebt(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "debtId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, debt)
	}
}

func payDebtHandler(svc *service.DebtsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /debt/pay/{debtId}")
		defer span.End()

		var req domain.DebtPayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
			return
		}

		debt, err := svc.PayDebt(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "debtId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, debt)
	}
}

func listDebtPaymentsHandler(svc *service.DebtsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /debt/payments/{debtId}")
		defer span.End()

		payments, err := svc.ListDebtPayments(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "debtId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if payments == nil {
			payments = []domain.DebtPayment{}
		}
		writeJSON(w, http.StatusOK, payments)
	}
}

func deleteDebtHandler(svc *service.DebtsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /debt/{debtId}")
		defer span.End()

		if err := svc.DeleteDebt(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "debtId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
