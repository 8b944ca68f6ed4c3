package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Transactions
// ============================================================

func listTransactionsHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /transaction")
		defer span.End()

		f := domain.TransactionFilter{
			AccountID: r.URL.Query().Get("accountId"),
			CardID:    r.URL.Query().Get("cardId"),
			Type:      r.URL.Query().Get("type"),
		}
		if t, ok := parseDateParam(r, "startDate"); ok {
			f.StartDate = t
		}
		if t, ok := parseDateParam(r, "endDate"); ok {
			f.EndDate = t
		}

		transactions, err := svc.ListTransactions(ctx, domain.UserIDFromContext(ctx), f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if transactions == nil {
			transactions = []domain.Transaction{}
		}
		writeJSON(w, http.StatusOK, transactions)
	}
}

func getTransactionHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /transaction/{transactionId}")
		defer span.End()

		tx, err := svc.GetTransaction(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "transactionId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func createTransactionHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /transaction")
		defer span.End()

		var req domain.TransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
			return
		}

		tx, err := svc.CreateTransaction(ctx, domain.UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func updateTransactionHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /transaction/{transactionId}")
		defer span.End()

		var req domain.TransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
			return
		}

		tx, err := svc.UpdateTransaction(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "transactionId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func deleteTransactionHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /transaction/{transactionId}")
		defer span.End()

		if err := svc.DeleteTransaction(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "transactionId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// bankStatementHandler defaults to the last thirty days when the period
// is not given.
func bankStatementHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /transaction/bankstatement")
		defer span.End()

		accountID := r.URL.Query().Get("accountId")
		if accountID == "" {
			writeError(w, http.StatusBadRequest, "Parâmetro accountId é obrigatório")
			return
		}

		endDate, ok := parseDateParam(r, "endDate")
		if !ok {
			endDate = time.Now().UTC()
		}
		startDate, ok := parseDateParam(r, "startDate")
		if !ok {
			startDate = endDate.AddDate(0, 0, -30)
		}

		statement, err := svc.BankStatement(ctx, domain.UserIDFromContext(ctx), accountID, startDate, endDate)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, statement)
	}
}
