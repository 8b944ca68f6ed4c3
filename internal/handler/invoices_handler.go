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
// Card invoices
// ============================================================

func listInvoicesHandler(svc *service.InvoicesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /invoice")
		defer span.End()

		invoices, err := svc.ListInvoices(ctx, domain.UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if invoices == nil {
			invoices = []domain.Invoice{}
		}
		writeJSON(w, http.StatusOK, invoices)
	}
}

func invoiceDetailsHandler(svc *service.InvoicesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /invoice/{invoiceId}")
		defer span.End()

		details, err := svc.InvoiceDetails(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "invoiceId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, details)
	}
}

func payInvoiceHandler(svc *service.InvoicesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /invoice/pay/{invoiceId}")
		defer span.End()

		var req domain.InvoicePayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
			return
		}

		invoice, err := svc.PayInvoice(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "invoiceId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, invoice)
	}
}
