package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// AI assistant: generated reports and balance forecasts
// ============================================================

func generateReportHandler(svc *service.AssistantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /report/ai-generate")
		defer span.End()

		var req domain.ReportGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
			return
		}

		report, err := svc.GenerateReport(ctx, domain.UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, report)
	}
}

func listGeneratedReportsHandler(svc *service.AssistantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /report/ai-generated")
		defer span.End()

		reports, err := svc.ListReports(ctx, domain.UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if reports == nil {
			reports = []domain.GeneratedReport{}
		}
		writeJSON(w, http.StatusOK, reports)
	}
}

func getGeneratedReportHandler(svc *service.AssistantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /report/ai-generated/{reportId}")
		defer span.End()

		report, err := svc.GetReport(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "reportId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func deleteGeneratedReportHandler(svc *service.AssistantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /report/ai-generated/{reportId}")
		defer span.End()

		if err := svc.DeleteReport(ctx, domain.UserIDFromContext(ctx), chi.URLParam(r, "reportId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func predictBalanceHandler(svc *service.AssistantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /predict-balance")
		defer span.End()

		forecast, err := svc.PredictBalance(ctx, domain.UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, forecast)
	}
}

func latestForecastHandler(svc *service.AssistantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /predict-balance/last")
		defer span.End()

		forecast, err := svc.LatestForecast(ctx, domain.UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, forecast)
	}
}

func assistantUsageHandler(svc *service.AssistantService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Usage())
	}
}
