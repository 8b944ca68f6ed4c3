package handler

import (
	"context"
	"net/http"
	"time"

	chathandler "github.com/meorganiza/meorganiza-api/internal/chat/handler"
	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Version is stamped at build time.
var Version = "dev"

// Services bundles everything the router mounts.
type Services struct {
	Auth         *service.AuthService
	Accounts     *service.AccountsService
	Categories   *service.CategoriesService
	Transactions *service.TransactionsService
	Cards        *service.CardsService
	Bills        *service.BillsService
	Debts        *service.DebtsService
	Investments  *service.InvestmentsService
	Invoices     *service.InvoicesService
	Reports      *service.ReportsService
	Assistant    *service.AssistantService
}

// NewRouter creates the HTTP router with all routes and middleware.
// Everything except login, registration, password reset and the health
// and metrics endpoints requires a valid access token.
func NewRouter(svcs Services, chat *chathandler.ChatHandler, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Accounts, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- Public auth routes ---
	r.Post("/login", authLoginHandler(svcs.Auth, logger))
	r.Post("/refresh", authRefreshHandler(svcs.Auth, logger))
	r.Post("/user", authRegisterHandler(svcs.Auth, logger))
	r.Post("/user/forgot-password", authForgotPasswordHandler(svcs.Auth, logger))
	r.Post("/user/reset-password/{token}", authResetPasswordHandler(svcs.Auth, logger))

	// --- Protected API ---
	r.Group(func(r chi.Router) {
		r.Use(JWTAuthMiddleware(svcs.Auth, logger))

		r.Get("/user/me", authMeHandler(svcs.Auth, logger))

		// Accounts and banks
		r.Get("/account", listAccountsHandler(svcs.Accounts, logger))
		r.Post("/account", createAccountHandler(svcs.Accounts, logger))
		r.Get("/account/{accountId}", getAccountHandler(svcs.Accounts, logger))
		r.Put("/account/{accountId}", updateAccountHandler(svcs.Accounts, logger))
		r.Patch("/account/alternate-status/{accountId}", alternateAccountStatusHandler(svcs.Accounts, logger))
		r.Delete("/account/{accountId}", deleteAccountHandler(svcs.Accounts, logger))
		r.Get("/bank", listBanksHandler(svcs.Accounts, logger))

		// Categories
		r.Get("/category", listCategoriesHandler(svcs.Categories, logger))
		r.Post("/category", createCategoryHandler(svcs.Categories, logger))
		r.Put("/category/{categoryId}", updateCategoryHandler(svcs.Categories, logger))
		r.Delete("/category/{categoryId}", deleteCategoryHandler(svcs.Categories, logger))

		// Transactions
		r.Get("/transaction", listTransactionsHandler(svcs.Transactions, logger))
		r.Post("/transaction", createTransactionHandler(svcs.Transactions, logger))
		r.Get("/transaction/bankstatement", bankStatementHandler(svcs.Transactions, logger))
		r.Get("/transaction/{transactionId}", getTransactionHandler(svcs.Transactions, logger))
		r.Put("/transaction/{transactionId}", updateTransactionHandler(svcs.Transactions, logger))
		r.Delete("/transaction/{transactionId}", deleteTransactionHandler(svcs.Transactions, logger))

		// Cards and invoices
		r.Get("/card", listCardsHandler(svcs.Cards, logger))
		r.Post("/card", createCardHandler(svcs.Cards, logger))
		r.Patch("/card/inactive/{cardId}", alterCardStatusHandler(svcs.Cards, logger))
		r.Put("/card/{cardId}", updateCardHandler(svcs.Cards, logger))
		r.Delete("/card/{cardId}", deleteCardHandler(svcs.Cards, logger))
		r.Get("/invoice", listInvoicesHandler(svcs.Invoices, logger))
		r.Get("/invoice/{invoiceId}", invoiceDetailsHandler(svcs.Invoices, logger))
		r.Post("/invoice/pay/{invoiceId}", payInvoiceHandler(svcs.Invoices, logger))

		// Bills
		r.Get("/bill", listBillsHandler(svcs.Bills, logger))
		r.Post("/bill", createBillHandler(svcs.Bills, logger))
		r.Get("/bill/pending", pendingBillsHandler(svcs.Bills, logger))
		r.Post("/bill/pay/{paymentId}", payBillHandler(svcs.Bills, logger))
		r.Patch("/bill/alter-status/{billId}", alterBillStatusHandler(svcs.Bills, logger))
		r.Put("/bill/{billId}", updateBillHandler(svcs.Bills, logger))
		r.Delete("/bill/{billId}", deleteBillHandler(svcs.Bills, logger))

		// Debts
		r.Get("/debt", listDebtsHandler(svcs.Debts, logger))
		r.Post("/debt", createDebtHandler(svcs.Debts, logger))
		r.Get("/debt/{debtId}", getDebtHandler(svcs.Debts, logger))
		r.Put("/debt/{debtId}", updateDebtHandler(svcs.Debts, logger))
		r.Delete("/debt/{debtId}", deleteDebtHandler(svcs.Debts, logger))
		r.Post("/debt/pay/{debtId}", payDebtHandler(svcs.Debts, logger))
		r.Get("/debt/payments/{debtId}", listDebtPaymentsHandler(svcs.Debts, logger))

		// Investments
		r.Get("/investment", listInvestmentsHandler(svcs.Investments, logger))
		r.Post("/investment", createInvestmentHandler(svcs.Investments, logger))
		r.Get("/investment/summary", portfolioSummaryHandler(svcs.Investments, logger))
		r.Put("/investment/inactive/{investmentId}", alterInvestmentStatusHandler(svcs.Investments, logger))
		r.Get("/investment/{investmentId}", getInvestmentHandler(svcs.Investments, logger))
		r.Put("/investment/{investmentId}", updateInvestmentHandler(svcs.Investments, logger))
		r.Delete("/investment/{investmentId}", deleteInvestmentHandler(svcs.Investments, logger))

		// Derived reports
		r.Get("/report/monthly-summary", monthlySummaryHandler(svcs.Reports, logger))
		r.Get("/report/expenses-by-category", expensesByCategoryHandler(svcs.Reports, logger))
		r.Get("/dashboard/summary", dashboardSummaryHandler(svcs.Reports, logger))

		// Assistant
		r.Post("/chat", chat.Chat)
		r.Post("/report/ai-generate", generateReportHandler(svcs.Assistant, logger))
		r.Get("/report/ai-generated", listGeneratedReportsHandler(svcs.Assistant, logger))
		r.Get("/report/ai-generated/{reportId}", getGeneratedReportHandler(svcs.Assistant, logger))
		r.Delete("/report/ai-generated/{reportId}", deleteGeneratedReportHandler(svcs.Assistant, logger))
		r.Post("/predict-balance", predictBalanceHandler(svcs.Assistant, logger))
		r.Get("/predict-balance/last", latestForecastHandler(svcs.Assistant, logger))
		r.Get("/metrics/assistant", assistantUsageHandler(svcs.Assistant))
	})

	return r
}

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler(accounts *service.AccountsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		deps := map[string]string{}
		status := "ok"
		if accounts != nil {
			if _, err := accounts.ListBanks(ctx); err != nil {
				logger.Warn("healthz: supabase check failed", zap.Error(err))
				deps["supabase"] = "degraded"
				status = "degraded"
			} else {
				deps["supabase"] = "ok"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:       status,
			Version:      Version,
			Dependencies: deps,
		})
	}
}
