package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	chathandler "github.com/meorganiza/meorganiza-api/internal/chat/handler"
	chatinfra "github.com/meorganiza/meorganiza-api/internal/chat/infra"
	chatservice "github.com/meorganiza/meorganiza-api/internal/chat/service"
	"github.com/meorganiza/meorganiza-api/internal/config"
	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/finance"
	"github.com/meorganiza/meorganiza-api/internal/handler"
	"github.com/meorganiza/meorganiza-api/internal/infra/cache"
	"github.com/meorganiza/meorganiza-api/internal/infra/client"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/infra/resilience"
	"github.com/meorganiza/meorganiza-api/internal/infra/supabase"
	"github.com/meorganiza/meorganiza-api/internal/service"

	"go.uber.org/zap"
)

// fakePostgrest is an in-memory stand-in for the Supabase PostgREST API.
// It supports the subset the stores use: eq. filters on GET/PATCH/DELETE
// and single-object POST with return=representation.
type fakePostgrest struct {
	mu     sync.Mutex
	tables map[string][]map[string]any
}

func newFakePostgrest() *fakePostgrest {
	return &fakePostgrest{tables: map[string][]map[string]any{}}
}

func (f *fakePostgrest) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
		filters := map[string]string{}
		for k, vals := range r.URL.Query() {
			if len(vals) > 0 && strings.HasPrefix(vals[0], "eq.") {
				filters[k] = strings.TrimPrefix(vals[0], "eq.")
			}
		}

		matches := func(row map[string]any) bool {
			for k, v := range filters {
				if fmt.Sprintf("%v", row[k]) != v {
					return false
				}
			}
			return true
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			out := []map[string]any{}
			for _, row := range f.tables[table] {
				if matches(row) {
					out = append(out, row)
				}
			}
			json.NewEncoder(w).Encode(out)
		case http.MethodPost:
			var row map[string]any
			if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.tables[table] = append(f.tables[table], row)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode([]map[string]any{row})
		case http.MethodPatch:
			var fields map[string]any
			if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			for _, row := range f.tables[table] {
				if matches(row) {
					for k, v := range fields {
						row[k] = v
					}
				}
			}
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			kept := f.tables[table][:0]
			for _, row := range f.tables[table] {
				if !matches(row) {
					kept = append(kept, row)
				}
			}
			f.tables[table] = kept
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// newTestRouter wires the full application against a fake PostgREST and a
// fake agent service, mirroring the production wiring.
func newTestRouter(t *testing.T, supabaseURL, agentURL string) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	resCfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	store := supabase.NewClient(httpClient, supabaseURL, "test-anon", "test-service", resilience.NewCircuitBreaker("test-supabase"), resCfg, logger)
	agent := client.NewAgentClient(httpClient, agentURL, resilience.NewCircuitBreaker("test-agent"), resCfg, resilience.NewBulkhead(10))

	cfg := &config.Config{
		JWTSecret:     "integration-test-secret",
		JWTAccessTTL:  time.Minute,
		JWTRefreshTTL: time.Hour,
		ResetTokenTTL: time.Hour,
	}

	bankCache := cache.New[[]domain.Bank](time.Minute)
	portfolioCache := cache.New[*finance.PortfolioSummary](time.Minute)

	authSvc := service.NewAuthService(store, cfg, logger)
	assistantSvc := service.NewAssistantService(agent, store, store, store, store, store, metrics, logger)

	metered := chatinfra.NewMeteredAgentCaller(agent, metrics)
	snapshotStrategy := chatservice.NewSnapshotStrategy(metered, assistantSvc, logger)
	chatSvc := chatservice.NewChatService(metered, []chatservice.ChatStrategy{snapshotStrategy}, logger)

	return handler.NewRouter(handler.Services{
		Auth:         authSvc,
		Accounts:     service.NewAccountsService(store, bankCache, metrics, logger),
		Categories:   service.NewCategoriesService(store, logger),
		Transactions: service.NewTransactionsService(store, store, store, metrics, logger),
		Cards:        service.NewCardsService(store, store, logger),
		Bills:        service.NewBillsService(store, store, store, metrics, logger, 7),
		Debts:        service.NewDebtsService(store, store, store, metrics, logger),
		Investments:  service.NewInvestmentsService(store, portfolioCache, metrics, logger),
		Invoices:     service.NewInvoicesService(store, store, store, metrics, logger),
		Reports:      service.NewReportsService(store, store, store, store, metrics, logger, 7),
		Assistant:    assistantSvc,
	}, chathandler.NewChatHandler(chatSvc, logger), metrics, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, router http.Handler, email string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/user", "", domain.RegisterRequest{
		Name:     "Usuário Teste",
		Email:    email,
		Password: "senha-muito-segura",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/login", "", domain.LoginRequest{
		Email:    email,
		Password: "senha-muito-segura",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	var pair domain.TokenPair
	if err := json.NewDecoder(rec.Body).Decode(&pair); err != nil {
		t.Fatalf("decode token pair: %v", err)
	}
	if pair.AccessToken == "" {
		t.Fatal("expected access token")
	}
	return pair.AccessToken
}

func TestIntegration_AuthAndAccountFlow(t *testing.T) {
	pg := newFakePostgrest()
	supabaseServer := httptest.NewServer(pg.handler())
	defer supabaseServer.Close()

	agentServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer agentServer.Close()

	router := newTestRouter(t, supabaseServer.URL, agentServer.URL)
	token := registerAndLogin(t, router, "fluxo@example.com")

	// Authenticated identity
	rec := doJSON(t, router, http.MethodGet, "/user/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var me domain.User
	if err := json.NewDecoder(rec.Body).Decode(&me); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if me.Email != "fluxo@example.com" {
		t.Errorf("expected email fluxo@example.com, got %s", me.Email)
	}

	// Create an account and list it back
	rec = doJSON(t, router, http.MethodPost, "/account", token, domain.AccountRequest{
		Name:    "Conta Principal",
		Type:    domain.AccountCorrente,
		Balance: 1500,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var created domain.Account
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	if created.ID == "" {
		t.Error("expected account id")
	}

	rec = doJSON(t, router, http.MethodGet, "/account", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list accounts: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var accounts []domain.Account
	if err := json.NewDecoder(rec.Body).Decode(&accounts); err != nil {
		t.Fatalf("decode accounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Name != "Conta Principal" {
		t.Errorf("expected one account named Conta Principal, got %+v", accounts)
	}
	if accounts[0].Balance != 1500 {
		t.Errorf("expected balance 1500, got %v", accounts[0].Balance)
	}

	// Delete it and the listing goes empty
	rec = doJSON(t, router, http.MethodDelete, "/account/"+created.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete account: expected 204, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodGet, "/account", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list accounts: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	accounts = nil
	if err := json.NewDecoder(rec.Body).Decode(&accounts); err != nil {
		t.Fatalf("decode accounts: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("expected no accounts after delete, got %+v", accounts)
	}
}

func TestIntegration_RejectsMissingToken(t *testing.T) {
	pg := newFakePostgrest()
	supabaseServer := httptest.NewServer(pg.handler())
	defer supabaseServer.Close()

	agentServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer agentServer.Close()

	router := newTestRouter(t, supabaseServer.URL, agentServer.URL)

	rec := doJSON(t, router, http.MethodGet, "/account", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/account", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with garbage token, got %d", rec.Code)
	}
}

func TestIntegration_ChatFlow(t *testing.T) {
	pg := newFakePostgrest()
	supabaseServer := httptest.NewServer(pg.handler())
	defer supabaseServer.Close()

	var agentReq domain.AgentChatRequest
	agentServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewDecoder(r.Body).Decode(&agentReq)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.AgentChatResponse{
			ConversationID:   agentReq.ConversationID,
			Text:             "Seu saldo total é R$ 1.500,00.",
			PromptTokens:     120,
			CompletionTokens: 30,
		})
	}))
	defer agentServer.Close()

	router := newTestRouter(t, supabaseServer.URL, agentServer.URL)
	token := registerAndLogin(t, router, "chat@example.com")

	rec := doJSON(t, router, http.MethodPost, "/chat", token, domain.ChatRequest{
		Question: "Qual é o meu saldo atual?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("chat: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	var reply domain.ChatResponse
	if err := json.NewDecoder(rec.Body).Decode(&reply); err != nil {
		t.Fatalf("decode chat reply: %v", err)
	}
	if reply.ConversationID == "" {
		t.Error("expected conversationId to be present")
	}
	if reply.Text == "" {
		t.Error("expected reply text")
	}

	// The balance question routes through the snapshot strategy, so the
	// agent must have received a grounding snapshot and topic context.
	if agentReq.Context == "" {
		t.Error("expected agent request to carry a topic context")
	}
	if agentReq.UserID == "" {
		t.Error("expected agent request to carry the user id")
	}
}

func TestIntegration_RefreshRotation(t *testing.T) {
	pg := newFakePostgrest()
	supabaseServer := httptest.NewServer(pg.handler())
	defer supabaseServer.Close()

	agentServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer agentServer.Close()

	router := newTestRouter(t, supabaseServer.URL, agentServer.URL)

	doJSON(t, router, http.MethodPost, "/user", "", domain.RegisterRequest{
		Name:     "Usuário Refresh",
		Email:    "refresh@example.com",
		Password: "senha-muito-segura",
	})
	rec := doJSON(t, router, http.MethodPost, "/login", "", domain.LoginRequest{
		Email:    "refresh@example.com",
		Password: "senha-muito-segura",
	})
	var pair domain.TokenPair
	if err := json.NewDecoder(rec.Body).Decode(&pair); err != nil {
		t.Fatalf("decode token pair: %v", err)
	}

	rec = doJSON(t, router, http.MethodPost, "/refresh", "", domain.RefreshRequest{RefreshToken: pair.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var rotated domain.TokenPair
	if err := json.NewDecoder(rec.Body).Decode(&rotated); err != nil {
		t.Fatalf("decode rotated pair: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Error("expected refresh token to rotate")
	}

	// The old refresh token is revoked after rotation.
	rec = doJSON(t, router, http.MethodPost, "/refresh", "", domain.RefreshRequest{RefreshToken: pair.RefreshToken})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 reusing rotated refresh token, got %d", rec.Code)
	}
}
