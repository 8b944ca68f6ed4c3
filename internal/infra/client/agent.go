// Package client holds HTTP clients for external collaborators. The only
// one left in MeOrganiza is the AI agent service; market prices and
// account data all live in Supabase.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// AgentClient calls the AI agent service (chat, reports, forecasts).
type AgentClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
}

// NewAgentClient creates a new AgentClient.
func NewAgentClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, bulkhead *resilience.Bulkhead) *AgentClient {
	return &AgentClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   bulkhead,
	}
}

// Chat sends one conversation turn to the agent.
func (c *AgentClient) Chat(ctx context.Context, req *domain.AgentChatRequest) (*domain.AgentChatResponse, error) {
	ctx, span := tracer.Start(ctx, "AgentClient.Chat")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	var out domain.AgentChatResponse
	if err := c.invoke(ctx, "/v1/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateReport asks the agent to build a report from a user question.
func (c *AgentClient) GenerateReport(ctx context.Context, req *domain.AgentReportRequest) (*domain.AgentReportResponse, error) {
	ctx, span := tracer.Start(ctx, "AgentClient.GenerateReport")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	var out domain.AgentReportResponse
	if err := c.invoke(ctx, "/v1/reports/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PredictBalance asks the agent to project the user's future balance.
func (c *AgentClient) PredictBalance(ctx context.Context, req *domain.AgentForecastRequest) (*domain.AgentForecastResponse, error) {
	ctx, span := tracer.Start(ctx, "AgentClient.PredictBalance")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	var out domain.AgentForecastResponse
	if err := c.invoke(ctx, "/v1/forecast", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// invoke POSTs a JSON payload through the bulkhead, circuit breaker and
// retry policy, decoding the response into out.
func (c *AgentClient) invoke(ctx context.Context, path string, payload, out any) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrTimeout{Operation: "agent" + path}
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(payload)
			if err != nil {
				return err
			}

			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				err := fmt.Errorf("agent API returned status %d", resp.StatusCode)
				if resp.StatusCode >= 400 && resp.StatusCode < 500 {
					return resilience.Permanent(err)
				}
				return err
			}

			return json.NewDecoder(resp.Body).Decode(out)
		})
	})

	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return &domain.ErrCircuitOpen{Service: "agent"}
		}
		return &domain.ErrExternalService{Service: "agent", Err: err}
	}
	return nil
}
