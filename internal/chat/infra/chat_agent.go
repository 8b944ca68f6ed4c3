// Package infra adapts the shared agent client to the chat module's port
// and records usage metrics on every turn.
package infra

import (
	"context"

	chatport "github.com/meorganiza/meorganiza-api/internal/chat/port"
	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/port"
)

// MeteredAgentCaller wraps the shared agent client with request and token
// accounting.
type MeteredAgentCaller struct {
	agent   port.AgentCaller
	metrics *observability.Metrics
}

var _ chatport.AgentChatCaller = (*MeteredAgentCaller)(nil)

func NewMeteredAgentCaller(agent port.AgentCaller, metrics *observability.Metrics) *MeteredAgentCaller {
	return &MeteredAgentCaller{agent: agent, metrics: metrics}
}

func (c *MeteredAgentCaller) Chat(ctx context.Context, req *domain.AgentChatRequest) (*domain.AgentChatResponse, error) {
	resp, err := c.agent.Chat(ctx, req)
	if err != nil {
		c.metrics.IncrRequest("error")
		return nil, err
	}
	c.metrics.IncrRequest("success")
	c.metrics.RecordTokens(resp.PromptTokens, resp.CompletionTokens)
	return resp, nil
}
