// Package port defines the interfaces the chat module depends on.
package port

import (
	"context"

	"github.com/meorganiza/meorganiza-api/internal/domain"
)

// AgentChatCaller sends one chat turn to the external AI agent.
type AgentChatCaller interface {
	Chat(ctx context.Context, req *domain.AgentChatRequest) (*domain.AgentChatResponse, error)
}

// SnapshotProvider builds compact plain-text digests of the user's
// records, one per topic. Strategies attach these to the agent request
// so the model answers from real numbers instead of guessing.
type SnapshotProvider interface {
	BalanceSnapshot(ctx context.Context, userID string) (string, error)
	BillsSnapshot(ctx context.Context, userID string) (string, error)
	PortfolioSnapshot(ctx context.Context, userID string) (string, error)
}
