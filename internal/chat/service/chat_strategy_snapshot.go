package service

import (
	"context"

	chatdomain "github.com/meorganiza/meorganiza-api/internal/chat/domain"
	chatport "github.com/meorganiza/meorganiza-api/internal/chat/port"
	"github.com/meorganiza/meorganiza-api/internal/domain"

	"go.uber.org/zap"
)

// SnapshotStrategy handles questions about the user's own numbers.
// Before calling the agent it attaches a plain-text digest of the
// relevant records, so the answer quotes real balances instead of
// generic advice. A failed snapshot degrades to a plain agent call.
type SnapshotStrategy struct {
	agent     chatport.AgentChatCaller
	snapshots chatport.SnapshotProvider
	logger    *zap.Logger
}

func NewSnapshotStrategy(agent chatport.AgentChatCaller, snapshots chatport.SnapshotProvider, logger *zap.Logger) *SnapshotStrategy {
	return &SnapshotStrategy{agent: agent, snapshots: snapshots, logger: logger}
}

func (st *SnapshotStrategy) CanHandle(intent string) bool {
	switch intent {
	case chatdomain.IntentBalance, chatdomain.IntentBills, chatdomain.IntentPortfolio:
		return true
	}
	return false
}

func (st *SnapshotStrategy) Handle(ctx context.Context, chatCtx *chatdomain.ChatContext) (*domain.ChatResponse, error) {
	snapshot, err := st.buildSnapshot(ctx, chatCtx)
	if err != nil {
		st.logger.Warn("snapshot build failed, answering without it",
			zap.String("user_id", chatCtx.UserID),
			zap.String("intent", chatCtx.DetectedIntent),
			zap.Error(err),
		)
		snapshot = ""
	}

	resp, err := st.agent.Chat(ctx, &domain.AgentChatRequest{
		ConversationID: chatCtx.ConversationID,
		UserID:         chatCtx.UserID,
		Question:       chatCtx.Question,
		Context:        chatCtx.DetectedIntent,
		Snapshot:       snapshot,
	})
	if err != nil {
		return nil, err
	}
	return &domain.ChatResponse{ConversationID: resp.ConversationID, Text: resp.Text}, nil
}

func (st *SnapshotStrategy) buildSnapshot(ctx context.Context, chatCtx *chatdomain.ChatContext) (string, error) {
	switch chatCtx.DetectedIntent {
	case chatdomain.IntentBalance:
		return st.snapshots.BalanceSnapshot(ctx, chatCtx.UserID)
	case chatdomain.IntentBills:
		return st.snapshots.BillsSnapshot(ctx, chatCtx.UserID)
	case chatdomain.IntentPortfolio:
		return st.snapshots.PortfolioSnapshot(ctx, chatCtx.UserID)
	}
	return "", nil
}
