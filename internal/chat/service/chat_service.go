// Package service implements the chat orchestration.
//
// The ChatService routes each question through the Strategy pattern:
// detect the intent, find the first registered strategy that accepts it,
// let the strategy enrich the agent request, and fall back to a plain
// agent call when nothing matches.
package service

import (
	"context"
	"strings"

	chatdomain "github.com/meorganiza/meorganiza-api/internal/chat/domain"
	chatport "github.com/meorganiza/meorganiza-api/internal/chat/port"
	"github.com/meorganiza/meorganiza-api/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var chatTracer = otel.Tracer("chat/service")

// ChatStrategy is the contract one conversation topic implements.
// CanHandle reports whether the strategy treats the detected intent;
// Handle processes the turn and returns the agent's answer.
type ChatStrategy interface {
	CanHandle(intent string) bool
	Handle(ctx context.Context, chatCtx *chatdomain.ChatContext) (*domain.ChatResponse, error)
}

// ChatService orchestrates chat turns. The order of strategies matters:
// the first one that accepts the intent wins.
type ChatService struct {
	agent      chatport.AgentChatCaller
	strategies []ChatStrategy
	logger     *zap.Logger
}

func NewChatService(agent chatport.AgentChatCaller, strategies []ChatStrategy, logger *zap.Logger) *ChatService {
	return &ChatService{agent: agent, strategies: strategies, logger: logger}
}

// ProcessMessage handles one chat turn. A missing conversation id starts
// a new conversation.
func (s *ChatService) ProcessMessage(ctx context.Context, userID string, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.ProcessMessage")
	defer span.End()

	if strings.TrimSpace(req.Question) == "" {
		return nil, &domain.ErrValidation{Field: "question", Message: "Pergunta é obrigatória"}
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	intent := detectIntent(req.Question)
	s.logger.Info("chat message received",
		zap.String("user_id", userID),
		zap.String("intent", intent),
		zap.Int("question_length", len(req.Question)),
	)

	chatCtx := &chatdomain.ChatContext{
		UserID:         userID,
		ConversationID: conversationID,
		Question:       req.Question,
		DetectedIntent: intent,
	}

	for _, strategy := range s.strategies {
		if strategy.CanHandle(intent) {
			s.logger.Debug("delegating to strategy", zap.String("intent", intent))
			return strategy.Handle(ctx, chatCtx)
		}
	}

	return s.defaultHandle(ctx, chatCtx)
}

// defaultHandle forwards the question to the agent without enrichment.
func (s *ChatService) defaultHandle(ctx context.Context, chatCtx *chatdomain.ChatContext) (*domain.ChatResponse, error) {
	resp, err := s.agent.Chat(ctx, &domain.AgentChatRequest{
		ConversationID: chatCtx.ConversationID,
		UserID:         chatCtx.UserID,
		Question:       chatCtx.Question,
		Context:        chatdomain.IntentGeneral,
	})
	if err != nil {
		s.logger.Error("agent call failed",
			zap.String("user_id", chatCtx.UserID),
			zap.Error(err),
		)
		return nil, err
	}
	return &domain.ChatResponse{ConversationID: resp.ConversationID, Text: resp.Text}, nil
}

// detectIntent classifies the question by keywords. The agent could do
// this itself later; keywords keep the routing cheap for now.
func detectIntent(question string) string {
	lower := strings.ToLower(question)

	balanceKeywords := []string{"saldo", "extrato", "quanto tenho", "quanto sobrou", "minhas contas"}
	for _, kw := range balanceKeywords {
		if strings.Contains(lower, kw) {
			return chatdomain.IntentBalance
		}
	}

	billsKeywords := []string{"conta a pagar", "contas a pagar", "vencimento", "vencida", "boleto", "fatura"}
	for _, kw := range billsKeywords {
		if strings.Contains(lower, kw) {
			return chatdomain.IntentBills
		}
	}

	portfolioKeywords := []string{"investimento", "carteira", "rendimento", "ação", "acoes", "tesouro"}
	for _, kw := range portfolioKeywords {
		if strings.Contains(lower, kw) {
			return chatdomain.IntentPortfolio
		}
	}

	return chatdomain.IntentGeneral
}
