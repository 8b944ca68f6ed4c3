// Package handler exposes the chat endpoint.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	chatservice "github.com/meorganiza/meorganiza-api/internal/chat/service"
	"github.com/meorganiza/meorganiza-api/internal/domain"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var chatHandlerTracer = otel.Tracer("chat/handler")

// ChatHandler serves POST /chat.
type ChatHandler struct {
	service *chatservice.ChatService
	logger  *zap.Logger
}

func NewChatHandler(service *chatservice.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{service: service, logger: logger}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx, span := chatHandlerTracer.Start(r.Context(), "POST /chat")
	defer span.End()

	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	resp, err := h.service.ProcessMessage(ctx, domain.UserIDFromContext(ctx), &req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode chat response", zap.Error(err))
	}
}

func (h *ChatHandler) respondError(w http.ResponseWriter, err error) {
	var (
		validation *domain.ErrValidation
		circuit    *domain.ErrCircuitOpen
		timeout    *domain.ErrTimeout
		external   *domain.ErrExternalService
	)
	switch {
	case errors.As(err, &validation):
		h.writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &circuit):
		h.writeError(w, http.StatusServiceUnavailable, "Assistente temporariamente indisponível")
	case errors.As(err, &timeout):
		h.writeError(w, http.StatusGatewayTimeout, "O assistente demorou demais para responder")
	case errors.As(err, &external):
		h.writeError(w, http.StatusBadGateway, "Falha ao consultar o assistente")
	default:
		h.logger.Error("unexpected chat error", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Erro interno")
	}
}

func (h *ChatHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
