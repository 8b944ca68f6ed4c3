package domain

import (
	"encoding/json"
	"time"
)

// ============================================================
// AI assistant: chat, generated reports, balance prediction
// ============================================================

// ChatRequest is the payload for POST /chat.
type ChatRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	Question       string `json:"question"`
}

// ChatResponse is the assistant reply for one turn.
type ChatResponse struct {
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
}

// ReportGenerateRequest asks the agent to build a report from a free-form
// user question.
type ReportGenerateRequest struct {
	Question string `json:"userQuestion"`
}

// GeneratedReport is an AI-generated report persisted for later viewing.
// Data holds the chart/table payload as the agent produced it.
type GeneratedReport struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	Title        string          `json:"title"`
	DisplayType  string          `json:"displayType"` // table, bar, pie, line, text
	Data         json.RawMessage `json:"data"`
	UserQuestion string          `json:"userQuestion"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ============================================================
// Agent wire types (the external AI agent service)
// ============================================================

// AgentChatRequest is the payload sent to the agent's chat endpoint.
// Context hints the conversation topic; Snapshot carries a compact
// plain-text digest of the user's records for grounding.
type AgentChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id"`
	Question       string `json:"question"`
	Context        string `json:"context,omitempty"`
	Snapshot       string `json:"snapshot,omitempty"`
}

// AgentChatResponse is the agent's chat reply, with token usage.
type AgentChatResponse struct {
	ConversationID   string `json:"conversation_id"`
	Text             string `json:"text"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// AgentReportRequest asks the agent to build a report over the user's
// records.
type AgentReportRequest struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
}

// AgentReportResponse is the chart/table payload the agent produced.
type AgentReportResponse struct {
	Title            string          `json:"title"`
	DisplayType      string          `json:"display_type"`
	Data             json.RawMessage `json:"data"`
	PromptTokens     int             `json:"prompt_tokens"`
	CompletionTokens int             `json:"completion_tokens"`
}

// AgentForecastRequest carries the aggregates the agent needs to project
// a future balance.
type AgentForecastRequest struct {
	UserID         string  `json:"user_id"`
	CurrentBalance float64 `json:"current_balance"`
	MonthlyIncome  float64 `json:"monthly_income"`
	MonthlyExpense float64 `json:"monthly_expense"`
	PendingBills   float64 `json:"pending_bills"`
}

// AgentForecastResponse is the agent's balance projection.
type AgentForecastResponse struct {
	FutureBalance   float64 `json:"future_balance"`
	AnalysisSummary string  `json:"analysis_summary"`
	ForecastDate    string  `json:"forecast_date"` // ISO-8601
}

// AssistantUsage is an operational snapshot of assistant traffic and
// token consumption, served by GET /metrics/assistant.
type AssistantUsage struct {
	TotalRequests       int64   `json:"totalRequests"`
	ErrorRate           float64 `json:"errorRate"`
	PromptTokens        int64   `json:"promptTokens"`
	CompletionTokens    int64   `json:"completionTokens"`
	AvgTokensPerRequest float64 `json:"avgTokensPerRequest"`
	Period              string  `json:"period"`
}

// Forecast is a persisted balance prediction produced by the agent.
type Forecast struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	FutureBalance   float64   `json:"futureBalance"`
	AnalysisSummary string    `json:"analysisSummary"`
	ForecastDate    time.Time `json:"forecastDate"`
	CreatedAt       time.Time `json:"createdAt"`
}
