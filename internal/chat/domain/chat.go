// Package domain holds the types internal to the chat module.
//
// The chat flow: the handler receives POST /chat, the service detects the
// intent of the question, a strategy enriches the agent request with a
// snapshot of the user's records when the topic calls for it, and the
// agent's answer comes back as a plain ChatResponse.
package domain

// Intents detected from the user's question. A strategy registers for
// one or more of these; anything unmatched falls through as general.
const (
	IntentBalance   = "balance"
	IntentBills     = "bills"
	IntentPortfolio = "portfolio"
	IntentGeneral   = "general"
)

// ChatContext carries everything a strategy needs to process one turn.
// It is assembled by the ChatService before delegating.
type ChatContext struct {
	UserID         string
	ConversationID string
	Question       string
	DetectedIntent string
}
