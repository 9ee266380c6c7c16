package dto

import "time"

// PriorTurn is one earlier message of the conversation supplied by the client.
type PriorTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message    string      `json:"message"`
	Mode       string      `json:"mode"`
	Portfolio  []string    `json:"portfolio,omitempty"`
	SessionID  string      `json:"sessionId,omitempty"`
	PriorTurns []PriorTurn `json:"priorTurns,omitempty"`
}

// ChatMessage is one message sent to the completion provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Exchange is one completed user/assistant pair to persist.
type Exchange struct {
	SessionID     string           `json:"sessionId"`
	Identity      string           `json:"identity,omitempty"`
	Mode          string           `json:"mode"`
	UserText      string           `json:"userText"`
	AssistantText string           `json:"assistantText"`
	Symbols       []string         `json:"symbols,omitempty"`
	Analysis      *AnalysisSummary `json:"analysis,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// ChatCompleteResponse is the body returned by the non-streaming chat endpoint.
type ChatCompleteResponse struct {
	SessionID string           `json:"sessionId"`
	Response  string           `json:"response"`
	Analysis  *AnalysisSummary `json:"analysis,omitempty"`
}

// ChatHistoryMessage is one persisted turn returned by the history endpoint.
type ChatHistoryMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Mode      string    `json:"mode"`
	Symbols   []string  `json:"symbols,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
