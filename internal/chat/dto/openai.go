package dto

// ChatCompletionRequest is the request body of an OpenAI-compatible chat completions API.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatCompletionChunk is one streamed data line of an OpenAI-compatible chat completions API.
type ChatCompletionChunk struct {
	ID      string `json:"id"`
	Choices []struct {
		Index int `json:"index"`
		Delta struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content,omitempty"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *ChatCompletionError `json:"error,omitempty"`
}

// ChatCompletionError is an error object sent in-band on an already accepted stream (Groq, OpenRouter).
type ChatCompletionError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}
