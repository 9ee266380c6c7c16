package dto

const (
	StreamEventMetadata = "metadata"
	StreamEventContent  = "content"
)

// StreamEvent is one newline-delimited JSON object of the chat stream.
// Exactly one of Data or Text is set, according to Type.
type StreamEvent struct {
	Type string           `json:"type"`
	Data *AnalysisSummary `json:"data,omitempty"`
	Text string           `json:"text,omitempty"`
}

// MetadataEvent wraps a summary as the leading stream event.
func MetadataEvent(summary *AnalysisSummary) StreamEvent {
	return StreamEvent{Type: StreamEventMetadata, Data: summary}
}

// ContentEvent wraps a text delta.
func ContentEvent(text string) StreamEvent {
	return StreamEvent{Type: StreamEventContent, Text: text}
}

const (
	SentimentBullish = "bullish"
	SentimentBearish = "bearish"
	SentimentNeutral = "neutral"
)

// AnalysisSummary is a structured annotation attached to elevated-mode answers.
type AnalysisSummary struct {
	Sentiment     string   `json:"sentiment"`
	ImpactScore   int      `json:"impactScore"`
	Confidence    float64  `json:"confidence"`
	Symbol        string   `json:"symbol"`
	Symbols       []string `json:"symbols"`
	Sectors       []string `json:"sectors"`
	Risks         []string `json:"risks"`
	Opportunities []string `json:"opportunities"`
	Prediction    string   `json:"prediction"`
}
