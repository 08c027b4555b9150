package model

// ChatResponse is the widget-facing reply.
type ChatResponse struct {
	Reply           string        `json:"reply"`
	ConversationID  string        `json:"conversation_id"`
	NeedsEscalation bool          `json:"needs_escalation"`
	Metadata        *ChatMetadata `json:"metadata,omitempty"`
}

// ChatMetadata carries per-turn diagnostics back to the widget.
type ChatMetadata struct {
	Intent         string        `json:"intent,omitempty"`
	OrderData      *OrderSummary `json:"order_data,omitempty"`
	ResponseTimeMs int64         `json:"response_time_ms"`
	Usage          *TokenUsage   `json:"usage,omitempty"`
}

// OrderSummary is the subset of order data exposed to the widget.
type OrderSummary struct {
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	Total       string `json:"total"`
}

// TokenUsage token accounting for one LLM call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorResponse is the shared error envelope.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
