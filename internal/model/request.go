package model

import "errors"

// ErrInvalidPersonality is returned for unknown bot personality values.
var ErrInvalidPersonality = errors.New("invalid bot personality")

// ChatRequest is the inbound widget message.
type ChatRequest struct {
	Message        string `json:"message" binding:"required,min=1,max=1000"`
	ConversationID string `json:"conversation_id,omitempty"`
	Shop           string `json:"shop" binding:"required"`
	CustomerEmail  string `json:"customer_email,omitempty" binding:"omitempty,email"`
	CustomerName   string `json:"customer_name,omitempty" binding:"omitempty,max=100"`
}

// Customer identifies the storefront visitor attached to a conversation.
type Customer struct {
	Email string
	Name  string
	ID    string
}
