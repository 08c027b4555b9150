package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation statuses
const (
	StatusActive    = "active"
	StatusEscalated = "escalated"
	StatusResolved  = "resolved"
	StatusClosed    = "closed"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Conversation is one customer interaction thread. Messages are embedded;
// message_count is maintained atomically by the repository and always equals
// len(messages).
type Conversation struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StoreID          primitive.ObjectID `bson:"store_id" json:"store_id"`
	CustomerEmail    string             `bson:"customer_email,omitempty" json:"customer_email,omitempty"`
	CustomerName     string             `bson:"customer_name,omitempty" json:"customer_name,omitempty"`
	CustomerID       string             `bson:"customer_id,omitempty" json:"customer_id,omitempty"`
	Status           string             `bson:"status" json:"status"`
	Escalated        bool               `bson:"escalated" json:"escalated"`
	EscalationReason string             `bson:"escalation_reason,omitempty" json:"escalation_reason,omitempty"`
	Metadata         map[string]any     `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Messages         []Message          `bson:"messages" json:"messages"`
	MessageCount     int                `bson:"message_count" json:"message_count"`
	LastMessageAt    time.Time          `bson:"last_message_at" json:"last_message_at"`
	ResolvedAt       *time.Time         `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// UserMessages returns the user-role messages in order.
func (c *Conversation) UserMessages() []Message {
	if c == nil {
		return nil
	}
	var out []Message
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			out = append(out, m)
		}
	}
	return out
}

// Message is one turn in a conversation. Immutable once created. The system
// prompt is computed per turn and never stored as a message.
type Message struct {
	Role      string         `bson:"role" json:"role"`
	Content   string         `bson:"content" json:"content"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}

// Store is one installed merchant (tenant). Conversation count/limit are
// owned by billing and read-only here.
type Store struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Shop              string             `bson:"shop" json:"shop"`
	StoreName         string             `bson:"store_name" json:"store_name"`
	AccessToken       string             `bson:"access_token" json:"-"`
	IsActive          bool               `bson:"is_active" json:"is_active"`
	ConversationCount int                `bson:"conversation_count" json:"conversation_count"`
	ConversationLimit int                `bson:"conversation_limit" json:"conversation_limit"`
	Settings          StoreSettings      `bson:"settings" json:"settings"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}

// OverLimit reports whether the store has used up its conversation quota.
// A zero limit means unlimited.
func (s *Store) OverLimit() bool {
	return s.ConversationLimit > 0 && s.ConversationCount >= s.ConversationLimit
}
