// Package escalation decides when a conversation must be handed off to a
// human and notifies the merchant's support team when it is.
package escalation

import (
	"strings"

	"github.com/rs/zerolog/log"

	"shopmate/internal/model"
)

// Contextual score weights and threshold.
const (
	scoreThreshold = 40

	weightLongConversation  = 20
	weightRepeatedQuestions = 30
	weightNegativeSentiment = 25
	weightUrgency           = 15

	longConversationMessages = 8
	similarityThreshold      = 0.7
)

// DefaultReason is stored when escalation fired without a specific
// contextual reason (trigger-phrase only).
const DefaultReason = "User request or sensitive topic"

var negativeKeywords = []string{
	"disappointed", "frustrated", "angry", "upset", "horrible",
	"terrible", "worst", "useless", "waste", "scam",
}

var urgencyKeywords = []string{"urgent", "asap", "immediately", "emergency", "now"}

// Decision is the per-turn escalation verdict. Ephemeral: only the boolean
// outcome and the joined reason text are persisted onto the conversation.
type Decision struct {
	ShouldEscalate bool
	Score          int
	Reasons        []string
}

// Reason joins the collected reasons for storage, falling back to
// DefaultReason when escalation fired without specific reasons.
func (d Decision) Reason() string {
	if len(d.Reasons) == 0 {
		return DefaultReason
	}
	return strings.Join(d.Reasons, "; ")
}

// Engine evaluates escalation per turn. Stateless; safe for concurrent use.
type Engine struct{}

// NewEngine creates an escalation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate combines two independent signals with OR semantics: a fixed
// trigger-phrase scan over the user message and the generated reply, and a
// weighted contextual score over the conversation. It never fails: malformed
// input degrades to "do not escalate" so a broken heuristic cannot block
// normal chat.
func (e *Engine) Evaluate(userMessage, generatedReply string, conv *model.Conversation) Decision {
	decision := e.scoreContext(userMessage, conv)

	if label := matchCategory(userMessage + " " + generatedReply); label != "" {
		log.Info().
			Str("category", label).
			Str("message", truncate(userMessage, 100)).
			Msg("escalation trigger detected")
		decision.ShouldEscalate = true
		decision.Reasons = append(decision.Reasons, label)
	}

	return decision
}

// scoreContext computes Signal B: additive weights from conversation length,
// question repetition, sentiment and urgency.
func (e *Engine) scoreContext(newMessage string, conv *model.Conversation) Decision {
	var d Decision

	if conv == nil {
		log.Warn().Msg("escalation evaluated without conversation context")
	} else {
		if conv.MessageCount > longConversationMessages {
			d.Score += weightLongConversation
			d.Reasons = append(d.Reasons, "Long conversation (8+ messages)")
		}

		if hasRepeatedQuestions(conv.UserMessages()) {
			d.Score += weightRepeatedQuestions
			d.Reasons = append(d.Reasons, "Customer repeating similar questions")
		}
	}

	lower := strings.ToLower(newMessage)

	if containsAny(lower, negativeKeywords) {
		d.Score += weightNegativeSentiment
		d.Reasons = append(d.Reasons, "Negative sentiment detected")
	}

	if containsAny(lower, urgencyKeywords) {
		d.Score += weightUrgency
		d.Reasons = append(d.Reasons, "Urgent request")
	}

	d.ShouldEscalate = d.Score >= scoreThreshold
	return d
}

// hasRepeatedQuestions reports whether any pair among the last three user
// messages exceeds the Jaccard similarity threshold.
func hasRepeatedQuestions(userMessages []model.Message) bool {
	if len(userMessages) < 3 {
		return false
	}
	last := userMessages[len(userMessages)-3:]
	for i := 1; i < len(last); i++ {
		for j := 0; j < i; j++ {
			if jaccard(strings.ToLower(last[i].Content), strings.ToLower(last[j].Content)) > similarityThreshold {
				return true
			}
		}
	}
	return false
}

// jaccard computes word-set similarity: |intersection| / |union| over
// whitespace-tokenized words.
func jaccard(a, b string) float64 {
	wordsA := toSet(strings.Fields(a))
	wordsB := toSet(strings.Fields(b))
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
