package escalation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog/log"

	"shopmate/internal/model"
	"shopmate/internal/pkg/cache"
	"shopmate/internal/pkg/mailer"
)

// Notifier emails the merchant's support team about escalated conversations.
// Dispatch is fire-and-forget: failures are logged and never reach the
// request path.
type Notifier struct {
	mailer *mailer.Mailer
	cache  *cache.RedisCache // optional, used for dedup
}

// NewNotifier creates a notifier. cache may be nil; dedup is then skipped.
func NewNotifier(m *mailer.Mailer, c *cache.RedisCache) *Notifier {
	return &Notifier{mailer: m, cache: c}
}

// Dispatch schedules the escalation notification in the background and
// returns immediately. The goroutine runs on a context detached from the
// request so a closed client connection cannot cancel an already-scheduled
// notification.
func (n *Notifier) Dispatch(ctx context.Context, store *model.Store, conv *model.Conversation, reason string) {
	detached := context.WithoutCancel(ctx)
	go func() {
		if err := n.send(detached, store, conv, reason); err != nil {
			log.Error().
				Err(err).
				Str("conversation_id", conv.ID.Hex()).
				Str("shop", store.Shop).
				Msg("failed to send escalation notification")
		}
	}()
}

func (n *Notifier) send(ctx context.Context, store *model.Store, conv *model.Conversation, reason string) error {
	to := store.Settings.NotificationEmail()
	if to == "" {
		log.Warn().Str("shop", store.Shop).Msg("no escalation email configured for store")
		return nil
	}

	if n.mailer == nil || !n.mailer.Configured() {
		log.Warn().Str("shop", store.Shop).Msg("SMTP not configured, skipping escalation notification")
		return nil
	}

	// One notification per conversation+reason. A racing duplicate turn
	// loses the SetNX and stays silent.
	if n.cache != nil {
		key := cache.EscalationDedupKey(conv.ID.Hex(), hashReason(reason))
		ok, err := n.cache.SetNX(ctx, key, 1, cache.EscalationDedupTTL)
		if err != nil {
			log.Warn().Err(err).Msg("escalation dedup check failed, sending anyway")
		} else if !ok {
			log.Debug().Str("conversation_id", conv.ID.Hex()).Msg("escalation notification already sent")
			return nil
		}
	}

	subject := fmt.Sprintf("[Shopmate] Escalation Required - %s", conv.ID.Hex())
	if err := n.mailer.Send(to, subject, buildNotificationBody(store, conv, reason)); err != nil {
		return err
	}

	log.Info().
		Str("conversation_id", conv.ID.Hex()).
		Str("support_email", to).
		Msg("escalation notification sent")
	return nil
}

func buildNotificationBody(store *model.Store, conv *model.Conversation, reason string) string {
	customer := conv.CustomerEmail
	if customer == "" {
		customer = "Unknown"
	}

	var transcript strings.Builder
	for i, m := range conv.Messages {
		if i > 0 {
			transcript.WriteString("\n\n")
		}
		transcript.WriteString(strings.ToUpper(m.Role))
		transcript.WriteString(": ")
		transcript.WriteString(m.Content)
	}

	var b strings.Builder
	b.WriteString("<h2>Conversation Escalation</h2>\n")
	fmt.Fprintf(&b, "<p><strong>Reason:</strong> %s</p>\n", html.EscapeString(reason))
	fmt.Fprintf(&b, "<p><strong>Store:</strong> %s</p>\n", html.EscapeString(store.Shop))
	fmt.Fprintf(&b, "<p><strong>Customer:</strong> %s</p>\n", html.EscapeString(customer))
	fmt.Fprintf(&b, "<p><strong>Conversation ID:</strong> %s</p>\n", conv.ID.Hex())
	fmt.Fprintf(&b, "<p><strong>Messages:</strong> %d</p>\n", conv.MessageCount)
	b.WriteString("<h3>Conversation Transcript:</h3>\n")
	fmt.Fprintf(&b, "<pre style=\"background: #f5f5f5; padding: 15px; border-radius: 5px;\">%s</pre>\n",
		html.EscapeString(transcript.String()))
	if conv.CustomerEmail != "" {
		fmt.Fprintf(&b, "<p>Please review this conversation and reach out to the customer at: %s</p>\n",
			html.EscapeString(conv.CustomerEmail))
	}
	return b.String()
}

func hashReason(reason string) string {
	sum := sha256.Sum256([]byte(reason))
	return hex.EncodeToString(sum[:8])
}

// HandoffMessage is the fixed sentence appended to the assistant reply when a
// conversation escalates.
func HandoffMessage(customerEmail string) string {
	at := ""
	if customerEmail != "" {
		at = fmt.Sprintf(" at %s", customerEmail)
	}
	return fmt.Sprintf("I understand this requires special attention from our team. "+
		"I've notified our support specialists about your issue, and they'll reach out to you%s within 24 hours. "+
		"Is there anything else I can help you with in the meantime?", at)
}
