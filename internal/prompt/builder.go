// Package prompt assembles the per-turn system prompt from merchant
// configuration and fetched commerce context. Everything here is a pure
// function of its inputs: the same store, order and product data always
// produce byte-identical output.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"shopmate/internal/escalation"
	"shopmate/internal/intent"
	"shopmate/internal/model"
	"shopmate/internal/pkg/shopify"
)

const productDescriptionLimit = 200

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

var personalityClauses = map[string]string{
	model.PersonalityFriendly:     "Be warm and conversational. Use a casual tone and the occasional emoji (1-2 per response) to seem approachable.",
	model.PersonalityProfessional: "Be polite, formal and precise. Avoid emojis and casual language. Be respectful and thorough.",
	model.PersonalityEfficient:    "Be direct and solution-focused. Get to the point quickly with minimal small talk.",
	model.PersonalityEmpathetic:   "Be understanding and patient. Show empathy and validate customer feelings before solving problems.",
}

var intentInstructions = map[string]string{
	intent.IntentOrderTracking: `FOCUS: Order status and tracking
- Provide clear, specific information about order location and estimated delivery
- If a tracking number is available, mention it explicitly
- Explain what the current status means in simple terms`,

	intent.IntentReturnRefund: `FOCUS: Returns and refunds
- Explain the return policy clearly and give step-by-step instructions for initiating a return
- ESCALATE if the customer is requesting a refund directly (never process refunds yourself)`,

	intent.IntentProductInquiry: `FOCUS: Product information
- Provide accurate details about products, highlight key features and mention pricing clearly
- Suggest related products if relevant`,

	intent.IntentShipping: `FOCUS: Shipping and delivery
- Explain shipping options, costs and estimated delivery timeframes per store policy`,

	intent.IntentPayment: `FOCUS: Payment and billing
- ESCALATE immediately for billing disputes or unauthorized charges
- For general payment questions, explain available payment methods`,

	intent.IntentAccount: `FOCUS: Account issues
- ESCALATE for password resets and account access issues
- Never ask for passwords or sensitive information`,
}

// Build assembles the system prompt for one turn. order and products are
// optional; nil/empty means the corresponding context block is omitted.
func Build(store *model.Store, order *shopify.Order, products []shopify.Product) string {
	settings := store.Settings

	storeName := store.StoreName
	if storeName == "" {
		storeName = "this store"
	}

	personality := settings.BotPersonality
	if _, ok := personalityClauses[personality]; !ok {
		personality = model.PersonalityFriendly
	}

	returnPolicy := settings.ReturnPolicy
	if returnPolicy == "" {
		returnPolicy = "Please contact support for return information."
	}
	shippingPolicy := settings.ShippingPolicy
	if shippingPolicy == "" {
		shippingPolicy = "Please contact support for shipping information."
	}
	supportEmail := settings.SupportEmail
	if supportEmail == "" {
		supportEmail = "our support team"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "You are a helpful customer support agent for %s.\n\n", storeName)
	fmt.Fprintf(&b, "PERSONALITY: %s - %s\n\n", personality, personalityClauses[personality])

	b.WriteString("STORE POLICIES:\n")
	fmt.Fprintf(&b, "- Return Policy: %s\n", returnPolicy)
	fmt.Fprintf(&b, "- Shipping Policy: %s\n", shippingPolicy)
	fmt.Fprintf(&b, "- Support Email: %s\n\n", supportEmail)

	b.WriteString(`INSTRUCTIONS:
- Be helpful, empathetic, and solution-oriented
- Keep responses concise (2-4 sentences unless a detailed explanation is needed)
- If you don't have specific information, be honest and offer to escalate
- Never make up order information - only use data provided to you
- Use emojis sparingly (max 1-2 per response) and only when appropriate

`)

	// The escalation instructions enumerate the same categories the
	// escalation engine matches on; both render from one catalog.
	b.WriteString("ESCALATION TRIGGERS (always offer to connect the customer with human support when):\n")
	for _, desc := range escalation.Descriptions() {
		fmt.Fprintf(&b, "- %s\n", desc)
	}
	b.WriteString("\nWhen you need to escalate, respond with: \"I understand this requires special attention. " +
		"Let me connect you with our support team who can better assist you.\"")

	if order != nil {
		writeOrderBlock(&b, order)
	}

	if len(products) > 0 {
		writeProductBlock(&b, products)
	}

	return b.String()
}

// BuildWithIntent appends the intent-specific focus instructions to the base
// prompt when the extractor classified the message.
func BuildWithIntent(store *model.Store, detectedIntent string, order *shopify.Order, products []shopify.Product) string {
	base := Build(store, order, products)
	instructions, ok := intentInstructions[detectedIntent]
	if !ok {
		return base
	}
	return base + "\n\n" + instructions
}

func writeOrderBlock(b *strings.Builder, order *shopify.Order) {
	b.WriteString("\n\nCURRENT ORDER INFORMATION:\n")
	fmt.Fprintf(b, "- Order Number: %s\n", strings.TrimPrefix(order.Name, "#"))
	fmt.Fprintf(b, "- Order Date: %s\n", formatOrderDate(order.CreatedAt))

	fulfillment := order.FulfillmentStatus
	if fulfillment == "" {
		fulfillment = "Unfulfilled"
	}
	fmt.Fprintf(b, "- Status: %s / %s\n", order.FinancialStatus, fulfillment)
	fmt.Fprintf(b, "- Total: %s %s\n", order.Currency, order.TotalPrice)

	items := make([]string, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, fmt.Sprintf("%dx %s", item.Quantity, item.Name))
	}
	fmt.Fprintf(b, "- Items: %s", strings.Join(items, ", "))

	if len(order.Fulfillments) > 0 {
		shipment := order.Fulfillments[0]
		fmt.Fprintf(b, "\n- Shipping Status: %s", shipment.Status)
		if shipment.TrackingNumber != "" {
			fmt.Fprintf(b, "\n- Tracking Number: %s", shipment.TrackingNumber)
			if shipment.TrackingURL != "" {
				fmt.Fprintf(b, "\n- Track Package: %s", shipment.TrackingURL)
			}
		}
	} else {
		b.WriteString("\n- Shipping: Order is being prepared for shipment")
	}
}

func writeProductBlock(b *strings.Builder, products []shopify.Product) {
	b.WriteString("\n\nRELEVANT PRODUCTS:")
	for _, p := range products {
		fmt.Fprintf(b, "\n- %s: %s", p.Title, truncateDescription(p.BodyHTML))
		if len(p.Variants) > 0 {
			fmt.Fprintf(b, " (Price: %s)", p.Variants[0].Price)
		}
	}
}

// formatOrderDate renders the Shopify timestamp as a plain date; the raw
// value passes through when it does not parse.
func formatOrderDate(createdAt string) string {
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return createdAt
	}
	return t.Format("January 2, 2006")
}

func truncateDescription(bodyHTML string) string {
	text := strings.TrimSpace(htmlTagPattern.ReplaceAllString(bodyHTML, ""))
	if len(text) > productDescriptionLimit {
		return text[:productDescriptionLimit]
	}
	return text
}

// FormatHistory maps stored messages 1:1 onto LLM messages, preserving
// order. Assistant messages pass through; any other stored role is sent as
// user.
func FormatHistory(messages []model.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == model.RoleAssistant {
			out = append(out, schema.AssistantMessage(m.Content, nil))
			continue
		}
		out = append(out, schema.UserMessage(m.Content))
	}
	return out
}

// Greeting builds the widget welcome message for a store, personalized with
// the customer's name when known.
func Greeting(store *model.Store, customerName string) string {
	if welcome := store.Settings.WelcomeMessage; welcome != "" {
		if customerName != "" {
			return strings.ReplaceAll(welcome, "Hi!", fmt.Sprintf("Hi %s!", customerName))
		}
		return welcome
	}

	greeting := "Hi there!"
	if customerName != "" {
		greeting = fmt.Sprintf("Hi %s!", customerName)
	}
	storeName := store.StoreName
	if storeName == "" {
		storeName = "our store"
	}
	return fmt.Sprintf("%s 👋 Welcome to %s. I'm here to help with any questions about orders, returns, or products. How can I assist you today?", greeting, storeName)
}
