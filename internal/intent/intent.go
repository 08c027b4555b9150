// Package intent classifies inbound customer messages and extracts entities
// (order numbers, product queries) with plain pattern matching. Everything in
// this package is pure and total: no I/O, no state, never panics on arbitrary
// input.
package intent

import (
	"regexp"
	"strings"
)

// Intents, in ladder priority order.
const (
	IntentOrderTracking  = "order_tracking"
	IntentReturnRefund   = "return_refund"
	IntentProductInquiry = "product_inquiry"
	IntentShipping       = "shipping"
	IntentPayment        = "payment"
	IntentAccount        = "account"
	IntentGeneral        = "general"
)

// Extraction is the result of analysing one message.
type Extraction struct {
	Intent       string
	OrderNumber  string
	ProductQuery string
}

// Order numbers are 4-10 digits; anything shorter is likely a quantity,
// anything longer a phone number or tracking barcode.
const (
	minOrderDigits = 4
	maxOrderDigits = 10
)

// Ordered by confidence: an explicit "#" or "order" prefix beats a bare
// digit run. First match wins.
var orderNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`#(\d{4,})`),
	regexp.MustCompile(`(?i)order\s*#?(\d{4,})`),
	regexp.MustCompile(`(?i)order\s+is\s+#?(\d{4,})`),
	regexp.MustCompile(`(?i)tracking\s*#?(\d{4,})`),
	regexp.MustCompile(`\b(\d{4,})\b`),
}

var productQueryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:about|looking for|interested in|want|need)\s+(?:the\s+)?([a-zA-Z0-9\s-]+?)(?:\?|$|\.)`),
	regexp.MustCompile(`(?i)(?:do you have|sell|carry)\s+([a-zA-Z0-9\s-]+?)(?:\?|$|\.)`),
	regexp.MustCompile(`(?i)tell me about\s+([a-zA-Z0-9\s-]+?)(?:\?|$|\.)`),
}

var orderInquiryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)where.*order`),
	regexp.MustCompile(`(?i)order.*status`),
	regexp.MustCompile(`(?i)track.*order`),
	regexp.MustCompile(`(?i)when.*arrive`),
	regexp.MustCompile(`(?i)when.*ship`),
	regexp.MustCompile(`(?i)delivery.*status`),
	regexp.MustCompile(`(?i)tracking.*number`),
	regexp.MustCompile(`(?i)hasn't.*arrived`),
	regexp.MustCompile(`(?i)still.*waiting`),
	regexp.MustCompile(`(?i)order.*update`),
}

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// intentRule pairs a predicate with an intent label. The ladder is evaluated
// top to bottom; the first matching rule decides.
type intentRule struct {
	label string
	match func(msg string) bool
}

var intentLadder = []intentRule{
	{IntentOrderTracking, func(m string) bool {
		return IsOrderInquiry(m) || ExtractOrderNumber(m) != ""
	}},
	{IntentReturnRefund, matchAny(`(?i)return|refund|send back|give back`)},
	{IntentProductInquiry, matchAny(`(?i)tell me about|information about|details about|do you have|do you sell`)},
	{IntentShipping, matchAny(`(?i)shipping|delivery|how long|when.*arrive|shipping cost`)},
	{IntentPayment, matchAny(`(?i)payment|billing|charge|credit card|pay`)},
	{IntentAccount, matchAny(`(?i)account|login|password|sign in|reset`)},
}

func matchAny(pattern string) func(string) bool {
	re := regexp.MustCompile(pattern)
	return re.MatchString
}

// Extract analyses a raw customer message.
func Extract(message string) Extraction {
	return Extraction{
		Intent:       ClassifyIntent(message),
		OrderNumber:  ExtractOrderNumber(message),
		ProductQuery: ExtractProductQuery(message),
	}
}

// ClassifyIntent walks the ladder and returns the first matching intent,
// defaulting to IntentGeneral.
func ClassifyIntent(message string) string {
	if message == "" {
		return IntentGeneral
	}
	for _, rule := range intentLadder {
		if rule.match(message) {
			return rule.label
		}
	}
	return IntentGeneral
}

// ExtractOrderNumber returns the first plausible order number in the message,
// or "" if none. Candidates outside 4-10 digits are discarded to keep phone
// numbers and dates out.
func ExtractOrderNumber(message string) string {
	if message == "" {
		return ""
	}
	for _, pattern := range orderNumberPatterns {
		m := pattern.FindStringSubmatch(message)
		if len(m) < 2 {
			continue
		}
		n := m[1]
		if len(n) >= minOrderDigits && len(n) <= maxOrderDigits {
			return n
		}
	}
	return ""
}

// ExtractAllOrderNumbers returns every distinct order number referenced with
// an explicit "#" or "order" prefix, in first-seen order.
func ExtractAllOrderNumbers(message string) []string {
	if message == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	explicit := []*regexp.Regexp{
		regexp.MustCompile(`#(\d{4,10})`),
		regexp.MustCompile(`(?i)order\s*#?(\d{4,10})`),
	}
	for _, pattern := range explicit {
		for _, m := range pattern.FindAllStringSubmatch(message, -1) {
			if len(m) < 2 || seen[m[1]] {
				continue
			}
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// ExtractProductQuery returns the product phrase the customer is asking
// about, or "" if none matched.
func ExtractProductQuery(message string) string {
	if message == "" {
		return ""
	}
	for _, pattern := range productQueryPatterns {
		m := pattern.FindStringSubmatch(message)
		if len(m) >= 2 {
			if q := strings.TrimSpace(m[1]); q != "" {
				return q
			}
		}
	}
	return ""
}

// ExtractEmail returns the first email address in the message, or "".
func ExtractEmail(message string) string {
	return emailPattern.FindString(message)
}

// IsOrderInquiry reports whether the message reads like an order-status
// question, independent of whether an order number is present.
func IsOrderInquiry(message string) bool {
	if message == "" {
		return false
	}
	for _, pattern := range orderInquiryPatterns {
		if pattern.MatchString(message) {
			return true
		}
	}
	return false
}
