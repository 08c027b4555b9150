package ai

import (
	"errors"
	"strings"
)

// Provider error kinds. Handlers map these to distinct user-facing messages:
// rate limits get a "try again shortly", auth/config problems a generic
// "service unavailable" with no retry.
var (
	ErrRateLimited = errors.New("ai: rate limited")
	ErrAuth        = errors.New("ai: authentication failed")
)

// classifyError folds provider errors into the known kinds. The eino model
// components surface HTTP failures as wrapped text errors, so status sniffing
// is the only portable signal across openai/azure/ark.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limit"):
		return errors.Join(ErrRateLimited, err)
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "api key") || strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "invalid_api_key"):
		return errors.Join(ErrAuth, err)
	default:
		return err
	}
}
