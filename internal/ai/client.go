// Package ai is the LLM gateway: it owns the eino ChatModel and turns an
// assembled prompt plus history into one generated reply with token usage
// and latency accounting.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"shopmate/internal/ai/component"
	"shopmate/internal/config"
)

// Client wraps the provider ChatModel behind a bounded-timeout Generate.
type Client struct {
	cfg       *config.AIConfig
	chatModel model.ChatModel
}

// NewClient creates the AI client for the configured provider.
func NewClient(ctx context.Context, cfg *config.AIConfig) (*Client, error) {
	chatModel, err := component.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return &Client{
		cfg:       cfg,
		chatModel: chatModel,
	}, nil
}

// Result is one generated reply.
type Result struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	ResponseTime     time.Duration
}

// Generate sends the system prompt, formatted history and current user
// message to the provider. The call runs under the configured timeout
// (default 30s) so a hung provider cannot hold the request handler.
func (c *Client) Generate(ctx context.Context, systemPrompt string, history []*schema.Message, userMessage string) (*Result, error) {
	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	messages = append(messages, history...)
	messages = append(messages, schema.UserMessage(userMessage))

	start := time.Now()
	resp, err := c.chatModel.Generate(ctx, messages)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("LLM generate failed")
		return nil, classifyError(err)
	}

	result := &Result{
		Content:      resp.Content,
		Model:        c.cfg.Model,
		ResponseTime: elapsed,
	}
	if meta := resp.ResponseMeta; meta != nil && meta.Usage != nil {
		result.PromptTokens = meta.Usage.PromptTokens
		result.CompletionTokens = meta.Usage.CompletionTokens
	}

	log.Info().
		Dur("response_time", elapsed).
		Int("prompt_tokens", result.PromptTokens).
		Int("completion_tokens", result.CompletionTokens).
		Msg("LLM reply generated")

	return result, nil
}
