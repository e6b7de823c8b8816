package ollama

import (
	"context"
	"strings"

	"github.com/guwenlab/insight/pkg/ai"
	"github.com/guwenlab/insight/pkg/logger"

	"github.com/ollama/ollama/api"
)

// Chat sends a single-turn prompt and returns assistant text.
//
// Like every ai.ChatClient, failures collapse into ok=false rather than an
// error; the cause is logged here. Requests hold a semaphore slot so a small
// local server is not flooded.
func (c *ChatOllamaClient) Chat(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, bool) {
	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.3,
	}
	for _, o := range opts {
		o(&options)
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		logger.Warn("chat request slot unavailable", "model", options.Model, "error", err)
		return "", false
	}
	defer c.reqLock.Release(1)

	msgs := []api.Message{}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}
	if options.MaxTokens > 0 {
		req.Options["num_predict"] = options.MaxTokens
	}

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		logger.Warn("chat completion failed", "model", options.Model, "error", err)
		return "", false
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	content := strings.TrimSpace(final.Message.Content)
	if content == "" {
		logger.Warn("chat completion returned blank content", "model", options.Model)
		return "", false
	}

	return content, true
}
