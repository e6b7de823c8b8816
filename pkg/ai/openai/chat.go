package openai

import (
	"context"
	"strings"
	"time"

	"github.com/guwenlab/insight/pkg/ai"
	"github.com/guwenlab/insight/pkg/logger"

	"github.com/openai/openai-go/v3"
)

// Chat sends a single-turn prompt to the chat model and returns the generated
// completion as plain text.
//
// Chat never returns an error: transport failures, HTTP errors and blank
// completions all report ok=false, and the underlying cause is logged here.
// Callers branch on ok and fall back to their own heuristics.
func (c *ChatOpenAIClient) Chat(
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

	msgs := []openai.ChatCompletionMessageParamUnion{}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}
	if options.MaxTokens > 0 {
		body.MaxTokens = openai.Int(int64(options.MaxTokens))
	}

	start := time.Now()
	response, err := c.Client.Chat.Completions.New(ctx, body)
	if err != nil {
		logger.Warn("chat completion failed", "model", options.Model, "error", err)
		return "", false
	}
	duration := time.Since(start).Milliseconds()

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	})

	if len(response.Choices) == 0 {
		logger.Warn("chat completion returned no choices", "model", options.Model)
		return "", false
	}

	content := strings.TrimSpace(response.Choices[0].Message.Content)
	if content == "" {
		logger.Warn("chat completion returned blank content", "model", options.Model)
		return "", false
	}

	return content, true
}
