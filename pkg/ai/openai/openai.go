package openai

import (
	"sync"

	"github.com/guwenlab/insight/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ChatOpenAIClient is an ai.ChatClient backed by any OpenAI-compatible chat
// completion endpoint (OpenAI itself, SiliconFlow, DeepSeek gateways, ...).
//
// A ChatOpenAIClient should be created using NewChatOpenAIClient.
type ChatOpenAIClient struct {
	chatModel string
	chatURL   string
	chatKey   string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *openai.Client
}

// NewChatOpenAIClientParams defines the configuration parameters for creating
// a new ChatOpenAIClient.
//
// ChatModel specifies the default model used for completions.
// ChatURL and ChatKey configure the chat/completion API endpoint; an empty
// ChatURL uses the official OpenAI endpoint.
type NewChatOpenAIClientParams struct {
	ChatModel string
	ChatURL   string
	ChatKey   string
}

// NewChatOpenAIClient creates and returns a new ChatOpenAIClient configured
// with the provided parameters.
//
// Example:
//
//	client := openai.NewChatOpenAIClient(openai.NewChatOpenAIClientParams{
//		ChatModel: "deepseek-ai/DeepSeek-V3",
//		ChatURL:   "https://api.siliconflow.cn/v1",
//		ChatKey:   os.Getenv("CHAT_API_KEY"),
//	})
func NewChatOpenAIClient(params NewChatOpenAIClientParams) *ChatOpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(params.ChatKey),
	}
	if params.ChatURL != "" {
		opts = append(opts, option.WithBaseURL(params.ChatURL))
	}
	client := openai.NewClient(opts...)

	return &ChatOpenAIClient{
		chatModel: params.ChatModel,
		chatURL:   params.ChatURL,
		chatKey:   params.ChatKey,

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		Client: &client,
	}
}

// Metrics returns a snapshot of the cumulative token and latency counters.
func (c *ChatOpenAIClient) Metrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *ChatOpenAIClient) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}
