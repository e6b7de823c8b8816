package middleware

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/guwenlab/insight/internal/util"
	"github.com/guwenlab/insight/pkg/ai"
	oai "github.com/guwenlab/insight/pkg/ai/ollama"
	gai "github.com/guwenlab/insight/pkg/ai/openai"
	"github.com/guwenlab/insight/pkg/insight"
	"github.com/guwenlab/insight/pkg/logger"
	"github.com/guwenlab/insight/pkg/store"
)

type App struct {
	DBConn       *pgxpool.Pool
	Queue        *amqp091.Channel
	Storage      store.Storage
	Insight      *insight.Service
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}

// NewChatClientFromEnv selects the chat gateway by AI_ADAPTER: "ollama" for
// a local model endpoint, anything else for the OpenAI-compatible upstream.
func NewChatClientFromEnv() ai.ChatClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewChatOllamaClient(oai.NewChatOllamaClientParams{
			ChatModel: util.GetEnv("AI_CHAT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewChatOpenAIClient(gai.NewChatOpenAIClientParams{
			ChatModel: util.GetEnv("AI_CHAT_MODEL"),

			ChatURL: util.GetEnv("AI_CHAT_URL"),
			ChatKey: util.GetEnv("AI_CHAT_KEY"),
		})
	}
}
