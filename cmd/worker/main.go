package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guwenlab/insight/internal/queue"
	mid "github.com/guwenlab/insight/internal/server/middleware"
	"github.com/guwenlab/insight/internal/util"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"github.com/guwenlab/insight/pkg/ai"
	"github.com/guwenlab/insight/pkg/geo"
	"github.com/guwenlab/insight/pkg/insight"
	"github.com/guwenlab/insight/pkg/logger"
	"github.com/guwenlab/insight/pkg/logger/console"
	storepgx "github.com/guwenlab/insight/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	chatClient := mid.NewChatClientFromEnv()

	// Init pgx client
	pgConn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	svc := insight.NewService(insight.NewServiceParams{
		Storage: storepgx.NewDBStorageWithConnection(pgConn),
		Chat:    chatClient,
		Geocoder: geo.NewTencentClient(geo.NewTencentClientParams{
			Key:       util.GetEnv("TENCENT_MAP_KEY"),
			SecretKey: util.GetEnv("TENCENT_MAP_SECRET_KEY"),
		}),
		DefaultModel: util.GetEnv("AI_CHAT_MODEL"),
		MaxWorkers:   int(util.GetEnvNumeric("ANALYSIS_MAX_WORKERS", 8)),
	})

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.AnalysisQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// One message at a time; a full analysis saturates the model budget on
	// its own.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.AnalysisQueue,
		queue.AnalysisQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.AnalysisQueue, "err", err)
	}

	logger.Info("Listening for messages")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				logger.Info("Stopping message processor")
				return nil
			case msg, ok := <-msgs:
				if !ok {
					logger.Info("Message channel closed")
					return nil
				}
				handleMessage(gctx, svc, pgConn, consumerCh, msg, chatClient)
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "err", err)
	}
	logger.Info("Shutdown signal received, exiting...")
}

func handleMessage(
	ctx context.Context,
	svc *insight.Service,
	pgConn *pgxpool.Pool,
	ch *amqp.Channel,
	msg amqp.Delivery,
	chatClient ai.ChatClient,
) {
	startTime := time.Now()
	logger.Info("Received message", "queue", queue.AnalysisQueue)

	processingErr := queue.ProcessAnalysisMessage(ctx, svc, pgConn, string(msg.Body))

	// If there was an error send to retry or dead-letter, otherwise ack
	if processingErr != nil {
		logger.Error("Error processing message", "queue", queue.AnalysisQueue, "err", processingErr)
		queue.HandleProcessingError(ch, msg, queue.AnalysisQueue)
	} else {
		if err := msg.Ack(false); err != nil {
			logger.Error("Failed to ack message", "err", err)
		}
		logger.Info("Message processed successfully", "queue", queue.AnalysisQueue)
	}

	metrics := chatClient.Metrics()
	aiDuration := time.Duration(metrics.DurationMs) * time.Millisecond
	logger.Info(
		"AI Metrics",
		"input_tokens", metrics.InputTokens,
		"output_tokens", metrics.OutputTokens,
		"total_tokens", metrics.TotalTokens,
		"duration", formatDuration(aiDuration),
	)

	logger.Info("Processing time", "duration", formatDuration(time.Since(startTime)))
	logger.Info("Waiting for next message")
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
