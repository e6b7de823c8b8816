package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"

	"github.com/guwenlab/insight/pkg/insight"
	"github.com/guwenlab/insight/pkg/leaselock"
	"github.com/guwenlab/insight/pkg/logger"
)

// AnalysisJobMsg is the payload of one queued full-analysis run.
type AnalysisJobMsg struct {
	Message    string `json:"message"`
	DocumentID int64  `json:"document_id"`
	Model      string `json:"model,omitempty"`
}

// PublishAnalysisJob enqueues a full-analysis run for the worker.
func PublishAnalysisJob(ch *amqp091.Channel, documentID int64, model string) error {
	msg := AnalysisJobMsg{
		Message:    "Queued full analysis",
		DocumentID: documentID,
		Model:      model,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return PublishFIFO(ch, AnalysisQueue, body)
}

// ProcessAnalysisMessage runs one queued analysis under a per-document lease,
// so concurrent deliveries for the same document never write interleaved
// entity sets.
func ProcessAnalysisMessage(
	ctx context.Context,
	svc *insight.Service,
	pool *pgxpool.Pool,
	msg string,
) error {
	data := new(AnalysisJobMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	if data.DocumentID <= 0 {
		return fmt.Errorf("analysis job missing document id")
	}

	locker := leaselock.New(pool)
	return locker.WithDocumentLease(ctx, data.DocumentID, leaselock.Options{
		TTL:          5 * time.Minute,
		Wait:         true,
		WaitInterval: time.Second,
		WaitJitter:   500 * time.Millisecond,
	}, func(ctx context.Context) error {
		analysis, err := svc.RunFullAnalysis(ctx, data.DocumentID, data.Model)
		if err != nil {
			return fmt.Errorf("full analysis for document %d: %w", data.DocumentID, err)
		}
		logger.Info("[Queue] Analysis complete",
			"document_id", data.DocumentID,
			"category", analysis.Classification.Category,
			"entities", analysis.Annotation.CreatedEntities,
			"relations", analysis.Annotation.CreatedRelations,
		)
		return nil
	})
}
