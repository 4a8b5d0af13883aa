package main

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jrzesz33/topicqueue/internal/logging"
	"github.com/jrzesz33/topicqueue/internal/messaging"
	"github.com/jrzesz33/topicqueue/internal/models"
	appconfig "github.com/jrzesz33/topicqueue/pkg/config"
)

// QueueHandler consumes the queue fed by the topic and records each message it handles
type QueueHandler struct {
	config         *appconfig.Config
	batchProcessor *messaging.SQSBatchProcessor
	logger         *slog.Logger
}

// NewQueueHandler creates a new queue handler instance
func NewQueueHandler(cfg *appconfig.Config, logger *slog.Logger) *QueueHandler {
	return &QueueHandler{
		config:         cfg,
		batchProcessor: messaging.NewSQSBatchProcessor(logger),
		logger:         logger,
	}
}

// HandleEvent processes SQS events. Records that fail are reported back as batch item
// failures so only they are redelivered.
func (h *QueueHandler) HandleEvent(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	h.logger.DebugContext(ctx, "processing SQS batch",
		slog.Int("record_count", len(event.Records)),
		slog.String("stage", h.config.Stage.String()),
	)

	response := h.batchProcessor.ProcessBatch(ctx, event, h.handleRecord)

	if len(response.BatchItemFailures) > 0 {
		h.logger.WarnContext(ctx, "batch completed with failures",
			slog.Int("total_records", len(event.Records)),
			slog.Int("failed_records", len(response.BatchItemFailures)),
		)
	}

	return response, nil
}

func (h *QueueHandler) handleRecord(ctx context.Context, record events.SQSMessage, body models.Body) error {
	// the verifier searches for this message, so it must stay the log line's msg
	h.logger.InfoContext(ctx, models.HandledMarker,
		slog.String("sqs_message_id", record.MessageId),
		slog.String("event_source_arn", record.EventSourceARN),
		slog.Any("body", body),
	)
	return nil
}

func main() {
	logger := logging.New(nil)
	slog.SetDefault(logger)

	cfg := appconfig.MustLoad("")

	logger.Info("queue handler lambda starting",
		slog.String("stage", cfg.Stage.String()),
		slog.String("region", cfg.AWSRegion),
	)

	handler := NewQueueHandler(cfg, logger)

	lambda.Start(handler.HandleEvent)
}
