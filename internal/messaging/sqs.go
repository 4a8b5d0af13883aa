package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jrzesz33/topicqueue/internal/models"
)

// snsEnvelope is the notification wrapper SNS adds when raw delivery is disabled
type snsEnvelope struct {
	Type      string `json:"Type"`
	MessageID string `json:"MessageId"`
	TopicArn  string `json:"TopicArn"`
	Message   string `json:"Message"`
}

// UnwrapBody decodes an SQS record body delivered from SNS, with or without the
// notification envelope.
func UnwrapBody(raw string) (models.Body, error) {
	var envelope snsEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err == nil &&
		envelope.Type == "Notification" && envelope.TopicArn != "" {
		return models.ParseBody(envelope.Message)
	}
	return models.ParseBody(raw)
}

// RecordHandler processes one decoded record
type RecordHandler func(ctx context.Context, record events.SQSMessage, body models.Body) error

// SQSBatchProcessor processes SQS messages in batch
type SQSBatchProcessor struct {
	logger *slog.Logger
}

// NewSQSBatchProcessor creates a new SQS batch processor
func NewSQSBatchProcessor(logger *slog.Logger) *SQSBatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}

	return &SQSBatchProcessor{
		logger: logger,
	}
}

// ProcessBatch runs handler on every record. Records that fail to decode or
// process are reported as batch item failures so only they are redelivered.
func (p *SQSBatchProcessor) ProcessBatch(ctx context.Context, event events.SQSEvent, handler RecordHandler) events.SQSEventResponse {
	response := events.SQSEventResponse{
		BatchItemFailures: []events.SQSBatchItemFailure{},
	}

	for _, record := range event.Records {
		body, err := UnwrapBody(record.Body)
		if err == nil {
			err = handler(ctx, record, body)
		}

		if err != nil {
			p.logger.ErrorContext(ctx, "failed to process message",
				slog.String("sqs_message_id", record.MessageId),
				slog.String("error", err.Error()),
			)
			response.BatchItemFailures = append(response.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
			continue
		}

		p.logger.DebugContext(ctx, "successfully processed message",
			slog.String("sqs_message_id", record.MessageId),
			slog.Int("body_fields", len(body)),
		)
	}

	return response
}
