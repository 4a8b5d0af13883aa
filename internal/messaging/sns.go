package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/jrzesz33/topicqueue/internal/models"
)

// SNSAPI is the subset of the SNS client used for publishing
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher defines the interface for publishing bodies to a topic
type SNSPublisher interface {
	PublishBody(ctx context.Context, topicArn string, body models.Body) (string, error)
}

// SNSClient implements SNSPublisher using AWS SNS
type SNSClient struct {
	client SNSAPI
	logger *slog.Logger
}

// NewSNSClient creates a new SNS client instance
func NewSNSClient(client SNSAPI, logger *slog.Logger) *SNSClient {
	if logger == nil {
		logger = slog.Default()
	}

	return &SNSClient{
		client: client,
		logger: logger,
	}
}

// PublishBody serializes body to JSON and publishes it to topicArn.
// It returns the SNS message id. No schema is enforced on the body.
func (s *SNSClient) PublishBody(ctx context.Context, topicArn string, body models.Body) (string, error) {
	if topicArn == "" {
		return "", errors.New("topic ARN is required")
	}

	message, err := body.Marshal()
	if err != nil {
		return "", err
	}

	result, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(topicArn),
		Message:  aws.String(message),
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish message to SNS: %w", err)
	}

	messageID := aws.ToString(result.MessageId)
	s.logger.InfoContext(ctx, "message published to SNS",
		slog.String("sns_message_id", messageID),
		slog.String("topic_arn", topicArn),
		slog.Int("body_bytes", len(message)),
	)

	return messageID, nil
}
