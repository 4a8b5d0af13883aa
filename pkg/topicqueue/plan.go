package topicqueue

import (
	"fmt"
	"regexp"
)

const (
	maxIDLength = 40

	defaultBatchSize        = 10
	defaultMaxReceiveCount  = 3
	defaultLogRetentionDays = 7

	// 14 days, the SQS maximum
	deadLetterRetentionSeconds = 1209600
	// SQS caps visibility timeout at 12 hours
	maxVisibilityTimeout = 43200
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Args configures a TopicQueueWithHandler
type Args struct {
	// ID is unique within the stack and is the stem of every physical resource name
	ID string
	// Handler describes the function subscribed to the queue
	Handler HandlerDescriptor

	// BatchSize is the maximum number of records per invocation. Zero uses 10.
	BatchSize int
	// DeadLetterQueue adds a redrive target. Nil means enabled.
	DeadLetterQueue *bool
	// MaxReceiveCount before a message moves to the dead-letter queue. Zero uses 3.
	MaxReceiveCount int
	// RawMessageDelivery skips the SNS envelope. Nil means enabled.
	RawMessageDelivery *bool
	// LogRetentionDays for the function's log group. Zero uses 7.
	LogRetentionDays int
	// Tags applied to every taggable resource
	Tags map[string]string
}

// Plan is the resolved, engine-independent description of what the construct declares.
// Names double as Pulumi logical names and AWS physical names.
type Plan struct {
	ID string

	QueueName              string
	DeadLetterQueueName    string
	TopicName              string
	SubscriptionName       string
	QueuePolicyName        string
	RoleName               string
	RolePolicyName         string
	LogGroupResourceName   string
	LogGroupName           string
	FunctionName           string
	EventSourceMappingName string

	Handler            HandlerDescriptor
	VisibilityTimeout  int
	BatchSize          int
	DeadLetterQueue    bool
	MaxReceiveCount    int
	RawMessageDelivery bool
	LogRetentionDays   int
	Tags               map[string]string
}

// NewPlan validates args and resolves names and defaults
func NewPlan(args *Args) (*Plan, error) {
	if args == nil {
		return nil, fmt.Errorf("args are required")
	}
	if args.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	if len(args.ID) > maxIDLength {
		return nil, fmt.Errorf("id %q is longer than %d characters", args.ID, maxIDLength)
	}
	if !idPattern.MatchString(args.ID) {
		return nil, fmt.Errorf("id %q may only contain letters, digits, '-' and '_'", args.ID)
	}
	if err := args.Handler.Validate(); err != nil {
		return nil, fmt.Errorf("invalid handler for %s: %w", args.ID, err)
	}
	if args.BatchSize < 0 || args.BatchSize > 10000 {
		return nil, fmt.Errorf("batch size must be between 1 and 10000, got %d", args.BatchSize)
	}

	id := args.ID
	plan := &Plan{
		ID:                     id,
		QueueName:              id + "-queue",
		DeadLetterQueueName:    id + "-dlq",
		TopicName:              id + "-topic",
		SubscriptionName:       id + "-subscription",
		QueuePolicyName:        id + "-queue-policy",
		RoleName:               id + "-handler-role",
		RolePolicyName:         id + "-handler-policy",
		LogGroupResourceName:   id + "-handler-logs",
		FunctionName:           id + "-handler",
		EventSourceMappingName: id + "-handler-trigger",

		Handler:            args.Handler,
		BatchSize:          orDefault(args.BatchSize, defaultBatchSize),
		DeadLetterQueue:    boolOr(args.DeadLetterQueue, true),
		MaxReceiveCount:    orDefault(args.MaxReceiveCount, defaultMaxReceiveCount),
		RawMessageDelivery: boolOr(args.RawMessageDelivery, true),
		LogRetentionDays:   orDefault(args.LogRetentionDays, defaultLogRetentionDays),
		Tags:               args.Tags,
	}
	plan.LogGroupName = "/aws/lambda/" + plan.FunctionName

	// Lambda rejects an event source whose visibility timeout is below the function timeout
	plan.VisibilityTimeout = min(6*args.Handler.timeout(), maxVisibilityTimeout)

	return plan, nil
}

// RedrivePolicy renders the SQS redrive policy for the given dead-letter queue ARN
func (p *Plan) RedrivePolicy(deadLetterArn string) string {
	return fmt.Sprintf(`{"deadLetterTargetArn":"%s","maxReceiveCount":%d}`, deadLetterArn, p.MaxReceiveCount)
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
