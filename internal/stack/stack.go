// Package stack wraps the topic queue construct in a deployable Pulumi program.
package stack

import (
	"fmt"

	"github.com/jrzesz33/topicqueue/internal/models"
	"github.com/jrzesz33/topicqueue/pkg/config"
	"github.com/jrzesz33/topicqueue/pkg/topicqueue"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// Program instantiates the construct once and exports its outputs under the fixed
// keys QueueUrl, QueueHandlerName and TopicArn.
func Program(args topicqueue.Args) pulumi.RunFunc {
	return func(ctx *pulumi.Context) error {
		construct, err := topicqueue.NewTopicQueueWithHandler(ctx, &args)
		if err != nil {
			return fmt.Errorf("failed to compose %s: %w", args.ID, err)
		}

		ctx.Export(models.OutputQueueURL, construct.QueueUrl)
		ctx.Export(models.OutputQueueHandlerName, construct.QueueHandlerName)
		ctx.Export(models.OutputTopicArn, construct.TopicArn)
		return nil
	}
}

// ArgsFromConfig builds construct arguments for the configured stack. The stack name
// is the construct id, as the integration test has always done.
func ArgsFromConfig(cfg *config.Config) topicqueue.Args {
	deadLetter := cfg.DeadLetterQueue
	raw := cfg.RawDelivery

	return topicqueue.Args{
		ID: cfg.StackName,
		Handler: topicqueue.HandlerDescriptor{
			Handler:    cfg.Handler.EntryPoint,
			Runtime:    topicqueue.Runtime(cfg.Handler.Runtime),
			Code:       pulumi.NewFileArchive(cfg.Handler.CodePath),
			MemorySize: cfg.Handler.MemorySize,
			Timeout:    cfg.Handler.Timeout,
			Environment: map[string]string{
				"STAGE":     cfg.Stage.String(),
				"LOG_LEVEL": "INFO",
			},
		},
		BatchSize:          cfg.BatchSize,
		DeadLetterQueue:    &deadLetter,
		MaxReceiveCount:    cfg.MaxReceiveCount,
		RawMessageDelivery: &raw,
		LogRetentionDays:   cfg.LogRetentionDays,
		Tags: map[string]string{
			"Project":   cfg.ProjectName,
			"Stage":     cfg.Stage.String(),
			"ManagedBy": "pulumi",
		},
	}
}
