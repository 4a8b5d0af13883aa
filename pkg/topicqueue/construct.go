// Package topicqueue provides a Pulumi component that provisions an SNS topic fanning out
// to an SQS queue, with a Lambda function consuming that queue.
package topicqueue

import (
	"fmt"
	"log"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cloudwatch"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lambda"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/sns"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/sqs"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// ComponentType is the Pulumi type token of the component
const ComponentType = "topicqueue:index:TopicQueueWithHandler"

// TopicQueueWithHandler is a topic backed by a queue with a handler function
type TopicQueueWithHandler struct {
	pulumi.ResourceState

	// QueueUrl, QueueHandlerName and TopicArn are the construct's public outputs
	QueueUrl         pulumi.StringOutput `pulumi:"queueUrl"`
	QueueHandlerName pulumi.StringOutput `pulumi:"queueHandlerName"`
	TopicArn         pulumi.StringOutput `pulumi:"topicArn"`

	QueueArn           pulumi.StringOutput `pulumi:"queueArn"`
	FunctionArn        pulumi.StringOutput `pulumi:"functionArn"`
	DeadLetterQueueUrl pulumi.StringOutput `pulumi:"deadLetterQueueUrl"`
}

// NewTopicQueueWithHandler declares the queue, topic, subscription and function
func NewTopicQueueWithHandler(ctx *pulumi.Context, args *Args, opts ...pulumi.ResourceOption) (*TopicQueueWithHandler, error) {
	plan, err := NewPlan(args)
	if err != nil {
		return nil, err
	}

	component := &TopicQueueWithHandler{}
	if err := ctx.RegisterComponentResource(ComponentType, plan.ID, component, opts...); err != nil {
		return nil, fmt.Errorf("failed to register component %s: %w", plan.ID, err)
	}

	parent := pulumi.Parent(component)
	tags := pulumi.ToStringMap(plan.Tags)

	log.Printf("Declaring topic queue with handler %s...", plan.ID)

	// ========================================
	// Queues
	// ========================================
	queueArgs := &sqs.QueueArgs{
		Name:                     pulumi.String(plan.QueueName),
		VisibilityTimeoutSeconds: pulumi.Int(plan.VisibilityTimeout),
		Tags:                     tags,
	}

	deadLetterUrl := pulumi.String("").ToStringOutput()
	if plan.DeadLetterQueue {
		dlq, err := sqs.NewQueue(ctx, plan.DeadLetterQueueName, &sqs.QueueArgs{
			Name:                    pulumi.String(plan.DeadLetterQueueName),
			MessageRetentionSeconds: pulumi.Int(deadLetterRetentionSeconds),
			Tags:                    tags,
		}, parent)
		if err != nil {
			return nil, fmt.Errorf("failed to create dead-letter queue: %w", err)
		}
		deadLetterUrl = dlq.Url
		queueArgs.RedrivePolicy = dlq.Arn.ApplyT(func(arn string) string {
			return plan.RedrivePolicy(arn)
		}).(pulumi.StringOutput)
	}

	queue, err := sqs.NewQueue(ctx, plan.QueueName, queueArgs, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue: %w", err)
	}

	// ========================================
	// Topic and subscription
	// ========================================
	topic, err := sns.NewTopic(ctx, plan.TopicName, &sns.TopicArgs{
		Name: pulumi.String(plan.TopicName),
		Tags: tags,
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}

	queuePolicyDoc := pulumi.All(queue.Arn, topic.Arn).ApplyT(func(args []interface{}) (string, error) {
		return queuePolicy(args[0].(string), args[1].(string))
	}).(pulumi.StringOutput)

	qPolicy, err := sqs.NewQueuePolicy(ctx, plan.QueuePolicyName, &sqs.QueuePolicyArgs{
		QueueUrl: queue.Url,
		Policy:   queuePolicyDoc,
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue policy: %w", err)
	}

	// The policy must exist before SNS starts delivering or the first messages are dropped
	_, err = sns.NewTopicSubscription(ctx, plan.SubscriptionName, &sns.TopicSubscriptionArgs{
		Topic:              topic.Arn,
		Protocol:           pulumi.String("sqs"),
		Endpoint:           queue.Arn,
		RawMessageDelivery: pulumi.Bool(plan.RawMessageDelivery),
	}, parent, pulumi.DependsOn([]pulumi.Resource{qPolicy}))
	if err != nil {
		return nil, fmt.Errorf("failed to create topic subscription: %w", err)
	}

	// ========================================
	// Handler role and log group
	// ========================================
	trustPolicy, err := assumeRolePolicy()
	if err != nil {
		return nil, fmt.Errorf("failed to render assume role policy: %w", err)
	}

	role, err := iam.NewRole(ctx, plan.RoleName, &iam.RoleArgs{
		Name:             pulumi.String(plan.RoleName),
		AssumeRolePolicy: pulumi.String(trustPolicy),
		Tags:             tags,
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to create handler role: %w", err)
	}

	logGroup, err := cloudwatch.NewLogGroup(ctx, plan.LogGroupResourceName, &cloudwatch.LogGroupArgs{
		Name:            pulumi.String(plan.LogGroupName),
		RetentionInDays: pulumi.Int(plan.LogRetentionDays),
		Tags:            tags,
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to create handler log group: %w", err)
	}

	rolePolicy, err := iam.NewRolePolicy(ctx, plan.RolePolicyName, &iam.RolePolicyArgs{
		Role: role.Name,
		Policy: pulumi.All(queue.Arn, logGroup.Arn).ApplyT(func(args []interface{}) (string, error) {
			return handlerPolicy(args[0].(string), args[1].(string))
		}).(pulumi.StringOutput),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to create handler policy: %w", err)
	}

	// ========================================
	// Handler function
	// ========================================
	function, err := lambda.NewFunction(ctx, plan.FunctionName, &lambda.FunctionArgs{
		Name:    pulumi.String(plan.FunctionName),
		Runtime: pulumi.String(plan.Handler.Runtime.String()),
		Role:    role.Arn,
		Handler: pulumi.String(plan.Handler.Handler),
		Code:    plan.Handler.Code,
		Environment: &lambda.FunctionEnvironmentArgs{
			Variables: pulumi.ToStringMap(plan.Handler.Environment),
		},
		MemorySize: pulumi.Int(plan.Handler.memorySize()),
		Timeout:    pulumi.Int(plan.Handler.timeout()),
		Tags:       tags,
	}, parent, pulumi.DependsOn([]pulumi.Resource{logGroup}))
	if err != nil {
		return nil, fmt.Errorf("failed to create handler function: %w", err)
	}

	// Lambda validates the role's queue permissions when the mapping is created
	_, err = lambda.NewEventSourceMapping(ctx, plan.EventSourceMappingName, &lambda.EventSourceMappingArgs{
		EventSourceArn:        queue.Arn,
		FunctionName:          function.Arn,
		BatchSize:             pulumi.Int(plan.BatchSize),
		Enabled:               pulumi.Bool(true),
		FunctionResponseTypes: pulumi.StringArray{pulumi.String("ReportBatchItemFailures")},
	}, parent, pulumi.DependsOn([]pulumi.Resource{rolePolicy}))
	if err != nil {
		return nil, fmt.Errorf("failed to create event source mapping: %w", err)
	}

	component.QueueUrl = queue.Url
	component.QueueHandlerName = function.Name
	component.TopicArn = topic.Arn
	component.QueueArn = queue.Arn
	component.FunctionArn = function.Arn
	component.DeadLetterQueueUrl = deadLetterUrl

	if err := ctx.RegisterResourceOutputs(component, pulumi.Map{
		"queueUrl":           queue.Url,
		"queueHandlerName":   function.Name,
		"topicArn":           topic.Arn,
		"queueArn":           queue.Arn,
		"functionArn":        function.Arn,
		"deadLetterQueueUrl": deadLetterUrl,
	}); err != nil {
		return nil, fmt.Errorf("failed to register outputs for %s: %w", plan.ID, err)
	}

	return component, nil
}
