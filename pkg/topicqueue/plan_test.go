package topicqueue

import (
	"strings"
	"testing"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

func testHandler() HandlerDescriptor {
	return HandlerDescriptor{
		Handler: "bootstrap",
		Runtime: RuntimeProvidedAL2023,
		Code: pulumi.NewAssetArchive(map[string]interface{}{
			"bootstrap": pulumi.NewStringAsset("#!/bin/sh\n"),
		}),
	}
}

func TestHandlerDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*HandlerDescriptor)
		wantErr string
	}{
		{"valid", func(h *HandlerDescriptor) {}, ""},
		{"missing entry point", func(h *HandlerDescriptor) { h.Handler = "" }, "entry point"},
		{"retired runtime", func(h *HandlerDescriptor) { h.Runtime = Runtime("nodejs10.x") }, "unsupported runtime"},
		{"missing code", func(h *HandlerDescriptor) { h.Code = nil }, "code archive"},
		{"memory too small", func(h *HandlerDescriptor) { h.MemorySize = 64 }, "memory size"},
		{"timeout too long", func(h *HandlerDescriptor) { h.Timeout = 901 }, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHandler()
			tt.mutate(&h)
			err := h.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewPlan(t *testing.T) {
	plan, err := NewPlan(&Args{ID: "TestTopicQueueWithHandler", Handler: testHandler()})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	if plan.FunctionName != "TestTopicQueueWithHandler-handler" {
		t.Errorf("FunctionName = %s", plan.FunctionName)
	}
	if plan.LogGroupName != "/aws/lambda/TestTopicQueueWithHandler-handler" {
		t.Errorf("LogGroupName = %s", plan.LogGroupName)
	}
	if plan.BatchSize != defaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", plan.BatchSize, defaultBatchSize)
	}
	if !plan.DeadLetterQueue || !plan.RawMessageDelivery {
		t.Errorf("DeadLetterQueue = %v, RawMessageDelivery = %v, want both enabled", plan.DeadLetterQueue, plan.RawMessageDelivery)
	}
	if plan.VisibilityTimeout != 180 {
		t.Errorf("VisibilityTimeout = %d, want 180", plan.VisibilityTimeout)
	}

	names := []string{
		plan.QueueName, plan.DeadLetterQueueName, plan.TopicName, plan.SubscriptionName,
		plan.QueuePolicyName, plan.RoleName, plan.RolePolicyName, plan.LogGroupResourceName,
		plan.FunctionName, plan.EventSourceMappingName,
	}
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			t.Errorf("name %s declared twice", name)
		}
		seen[name] = true
		if len(name) > 64 {
			t.Errorf("name %s exceeds 64 characters", name)
		}
	}
}

func TestNewPlan_Overrides(t *testing.T) {
	off := false
	h := testHandler()
	h.Timeout = 900

	plan, err := NewPlan(&Args{
		ID:                 "q",
		Handler:            h,
		BatchSize:          5,
		DeadLetterQueue:    &off,
		RawMessageDelivery: &off,
		MaxReceiveCount:    7,
		LogRetentionDays:   30,
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	if plan.BatchSize != 5 || plan.MaxReceiveCount != 7 || plan.LogRetentionDays != 30 {
		t.Errorf("plan = %+v", plan)
	}
	if plan.DeadLetterQueue || plan.RawMessageDelivery {
		t.Error("explicit false should disable dead-letter queue and raw delivery")
	}
	if plan.VisibilityTimeout != 5400 {
		t.Errorf("VisibilityTimeout = %d, want 5400", plan.VisibilityTimeout)
	}
}

func TestNewPlan_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args *Args
	}{
		{"nil args", nil},
		{"empty id", &Args{Handler: testHandler()}},
		{"id too long", &Args{ID: strings.Repeat("a", 41), Handler: testHandler()}},
		{"id with spaces", &Args{ID: "my stack", Handler: testHandler()}},
		{"bad handler", &Args{ID: "ok", Handler: HandlerDescriptor{}}},
		{"negative batch", &Args{ID: "ok", Handler: testHandler(), BatchSize: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPlan(tt.args); err == nil {
				t.Error("NewPlan() expected error")
			}
		})
	}
}

func TestPlan_RedrivePolicy(t *testing.T) {
	plan := &Plan{MaxReceiveCount: 3}
	got := plan.RedrivePolicy("arn:aws:sqs:us-west-2:123456789012:dlq")
	want := `{"deadLetterTargetArn":"arn:aws:sqs:us-west-2:123456789012:dlq","maxReceiveCount":3}`
	if got != want {
		t.Errorf("RedrivePolicy() = %s, want %s", got, want)
	}
}
