package topicqueue

import (
	"encoding/json"
	"testing"
)

func decodePolicy(t *testing.T, doc string) policyDocument {
	t.Helper()
	var policy policyDocument
	if err := json.Unmarshal([]byte(doc), &policy); err != nil {
		t.Fatalf("policy is not valid JSON: %v\n%s", err, doc)
	}
	return policy
}

func TestAssumeRolePolicy(t *testing.T) {
	doc, err := assumeRolePolicy()
	if err != nil {
		t.Fatalf("assumeRolePolicy() error = %v", err)
	}
	policy := decodePolicy(t, doc)
	if len(policy.Statement) != 1 {
		t.Fatalf("got %d statements, want 1", len(policy.Statement))
	}
	if policy.Statement[0].Principal["Service"] != "lambda.amazonaws.com" {
		t.Errorf("Principal = %v", policy.Statement[0].Principal)
	}
	if policy.Statement[0].Resource != nil {
		t.Errorf("trust policy must not carry a Resource, got %v", policy.Statement[0].Resource)
	}
}

func TestQueuePolicy(t *testing.T) {
	doc, err := queuePolicy("arn:queue", "arn:topic")
	if err != nil {
		t.Fatalf("queuePolicy() error = %v", err)
	}
	policy := decodePolicy(t, doc)
	stmt := policy.Statement[0]
	if stmt.Resource != "arn:queue" {
		t.Errorf("Resource = %v, want arn:queue", stmt.Resource)
	}
	if len(stmt.Action) != 1 || stmt.Action[0] != "sqs:SendMessage" {
		t.Errorf("Action = %v", stmt.Action)
	}
	cond, ok := stmt.Condition["ArnEquals"].(map[string]any)
	if !ok || cond["aws:SourceArn"] != "arn:topic" {
		t.Errorf("Condition = %v", stmt.Condition)
	}
}

func TestHandlerPolicy(t *testing.T) {
	doc, err := handlerPolicy("arn:queue", "arn:aws:logs:us-west-2:1:log-group:/aws/lambda/h")
	if err != nil {
		t.Fatalf("handlerPolicy() error = %v", err)
	}
	policy := decodePolicy(t, doc)
	if len(policy.Statement) != 2 {
		t.Fatalf("got %d statements, want 2", len(policy.Statement))
	}

	for _, stmt := range policy.Statement {
		for _, action := range stmt.Action {
			if action == "sqs:*" || action == "logs:*" || action == "*" {
				t.Errorf("wildcard action %s granted", action)
			}
		}
	}
	if policy.Statement[0].Resource != "arn:queue" {
		t.Errorf("queue statement Resource = %v", policy.Statement[0].Resource)
	}
	if policy.Statement[1].Resource != "arn:aws:logs:us-west-2:1:log-group:/aws/lambda/h:*" {
		t.Errorf("logs statement Resource = %v", policy.Statement[1].Resource)
	}
}
