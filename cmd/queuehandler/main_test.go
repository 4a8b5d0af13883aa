package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jrzesz33/topicqueue/internal/models"
	appconfig "github.com/jrzesz33/topicqueue/pkg/config"
)

func newTestHandler(buf *bytes.Buffer) *QueueHandler {
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return NewQueueHandler(appconfig.Default(), logger)
}

func TestQueueHandler_HandleEvent(t *testing.T) {
	tests := []struct {
		name         string
		records      []events.SQSMessage
		wantMarkers  int
		wantFailures []string
	}{
		{
			name:        "empty object body",
			records:     []events.SQSMessage{{MessageId: "m1", Body: "{}"}},
			wantMarkers: 1,
		},
		{
			name:        "empty string body",
			records:     []events.SQSMessage{{MessageId: "m1", Body: ""}},
			wantMarkers: 1,
		},
		{
			name: "sns envelope",
			records: []events.SQSMessage{{
				MessageId: "m1",
				Body:      `{"Type":"Notification","TopicArn":"arn:aws:sns:us-west-2:1:t","Message":"{\"probe_id\":\"abc\"}"}`,
			}},
			wantMarkers: 1,
		},
		{
			name: "undecodable record fails alone",
			records: []events.SQSMessage{
				{MessageId: "m1", Body: "{}"},
				{MessageId: "m2", Body: "not json"},
				{MessageId: "m3", Body: `{"a":1}`},
			},
			wantMarkers:  2,
			wantFailures: []string{"m2"},
		},
		{
			name:    "empty batch",
			records: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := newTestHandler(&buf)

			resp, err := h.HandleEvent(context.Background(), events.SQSEvent{Records: tt.records})
			if err != nil {
				t.Fatalf("HandleEvent() error = %v", err)
			}

			if len(resp.BatchItemFailures) != len(tt.wantFailures) {
				t.Fatalf("failures = %v, want %v", resp.BatchItemFailures, tt.wantFailures)
			}
			for i, id := range tt.wantFailures {
				if resp.BatchItemFailures[i].ItemIdentifier != id {
					t.Errorf("failure[%d] = %s, want %s", i, resp.BatchItemFailures[i].ItemIdentifier, id)
				}
			}

			markers := 0
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				if strings.Index(line, models.HandledMarker) > 0 {
					markers++
				}
			}
			if markers != tt.wantMarkers {
				t.Errorf("marker lines = %d, want %d\n%s", markers, tt.wantMarkers, buf.String())
			}
		})
	}
}

func TestQueueHandler_MarkerIsLogMessage(t *testing.T) {
	var buf bytes.Buffer
	h := newTestHandler(&buf)

	event := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "m1", Body: `{"probe_id":"p-1"}`}}}
	if _, err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	var entry struct {
		Msg          string         `json:"msg"`
		SQSMessageID string         `json:"sqs_message_id"`
		Body         map[string]any `json:"body"`
	}
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, line)
	}
	if entry.Msg != models.HandledMarker {
		t.Errorf("msg = %q, want %q", entry.Msg, models.HandledMarker)
	}
	if entry.SQSMessageID != "m1" || entry.Body["probe_id"] != "p-1" {
		t.Errorf("entry = %+v", entry)
	}
}
