package harness

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jrzesz33/topicqueue/internal/models"
)

func TestAssertionError(t *testing.T) {
	queryErr := errors.New("throttled")
	err := &AssertionError{
		Marker:         models.HandledMarker,
		LogGroupPrefix: "/aws/lambda/h",
		Attempts:       4,
		Events: []models.LogEvent{
			{Message: "START RequestId: 1\n", Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		},
		LastErr: queryErr,
	}

	msg := err.Error()
	for _, want := range []string{`"Handled SQS Event"`, "/aws/lambda/h", "4 attempts", "1 events", "throttled", "12:00:00.000 START RequestId: 1"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
	if !errors.Is(err, ErrMarkerNotFound) || !errors.Is(err, queryErr) {
		t.Error("AssertionError should match both ErrMarkerNotFound and the query error")
	}
}

func TestPublishError(t *testing.T) {
	cause := errors.New("denied")
	err := error(&PublishError{TopicArn: "arn:t", Err: cause})
	if !errors.Is(err, cause) {
		t.Error("PublishError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "arn:t") {
		t.Errorf("Error() = %s", err.Error())
	}
}
