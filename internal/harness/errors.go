package harness

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jrzesz33/topicqueue/internal/models"
)

var (
	// ErrMarkerNotFound means the handler's marker never showed up in its logs
	ErrMarkerNotFound = errors.New("marker not found in handler logs")
	// ErrConcurrentUpdate means another update holds the stack lock
	ErrConcurrentUpdate = errors.New("stack is locked by another update")
)

// DeployError wraps a failure of the deployment engine
type DeployError struct {
	Stack string
	Op    string
	Err   error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("%s of stack %s failed: %v", e.Op, e.Stack, e.Err)
}

func (e *DeployError) Unwrap() error {
	return e.Err
}

// PublishError wraps a failure to publish the probe message
type PublishError struct {
	TopicArn string
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %s failed: %v", e.TopicArn, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// AssertionError reports that the marker was not observed, with every captured event
type AssertionError struct {
	Marker         string
	LogGroupPrefix string
	// Since is the oldest event timestamp that counted; zero means any
	Since          time.Time
	Attempts       int
	Events         []models.LogEvent
	// LastErr is the last log query error, if the final attempts failed to query
	LastErr error
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q not found under %s after %d attempts (%d events)",
		e.Marker, e.LogGroupPrefix, e.Attempts, len(e.Events))
	if !e.Since.IsZero() {
		fmt.Fprintf(&b, "; only events since %s counted", e.Since.Format(time.RFC3339))
	}
	if e.LastErr != nil {
		fmt.Fprintf(&b, "; last query error: %v", e.LastErr)
	}
	for _, event := range e.Events {
		fmt.Fprintf(&b, "\n  %s %s", event.Timestamp.Format("15:04:05.000"), strings.TrimSpace(event.Message))
	}
	return b.String()
}

func (e *AssertionError) Unwrap() []error {
	if e.LastErr != nil {
		return []error{ErrMarkerNotFound, e.LastErr}
	}
	return []error{ErrMarkerNotFound}
}
