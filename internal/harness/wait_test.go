package harness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrzesz33/topicqueue/internal/models"
)

func TestWaitForMarker(t *testing.T) {
	queryErr := errors.New("throttled")

	tests := []struct {
		name        string
		logs        *fakeLogs
		wantErr     bool
		wantLastErr bool
	}{
		{
			name: "found on first snapshot",
			logs: &fakeLogs{snapshots: [][]models.LogEvent{{startEvent, handledEvent}}},
		},
		{
			name: "found after empty snapshots",
			logs: &fakeLogs{snapshots: [][]models.LogEvent{nil, nil, {handledEvent}}},
		},
		{
			name: "query errors are retried",
			logs: &fakeLogs{
				errs:      []error{queryErr, queryErr},
				snapshots: [][]models.LogEvent{nil, nil, {handledEvent}},
			},
		},
		{
			name:    "never found",
			logs:    &fakeLogs{snapshots: [][]models.LogEvent{{startEvent}}},
			wantErr: true,
		},
		{
			name:        "no log group ever",
			logs:        &fakeLogs{},
			wantErr:     true,
			wantLastErr: false,
		},
	}

	policy := WaitPolicy{Interval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxWait: 40 * time.Millisecond}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := WaitForMarker(context.Background(), tt.logs, "/aws/lambda/h", models.HandledMarker, time.Time{}, policy, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("WaitForMarker() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if _, ok := models.FindMarker(events, models.HandledMarker); !ok {
					t.Errorf("returned events lack the marker: %v", events)
				}
				return
			}
			if !errors.Is(err, ErrMarkerNotFound) {
				t.Errorf("error = %v, want ErrMarkerNotFound", err)
			}
			var assertErr *AssertionError
			if errors.As(err, &assertErr) && (assertErr.LastErr != nil) != tt.wantLastErr {
				t.Errorf("LastErr = %v", assertErr.LastErr)
			}
		})
	}
}

func TestWaitForMarker_PersistentQueryError(t *testing.T) {
	queryErr := errors.New("access denied")
	logs := &fakeLogs{err: queryErr}
	policy := WaitPolicy{Interval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxWait: 10 * time.Millisecond}

	_, err := WaitForMarker(context.Background(), logs, "/aws/lambda/h", models.HandledMarker, time.Time{}, policy, nil)
	if !errors.Is(err, ErrMarkerNotFound) {
		t.Fatalf("error = %v, want ErrMarkerNotFound", err)
	}
	if !errors.Is(err, queryErr) {
		t.Errorf("error = %v, want the query error attached", err)
	}
}

func TestWaitForMarker_ContextCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := WaitPolicy{InitialDelay: time.Hour}
	_, err := WaitForMarker(ctx, &fakeLogs{}, "/aws/lambda/h", models.HandledMarker, time.Time{}, policy, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestWaitPolicy_WithDefaults(t *testing.T) {
	p := WaitPolicy{}.withDefaults()
	def := DefaultWaitPolicy()
	if p.Interval != def.Interval || p.MaxInterval != def.MaxInterval || p.MaxWait != def.MaxWait {
		t.Errorf("withDefaults() = %+v", p)
	}
	if p.InitialDelay != 0 {
		t.Errorf("InitialDelay should be left alone, got %v", p.InitialDelay)
	}
}

func TestWaitForMarker_IgnoresEventsBeforeSince(t *testing.T) {
	publishedAt := time.Date(2024, 5, 1, 17, 46, 22, 0, time.UTC)
	stale := handledAt(publishedAt.Add(-time.Hour))
	fresh := handledAt(publishedAt.Add(3 * time.Second))

	policy := WaitPolicy{Interval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxWait: 30 * time.Millisecond}

	_, err := WaitForMarker(context.Background(), &fakeLogs{snapshots: [][]models.LogEvent{{stale}}},
		"/aws/lambda/h", models.HandledMarker, publishedAt, policy, nil)
	if !errors.Is(err, ErrMarkerNotFound) {
		t.Fatalf("stale marker accepted: error = %v", err)
	}
	var assertErr *AssertionError
	if !errors.As(err, &assertErr) || !assertErr.Since.Equal(publishedAt) {
		t.Errorf("AssertionError.Since = %v, want %v", assertErr, publishedAt)
	}

	events, err := WaitForMarker(context.Background(), &fakeLogs{snapshots: [][]models.LogEvent{{stale}, {stale, fresh}}},
		"/aws/lambda/h", models.HandledMarker, publishedAt, policy, nil)
	if err != nil {
		t.Fatalf("WaitForMarker() error = %v", err)
	}
	if len(events) != 2 {
		t.Errorf("events = %v, want the full snapshot", events)
	}
}
