package harness

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jrzesz33/topicqueue/internal/models"
)

// WaitPolicy bounds polling for the handler's marker
type WaitPolicy struct {
	// InitialDelay before the first query, covering publish-to-log latency
	InitialDelay time.Duration
	// Interval is the first gap between queries; later gaps grow exponentially
	Interval time.Duration
	// MaxInterval caps the gap between queries
	MaxInterval time.Duration
	// MaxWait bounds the total time spent polling after the initial delay
	MaxWait time.Duration
}

// DefaultWaitPolicy returns the policy used when none is configured
func DefaultWaitPolicy() WaitPolicy {
	return WaitPolicy{
		InitialDelay: 5 * time.Second,
		Interval:     2 * time.Second,
		MaxInterval:  10 * time.Second,
		MaxWait:      90 * time.Second,
	}
}

func (p WaitPolicy) withDefaults() WaitPolicy {
	def := DefaultWaitPolicy()
	if p.Interval <= 0 {
		p.Interval = def.Interval
	}
	if p.MaxInterval < p.Interval {
		p.MaxInterval = max(def.MaxInterval, p.Interval)
	}
	if p.MaxWait <= 0 {
		p.MaxWait = def.MaxWait
	}
	return p
}

func (p WaitPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Interval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = p.MaxWait
	b.Reset()
	return b
}

// WaitForMarker polls reader until an event under logGroupPrefix, stamped at or after
// since, contains marker or the policy is exhausted. A zero since accepts events of any
// age. Each attempt is a single snapshot. On exhaustion it returns the last snapshot and
// an *AssertionError.
func WaitForMarker(ctx context.Context, reader LogReader, logGroupPrefix, marker string, since time.Time, policy WaitPolicy, logger *slog.Logger) ([]models.LogEvent, error) {
	if logger == nil {
		logger = slog.Default()
	}
	policy = policy.withDefaults()

	if policy.InitialDelay > 0 {
		timer := time.NewTimer(policy.InitialDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	var (
		last     []models.LogEvent
		lastErr  error
		attempts int
	)
	started := time.Now()

	operation := func() error {
		attempts++
		events, err := reader.GetLogEventInGroup(ctx, logGroupPrefix)
		if err != nil {
			lastErr = err
			return err
		}
		lastErr = nil
		last = events
		if _, ok := models.FindMarkerSince(events, marker, since); ok {
			return nil
		}
		return ErrMarkerNotFound
	}

	notify := func(err error, next time.Duration) {
		logger.DebugContext(ctx, "marker not seen yet",
			slog.Int("attempt", attempts),
			slog.Int("event_count", len(last)),
			slog.Duration("next_poll", next),
			slog.String("reason", err.Error()),
		)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(policy.backOff(), ctx), notify)
	if err == nil {
		logger.InfoContext(ctx, "marker observed",
			slog.String("log_group_prefix", logGroupPrefix),
			slog.Int("attempts", attempts),
			slog.Duration("waited", time.Since(started)+policy.InitialDelay),
		)
		return last, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ErrMarkerNotFound) {
		return last, ctxErr
	}

	return last, &AssertionError{
		Marker:         marker,
		LogGroupPrefix: logGroupPrefix,
		Since:          since,
		Attempts:       attempts,
		Events:         last,
		LastErr:        lastErr,
	}
}
