// Package notification reports verification results to an ntfy topic.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Report is the outcome of one verification run
type Report struct {
	Stack     string
	Passed    bool
	States    []string
	MessageID string
	Detail    string
}

// Title is the one-line headline for the report
func (r Report) Title() string {
	result := "FAIL"
	if r.Passed {
		result = "PASS"
	}
	return fmt.Sprintf("topicqueue verify %s: %s", r.Stack, result)
}

// Body renders the report as plain text
func (r Report) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "states: %s\n", strings.Join(r.States, " -> "))
	if r.MessageID != "" {
		fmt.Fprintf(&b, "message: %s\n", r.MessageID)
	}
	if r.Detail != "" {
		b.WriteString(r.Detail)
		b.WriteString("\n")
	}
	return b.String()
}

// Notifier delivers verification reports
type Notifier interface {
	Notify(ctx context.Context, report Report) error
}

// NtfyClient is an HTTP client for posting reports to ntfy.sh
type NtfyClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration
}

// NtfyClientConfig holds configuration for the Ntfy client
type NtfyClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// RetryDelay is the first backoff interval; it doubles on every retry
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// NewNtfyClient creates a new ntfy.sh notification client
func NewNtfyClient(config NtfyClientConfig) *NtfyClient {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &NtfyClient{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:     config.Logger,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
	}
}

// Notify posts the report, retrying failed attempts with exponential backoff
func (c *NtfyClient) Notify(ctx context.Context, report Report) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		return c.post(ctx, report)
	}
	notify := func(err error, next time.Duration) {
		c.logger.WarnContext(ctx, "failed to send notification",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", c.maxRetries),
			slog.Duration("backoff", next),
			slog.String("error", err.Error()),
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries-1)), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return fmt.Errorf("failed to send notification after %d attempts: %w", attempt, err)
	}

	c.logger.DebugContext(ctx, "notification sent successfully",
		slog.String("stack", report.Stack),
		slog.Int("attempt", attempt),
	)
	return nil
}

func (c *NtfyClient) post(ctx context.Context, report Report) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBufferString(report.Body()))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", report.Title())
	if !report.Passed {
		req.Header.Set("Priority", "high")
		req.Header.Set("Tags", "warning")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned non-success status code %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
