// Package harness deploys the topic queue stack, publishes a probe message and
// verifies the handler ran by reading its logs.
package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jrzesz33/topicqueue/internal/messaging"
	"github.com/jrzesz33/topicqueue/internal/models"
)

// publishClockSkew is how far a handler log timestamp may trail the local publish time
// and still count for this run
const publishClockSkew = 5 * time.Second

// Options configures a Harness
type Options struct {
	StackName    string
	LogGroupRoot string
	Marker       string
	Wait         WaitPolicy
	// KeepOnPass makes Run leave the stack deployed when the check passes
	KeepOnPass bool
}

// Harness runs the deploy, publish, poll, assert, destroy sequence
type Harness struct {
	deployer  Deployer
	publisher messaging.SNSPublisher
	logs      LogReader
	opts      Options
	logger    *slog.Logger
}

// New creates a new harness instance
func New(deployer Deployer, publisher messaging.SNSPublisher, logs LogReader, opts Options, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.LogGroupRoot == "" {
		opts.LogGroupRoot = "/aws/lambda"
	}
	if opts.Marker == "" {
		opts.Marker = models.HandledMarker
	}
	return &Harness{
		deployer:  deployer,
		publisher: publisher,
		logs:      logs,
		opts:      opts,
		logger:    logger.With(slog.String("stack", opts.StackName)),
	}
}

// Setup deploys the stack and records its outputs on a new session. The session is
// returned even on failure so Teardown can clean up partial resources.
func (h *Harness) Setup(ctx context.Context) (*Session, error) {
	s := NewSession(h.opts.StackName)
	if err := s.transition(StateDeploying); err != nil {
		return s, err
	}

	outputs, err := h.deployer.Deploy(ctx)
	if err != nil {
		s.fail()
		h.logger.ErrorContext(ctx, "deployment failed", slog.String("error", err.Error()))
		return s, err
	}

	s.Outputs = outputs
	s.LogGroupPrefix = outputs.LogGroupPrefix(h.opts.LogGroupRoot)
	if err := s.transition(StateDeployed); err != nil {
		return s, err
	}

	h.logger.InfoContext(ctx, "stack outputs",
		slog.String(models.OutputQueueURL, outputs.QueueURL),
		slog.String(models.OutputQueueHandlerName, outputs.QueueHandlerName),
		slog.String(models.OutputTopicArn, outputs.TopicArn),
	)
	return s, nil
}

// Execute publishes body to the deployed topic and waits for the handler's marker
func (h *Harness) Execute(ctx context.Context, s *Session, body models.Body) error {
	if s.State != StateDeployed {
		return fmt.Errorf("cannot execute in state %s", s.State)
	}

	publishedAt := time.Now().UTC()
	messageID, err := h.publisher.PublishBody(ctx, s.Outputs.TopicArn, body)
	if err != nil {
		s.fail()
		return &PublishError{TopicArn: s.Outputs.TopicArn, Err: err}
	}
	s.MessageID = messageID
	s.PublishedAt = publishedAt
	if err := s.transition(StateMessagePublished); err != nil {
		return err
	}

	// lines already in the group from earlier publishes must not satisfy this run
	since := s.PublishedAt.Add(-publishClockSkew)
	events, waitErr := WaitForMarker(ctx, h.logs, s.LogGroupPrefix, h.opts.Marker, since, h.opts.Wait, h.logger)
	s.Events = events
	if err := s.transition(StateLogsPolled); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "log events",
		slog.String("log_group_prefix", s.LogGroupPrefix),
		slog.Int("event_count", len(events)),
	)

	if waitErr != nil {
		s.fail()
		return waitErr
	}

	return s.transition(StateAsserted)
}

// Teardown destroys the stack. It always attempts the destroy, whatever state the
// session is in.
func (h *Harness) Teardown(ctx context.Context, s *Session) error {
	failed := s.State == StateFailed
	if !failed {
		if err := s.transition(StateDestroying); err != nil {
			s.fail()
		}
	}

	s.TornDown = true
	if err := h.deployer.Destroy(ctx); err != nil {
		s.fail()
		h.logger.ErrorContext(ctx, "teardown failed", slog.String("error", err.Error()))
		return err
	}

	if s.State == StateDestroying {
		return s.transition(StateDone)
	}
	return nil
}

// Run executes Setup, Execute and Teardown. Teardown runs unless the check passed with
// KeepOnPass set, and its error is joined with the run's.
func (h *Harness) Run(ctx context.Context, body models.Body) (*Session, error) {
	s, err := h.Setup(ctx)
	if err == nil {
		err = h.Execute(ctx, s, body)
	}

	if err == nil && h.opts.KeepOnPass {
		h.logger.InfoContext(ctx, "keeping stack after passing check")
		return s, nil
	}

	// teardown gets its own context so a cancelled run still cleans up
	teardownCtx := context.WithoutCancel(ctx)
	if terr := h.Teardown(teardownCtx, s); terr != nil {
		err = errors.Join(err, terr)
	}
	return s, err
}
