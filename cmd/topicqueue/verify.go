package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jrzesz33/topicqueue/internal/harness"
	"github.com/jrzesz33/topicqueue/internal/notification"
)

// newNotifier is swapped out in tests
var newNotifier = func(url string, logger *slog.Logger) notification.Notifier {
	return notification.NewNtfyClient(notification.NtfyClientConfig{
		BaseURL: url,
		Logger:  logger,
	})
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	var (
		rawBody   string
		probe     bool
		keep      bool
		notifyURL string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Deploy the stack, publish a message and check the handler logged it",
		Long: `Run the end-to-end check:

    1. deploy the stack and read its outputs
    2. publish the body to the topic
    3. poll the handler's log group until "Handled SQS Event" shows up
    4. destroy the stack

The stack is destroyed even when a step fails, unless --keep is set and the
check passed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := buildBody(rawBody, probe)
			if err != nil {
				return err
			}

			cfg, b, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			hopts := harness.OptionsFromConfig(cfg)
			hopts.KeepOnPass = keep
			h := harness.New(b.deployer, b.publisher, b.logs, hopts, logger)

			ctx := cmd.Context()
			s, err := h.Run(ctx, body)

			if notifyURL == "" {
				notifyURL = cfg.NotifyURL
			}
			if notifyURL != "" {
				report := reportFor(s, err)
				if nerr := newNotifier(notifyURL, logger).Notify(context.WithoutCancel(ctx), report); nerr != nil {
					logger.WarnContext(ctx, "failed to report verification result", slog.String("error", nerr.Error()))
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stack:  %s\n", s.StackName)
			fmt.Fprintf(out, "states: %v\n", s.History)
			if s.MessageID != "" {
				fmt.Fprintf(out, "message: %s\n", s.MessageID)
			}
			if s.LogGroupPrefix != "" {
				fmt.Fprintf(out, "logs:   %s (%s)\n", s.LogGroupPrefix, summary(s.Events, cfg.Marker))
			}
			if err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}
			fmt.Fprintln(out, "PASS")
			return nil
		},
	}

	cmd.Flags().StringVarP(&rawBody, "body", "b", "{}", "JSON object to publish")
	cmd.Flags().BoolVar(&probe, "probe", false, "Add a unique probe_id to the body")
	cmd.Flags().BoolVar(&keep, "keep", false, "Leave the stack deployed after a passing check")
	cmd.Flags().StringVar(&notifyURL, "notify-url", "", "ntfy topic URL to post the result to")
	return cmd
}

func reportFor(s *harness.Session, err error) notification.Report {
	states := make([]string, 0, len(s.History))
	for _, state := range s.History {
		states = append(states, state.String())
	}
	report := notification.Report{
		Stack:     s.StackName,
		Passed:    err == nil,
		States:    states,
		MessageID: s.MessageID,
	}
	if err != nil {
		report.Detail = err.Error()
	}
	return report
}
