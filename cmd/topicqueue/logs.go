package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jrzesz33/topicqueue/internal/harness"
	"github.com/jrzesz33/topicqueue/internal/models"
)

func newLogsCmd(opts *rootOptions) *cobra.Command {
	var (
		handlerName string
		format      string
		wait        bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the queue handler's log events",
		Long: `Print every event in the handler's log group, oldest first.

With --wait the command polls until an event contains the handled marker,
using the configured wait policy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			cfg, b, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			if handlerName == "" {
				outputs, err := b.deployer.Outputs(cmd.Context())
				if err != nil {
					return err
				}
				handlerName = outputs.QueueHandlerName
			}
			prefix := models.StackOutputs{QueueHandlerName: handlerName}.LogGroupPrefix(cfg.LogGroupRoot)

			var events []models.LogEvent
			if wait {
				policy := harness.OptionsFromConfig(cfg).Wait
				events, err = harness.WaitForMarker(cmd.Context(), b.logs, prefix, cfg.Marker, time.Time{}, policy, logger)
			} else {
				events, err = b.logs.GetLogEventInGroup(cmd.Context(), prefix)
			}
			if printErr := printEvents(cmd.OutOrStdout(), events, cfg.Marker, format); printErr != nil {
				return printErr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&handlerName, "handler", "", "Lambda function name (default read from stack outputs)")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or yaml")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the handled marker appears")
	return cmd
}

// countMarkers is used for the text summary line
func countMarkers(events []models.LogEvent, marker string) int {
	n := 0
	for _, e := range events {
		if e.HasMarker(marker) {
			n++
		}
	}
	return n
}

func summary(events []models.LogEvent, marker string) string {
	return fmt.Sprintf("%d events, %d handled", len(events), countMarkers(events, marker))
}
