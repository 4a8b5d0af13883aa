package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrzesz33/topicqueue/internal/models"
)

func newPublishCmd(opts *rootOptions) *cobra.Command {
	var (
		rawBody  string
		probe    bool
		topicArn string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a message to the stack's topic",
		Long: `Publish a JSON object to the topic. Without --topic-arn the ARN is read from
the deployed stack's outputs.

Examples:
    topicqueue publish
    topicqueue publish --body '{"order_id": 42}'
    topicqueue publish --probe`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := buildBody(rawBody, probe)
			if err != nil {
				return err
			}

			_, b, _, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			if topicArn == "" {
				outputs, err := b.deployer.Outputs(cmd.Context())
				if err != nil {
					return err
				}
				topicArn = outputs.TopicArn
			}

			messageID, err := b.publisher.PublishBody(cmd.Context(), topicArn, body)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), messageID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rawBody, "body", "b", "{}", "JSON object to publish")
	cmd.Flags().BoolVar(&probe, "probe", false, "Add a unique probe_id to the body")
	cmd.Flags().StringVar(&topicArn, "topic-arn", "", "Publish to this topic instead of the stack's")
	return cmd
}

// buildBody parses raw and, when probe is set, stamps a fresh probe_id on it
func buildBody(raw string, probe bool) (models.Body, error) {
	body, err := models.ParseBody(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --body: %w", err)
	}
	if probe {
		for k, v := range models.NewProbeBody() {
			body[k] = v
		}
	}
	return body, nil
}
