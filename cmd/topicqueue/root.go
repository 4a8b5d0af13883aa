package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jrzesz33/topicqueue/internal/harness"
	"github.com/jrzesz33/topicqueue/internal/logging"
	"github.com/jrzesz33/topicqueue/internal/messaging"
	"github.com/jrzesz33/topicqueue/internal/models"
	appconfig "github.com/jrzesz33/topicqueue/pkg/config"
)

// stackDeployer is a harness.Deployer that can also read back outputs
type stackDeployer interface {
	harness.Deployer
	Outputs(ctx context.Context) (models.StackOutputs, error)
}

// backend is everything a command talks to
type backend struct {
	deployer  stackDeployer
	publisher messaging.SNSPublisher
	logs      harness.LogReader
}

// newBackend is swapped out in tests
var newBackend = func(ctx context.Context, cfg *appconfig.Config, progress io.Writer, logger *slog.Logger) (*backend, error) {
	clients, err := harness.NewClients(ctx, cfg, progress, logger)
	if err != nil {
		return nil, err
	}
	return &backend{
		deployer:  clients.Deployer,
		publisher: clients.Publisher,
		logs:      clients.Logs,
	}, nil
}

type rootOptions struct {
	configPath string
	stack      string
	region     string
	quiet      bool
}

// load reads the config file and environment, then applies flag overrides
func (o *rootOptions) load() (*appconfig.Config, error) {
	cfg, err := appconfig.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.stack != "" {
		cfg.StackName = o.stack
	}
	if o.region != "" {
		cfg.AWSRegion = o.region
	}
	return cfg, cfg.Validate()
}

// setup loads configuration and builds the backend for cmd
func (o *rootOptions) setup(cmd *cobra.Command) (*appconfig.Config, *backend, *slog.Logger, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, nil, err
	}

	logger := logging.New(cmd.ErrOrStderr())

	var progress io.Writer
	if !o.quiet {
		progress = cmd.ErrOrStderr()
	}

	b, err := newBackend(cmd.Context(), cfg, progress, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, b, logger, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "topicqueue",
		Short: "Deploy and verify an SNS topic feeding an SQS queue and Lambda handler",
		Long: `topicqueue manages a stack made of an SNS topic, an SQS queue subscribed to it
and a Lambda function triggered by the queue.

The verify command runs the full check: deploy the stack, publish a message,
wait for the handler to log "Handled SQS Event", then destroy the stack.

    topicqueue verify --stack TestTopicQueueWithHandler --region us-west-2`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVarP(&opts.stack, "stack", "s", "", "Stack name (default "+appconfig.DefaultStackName+")")
	flags.StringVarP(&opts.region, "region", "r", "", "AWS region (default "+appconfig.DefaultRegion+")")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Hide deployment engine progress")

	rootCmd.AddCommand(
		newDeployCmd(opts),
		newDestroyCmd(opts),
		newOutputsCmd(opts),
		newPublishCmd(opts),
		newLogsCmd(opts),
		newVerifyCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}
