package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/jrzesz33/topicqueue/internal/messaging"
	"github.com/jrzesz33/topicqueue/internal/stack"
	appconfig "github.com/jrzesz33/topicqueue/pkg/config"
)

// Clients bundles the real implementations behind the harness interfaces
type Clients struct {
	Deployer  *PulumiDeployer
	Publisher *messaging.SNSClient
	Logs      *CloudWatchLogReader
}

// NewClients builds AWS and Pulumi clients from configuration
func NewClients(ctx context.Context, cfg *appconfig.Config, progress io.Writer, logger *slog.Logger) (*Clients, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Clients{
		Deployer: NewPulumiDeployer(PulumiDeployerConfig{
			ProjectName: cfg.ProjectName,
			StackName:   cfg.StackName,
			Region:      cfg.AWSRegion,
			WorkDir:     cfg.WorkDir,
			Program:     stack.Program(stack.ArgsFromConfig(cfg)),
			Progress:    progress,
			Logger:      logger,
		}),
		Publisher: messaging.NewSNSClient(sns.NewFromConfig(awsCfg), logger),
		Logs:      NewCloudWatchLogReader(cloudwatchlogs.NewFromConfig(awsCfg), logger),
	}, nil
}

// NewFromConfig builds a harness wired to real AWS and Pulumi clients
func NewFromConfig(ctx context.Context, cfg *appconfig.Config, progress io.Writer, logger *slog.Logger) (*Harness, error) {
	clients, err := NewClients(ctx, cfg, progress, logger)
	if err != nil {
		return nil, err
	}
	return New(clients.Deployer, clients.Publisher, clients.Logs, OptionsFromConfig(cfg), logger), nil
}

// OptionsFromConfig maps configuration onto harness options
func OptionsFromConfig(cfg *appconfig.Config) Options {
	return Options{
		StackName:    cfg.StackName,
		LogGroupRoot: cfg.LogGroupRoot,
		Marker:       cfg.Marker,
		Wait: WaitPolicy{
			InitialDelay: cfg.Wait.InitialDelay,
			Interval:     cfg.Wait.Interval,
			MaxInterval:  cfg.Wait.MaxInterval,
			MaxWait:      cfg.Wait.MaxWait,
		},
	}
}
