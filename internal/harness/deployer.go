package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jrzesz33/topicqueue/internal/models"
	"github.com/pulumi/pulumi/sdk/v3/go/auto"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optdestroy"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optup"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// Deployer creates and deletes the stack under test
type Deployer interface {
	Deploy(ctx context.Context) (models.StackOutputs, error)
	Destroy(ctx context.Context) error
}

// PulumiDeployerConfig configures a PulumiDeployer
type PulumiDeployerConfig struct {
	ProjectName string
	StackName   string
	Region      string
	// WorkDir holds the Pulumi workspace. Empty uses a temporary directory.
	WorkDir string
	Program pulumi.RunFunc
	// Progress receives engine output. Nil discards it.
	Progress io.Writer
	Logger   *slog.Logger
}

// PulumiDeployer drives an inline Pulumi program through the Automation API
type PulumiDeployer struct {
	cfg    PulumiDeployerConfig
	logger *slog.Logger
}

// NewPulumiDeployer creates a new Pulumi deployer instance
func NewPulumiDeployer(cfg PulumiDeployerConfig) *PulumiDeployer {
	if cfg.Progress == nil {
		cfg.Progress = io.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PulumiDeployer{cfg: cfg, logger: logger}
}

func (d *PulumiDeployer) stack(ctx context.Context) (auto.Stack, error) {
	var opts []auto.LocalWorkspaceOption
	if d.cfg.WorkDir != "" {
		opts = append(opts, auto.WorkDir(d.cfg.WorkDir))
	}

	s, err := auto.UpsertStackInlineSource(ctx, d.cfg.StackName, d.cfg.ProjectName, d.cfg.Program, opts...)
	if err != nil {
		return auto.Stack{}, fmt.Errorf("failed to select stack: %w", err)
	}

	if err := s.SetConfig(ctx, "aws:region", auto.ConfigValue{Value: d.cfg.Region}); err != nil {
		return auto.Stack{}, fmt.Errorf("failed to set aws:region: %w", err)
	}
	return s, nil
}

// Deploy runs `up` and blocks until the engine reports the stack complete
func (d *PulumiDeployer) Deploy(ctx context.Context) (models.StackOutputs, error) {
	s, err := d.stack(ctx)
	if err != nil {
		return models.StackOutputs{}, d.wrap("deploy", err)
	}

	d.logger.InfoContext(ctx, "deploying stack",
		slog.String("stack", d.cfg.StackName),
		slog.String("region", d.cfg.Region),
	)

	result, err := s.Up(ctx, optup.ProgressStreams(d.cfg.Progress))
	if err != nil {
		return models.StackOutputs{}, d.wrap("deploy", err)
	}

	d.logger.InfoContext(ctx, "stack deployed",
		slog.String("stack", d.cfg.StackName),
		slog.String("result", result.Summary.Result),
	)

	outputs, err := outputsFromAuto(result.Outputs)
	if err != nil {
		return models.StackOutputs{}, d.wrap("deploy", err)
	}
	return outputs, nil
}

// Outputs reads the outputs of the currently deployed stack
func (d *PulumiDeployer) Outputs(ctx context.Context) (models.StackOutputs, error) {
	s, err := d.stack(ctx)
	if err != nil {
		return models.StackOutputs{}, d.wrap("read outputs", err)
	}

	out, err := s.Outputs(ctx)
	if err != nil {
		return models.StackOutputs{}, d.wrap("read outputs", err)
	}

	outputs, err := outputsFromAuto(out)
	if err != nil {
		return models.StackOutputs{}, d.wrap("read outputs", err)
	}
	return outputs, nil
}

// Destroy deletes every resource in the stack and removes the stack itself, so the
// same name can be deployed again from scratch.
func (d *PulumiDeployer) Destroy(ctx context.Context) error {
	s, err := d.stack(ctx)
	if err != nil {
		return d.wrap("destroy", err)
	}

	d.logger.InfoContext(ctx, "destroying stack", slog.String("stack", d.cfg.StackName))

	if _, err := s.Destroy(ctx, optdestroy.ProgressStreams(d.cfg.Progress)); err != nil {
		return d.wrap("destroy", err)
	}

	if err := s.Workspace().RemoveStack(ctx, d.cfg.StackName); err != nil {
		return d.wrap("remove", err)
	}

	d.logger.InfoContext(ctx, "stack destroyed", slog.String("stack", d.cfg.StackName))
	return nil
}

func (d *PulumiDeployer) wrap(op string, err error) error {
	if auto.IsConcurrentUpdateError(err) {
		err = fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
	}
	return &DeployError{Stack: d.cfg.StackName, Op: op, Err: err}
}

func outputsFromAuto(out auto.OutputMap) (models.StackOutputs, error) {
	values := make(map[string]any, len(out))
	for key, value := range out {
		values[key] = value.Value
	}
	return models.OutputsFromMap(values)
}
