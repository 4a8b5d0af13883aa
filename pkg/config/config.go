package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jrzesz33/topicqueue/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultStackName is the stack the integration test deploys and owns exclusively
	DefaultStackName = "TestTopicQueueWithHandler"
	// DefaultProjectName is the Pulumi project hosting the stack
	DefaultProjectName = "topicqueue"
	// DefaultRegion matches the region the integration test has always run in
	DefaultRegion = "us-west-2"
	// DefaultLogGroupRoot is where Lambda writes function log groups
	DefaultLogGroupRoot = "/aws/lambda"
)

// Config holds all configuration for the CLI and the integration harness
type Config struct {
	// Stage is the deployment environment (dev, stage, prod)
	Stage models.Stage `yaml:"stage"`

	// AWS Configuration
	AWSRegion string `yaml:"region"`

	// Pulumi Configuration
	ProjectName string `yaml:"project"`
	StackName   string `yaml:"stack"`
	WorkDir     string `yaml:"workDir"`

	// Handler describes the queue handler function to deploy
	Handler HandlerConfig `yaml:"handler"`

	// Queue tuning
	BatchSize        int  `yaml:"batchSize"`
	MaxReceiveCount  int  `yaml:"maxReceiveCount"`
	DeadLetterQueue  bool `yaml:"deadLetterQueue"`
	RawDelivery      bool `yaml:"rawDelivery"`
	LogRetentionDays int  `yaml:"logRetentionDays"`

	// Verification
	LogGroupRoot string     `yaml:"logGroupRoot"`
	Marker       string     `yaml:"marker"`
	Wait         WaitConfig `yaml:"wait"`

	// NotifyURL is an optional ntfy topic URL that receives verify results
	NotifyURL string `yaml:"notifyURL"`
}

// HandlerConfig holds the handler function descriptor in file form
type HandlerConfig struct {
	EntryPoint string `yaml:"entryPoint"`
	Runtime    string `yaml:"runtime"`
	CodePath   string `yaml:"codePath"`
	MemorySize int    `yaml:"memorySize"`
	Timeout    int    `yaml:"timeout"` // seconds
}

// WaitConfig bounds how long the harness polls for the handler's log marker
type WaitConfig struct {
	InitialDelay time.Duration `yaml:"initialDelay"`
	Interval     time.Duration `yaml:"interval"`
	MaxInterval  time.Duration `yaml:"maxInterval"`
	MaxWait      time.Duration `yaml:"maxWait"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Stage:       models.StageDev,
		AWSRegion:   DefaultRegion,
		ProjectName: DefaultProjectName,
		StackName:   DefaultStackName,
		Handler: HandlerConfig{
			EntryPoint: "bootstrap",
			Runtime:    "provided.al2023",
			CodePath:   "build/queuehandler.zip",
			MemorySize: 128,
			Timeout:    30,
		},
		BatchSize:        10,
		MaxReceiveCount:  3,
		DeadLetterQueue:  true,
		RawDelivery:      true,
		LogRetentionDays: 7,
		LogGroupRoot:     DefaultLogGroupRoot,
		Marker:           models.HandledMarker,
		Wait: WaitConfig{
			InitialDelay: 5 * time.Second,
			Interval:     2 * time.Second,
			MaxInterval:  10 * time.Second,
			MaxWait:      90 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (if any),
// then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad loads configuration and panics if there's an error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

func (c *Config) applyEnv() error {
	if stage := os.Getenv("STAGE"); stage != "" {
		c.Stage = models.Stage(stage)
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		c.AWSRegion = region
	}
	if project := os.Getenv("TOPICQUEUE_PROJECT"); project != "" {
		c.ProjectName = project
	}
	if stack := os.Getenv("TOPICQUEUE_STACK"); stack != "" {
		c.StackName = stack
	}
	if codePath := os.Getenv("TOPICQUEUE_CODE_PATH"); codePath != "" {
		c.Handler.CodePath = codePath
	}
	if notifyURL := os.Getenv("TOPICQUEUE_NOTIFY_URL"); notifyURL != "" {
		c.NotifyURL = notifyURL
	}
	if maxWait := os.Getenv("TOPICQUEUE_MAX_WAIT"); maxWait != "" {
		d, err := time.ParseDuration(maxWait)
		if err != nil {
			return fmt.Errorf("invalid TOPICQUEUE_MAX_WAIT value %q: %w", maxWait, err)
		}
		c.Wait.MaxWait = d
	}
	return nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if !c.Stage.IsValid() {
		return fmt.Errorf("invalid stage: %s (must be dev, stage, or prod)", c.Stage)
	}

	if c.AWSRegion == "" {
		return fmt.Errorf("AWS region is required")
	}

	if c.ProjectName == "" || c.StackName == "" {
		return fmt.Errorf("project and stack names are required")
	}

	if c.Handler.EntryPoint == "" {
		return fmt.Errorf("handler entry point is required")
	}

	if c.Handler.CodePath == "" {
		return fmt.Errorf("handler code path is required")
	}

	if c.BatchSize < 1 || c.BatchSize > 10000 {
		return fmt.Errorf("batch size must be between 1 and 10000, got %d", c.BatchSize)
	}

	if strings.TrimSpace(c.Marker) == "" {
		return fmt.Errorf("log marker is required")
	}

	if c.Wait.MaxWait <= 0 {
		return fmt.Errorf("wait.maxWait must be positive")
	}

	return nil
}

// IsDevelopment returns true if the stage is development
func (c *Config) IsDevelopment() bool {
	return c.Stage == models.StageDev
}

// IsStaging returns true if the stage is staging
func (c *Config) IsStaging() bool {
	return c.Stage == models.StageStage
}

// IsProduction returns true if the stage is production
func (c *Config) IsProduction() bool {
	return c.Stage == models.StageProd
}
