package main

import (
	"fmt"
	"log"
	"runtime/debug"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"github.com/jrzesz33/topicqueue/internal/models"
	"github.com/jrzesz33/topicqueue/internal/stack"
	appconfig "github.com/jrzesz33/topicqueue/pkg/config"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC RECOVERED: %v", r)
				log.Printf("Stack trace:\n%s", debug.Stack())
				err = fmt.Errorf("panic occurred: %v", r)
			}
		}()

		log.Printf("Loading configuration values...")
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		log.Printf("Configuration loaded: stage=%s, id=%s, codePath=%s, batchSize=%d",
			cfg.Stage, cfg.StackName, cfg.Handler.CodePath, cfg.BatchSize)

		return stack.Program(stack.ArgsFromConfig(cfg))(ctx)
	})
}

// loadConfig maps Pulumi stack configuration onto the shared config defaults.
// The construct id defaults to the Pulumi stack name.
func loadConfig(ctx *pulumi.Context) (*appconfig.Config, error) {
	pcfg := config.New(ctx, "")
	cfg := appconfig.Default()
	cfg.ProjectName = ctx.Project()
	cfg.StackName = ctx.Stack()

	if stage := pcfg.Get("stage"); stage != "" {
		cfg.Stage = models.Stage(stage)
	}
	if region := config.Get(ctx, "aws:region"); region != "" {
		cfg.AWSRegion = region
	}
	if id := pcfg.Get("id"); id != "" {
		cfg.StackName = id
	}
	if codePath := pcfg.Get("codePath"); codePath != "" {
		cfg.Handler.CodePath = codePath
	}
	if runtime := pcfg.Get("runtime"); runtime != "" {
		cfg.Handler.Runtime = runtime
	}
	if entryPoint := pcfg.Get("entryPoint"); entryPoint != "" {
		cfg.Handler.EntryPoint = entryPoint
	}
	if memory := pcfg.GetInt("memorySize"); memory != 0 {
		cfg.Handler.MemorySize = memory
	}
	if timeout := pcfg.GetInt("timeout"); timeout != 0 {
		cfg.Handler.Timeout = timeout
	}
	if batchSize := pcfg.GetInt("batchSize"); batchSize != 0 {
		cfg.BatchSize = batchSize
	}
	if days := pcfg.GetInt("logRetentionDays"); days != 0 {
		cfg.LogRetentionDays = days
	}
	if v, err := pcfg.TryBool("deadLetterQueue"); err == nil {
		cfg.DeadLetterQueue = v
	}
	if v, err := pcfg.TryBool("rawDelivery"); err == nil {
		cfg.RawDelivery = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stack configuration: %w", err)
	}
	return cfg, nil
}
