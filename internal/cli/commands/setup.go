package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/efscan/internal/cli/config"
	"github.com/leapstack-labs/efscan/internal/cli/output"
	"github.com/leapstack-labs/efscan/internal/engine"
	"github.com/leapstack-labs/efscan/internal/rules"
	"github.com/leapstack-labs/efscan/pkg/validate"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng, err := createEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
	}, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need the scan pipeline or state store.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	dir := getEnvOrDefault("EFSCAN_DIR", config.DefaultDir)
	statePath := getEnvOrDefault("EFSCAN_STATE_PATH", config.DefaultStateFile)
	verbose := os.Getenv("EFSCAN_VERBOSE") == "true"
	outputFormat := getEnvOrDefault("EFSCAN_OUTPUT", config.DefaultOutput)

	return &config.Config{
		Dir:          dir,
		StatePath:    statePath,
		Verbose:      verbose,
		OutputFormat: outputFormat,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	steps, err := buildSteps(cfg)
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Config{
		Dir:       cfg.Dir,
		StatePath: cfg.StatePath,
		Steps:     steps,
		Logger:    logger,
	})
}

// buildSteps assembles the validation list: the configured subset of
// built-in checks followed by any steps from a rules file.
func buildSteps(cfg *config.Config) ([]validate.Step, error) {
	steps, err := validate.StepsFor(cfg.Validations)
	if err != nil {
		return nil, err
	}

	if cfg.RulesFile != "" {
		extra, err := rules.Load(cfg.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("load rules file: %w", err)
		}
		steps = append(steps, extra...)
	}

	return steps, nil
}
