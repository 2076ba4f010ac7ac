// Package config loads CLI configuration from efscan.yaml, environment
// variables, and flags, in ascending precedence.
package config

// Config holds all CLI configuration options.
type Config struct {
	// Dir is the directory of generated sources to scan.
	Dir          string   `koanf:"dir"`
	StatePath    string   `koanf:"state_path"`
	Verbose      bool     `koanf:"verbose"`
	OutputFormat string   `koanf:"output"`
	// Validations selects validation steps by ID. Empty means the default
	// set (MV01, MV02).
	Validations []string `koanf:"validations"`
	// RulesFile points at a Starlark file of project-specific checks, or a
	// directory of them.
	RulesFile string `koanf:"rules_file"`

	Serve    *ServeConfig    `koanf:"serve"`
	Drift    *DriftConfig    `koanf:"drift"`
	Generate *GenerateConfig `koanf:"generate"`

	// ProjectRoot is derived while loading, never read from a file.
	ProjectRoot string `koanf:"-"`
}

// ServeConfig holds configuration for the model API server.
type ServeConfig struct {
	Addr  string `koanf:"addr"`
	Watch bool   `koanf:"watch"`
}

// DefaultServeConfig returns a ServeConfig with default values.
func DefaultServeConfig() *ServeConfig {
	return &ServeConfig{
		Addr:  ":8087",
		Watch: true,
	}
}

// GetServeConfig returns the serve config with defaults applied for any
// unset values.
func (c *Config) GetServeConfig() *ServeConfig {
	if c.Serve == nil {
		return DefaultServeConfig()
	}
	serve := c.Serve
	if serve.Addr == "" {
		serve.Addr = ":8087"
	}
	return serve
}

// DriftConfig holds the live database to compare the model against.
type DriftConfig struct {
	// Driver is the database driver, postgres or duckdb.
	Driver string `koanf:"driver"`
	// DSN may reference environment variables as ${VAR}.
	DSN    string `koanf:"dsn"`
	Schema string `koanf:"schema"`
}

// GenerateConfig holds Go code generation settings.
type GenerateConfig struct {
	OutDir  string `koanf:"out_dir"`
	Package string `koanf:"package"`
}

// GetGenerateConfig returns the generate config with defaults applied.
func (c *Config) GetGenerateConfig() *GenerateConfig {
	gen := c.Generate
	if gen == nil {
		gen = &GenerateConfig{}
	}
	if gen.OutDir == "" {
		gen.OutDir = "gen"
	}
	if gen.Package == "" {
		gen.Package = "gen"
	}
	return gen
}

// Default configuration values.
const (
	DefaultDir       = "."
	DefaultStateFile = ".efscan/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
