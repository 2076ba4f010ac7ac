// Package engine orchestrates scans over a generated model directory: walk
// the sources, extract the model, resolve relationships, validate, and
// record the outcome in the state store.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/efscan/internal/state"
	"github.com/leapstack-labs/efscan/pkg/validate"
)

// Engine drives the scan pipeline and owns the state store.
type Engine struct {
	logger *slog.Logger
	store  state.Store
	dir    string
	steps  []validate.Step
}

// Config holds engine configuration.
type Config struct {
	// Dir is the path to the directory of generated sources.
	Dir string
	// StatePath is the path to the SQLite state database. Empty means an
	// in-memory database, which keeps no history between invocations.
	StatePath string
	// Steps are the validation steps run after extraction. Nil means
	// validate.DefaultSteps().
	Steps []validate.Step
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// New creates an engine and opens its state store.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	statePath := cfg.StatePath
	if statePath == "" {
		statePath = ":memory:"
	}

	logger.Debug("initializing engine", "dir", cfg.Dir, "state_path", statePath)

	store := state.NewSQLiteStore()
	if err := store.Open(statePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state store: %w", err)
	}

	steps := cfg.Steps
	if steps == nil {
		steps = validate.DefaultSteps()
	}

	return &Engine{
		logger: logger,
		store:  store,
		dir:    cfg.Dir,
		steps:  steps,
	}, nil
}

// Close releases the state store.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			return fmt.Errorf("failed to close state store: %w", err)
		}
	}
	return nil
}

// Dir returns the scanned directory.
func (e *Engine) Dir() string {
	return e.dir
}

// Store returns the state store.
func (e *Engine) Store() state.Store {
	return e.store
}
