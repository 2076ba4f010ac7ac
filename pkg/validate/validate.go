// Package validate runs consistency checks against a resolved model. The
// engine is an explicit ordered list of steps: callers assemble the list
// (DefaultSteps plus any extras) and Run executes it fail-fast. There is no
// process-global registry; extending validation means appending to the
// slice before running.
package validate

import "github.com/leapstack-labs/efscan/pkg/model"

// Step is one validation check over a completed model.
type Step struct {
	ID          string // Unique identifier, e.g., "MV01"
	Name        string // Human-readable name, e.g., "dbset-coverage"
	Description string // What the step enforces
	Source      string // Where the step came from: "builtin" or a rules file
	Run         func(m *model.Model) error
}

// Run executes the steps in order against the model. The first failing step
// aborts the run with its error; later steps do not execute. A model that
// fails validation must be discarded by the caller.
func Run(m *model.Model, steps []Step) error {
	for _, s := range steps {
		if err := s.Run(m); err != nil {
			return err
		}
	}
	return nil
}

// DefaultSteps returns the built-in steps in their canonical order: DbSet
// coverage first, then key presence.
func DefaultSteps() []Step {
	return []Step{dbSetCoverageStep(), keyPresenceStep()}
}
