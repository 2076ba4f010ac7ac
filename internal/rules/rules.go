// Package rules loads user-defined validation steps from Starlark files.
//
// A rules file exports a top-level `rules` list; each entry is a dict with
// an `id`, a `name`, and a `check` function. The check receives the model
// as Starlark values and calls fail(...) to reject it. Loaded rules run
// after the built-in validation steps, in file order then list order.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/efscan/pkg/model"
	"github.com/leapstack-labs/efscan/pkg/validate"
	"go.starlark.net/starlark"
)

// Load reads validation steps from path, which may be one .star file or a
// directory of them. Files in a directory load in name order.
func Load(path string) ([]validate.Step, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return loadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".star") {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)

	var steps []validate.Step
	for _, f := range files {
		fileSteps, err := loadFile(f)
		if err != nil {
			return nil, err
		}
		steps = append(steps, fileSteps...)
	}
	return steps, nil
}

// loadFile executes one rules file and converts its exported rules.
func loadFile(path string) ([]validate.Step, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	thread := &starlark.Thread{
		Name: fmt.Sprintf("rules:%s", filepath.Base(path)),
		Print: func(_ *starlark.Thread, _ string) {
			// Ignore prints during rule loading
		},
	}

	globals, err := starlark.ExecFile(thread, path, content, nil) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("Starlark execution error: %v", err)}
	}

	rulesVal, ok := globals["rules"]
	if !ok {
		return nil, &LoadError{File: path, Message: "no top-level `rules` list"}
	}
	list, ok := rulesVal.(*starlark.List)
	if !ok {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("`rules` must be a list, got %s", rulesVal.Type())}
	}

	steps := make([]validate.Step, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		step, err := ruleToStep(path, i, list.Index(i))
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// ruleToStep converts one `rules` entry into a validation step.
func ruleToStep(path string, idx int, v starlark.Value) (validate.Step, error) {
	dict, ok := v.(*starlark.Dict)
	if !ok {
		return validate.Step{}, &LoadError{File: path, Message: fmt.Sprintf("rules[%d] must be a dict, got %s", idx, v.Type())}
	}

	id, err := dictString(dict, "id")
	if err != nil {
		return validate.Step{}, &LoadError{File: path, Message: fmt.Sprintf("rules[%d]: %v", idx, err)}
	}
	name, err := dictString(dict, "name")
	if err != nil {
		return validate.Step{}, &LoadError{File: path, Message: fmt.Sprintf("rules[%d]: %v", idx, err)}
	}

	checkVal, found, _ := dict.Get(starlark.String("check"))
	if !found {
		return validate.Step{}, &LoadError{File: path, Message: fmt.Sprintf("rules[%d]: missing `check`", idx)}
	}
	check, ok := checkVal.(starlark.Callable)
	if !ok {
		return validate.Step{}, &LoadError{File: path, Message: fmt.Sprintf("rules[%d]: `check` must be callable, got %s", idx, checkVal.Type())}
	}

	source := filepath.Base(path)
	return validate.Step{
		ID:          id,
		Name:        name,
		Description: fmt.Sprintf("user rule from %s", source),
		Source:      source,
		Run: func(m *model.Model) error {
			return runCheck(source, id, check, m)
		},
	}, nil
}

// runCheck invokes the rule's check function against the model.
func runCheck(source, id string, check starlark.Callable, m *model.Model) error {
	thread := &starlark.Thread{
		Name: fmt.Sprintf("check:%s", id),
		Print: func(_ *starlark.Thread, _ string) {
			// Ignore prints during checks
		},
	}

	_, err := starlark.Call(thread, check, starlark.Tuple{ModelValue(m)}, nil)
	if err != nil {
		msg := err.Error()
		if evalErr, ok := err.(*starlark.EvalError); ok {
			// Msg carries the fail(...) text without the backtrace.
			msg = evalErr.Msg
		}
		return &RuleError{RuleID: id, File: source, Message: msg}
	}
	return nil
}

func dictString(d *starlark.Dict, key string) (string, error) {
	v, found, _ := d.Get(starlark.String(key))
	if !found {
		return "", fmt.Errorf("missing `%s`", key)
	}
	s, ok := starlark.AsString(v)
	if !ok {
		return "", fmt.Errorf("`%s` must be a string, got %s", key, v.Type())
	}
	return s, nil
}

// LoadError reports a rules file that could not be loaded.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// RuleError reports a model rejected by a user rule.
type RuleError struct {
	RuleID  string
	File    string
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s (%s): %s", e.RuleID, e.File, e.Message)
}
