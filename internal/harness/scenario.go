package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario drives one form through a sequence of steps and asserts on the
// resulting commits and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists CUE files holding form definitions. Paths are relative to
	// the scenario file.
	Specs []string `yaml:"specs"`

	// Form names the definition to instantiate.
	Form string `yaml:"form"`

	// Mode and ReValidateMode override the definition's settings.
	Mode           string `yaml:"mode,omitempty"`
	ReValidateMode string `yaml:"reValidateMode,omitempty"`

	// Defaults selects how the definition's defaults are delivered:
	// literal (default), sync, deferred or failing.
	Defaults string `yaml:"defaults,omitempty"`

	// IDs are handed out to field array items in order. Without them IDs
	// are item-1, item-2, ...
	IDs []string `yaml:"ids,omitempty"`

	// Steps are the operations to perform, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Defaults delivery modes.
const (
	DefaultsLiteral  = "literal"
	DefaultsSync     = "sync"
	DefaultsDeferred = "deferred"
	DefaultsFailing  = "failing"
)

// Step is one form operation.
type Step struct {
	// Op is the operation, see the Op constants.
	Op string `yaml:"op"`

	Path  string   `yaml:"path,omitempty"`
	Paths []string `yaml:"paths,omitempty"`

	// Value is the tree written by set, or the item of append, prepend
	// and insert. Items holds the items of replace.
	Value any   `yaml:"value,omitempty"`
	Items []any `yaml:"items,omitempty"`

	// Raw is the UI input of change.
	Raw string `yaml:"raw,omitempty"`

	// Dirty, Touch and Validate are the set flags.
	Dirty    bool `yaml:"dirty,omitempty"`
	Touch    bool `yaml:"touch,omitempty"`
	Validate bool `yaml:"validate,omitempty"`

	Index int    `yaml:"index,omitempty"`
	From  int    `yaml:"from,omitempty"`
	To    int    `yaml:"to,omitempty"`
	ID    string `yaml:"id,omitempty"`

	// Rule and Message are the manual error of set_error.
	Rule    string `yaml:"rule,omitempty"`
	Message string `yaml:"message,omitempty"`

	// Fail, when set, is the error the step must return: stale_reference,
	// invalid_path or error for any other.
	Fail string `yaml:"fail,omitempty"`

	// Valid is the outcome trigger or submit must report.
	Valid *bool `yaml:"valid,omitempty"`
}

// Step operations.
const (
	OpRegister    = "register"
	OpUnregister  = "unregister"
	OpSet         = "set"
	OpChange      = "change"
	OpBlur        = "blur"
	OpTrigger     = "trigger"
	OpSubmit      = "submit"
	OpReset       = "reset"
	OpSetError    = "set_error"
	OpClearErrors = "clear_errors"
	OpAwait       = "await"
	OpAppend      = "append"
	OpPrepend     = "prepend"
	OpInsert      = "insert"
	OpRemove      = "remove"
	OpRemoveID    = "remove_id"
	OpMove        = "move"
	OpSwap        = "swap"
	OpReplace     = "replace"
)

var knownOps = map[string]bool{
	OpRegister: true, OpUnregister: true, OpSet: true, OpChange: true,
	OpBlur: true, OpTrigger: true, OpSubmit: true, OpReset: true,
	OpSetError: true, OpClearErrors: true, OpAwait: true, OpAppend: true,
	OpPrepend: true, OpInsert: true, OpRemove: true, OpRemoveID: true,
	OpMove: true, OpSwap: true, OpReplace: true,
}

// pathless ops work on the whole form.
var pathless = map[string]bool{
	OpTrigger: true, OpSubmit: true, OpReset: true, OpClearErrors: true, OpAwait: true,
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of the Assert constants.
	Type string `yaml:"type"`

	// Path scopes values and items assertions.
	Path string `yaml:"path,omitempty"`

	// Expect is the expected subtree (values), path-to-rule mapping
	// (errors), state subset (state) or ID list (items).
	Expect any `yaml:"expect,omitempty"`

	// Kind and Count are used by kind_count.
	Kind  string `yaml:"kind,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Kinds is the expected commit order for kind_order.
	Kinds []string `yaml:"kinds,omitempty"`
}

// Assertion types.
const (
	AssertValues    = "values"
	AssertErrors    = "errors"
	AssertState     = "state"
	AssertItems     = "items"
	AssertKindOrder = "kind_order"
	AssertKindCount = "kind_count"
)

// LoadScenario reads a scenario file. Spec paths are resolved against the
// file's directory. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads a scenario file and resolves relative spec
// paths against base.
func LoadScenarioWithBasePath(path, base string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	for i, spec := range s.Specs {
		if !filepath.IsAbs(spec) {
			s.Specs[i] = filepath.Join(base, spec)
		}
	}
	for _, spec := range s.Specs {
		if _, err := os.Stat(spec); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: spec file not found: %s", spec)
		}
	}
	return s, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}
	if s.Form == "" {
		return fmt.Errorf("form is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	switch s.Defaults {
	case "", DefaultsLiteral, DefaultsSync, DefaultsDeferred, DefaultsFailing:
	default:
		return fmt.Errorf("unknown defaults mode %q", s.Defaults)
	}

	for i, step := range s.Steps {
		if !knownOps[step.Op] {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.Path == "" && !pathless[step.Op] {
			return fmt.Errorf("steps[%d]: path is required for %s", i, step.Op)
		}
		switch step.Fail {
		case "", failStale, failInvalidPath, failAny:
		default:
			return fmt.Errorf("steps[%d]: unknown fail %q", i, step.Fail)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertValues, AssertErrors:
	case AssertState:
		if _, ok := a.Expect.(map[string]any); !ok {
			return fmt.Errorf("assertions[%d]: expect mapping is required for state", index)
		}
	case AssertItems:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for items", index)
		}
	case AssertKindOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for kind_order", index)
		}
	case AssertKindCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for kind_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for kind_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
