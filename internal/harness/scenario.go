package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/entangle/internal/entangle"
)

// Scenario defines a conformance test scenario: a set of declaration files,
// the expected outcome of each construct and assertions on the output.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists paths to CUE declaration files.
	// Paths are relative to the scenario file location.
	Specs []string `yaml:"specs"`

	// StartCounter is the first impl namespace number of the session.
	StartCounter int64 `yaml:"start_counter,omitempty"`

	// Policy selects await/notify dispatch ("auto" if empty).
	Policy string `yaml:"policy,omitempty"`

	// Session is an optional fixed session id.
	// If empty, defaults to "test-session-default".
	Session string `yaml:"session,omitempty"`

	// Expect describes each construct's outcome, in load order.
	Expect []Expectation `yaml:"expect"`

	// Assertions validate the rendered output and the stored session.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Golden requests comparison against the scenario's golden file.
	Golden bool `yaml:"golden,omitempty"`
}

// Expectation is the expected outcome of one construct.
type Expectation struct {
	// Construct is the construct's display name (type name, or
	// `Trait for Type` for interface blocks).
	Construct string `yaml:"construct"`

	// Kind optionally pins the construct kind: struct, impl or trait_impl.
	Kind string `yaml:"kind,omitempty"`

	// Namespace optionally pins the actor or impl namespace.
	Namespace string `yaml:"namespace,omitempty"`

	// ErrorCode is the expected error code. Empty means the construct
	// must expand without error.
	ErrorCode string `yaml:"error_code,omitempty"`

	// Warnings lists the exact warning codes, in order.
	Warnings []string `yaml:"warnings,omitempty"`
}

// Assertion validates the rendered output or final session state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "output_contains": rendered source contains Text
	// - "output_excludes": rendered source does not contain Text
	// - "output_count": Text occurs exactly Count times
	// - "namespace_order": impl namespaces match Namespaces
	// - "final_counter": stored next_impl equals Count
	Type string `yaml:"type"`

	// Construct restricts output_contains/output_excludes to the constructs
	// with this name. Empty means the combined source.
	Construct string `yaml:"construct,omitempty"`

	// Text is the searched substring.
	Text string `yaml:"text,omitempty"`

	// Count is the expected occurrences (output_count) or counter value
	// (final_counter).
	Count *int64 `yaml:"count,omitempty"`

	// Namespaces is the expected namespace order (namespace_order).
	Namespaces []string `yaml:"namespaces,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains = "output_contains"
	AssertOutputExcludes = "output_excludes"
	AssertOutputCount    = "output_count"
	AssertNamespaceOrder = "namespace_order"
	AssertFinalCounter   = "final_counter"
)

// LoadScenario reads and parses a scenario YAML file, resolving spec paths
// relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve spec paths relative to base path BEFORE validation
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
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

	if len(s.Expect) == 0 {
		return fmt.Errorf("expect list is required and must be non-empty")
	}

	if s.StartCounter < 0 {
		return fmt.Errorf("start_counter must be non-negative")
	}

	if s.Policy != "" && !entangle.Policy(s.Policy).IsValid() {
		return fmt.Errorf("unknown policy %q", s.Policy)
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for i, e := range s.Expect {
		if e.Construct == "" {
			return fmt.Errorf("expect[%d]: construct is required", i)
		}
		switch entangle.ConstructKind(e.Kind) {
		case "", entangle.KindDataType, entangle.KindHandlerImpl, entangle.KindInterfaceImpl:
		default:
			return fmt.Errorf("expect[%d]: unknown kind %q", i, e.Kind)
		}
		if e.ErrorCode != "" && (e.Namespace != "" || len(e.Warnings) > 0) {
			return fmt.Errorf("expect[%d]: a failing construct has no namespace or warnings", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutputContains, AssertOutputExcludes:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertOutputCount:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for output_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for output_count", index)
		}
	case AssertNamespaceOrder:
		if len(a.Namespaces) == 0 {
			return fmt.Errorf("assertions[%d]: namespaces list is required for namespace_order", index)
		}
	case AssertFinalCounter:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for final_counter", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
