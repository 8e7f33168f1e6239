package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ledger/internal/ledger"
)

// Scenario defines a ledger scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// MaxAttempts overrides the engine's write attempts per step when > 0.
	MaxAttempts int `yaml:"max_attempts,omitempty"`

	// Steps are applied in order, each against the state left by the last.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final ledger.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step operation names.
const (
	OpAddComponent = "add_component"
	OpAddSetup     = "add_setup"
	OpAddVersion   = "add_version"
	OpAddTest      = "add_test"
)

// Step is one ledger operation. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	ID           string            `yaml:"id,omitempty"`
	Name         string            `yaml:"name,omitempty"`
	ComponentIDs []string          `yaml:"component_ids,omitempty"`
	ComponentID  string            `yaml:"component_id,omitempty"`
	Tag          string            `yaml:"tag,omitempty"`
	SetupID      string            `yaml:"setup_id,omitempty"`
	Status       string            `yaml:"status,omitempty"`
	Versions     map[string]string `yaml:"versions,omitempty"`
	Description  string            `yaml:"description,omitempty"`

	// Rival steps are written by a second writer after this scenario's last
	// fetch, so the step's first write attempt conflicts.
	Rival []Step `yaml:"rival,omitempty"`

	// Expect specifies the required outcome. If nil, the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the outcome of a step.
type Expect struct {
	// Error is the required ledger error code; empty means success.
	Error string `yaml:"error,omitempty"`

	// Warnings are the exact warning codes, in order.
	Warnings []string `yaml:"warnings,omitempty"`

	// Attempts is the required number of write attempts when non-zero.
	Attempts int `yaml:"attempts,omitempty"`
}

// Mutation converts the step into the ledger mutation it applies.
func (s Step) Mutation() (ledger.Mutation, error) {
	switch s.Op {
	case OpAddComponent:
		return ledger.AddComponent{ID: s.ID, Name: s.Name}, nil
	case OpAddSetup:
		return ledger.AddSetup{ID: s.ID, Name: s.Name, ComponentIDs: s.ComponentIDs}, nil
	case OpAddVersion:
		return ledger.AddVersion{ComponentID: s.ComponentID, Tag: s.Tag}, nil
	case OpAddTest:
		return ledger.AddTest{
			SetupID:             s.SetupID,
			Status:              s.Status,
			ComponentVersionMap: s.Versions,
			Description:         s.Description,
		}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", s.Op)
	}
}

// Assertion validates the final ledger.
type Assertion struct {
	// Type specifies the assertion type (see package documentation).
	Type string `yaml:"type"`

	Component  string              `yaml:"component,omitempty"`
	Components []string            `yaml:"components,omitempty"`
	Setup      string              `yaml:"setup,omitempty"`
	Tag        string              `yaml:"tag,omitempty"`
	Latest     map[string]string   `yaml:"latest,omitempty"`
	Versions   map[string][]string `yaml:"versions,omitempty"`
	Statuses   []string            `yaml:"statuses,omitempty"`
	Warnings   []string            `yaml:"warnings,omitempty"`
	Error      string              `yaml:"error,omitempty"`
	Collection string              `yaml:"collection,omitempty"`
	Count      int                 `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertLatestVersion      = "latest_version"
	AssertLatestVersions     = "latest_versions"
	AssertComponentsVersions = "components_versions"
	AssertSetupComponents    = "setup_components"
	AssertSetupTests         = "setup_tests"
	AssertCount              = "count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
// Step payloads are not checked: rejecting bad payloads is the ledger's job.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be non-negative")
	}

	for i, step := range s.Steps {
		if _, err := step.Mutation(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		for j, rival := range step.Rival {
			if _, err := rival.Mutation(); err != nil {
				return fmt.Errorf("steps[%d].rival[%d]: %w", i, j, err)
			}
			if len(rival.Rival) > 0 || rival.Expect != nil {
				return fmt.Errorf("steps[%d].rival[%d]: rival steps cannot have rival or expect", i, j)
			}
		}
		if step.Expect != nil && step.Expect.Attempts < 0 {
			return fmt.Errorf("steps[%d].expect: attempts must be non-negative", i)
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
	case AssertLatestVersion:
		if a.Component == "" {
			return fmt.Errorf("assertions[%d]: component is required for latest_version", index)
		}
	case AssertLatestVersions:
		if a.Error == "" && a.Latest == nil {
			return fmt.Errorf("assertions[%d]: latest or error is required for latest_versions", index)
		}
	case AssertComponentsVersions:
		if len(a.Components) == 0 {
			return fmt.Errorf("assertions[%d]: components list is required for components_versions", index)
		}
	case AssertSetupComponents, AssertSetupTests:
		if a.Setup == "" {
			return fmt.Errorf("assertions[%d]: setup is required for %s", index, a.Type)
		}
	case AssertCount:
		switch a.Collection {
		case "components", "versions", "setups", "tests":
		default:
			return fmt.Errorf("assertions[%d]: collection must be components, versions, setups or tests", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
