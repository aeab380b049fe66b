package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/schemaforge/internal/migration"
)

// Scenario describes one migration to plan, gate and apply.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema selects the schema to migrate when the sources declare more
	// than one.
	Schema string `yaml:"schema,omitempty"`

	// Old is the CUE source of the stored schema. Empty means the schema
	// does not exist yet.
	Old string `yaml:"old,omitempty"`

	// New is the CUE source of the target schema.
	New string `yaml:"new"`

	// Renames are "old:new" rename hints.
	Renames []string `yaml:"renames,omitempty"`

	// Confirm, when present, gates the plan before it is applied.
	Confirm *Confirm `yaml:"confirm,omitempty"`

	// FailOn fails every statement containing this substring.
	FailOn string `yaml:"fail_on,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Confirm mirrors migration.Confirmation in scenario files.
type Confirm struct {
	AllowDestructive bool `yaml:"allow_destructive"`
	AllowRisky       bool `yaml:"allow_risky"`
}

// Confirmation converts c for migration.Gate.
func (c Confirm) Confirmation() migration.Confirmation {
	return migration.Confirmation{AllowDestructive: c.AllowDestructive, AllowRisky: c.AllowRisky}
}

// Expect holds the checks evaluated after a scenario runs. Empty values
// are not checked.
type Expect struct {
	// Steps is the exact ordered list of step kinds.
	Steps []string `yaml:"steps,omitempty"`

	// Safety is the plan's overall safety tier.
	Safety string `yaml:"safety,omitempty"`

	// Gate is the MigrationError code the gate must return.
	Gate string `yaml:"gate,omitempty"`

	// StatementsContain lists statements the plan must lower to, in order
	// but not necessarily adjacent.
	StatementsContain []string `yaml:"statements_contain,omitempty"`

	// Status is the recorded history status: applied or failed.
	Status string `yaml:"status,omitempty"`

	// FailedStep is the 1-based failing step for a failed apply.
	FailedStep int `yaml:"failed_step,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
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

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.New == "" {
		return fmt.Errorf("new schema source is required")
	}

	for i, r := range s.Renames {
		if _, err := migration.ParseRename(r); err != nil {
			return fmt.Errorf("renames[%d]: %w", i, err)
		}
	}
	if len(s.Renames) > 0 && s.Old == "" {
		return fmt.Errorf("renames need an old schema source")
	}

	if s.Expect.Safety != "" {
		if _, err := migration.ParseSafety(s.Expect.Safety); err != nil {
			return fmt.Errorf("expect.safety: %w", err)
		}
	}
	if s.Expect.Gate != "" && s.Confirm == nil {
		return fmt.Errorf("expect.gate needs a confirm section")
	}

	switch s.Expect.Status {
	case "", "applied", "failed":
	default:
		return fmt.Errorf("expect.status: unknown status %q", s.Expect.Status)
	}
	if s.Expect.FailedStep < 0 {
		return fmt.Errorf("expect.failed_step must be non-negative")
	}
	if s.Expect.FailedStep > 0 && s.Expect.Status != "failed" {
		return fmt.Errorf("expect.failed_step needs status failed")
	}
	return nil
}
