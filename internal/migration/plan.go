package migration

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/schema"
)

// Plan is an ordered list of steps for one schema. Steps must be applied in
// order. A Plan is never mutated after construction; Steps returns a copy.
type Plan struct {
	id         MigrationID
	schemaID   schema.SchemaID
	schemaName schema.SchemaName
	steps      []Step
}

// NewPlan builds a plan with a fresh migration ID.
func NewPlan(schemaID schema.SchemaID, schemaName schema.SchemaName, steps []Step) *Plan {
	return &Plan{
		id:         NewMigrationID(),
		schemaID:   schemaID,
		schemaName: schemaName,
		steps:      append([]Step(nil), steps...),
	}
}

// ID returns the plan's migration ID.
func (p *Plan) ID() MigrationID { return p.id }

// SchemaID returns the target schema's ID.
func (p *Plan) SchemaID() schema.SchemaID { return p.schemaID }

// SchemaName returns the target schema's name.
func (p *Plan) SchemaName() schema.SchemaName { return p.schemaName }

// Steps returns a copy of the ordered steps.
func (p *Plan) Steps() []Step { return append([]Step(nil), p.steps...) }

// Len returns the number of steps.
func (p *Plan) Len() int { return len(p.steps) }

// IsEmpty reports whether the plan has no steps.
func (p *Plan) IsEmpty() bool { return len(p.steps) == 0 }

// OverallSafety folds step tiers to the maximum. An empty plan is Safe.
func (p *Plan) OverallSafety() Safety {
	overall := Safe
	for _, s := range p.steps {
		overall = overall.Max(s.Safety())
	}
	return overall
}

// IsSafe reports whether every step is Safe.
func (p *Plan) IsSafe() bool { return p.OverallSafety() == Safe }

// HasDestructiveSteps reports whether any step is Destructive.
func (p *Plan) HasDestructiveSteps() bool { return p.OverallSafety() == Destructive }

// Checksum fingerprints the plan's content: schema name and steps, not the ID.
// Two plans computed from the same snapshots share a checksum.
func (p *Plan) Checksum() (string, error) {
	steps := p.steps
	if steps == nil {
		steps = []Step{}
	}
	return ir.Fingerprint(ir.DomainPlan, struct {
		SchemaName schema.SchemaName `json:"schema_name"`
		Steps      []Step            `json:"steps"`
	}{p.schemaName, steps})
}

func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Migration plan for '%s' (%d steps, %s)\n", p.schemaName, len(p.steps), p.OverallSafety())
	for i, s := range p.steps {
		fmt.Fprintf(&b, "  %d. %s [%s]\n", i+1, s, s.Safety())
	}
	return b.String()
}

type planJSON struct {
	ID         MigrationID       `json:"id"`
	SchemaID   schema.SchemaID   `json:"schema_id"`
	SchemaName schema.SchemaName `json:"schema_name"`
	Steps      []json.RawMessage `json:"steps"`
}

func (p *Plan) MarshalJSON() ([]byte, error) {
	steps := p.steps
	if steps == nil {
		steps = []Step{}
	}
	return json.Marshal(struct {
		ID         MigrationID       `json:"id"`
		SchemaID   schema.SchemaID   `json:"schema_id"`
		SchemaName schema.SchemaName `json:"schema_name"`
		Steps      []Step            `json:"steps"`
	}{p.id, p.schemaID, p.schemaName, steps})
}

func (p *Plan) UnmarshalJSON(data []byte) error {
	var raw planJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	steps := make([]Step, 0, len(raw.Steps))
	for i, rs := range raw.Steps {
		s, err := UnmarshalStep(rs)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		steps = append(steps, s)
	}
	*p = Plan{id: raw.ID, schemaID: raw.SchemaID, schemaName: raw.SchemaName, steps: steps}
	return nil
}
