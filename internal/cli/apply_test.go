package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contactWithEmail = `
schema: Contact: {
	display: "name"
	fields: {
		name:  {type: "text", required: true}
		email: {type: "text", indexed: true}
	}
}
`

const contactRenamed = `
schema: Contact: fields: {
	full_name: {type: "text", required: true}
	age:       {type: "integer"}
}
`

func TestPlanCreate(t *testing.T) {
	env := newTestEnv(t)
	env.writeSchema(t, "contact.cue", contactSchema)

	out := env.mustRun(t, "plan", "--statements")
	assert.Contains(t, out, "Migration plan for 'Contact' (1 steps, safe)")
	assert.Contains(t, out, "1. CREATE schema 'Contact' with 2 fields [safe]")
	assert.Contains(t, out, "    DEFINE TABLE Contact SCHEMAFULL;")

	// Planning applies nothing.
	assert.Contains(t, env.mustRun(t, "history"), "No migrations recorded.")
}

func TestPlanJSON(t *testing.T) {
	env := newTestEnv(t)
	env.writeSchema(t, "contact.cue", contactSchema)
	env.writeSchema(t, "deal.cue", `schema: Deal: fields: title: {type: "text"}`)

	out := env.mustRun(t, "--format", "json", "plan")

	var resp struct {
		Status string     `json:"status"`
		Data   []PlanView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Contact", resp.Data[0].Schema)
	assert.Equal(t, "Deal", resp.Data[1].Schema)
	for _, p := range resp.Data {
		assert.True(t, p.Create)
		assert.Equal(t, "safe", p.Safety)
		require.Len(t, p.Steps, 1)
		assert.Equal(t, "CreateSchema", p.Steps[0].Kind)
		assert.NotEmpty(t, p.MigrationID)
	}
	assert.Equal(t, []string{
		"DEFINE TABLE Deal SCHEMAFULL;",
		"DEFINE FIELD title ON Deal TYPE option<string>;",
	}, resp.Data[1].Statements)
}

func TestApplyLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.writeSchema(t, "contact.cue", contactSchema)

	out := env.mustRun(t, "apply")
	assert.Contains(t, out, "✓ Contact: applied 1 step(s), 3 statement(s)")
	assert.Contains(t, env.mustRun(t, "plan"), "Contact: up to date")
	assert.Contains(t, env.mustRun(t, "apply"), "Contact: up to date")

	// Dropping age is destructive and needs --force.
	env.writeSchema(t, "contact.cue", contactWithEmail)
	out, err := env.run(t, "apply")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E201]")
	assert.Contains(t, out, "REMOVE field 'age'")

	out = env.mustRun(t, "apply", "--force")
	assert.Contains(t, out, "✓ Contact: applied 2 step(s), 3 statement(s)")

	history := env.mustRun(t, "history", "Contact")
	assert.Contains(t, history, "#")
	assert.Contains(t, history, "applied [safe] 1 step(s)")
	assert.Contains(t, history, "applied [destructive] 2 step(s)")

	journal := env.mustRun(t, "statements", "Contact")
	assert.Contains(t, journal, "DEFINE TABLE Contact SCHEMAFULL;")
	assert.Contains(t, journal, "REMOVE FIELD age ON Contact;")
	assert.Contains(t, journal, "DEFINE INDEX idx_Contact_email ON Contact FIELDS email;")
}

func TestApplyRenameNeedsConfirmation(t *testing.T) {
	env := newTestEnv(t)
	env.writeSchema(t, "contact.cue", contactSchema)
	env.mustRun(t, "apply")

	env.writeSchema(t, "contact.cue", contactRenamed)
	out, err := env.run(t, "apply", "--schema", "Contact", "--rename", "name:full_name")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "requires confirmation")

	out = env.mustRun(t, "apply", "--schema", "Contact", "--rename", "name:full_name", "--yes")
	assert.Contains(t, out, "✓ Contact: applied 1 step(s), 3 statement(s)")
	assert.Contains(t, env.mustRun(t, "statements"), "UPDATE Contact SET full_name = name;")
}

func TestApplyRenameRequiresSchema(t *testing.T) {
	env := newTestEnv(t)
	env.writeSchema(t, "contact.cue", contactSchema)

	_, err := env.run(t, "apply", "--rename", "name:full_name")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--rename requires --schema")

	_, err = env.run(t, "plan", "--schema", "Contact", "--rename", "nocolon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rename")

	_, err = env.run(t, "plan", "--schema", "Deal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema Deal not found")
}

func TestApplyConfigAllowsDestructive(t *testing.T) {
	env := newTestEnv(t)
	env.writeSchema(t, "contact.cue", contactSchema)
	env.writeFile(t, "schemaforge.yaml", "migrate:\n  allow_destructive: true\n  require_confirmation: false\n")
	env.mustRun(t, "apply")

	env.writeSchema(t, "contact.cue", contactWithEmail)
	out := env.mustRun(t, "apply")
	assert.Contains(t, out, "✓ Contact: applied 2 step(s)")
}

func TestApplyDryRun(t *testing.T) {
	env := newTestEnv(t)
	env.writeSchema(t, "contact.cue", contactSchema)

	out := env.mustRun(t, "apply", "--dry-run")
	assert.Contains(t, out, "Contact: 1 step(s) [safe], dry run")
	assert.Contains(t, out, "    DEFINE TABLE Contact SCHEMAFULL;")

	assert.Contains(t, env.mustRun(t, "history"), "No migrations recorded.")
	assert.Contains(t, env.mustRun(t, "statements"), "No statements executed.")
	assert.Contains(t, env.mustRun(t, "plan"), "Migration plan for 'Contact'")
}

func TestApplyJSONWithMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.writeSchema(t, "contact.cue", contactSchema)
	metricsPath := filepath.Join(env.dir, "apply.prom")

	out := env.mustRun(t, "--format", "json", "apply", "--metrics-file", metricsPath)

	var resp struct {
		Status string        `json:"status"`
		Data   []AppliedView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "applied", resp.Data[0].Status)
	assert.Len(t, resp.Data[0].Executed, 3)

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `schemaforge_apply_plans_total{schema="Contact",status="applied"} 1`)
	assert.Contains(t, string(metrics), `schemaforge_apply_statements_total{schema="Contact",status="ok"} 3`)
}

func TestHistoryJSON(t *testing.T) {
	env := newTestEnv(t)
	env.writeSchema(t, "contact.cue", contactSchema)
	env.mustRun(t, "apply")

	out := env.mustRun(t, "--format", "json", "history")
	var resp struct {
		Data []HistoryView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	h := resp.Data[0]
	assert.Equal(t, "Contact", h.Schema)
	assert.Equal(t, "applied", h.Status)
	assert.Equal(t, "safe", h.Safety)
	assert.Equal(t, []string{"CREATE schema 'Contact' with 2 fields"}, h.Steps)
	assert.NotEmpty(t, h.Checksum)
}
