package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/schemaforge/internal/config"
)

const contactSchema = `
schema: Contact: {
	display: "name"
	fields: {
		name: {type: "text", required: true}
		age:  {type: "integer"}
	}
}
`

// testEnv is an isolated working directory with a schemas dir and a
// database path, and no config file in reach.
type testEnv struct {
	dir     string
	db      string
	schemas string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvDatabase, "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	schemas := filepath.Join(dir, "schemas")
	require.NoError(t, os.MkdirAll(schemas, 0o755))
	return &testEnv{dir: dir, db: filepath.Join(dir, "test.db"), schemas: schemas}
}

func (e *testEnv) writeSchema(t *testing.T, file, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.schemas, file), []byte(src), 0o644))
}

func (e *testEnv) writeFile(t *testing.T, file, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, file)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the root command with --db set and returns stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--db", e.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// mustRun is run that fails the test on error.
func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "output: %s", out)
	return out
}
