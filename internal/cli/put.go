package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/schema"
)

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <schema> <records.json>",
		Short: "Store records for a schema",
		Long: `Store JSON records in the local store under an applied schema. The
file holds one object or an array of objects; use "-" to read stdin.
An "id" member keeps an existing entity id, otherwise one is generated.
Members that are not fields of the schema are rejected.

Examples:
  schemaforge put Contact contacts.json
  echo '{"name": "Ada"}' | schemaforge put Contact -`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runPut(opts *RootOptions, args []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	var data []byte
	if args[1] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[1])
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read records", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := st.ReadSnapshot(ctx, args[0])
	if errors.Is(err, sql.ErrNoRows) {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("schema %s has not been applied", args[0]), nil)
		return NewExitError(ExitCommandError, "schema "+args[0]+" not found")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read snapshot", err)
	}

	objects, err := decodeRecords(data)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid records", err)
	}

	ids := make([]string, 0, len(objects))
	for i, obj := range objects {
		id, body, err := recordFromObject(obj, snap.Definition)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("record %d", i), err)
		}
		if err := st.PutRecord(ctx, snap.Definition.ID, id, body); err != nil {
			return WrapExitError(ExitCommandError, "failed to store record", err)
		}
		ids = append(ids, id.String())
	}

	return f.Success(ids, func(w io.Writer) {
		fmt.Fprintf(w, "✓ stored %d record(s) in %s\n", len(ids), args[0])
	})
}

// decodeRecords accepts a single JSON object or an array of objects.
func decodeRecords(data []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	switch v := raw.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("[%d]: expected an object", i)
			}
			out = append(out, obj)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected an object or an array of objects")
	}
}

func recordFromObject(obj map[string]any, def *schema.Definition) (ir.EntityID, ir.Composite, error) {
	id := ir.NewEntityID()
	if raw, ok := obj["id"]; ok {
		s, ok := raw.(string)
		if !ok {
			return ir.EntityID{}, nil, fmt.Errorf("id must be a string")
		}
		parsed, err := ir.ParseEntityID(s)
		if err != nil {
			return ir.EntityID{}, nil, err
		}
		id = parsed
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		if k != "id" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	body := make(ir.Composite, len(keys))
	for _, k := range keys {
		if _, ok := def.Field(k); !ok {
			return ir.EntityID{}, nil, fmt.Errorf("unknown field '%s' in schema '%s'", k, def.Name)
		}
		v, err := ir.FromNative(obj[k])
		if err != nil {
			return ir.EntityID{}, nil, fmt.Errorf("%s: %w", k, err)
		}
		body[k] = v
	}
	return id, body, nil
}

// marshalLine renders a plain record as one line of JSON.
func marshalLine(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
