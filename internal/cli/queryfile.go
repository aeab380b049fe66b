package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/queryir"
	"github.com/roach88/schemaforge/internal/schema"
)

// QueryFile is the YAML form of a query:
//
//	filter:
//	  and:
//	    - eq: {status: Customer}
//	    - gt: {age: 25}
//	    - not: {starts_with: {name: "Al"}}
//	    - in: {city: [London, Paris]}
//	sort: ["age desc", "name"]
//	limit: 10
//	offset: 5
//
// Each filter node is a single-key mapping naming its operator.
type QueryFile struct {
	Filter map[string]any `yaml:"filter"`
	Sort   []string       `yaml:"sort"`
	Limit  *uint          `yaml:"limit"`
	Offset *uint          `yaml:"offset"`
}

// ParseQueryFile decodes YAML into a query over the schema with id.
func ParseQueryFile(data []byte, id schema.SchemaID) (queryir.Query, error) {
	var qf QueryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&qf); err != nil && !errors.Is(err, io.EOF) {
		return queryir.Query{}, fmt.Errorf("failed to parse query: %w", err)
	}

	q := queryir.NewQuery(id)
	if qf.Filter != nil {
		f, err := parseFilterNode(qf.Filter)
		if err != nil {
			return queryir.Query{}, fmt.Errorf("filter: %w", err)
		}
		q = q.WithFilter(f)
	}
	for i, s := range qf.Sort {
		field, dir, _ := strings.Cut(strings.TrimSpace(s), " ")
		order := queryir.Ascending
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			order = queryir.Descending
		default:
			return queryir.Query{}, fmt.Errorf("sort[%d]: unknown direction %q", i, dir)
		}
		path, err := queryir.ParsePath(field)
		if err != nil {
			return queryir.Query{}, fmt.Errorf("sort[%d]: %w", i, err)
		}
		q = q.WithSort(path, order)
	}
	if qf.Limit != nil {
		q = q.WithLimit(*qf.Limit)
	}
	if qf.Offset != nil {
		q = q.WithOffset(*qf.Offset)
	}
	return q, nil
}

func parseFilterNode(node any) (queryir.Filter, error) {
	m, ok := node.(map[string]any)
	if !ok || len(m) != 1 {
		return nil, fmt.Errorf("filter node must be a mapping with exactly one operator")
	}
	var op string
	var arg any
	for k, v := range m {
		op, arg = k, v
	}

	switch op {
	case "and", "or":
		items, ok := arg.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected a list of filters", op)
		}
		children := make([]queryir.Filter, 0, len(items))
		for i, item := range items {
			child, err := parseFilterNode(item)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", op, i, err)
			}
			children = append(children, child)
		}
		if op == "and" {
			return queryir.And(children...), nil
		}
		return queryir.Or(children...), nil

	case "not":
		child, err := parseFilterNode(arg)
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		return queryir.Negate(child), nil
	}

	path, raw, err := singleEntry(op, arg)
	if err != nil {
		return nil, err
	}

	switch op {
	case "contains", "starts_with":
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s: value must be a string", op)
		}
		if op == "contains" {
			return queryir.Contains(path, s), nil
		}
		return queryir.StartsWith(path, s), nil

	case "in":
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("in: expected a list of values")
		}
		values := make([]ir.Value, 0, len(items))
		for i, item := range items {
			v, err := ir.FromNative(item)
			if err != nil {
				return nil, fmt.Errorf("in[%d]: %w", i, err)
			}
			values = append(values, v)
		}
		return queryir.InSet(path, values...), nil
	}

	build, ok := comparisons[op]
	if !ok {
		return nil, fmt.Errorf("unknown operator %q (known: %s)", op, knownOperators())
	}
	v, err := ir.FromNative(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return build(path, v), nil
}

var comparisons = map[string]func(queryir.FieldPath, ir.Value) queryir.Filter{
	"eq":  queryir.Eq,
	"ne":  queryir.Ne,
	"gt":  queryir.Gt,
	"gte": queryir.Gte,
	"lt":  queryir.Lt,
	"lte": queryir.Lte,
}

func knownOperators() string {
	ops := []string{"and", "or", "not", "contains", "starts_with", "in"}
	for op := range comparisons {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return strings.Join(ops, ", ")
}

// singleEntry reads the {path: value} argument of a leaf operator.
func singleEntry(op string, arg any) (queryir.FieldPath, any, error) {
	m, ok := arg.(map[string]any)
	if !ok || len(m) != 1 {
		return queryir.FieldPath{}, nil, fmt.Errorf("%s: expected a single {field: value} mapping", op)
	}
	var field string
	var value any
	for k, v := range m {
		field, value = k, v
	}
	path, err := queryir.ParsePath(field)
	if err != nil {
		return queryir.FieldPath{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	return path, value, nil
}
