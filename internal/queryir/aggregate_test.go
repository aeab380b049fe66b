package queryir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/schema"
)

func TestAggregateOpJSON(t *testing.T) {
	tests := []struct {
		op   AggregateOp
		want string
	}{
		{Count{}, `{"op":"Count"}`},
		{Sum{Path: MustPath("value")}, `{"op":"Sum","field":["value"]}`},
		{Avg{Path: MustPath("line_items.amount")}, `{"op":"Avg","field":["line_items","amount"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			data, err := json.Marshal(tt.op)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			decoded, err := UnmarshalAggregateOp(data)
			require.NoError(t, err)
			assert.Equal(t, tt.op, decoded)
		})
	}
}

func TestUnmarshalAggregateOpErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing op", `{"field":["value"]}`},
		{"unknown op", `{"op":"Median","field":["value"]}`},
		{"sum without field", `{"op":"Sum"}`},
		{"not an object", `[1]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalAggregateOp([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestAggregateQueryJSONRoundTrip(t *testing.T) {
	q := NewAggregateQuery(schema.NewSchemaID()).
		WithOp(Count{}).
		WithOp(Sum{Path: MustPath("score")}).
		WithOp(Avg{Path: MustPath("age")}).
		WithFilter(Eq(MustPath("active"), ir.Boolean(true)))

	data, err := json.Marshal(q)
	require.NoError(t, err)

	var decoded AggregateQuery
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, q.Schema, decoded.Schema)
	assert.Equal(t, q.Ops, decoded.Ops)
	assert.Equal(t, q.String(), decoded.String())

	bare := NewAggregateQuery(schema.NewSchemaID())
	data, err = json.Marshal(bare)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "filter")
	assert.Contains(t, string(data), `"ops":[]`)
}

func TestAggregateQueryBuildersDoNotAlias(t *testing.T) {
	base := NewAggregateQuery(schema.NewSchemaID()).WithOp(Count{})
	a := base.WithOp(Sum{Path: MustPath("age")})
	b := base.WithOp(Avg{Path: MustPath("age")})

	assert.Len(t, base.Ops, 1)
	assert.Equal(t, Sum{Path: MustPath("age")}, a.Ops[1])
	assert.Equal(t, Avg{Path: MustPath("age")}, b.Ops[1])
}

func TestAggregateQueryValidate(t *testing.T) {
	id := schema.NewSchemaID()

	tests := []struct {
		name    string
		query   AggregateQuery
		wantErr bool
	}{
		{"valid", NewAggregateQuery(id).WithOp(Count{}), false},
		{"no schema", AggregateQuery{Ops: []AggregateOp{Count{}}}, true},
		{"no ops", NewAggregateQuery(id), true},
		{"nil op", AggregateQuery{Schema: id, Ops: []AggregateOp{nil}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAggregate(t *testing.T) {
	def := contactSchema(t)

	t.Run("numeric fields", func(t *testing.T) {
		q := NewAggregateQuery(def.ID).
			WithOp(Count{}).
			WithOp(Sum{Path: MustPath("age")}).
			WithOp(Avg{Path: MustPath("score")}).
			WithOp(Sum{Path: MustPath("meta.total")})
		assert.Empty(t, ValidateAggregate(q, def))
	})

	t.Run("errors", func(t *testing.T) {
		q := NewAggregateQuery(def.ID).
			WithOp(Sum{Path: MustPath("name")}).
			WithOp(Avg{Path: MustPath("missing")}).
			WithFilter(Eq(MustPath("age"), ir.Text("x")))
		errs := ValidateAggregate(q, def)
		require.Len(t, errs, 3)
		assert.Equal(t, ErrCodeTypeMismatch, errs[0].Code)
		assert.Equal(t, "age", errs[0].Field)
		assert.Equal(t, ErrCodeTypeMismatch, errs[1].Code)
		assert.Equal(t, "name", errs[1].Field)
		assert.Equal(t, ErrCodeUnknownField, errs[2].Code)
		assert.Equal(t, "missing", errs[2].Field)
	})
}
