package queryir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		errCode QueryErrorCode
	}{
		{name: "simple", input: "name", want: []string{"name"}},
		{name: "nested", input: "company.industry", want: []string{"company", "industry"}},
		{name: "deep", input: "a.b.c", want: []string{"a", "b", "c"}},
		{name: "empty", input: "", errCode: ErrCodeEmptyFieldPath},
		{name: "double dot", input: "a..b", errCode: ErrCodeInvalidFieldPath},
		{name: "trailing dot", input: "a.", errCode: ErrCodeInvalidFieldPath},
		{name: "leading dot", input: ".a", errCode: ErrCodeInvalidFieldPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePath(tt.input)
			if tt.errCode != "" {
				require.Error(t, err)
				assert.True(t, HasQueryErrorCode(err, tt.errCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Segments())
			assert.Equal(t, len(tt.want), p.Depth())
			assert.Equal(t, tt.input, p.Dotted())
		})
	}
}

func TestFieldPathAccessors(t *testing.T) {
	p := MustPath("company.industry")
	assert.Equal(t, "company", p.Root())
	assert.Equal(t, "industry", p.Leaf())
	assert.False(t, p.IsSimple())
	assert.Equal(t, "company.industry", p.String())

	single, err := SinglePath("name")
	require.NoError(t, err)
	assert.True(t, single.IsSimple())
	assert.Equal(t, "name", single.Root())
	assert.Equal(t, "name", single.Leaf())

	assert.True(t, FieldPath{}.IsZero())
}

func TestFieldPathSegmentsIsCopy(t *testing.T) {
	p := MustPath("a.b")
	segs := p.Segments()
	segs[0] = "mutated"
	assert.Equal(t, "a.b", p.Dotted())
}

func TestInvalidPathMessage(t *testing.T) {
	_, err := ParsePath("a..b")
	require.Error(t, err)
	assert.Equal(t, "invalid field path 'a..b': path contains empty segment", err.Error())

	_, err = ParsePath("")
	require.Error(t, err)
	assert.Equal(t, "field path must not be empty", err.Error())
}

func TestFieldPathJSON(t *testing.T) {
	data, err := json.Marshal(MustPath("company.industry"))
	require.NoError(t, err)
	assert.JSONEq(t, `["company","industry"]`, string(data))

	var p FieldPath
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, "company.industry", p.Dotted())

	assert.Error(t, json.Unmarshal([]byte(`[]`), &p))
	assert.Error(t, json.Unmarshal([]byte(`["a",""]`), &p))
}
