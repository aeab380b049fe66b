package ir

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTypeIDShape(t *testing.T) {
	id := NewTypeID(PrefixSchema)

	require.True(t, strings.HasPrefix(id, "schema_"))
	assert.Len(t, strings.TrimPrefix(id, "schema_"), 26)

	u, err := ParseTypeID(PrefixSchema, id)
	require.NoError(t, err)
	assert.Equal(t, 7, int(u.Version()))
}

func TestNewTypeIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewTypeID(PrefixMigration)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestParseTypeIDErrors(t *testing.T) {
	valid := NewTypeID(PrefixEntity)

	tests := []struct {
		name   string
		prefix string
		input  string
	}{
		{"no separator", PrefixEntity, "entity01h455vb4pex5vsknk084sn02q"},
		{"wrong prefix", PrefixSchema, valid},
		{"short suffix", PrefixEntity, "entity_abc"},
		{"uppercase suffix", PrefixEntity, "entity_" + strings.ToUpper(strings.TrimPrefix(valid, "entity_"))},
		{"invalid alphabet", PrefixEntity, "entity_" + strings.Repeat("u", 26)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTypeID(tt.prefix, tt.input)
			assert.Error(t, err)
		})
	}
}

func TestEntityIDJSON(t *testing.T) {
	id := NewEntityID()

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(data))

	var decoded EntityID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)

	assert.Error(t, json.Unmarshal([]byte(`"migration_01h455vb4pex5vsknk084sn02q"`), &decoded))
}
