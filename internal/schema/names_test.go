package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchemaName(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"Contact", true},
		{"A", true},
		{"Order2024", true},
		{"SalesLead", true},
		{"contact", false},
		{"", false},
		{"Sales_Lead", false},
		{"1Contact", false},
		{"Contäct", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := NewSchemaName(tt.input)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, tt.input, n.String())
				return
			}
			require.Error(t, err)
			assert.True(t, HasSchemaErrorCode(err, ErrCodeInvalidSchemaName))
		})
	}
}

func TestNewFieldName(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"email", true},
		{"first_name", true},
		{"line2", true},
		{"a_", true},
		{"Email", false},
		{"_email", false},
		{"2nd", false},
		{"first-name", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := NewFieldName(tt.input)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, HasSchemaErrorCode(err, ErrCodeInvalidFieldName))
			}
		})
	}
}

func TestSchemaNameErrorMessage(t *testing.T) {
	_, err := NewSchemaName("foo")
	require.Error(t, err)
	assert.Equal(t, "invalid schema name 'foo': must be PascalCase [A-Z][a-zA-Z0-9]*", err.Error())
}

func TestNewSchemaVersion(t *testing.T) {
	_, err := NewSchemaVersion(0)
	assert.True(t, HasSchemaErrorCode(err, ErrCodeInvalidSchemaVersion))

	v, err := NewSchemaVersion(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), v.Uint32())
	assert.Equal(t, uint32(4), v.Next().Uint32())
}

func TestNamesJSONRejectInvalid(t *testing.T) {
	var n SchemaName
	assert.Error(t, json.Unmarshal([]byte(`"lowercase"`), &n))

	var f FieldName
	assert.Error(t, json.Unmarshal([]byte(`"Upper"`), &f))

	var v SchemaVersion
	assert.Error(t, json.Unmarshal([]byte(`0`), &v))

	var id SchemaID
	assert.Error(t, json.Unmarshal([]byte(`"entity_01h455vb4pex5vsknk084sn02q"`), &id))
}

func TestSchemaIDRoundTrip(t *testing.T) {
	id := NewSchemaID()
	parsed, err := ParseSchemaID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestCardinalityJSON(t *testing.T) {
	data, err := json.Marshal(Many)
	require.NoError(t, err)
	assert.Equal(t, `"Many"`, string(data))

	var c Cardinality
	require.NoError(t, json.Unmarshal([]byte(`"one"`), &c))
	assert.Equal(t, One, c)

	assert.Error(t, json.Unmarshal([]byte(`"Few"`), &c))
}
