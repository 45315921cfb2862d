package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"required": ["message"],
	"properties": {
		"message":  {"type": "string", "minLength": 1},
		"latitude": {"type": "number", "minimum": -90, "maximum": 90}
	}
}`

func TestSchema_ValidateJSON(t *testing.T) {
	schema := MustCompile(testSchema)

	tests := []struct {
		name      string
		document  string
		wantValid bool
		wantField string
		wantCode  string
	}{
		{"valid", `{"message":"hello","latitude":-1.2}`, true, "", ""},
		{"missing required", `{"latitude":1}`, false, "message", "REQUIRED"},
		{"empty message", `{"message":""}`, false, "message", "STRING_GTE"},
		{"latitude out of range", `{"message":"hi","latitude":120}`, false, "latitude", "NUMBER_LTE"},
		{"wrong type", `{"message":42}`, false, "message", "INVALID_TYPE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := schema.ValidateJSON(tt.document)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			if tt.wantValid {
				assert.Empty(t, res.Errors)
				return
			}
			require.NotEmpty(t, res.Errors)
			assert.True(t, res.HasErrors(tt.wantField), res.GetErrorMessages())
			assert.Equal(t, tt.wantCode, res.Errors[0].Code)
		})
	}
}

func TestSchema_ValidateInput(t *testing.T) {
	schema := MustCompile(testSchema)

	res, err := schema.ValidateInput(map[string]interface{}{"message": "mvua"})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestSchema_MalformedDocument(t *testing.T) {
	_, err := MustCompile(testSchema).ValidateJSON(`{"message":`)
	assert.Error(t, err)
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile(`not json`) })
}
