package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType_Names(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"string", "string", false},
		{"int", "int", false},
		{"float", "float", false},
		{"bool", "bool", false},
		{"any", "any", false},
		{"", "any", false},
		{"[string]", "[string]", false},
		{"[[int]]", "[[int]]", false},
		{"decimal", "", true},
		{"[decimal]", "", true},
	}

	for _, tt := range tests {
		typ, err := ParseType(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseType(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseType(%q)", tt.in)
		assert.Equal(t, tt.want, typ.Name())
	}
}

func TestParseType_Scalars(t *testing.T) {
	tests := []struct {
		typeStr string
		value   any
		wantErr bool
	}{
		{"string", "hello", false},
		{"string", "", false},
		{"string", 42, true},
		{"string", nil, true},

		{"int", 42, false},
		{"int", int64(42), false},
		{"int", float64(42), false}, // whole float from JSON
		{"int", 42.5, true},
		{"int", "42", true},

		{"float", 3.14, false},
		{"float", float32(3.14), false},
		{"float", 42, false},
		{"float", "3.14", true},

		{"bool", true, false},
		{"bool", 1, true},

		{"any", nil, false},
		{"any", map[string]any{"k": "v"}, false},
	}

	for _, tt := range tests {
		typ, err := ParseType(tt.typeStr)
		require.NoError(t, err)

		err = typ.Validate(tt.value)
		if tt.wantErr {
			assert.Error(t, err, "%s.Validate(%v)", tt.typeStr, tt.value)
		} else {
			assert.NoError(t, err, "%s.Validate(%v)", tt.typeStr, tt.value)
		}
	}
}

func TestParseType_Slices(t *testing.T) {
	typ, err := ParseType("[string]")
	require.NoError(t, err)

	assert.NoError(t, typ.Validate([]string{"a", "b"}))
	assert.NoError(t, typ.Validate([]any{"a", "b"}))
	assert.ErrorContains(t, typ.Validate([]any{"a", 1}), "element 1")
	assert.Error(t, typ.Validate("not-a-slice"))

	nested, err := ParseType("[[int]]")
	require.NoError(t, err)
	assert.NoError(t, nested.Validate([][]int{{1}, {2, 3}}))
	assert.Error(t, nested.Validate([]int{1, 2}))
}

func TestTypeZeroValue(t *testing.T) {
	var typ Type
	assert.Equal(t, "any", typ.Name())
	assert.NoError(t, typ.Validate(struct{}{}))
}

func TestCustomType(t *testing.T) {
	positive := Custom("positive_int", func(v any) error {
		i, ok := v.(int)
		if !ok {
			return fmt.Errorf("expected int")
		}
		if i <= 0 {
			return fmt.Errorf("must be positive")
		}
		return nil
	})

	assert.Equal(t, "positive_int", positive.Name())
	assert.NoError(t, positive.Validate(3))
	assert.Error(t, positive.Validate(-1))
}

func TestParseTypeMap(t *testing.T) {
	s, err := ParseTypeMap(map[string]string{"a": "string", "b": "[int]"})
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, "[int]", s["b"].Name())

	_, err = ParseTypeMap(map[string]string{"a": "nope"})
	assert.ErrorContains(t, err, "param a")
}
