package schema

import (
	"fmt"
	"reflect"
)

// Type validates run-parameter values against a declared type name. Documents
// only ever name types as strings, so ParseType is how built-in types come
// into existence. The zero value accepts everything.
type Type struct {
	name  string
	check func(any) error
}

// Name returns the declared type name, "any" for the zero value.
func (t Type) Name() string {
	if t.name == "" {
		return "any"
	}
	return t.name
}

// Validate checks whether a value conforms to the type.
func (t Type) Validate(value any) error {
	if t.check == nil {
		return nil
	}
	return t.check(value)
}

// Custom builds a type from a caller-supplied validation function, for
// parameters the built-in names cannot describe.
func Custom(name string, check func(any) error) Type {
	return Type{name: name, check: check}
}

// scalarChecks holds the built-in scalar type names. Ints tolerate whole
// floats because JSON decoding hands every number over as float64.
var scalarChecks = map[string]func(any) error{
	"string": func(v any) error {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		return nil
	},
	"int": func(v any) error {
		switch n := v.(type) {
		case int, int8, int16, int32, int64:
			return nil
		case float64:
			if n == float64(int64(n)) {
				return nil
			}
			return fmt.Errorf("expected int, got float (not a whole number)")
		default:
			return fmt.Errorf("expected int, got %T", v)
		}
	},
	"float": func(v any) error {
		switch v.(type) {
		case float32, float64, int, int8, int16, int32, int64:
			return nil
		default:
			return fmt.Errorf("expected float, got %T", v)
		}
	},
	"bool": func(v any) error {
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		return nil
	},
}

// sliceOf lifts an element type into its slice type "[elem]".
func sliceOf(elem Type) Type {
	return Type{
		name: fmt.Sprintf("[%s]", elem.Name()),
		check: func(v any) error {
			rv := reflect.ValueOf(v)
			if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
				return fmt.Errorf("expected slice, got %T", v)
			}
			for i := 0; i < rv.Len(); i++ {
				if err := elem.Validate(rv.Index(i).Interface()); err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
			}
			return nil
		},
	}
}

// ParseType converts a type name to a Type: "string", "int", "float", "bool",
// "any" (or empty), and slices thereof nested to any depth ("[string]",
// "[[int]]").
func ParseType(typeStr string) (Type, error) {
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elem, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return Type{}, err
		}
		return sliceOf(elem), nil
	}

	if typeStr == "" || typeStr == "any" {
		return Type{name: "any"}, nil
	}
	check, ok := scalarChecks[typeStr]
	if !ok {
		return Type{}, fmt.Errorf("unsupported type: %s", typeStr)
	}
	return Type{name: typeStr, check: check}, nil
}

// ParseTypeMap converts a map of parameter names to type strings into a Schema.
// Example: {"user_name": "string", "history_depth": "int"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema)
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
