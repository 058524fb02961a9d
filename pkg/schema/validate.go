package schema

// Schema maps run-parameter names to their expected types, usually built by
// ParseTypeMap from a document's params block.
type Schema map[string]Type

// Validate checks if the supplied run parameters conform to the schema.
// Supplied parameters the schema does not mention pass through untouched; the
// engine treats missing declared parameters as warnings, so absence here is a
// type-level concern only when Strict is used.
//
// Returns an error aggregating all failures found.
func Validate(schema Schema, params map[string]any) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}

	var errs []error
	for name, typ := range schema {
		value, exists := params[name]
		if !exists {
			// Missing params degrade to resolution-time warnings, not type errors.
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    name,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Strict checks that every declared parameter is both present and well-typed.
// Used by surfaces that want hard failures up front (e.g. the HTTP API) instead
// of the engine's lenient missing-field policy.
func Strict(schema Schema, params map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	var errs []error
	for name, typ := range schema {
		value, exists := params[name]
		if !exists {
			errs = append(errs, &ValidationError{Key: name, Reason: "required", Value: nil})
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    name,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
