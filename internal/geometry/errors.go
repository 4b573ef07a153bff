package geometry

import "fmt"

// ConfigurationError reports a shape or symmetry parameter that was rejected
// at a setter boundary. State is never mutated when one is returned.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Invalid builds a *ConfigurationError.
func Invalid(field string, value any, reason string) error {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}
