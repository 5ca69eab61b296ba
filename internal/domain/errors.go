package domain

import "strings"

// FieldError names one offending payload field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError collects every schema violation in a payload so the
// caller sees them all in one 422 instead of one at a time.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func newValidationError() *ValidationError {
	return &ValidationError{}
}

func (v *ValidationError) add(field, reason string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Reason: reason})
}

func (v *ValidationError) orNil() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, f := range v.Fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Field)
		b.WriteString(" ")
		b.WriteString(f.Reason)
	}
	return b.String()
}
