package port

import (
	"fmt"
	"regexp"
	"strings"
)

// Reserved port names. Connections touching any of them skip schema checks.
const (
	Origin    = "origin"
	Output    = "output"
	Product   = "product"
	Trigger   = "trigger"
	Reference = "reference"

	// Chain is the form port that yields every record in a dock chain.
	Chain = "chain"

	FieldPrefix = "field:"
)

var reserved = map[string]struct{}{
	Origin:    {},
	Output:    {},
	Product:   {},
	Trigger:   {},
	Reference: {},
}

// fieldKeyRegex restricts field keys to identifier-like names.
var fieldKeyRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.-]*$`)

// ID is the parsed form of a port identifier.
type ID struct {
	Raw      string
	Field    string // non-empty for field ports
	Reserved bool
}

// IsField reports whether the id addresses a single record field.
func (id ID) IsField() bool {
	return id.Field != ""
}

// String returns the canonical identifier.
func (id ID) String() string {
	if id.Field != "" {
		return FieldPrefix + id.Field
	}
	return id.Raw
}

// Parse validates a raw port identifier.
func Parse(raw string) (*ID, error) {
	if raw == "" {
		return nil, fmt.Errorf("port identifier cannot be empty")
	}
	if _, ok := reserved[raw]; ok {
		return &ID{Raw: raw, Reserved: true}, nil
	}
	if raw == Chain {
		return &ID{Raw: raw}, nil
	}

	key := strings.TrimPrefix(raw, FieldPrefix)
	if key == "" {
		return nil, fmt.Errorf("field port %q has an empty key", raw)
	}
	if !fieldKeyRegex.MatchString(key) {
		return nil, fmt.Errorf("invalid field key %q", key)
	}
	return &ID{Raw: raw, Field: key}, nil
}

// Field builds the field port identifier for key.
func Field(key string) string {
	return FieldPrefix + key
}

// IsReserved reports whether raw names one of the reserved ports.
func IsReserved(raw string) bool {
	_, ok := reserved[raw]
	return ok
}

// FieldKey extracts the record key addressed by raw, if any.
func FieldKey(raw string) (string, bool) {
	id, err := Parse(raw)
	if err != nil || !id.IsField() {
		return "", false
	}
	return id.Field, true
}

// ScopedFieldKey is FieldKey restricted to the field: scope. Output ports
// resolve fields only through it; bare keys are a target-side fallback.
func ScopedFieldKey(raw string) (string, bool) {
	if !strings.HasPrefix(raw, FieldPrefix) {
		return "", false
	}
	return FieldKey(raw)
}
