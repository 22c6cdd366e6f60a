package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalCanonical encodes v as compact JSON without HTML escaping and
// without a trailing newline. Struct field order is fixed and map keys are
// sorted, so equal values always produce equal bytes.
func MarshalCanonical(v any) ([]byte, error) {
	return encode(v, "")
}

// MarshalPretty is MarshalCanonical with two-space indentation.
func MarshalPretty(v any) ([]byte, error) {
	return encode(v, "  ")
}

func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
