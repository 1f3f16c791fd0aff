// Package jsonext holds small JSON helpers shared across the module.
package jsonext

import (
	"encoding/json"
	"fmt"
	"strings"

	xjson "github.com/charmbracelet/x/json"
)

// IsValidJSON reports whether data is one syntactically valid JSON value.
func IsValidJSON[T string | []byte](data T) bool {
	if len(data) == 0 { // hot path
		return false
	}
	return xjson.IsValid(string(data))
}

// Decode parses data into a generic Go value. Numbers decode as json.Number
// so large integers survive the round trip. Trailing non-whitespace content
// after the value is an error.
func Decode(data string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode json: trailing content after value")
	}
	return v, nil
}
