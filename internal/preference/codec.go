package preference

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyValue is returned by Decode for nil or blank input.
var ErrEmptyValue = errors.New("empty setting value")

// maxStringDepth bounds how many layers of JSON-in-a-string are unwrapped.
const maxStringDepth = 3

// Decode converts a value handed out by a settings store into T. Objects,
// raw JSON bytes, JSON strings and JSON strings holding serialized JSON are
// all accepted.
func Decode[T any](v any) (T, error) {
	var zero T
	if typed, ok := v.(T); ok {
		return typed, nil
	}

	switch x := v.(type) {
	case nil:
		return zero, ErrEmptyValue
	case string:
		return decodeBytes[T]([]byte(x), 0)
	case []byte:
		return decodeBytes[T](x, 0)
	case json.RawMessage:
		return decodeBytes[T](x, 0)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("re-encode setting value: %w", err)
	}
	return decodeBytes[T](b, 0)
}

func decodeBytes[T any](b []byte, depth int) (T, error) {
	var zero T
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return zero, ErrEmptyValue
	}

	if b[0] == '"' {
		if depth >= maxStringDepth {
			return zero, fmt.Errorf("setting value nested too deeply")
		}
		var inner string
		if err := json.Unmarshal(b, &inner); err != nil {
			return zero, fmt.Errorf("decode setting string: %w", err)
		}
		return decodeBytes[T]([]byte(inner), depth+1)
	}

	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, fmt.Errorf("decode setting value: %w", err)
	}
	return out, nil
}

// Encode serializes a value into the JSON text stored by string-based stores.
func Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode setting value: %w", err)
	}
	return string(b), nil
}
