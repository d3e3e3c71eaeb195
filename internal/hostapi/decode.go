package hostapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeList reads a list the host may return bare, wrapped in an envelope
// under one of keys (e.g. "data"), or as a single object.
func DecodeList[T any](raw json.RawMessage, keys ...string) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return items, nil
	}

	if raw[0] != '{' {
		return nil, fmt.Errorf("decode list: unexpected payload %q", truncate(raw))
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	for _, key := range keys {
		if inner, ok := envelope[key]; ok {
			return DecodeList[T](inner)
		}
	}

	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("decode list item: %w", err)
	}
	return []T{one}, nil
}

func truncate(b []byte) string {
	if len(b) > 80 {
		return string(b[:80]) + "..."
	}
	return string(b)
}
