package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// immutableFields are never taken from a patch.
var immutableFields = map[string]bool{
	"id":         true,
	"user_id":    true,
	"created_at": true,
	"updated_at": true,
}

// Merge applies a shallow JSON patch to cur: each top-level key of patch
// replaces the same key of cur. Unknown keys and values of the wrong type
// are errors.
func Merge[T any](cur T, patch map[string]json.RawMessage) (T, error) {
	var zero T
	b, err := json.Marshal(cur)
	if err != nil {
		return zero, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return zero, err
	}
	for k, v := range patch {
		if immutableFields[k] {
			continue
		}
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("merge: %w", err)
	}
	var out T
	if err := decodeStrict(merged, &out); err != nil {
		return zero, fmt.Errorf("merge: %w", err)
	}
	return out, nil
}

func decodeStrict(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}
