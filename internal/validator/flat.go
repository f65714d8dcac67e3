package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// ObjectValidator requires the top-level value to be a JSON object.
type ObjectValidator struct{}

// Validate rejects arrays, null and scalars with ErrNotObject.
func (ObjectValidator) Validate(_ context.Context, value any) error {
	if _, ok := value.(map[string]any); !ok {
		return fmt.Errorf("%w: got %s", ErrNotObject, kindOf(value))
	}
	return nil
}

// FlatValidator requires every property value to be a scalar.
type FlatValidator struct{}

// Validate reports the first nested field in key order.
func (FlatValidator) Validate(_ context.Context, value any) error {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !IsScalar(obj[k]) {
			return fmt.Errorf("%w: field %q is %s", ErrNestedValue, k, kindOf(obj[k]))
		}
	}
	return nil
}

// IsScalar reports whether v is a JSON string, number, boolean or null.
func IsScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, json.Number, float64:
		return true
	default:
		return false
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number, float64:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
