package message

import "fmt"

// DynamicMessage represents a message with arbitrary key-value pairs,
// typically parsed from JSON.
type DynamicMessage map[string]interface{}

// GetFloat64 retrieves a float64 value for a given key. Handles missing
// keys, null values, and integer-to-float conversion. Returns the value and
// true on success.
func (dm DynamicMessage) GetFloat64(key string) (float64, bool) {
	val, exists := dm[key]
	if !exists || val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case float64: // most common case with JSON numbers
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}

	// Value exists but is not a convertible numeric type
	return 0, false
}

// GetInt64 retrieves an int64 value for a given key. JSON numbers decode as
// float64, so whole-valued floats convert; fractional values do not.
func (dm DynamicMessage) GetInt64(key string) (int64, bool) {
	val, exists := dm[key]
	if !exists || val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	}

	return 0, false
}

// HasNonNull checks if a key exists and its value is not explicitly null.
func (dm DynamicMessage) HasNonNull(key string) bool {
	val, exists := dm[key]
	return exists && val != nil
}

// GetFieldSnippet returns a string snippet of a field's value, useful for
// logging. It handles missing keys and truncates long values.
func (dm DynamicMessage) GetFieldSnippet(fieldName string, maxLength int) string {
	value, exists := dm[fieldName]
	if !exists {
		return "<missing>"
	}

	strValue := fmt.Sprintf("%v", value)

	if maxLength <= 0 {
		return "..."
	}
	if len(strValue) > maxLength {
		return strValue[:maxLength] + "..."
	}
	return strValue
}
