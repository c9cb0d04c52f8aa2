package message

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrJSONUnmarshalFailed = errors.New("failed to unmarshal JSON message")

// ParseDynamicJSON parses JSON data from a byte slice into a DynamicMessage map.
// It returns ErrJSONUnmarshalFailed (wrapping the original error) if unmarshalling fails.
func ParseDynamicJSON(data []byte) (DynamicMessage, error) {
	var msg DynamicMessage

	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}
	return msg, nil
}
