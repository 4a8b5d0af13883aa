package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// HandledMarker is the substring the queue handler logs once it has handled a batch.
// The integration harness looks for it in the handler's log group.
const HandledMarker = "Handled SQS Event"

// Body is the open-ended payload published to the topic. No field is required.
type Body map[string]any

// NewProbeBody returns a body carrying a fresh probe_id so a single publish can be
// told apart in the logs.
func NewProbeBody() Body {
	return Body{"probe_id": uuid.NewString()}
}

// Marshal serializes the body to its wire form. A nil body is sent as "{}".
func (b Body) Marshal() (string, error) {
	if b == nil {
		return "{}", nil
	}
	data, err := json.Marshal(map[string]any(b))
	if err != nil {
		return "", fmt.Errorf("failed to marshal body to JSON: %w", err)
	}
	return string(data), nil
}

// ParseBody decodes a wire payload. Blank input yields an empty body.
func ParseBody(raw string) (Body, error) {
	if len(raw) == 0 {
		return Body{}, nil
	}
	var body Body
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal body: %w", err)
	}
	if body == nil {
		body = Body{}
	}
	return body, nil
}
