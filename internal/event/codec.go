package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DecodeError indicates a payload that cannot be turned into a valid
// OrderCreatedEvent. Consumers must not requeue such messages.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode order event: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Encode serializes the event to its wire format.
func Encode(ev OrderCreatedEvent) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order event: %w", err)
	}

	return body, nil
}

// Decode parses an event from its wire format. Unknown fields are
// tolerated so producer and consumer can be deployed independently.
func Decode(body []byte) (*OrderCreatedEvent, error) {
	var ev OrderCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, &DecodeError{Err: err}
	}

	if ev.EventType != EventTypeOrderCreated {
		return nil, &DecodeError{Err: fmt.Errorf("unexpected event type %q", ev.EventType)}
	}
	if ev.Order.ExternalID == "" {
		return nil, &DecodeError{Err: errors.New("missing order external id")}
	}

	return &ev, nil
}
