package queue

import (
	"errors"
	"fmt"
)

// ErrUnknownEventType is returned when a publish is attempted with a
// type outside the taxonomy.
var ErrUnknownEventType = errors.New("unknown event type")

// PublishError wraps broker failures so producing callers can tell a
// publish failure apart from their own errors and decide to retry or
// escalate. The publisher itself never retries.
type PublishError struct {
	Exchange   string
	RoutingKey string
	Err        error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish to exchange %q with routing key %q: %v", e.Exchange, e.RoutingKey, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
