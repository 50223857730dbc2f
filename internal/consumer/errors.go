package consumer

import "fmt"

// DecodeError marks a message as malformed. Decoding failures are
// terminal: the message is rejected without requeue and logged with
// enough context to replay manually.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode failed: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
