package consumer

import "github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"

// Message wraps a decoded event with its raw body, attempt count, and
// acknowledgment callbacks.
type Message struct {
	Event   *domain.Envelope
	Body    []byte
	Attempt int

	ack    func() error
	reject func(requeue bool) error
}

// NewMessage creates a message wrapper around a decoded envelope.
func NewMessage(event *domain.Envelope, body []byte, attempt int, ack func() error, reject func(requeue bool) error) *Message {
	return &Message{
		Event:   event,
		Body:    body,
		Attempt: attempt,
		ack:     ack,
		reject:  reject,
	}
}

// Ack acknowledges successful processing.
func (m *Message) Ack() error {
	if m.ack != nil {
		return m.ack()
	}
	return nil
}

// Reject negatively acknowledges the message, optionally requeueing it
// for redelivery.
func (m *Message) Reject(requeue bool) error {
	if m.reject != nil {
		return m.reject(requeue)
	}
	return nil
}
