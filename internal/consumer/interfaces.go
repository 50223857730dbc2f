package consumer

import (
	"context"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
)

// EnvelopeParser decodes raw message bytes into an event envelope.
type EnvelopeParser interface {
	Parse(body []byte) (*domain.Envelope, error)
}

// Stage is a pipeline sink consuming decoded messages until the input
// channel closes or the context is cancelled.
type Stage interface {
	Start(ctx context.Context, in <-chan *Message)
}

// Handler processes one decoded event. Returning an error marks the
// message retryable; the dispatcher bounds the attempts.
type Handler interface {
	Handle(ctx context.Context, env *domain.Envelope) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, env *domain.Envelope) error

func (f HandlerFunc) Handle(ctx context.Context, env *domain.Envelope) error {
	return f(ctx, env)
}
