package consumer

import (
	"encoding/json"
	"fmt"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
)

// JSONEnvelopeParser decodes JSON message bodies into envelopes from
// the closed taxonomy.
type JSONEnvelopeParser struct{}

// NewJSONEnvelopeParser creates a new JSON envelope parser.
func NewJSONEnvelopeParser() *JSONEnvelopeParser {
	return &JSONEnvelopeParser{}
}

// Parse decodes a message body. Malformed JSON, a missing payload, and
// a type outside the taxonomy are all DecodeErrors: unknown tags are
// rejected explicitly, never silently ignored.
func (p *JSONEnvelopeParser) Parse(body []byte) (*domain.Envelope, error) {
	var env domain.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Reason: "malformed envelope", Err: err}
	}

	if !env.Type.Known() {
		return nil, &DecodeError{Reason: fmt.Sprintf("unknown event type %q", env.Type)}
	}
	if len(env.Payload) == 0 {
		return nil, &DecodeError{Reason: fmt.Sprintf("event %s carries no payload", env.Type)}
	}

	return &env, nil
}
