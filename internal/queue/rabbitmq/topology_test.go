package rabbitmq

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestAttemptFromHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers amqp.Table
		want    int
	}{
		{"nil headers", nil, 1},
		{"missing header", amqp.Table{"other": 1}, 1},
		{"int32 header", amqp.Table{RetryCountHeader: int32(1)}, 2},
		{"int64 header", amqp.Table{RetryCountHeader: int64(2)}, 3},
		{"int header", amqp.Table{RetryCountHeader: 2}, 3},
		{"unexpected type", amqp.Table{RetryCountHeader: "2"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AttemptFromHeaders(tt.headers))
		})
	}
}

func TestHeadersForAttempt(t *testing.T) {
	headers := HeadersForAttempt(2)
	assert.Equal(t, int32(2), headers[RetryCountHeader])
}

func TestHeadersRoundTrip(t *testing.T) {
	// A message republished on attempt n reads back as attempt n+1.
	assert.Equal(t, 2, AttemptFromHeaders(HeadersForAttempt(1)))
	assert.Equal(t, 3, AttemptFromHeaders(HeadersForAttempt(2)))
}
