package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRabbitMQUnreachable(t *testing.T) {
	_, err := NewRabbitMQ("127.0.0.1", 1, "guest", "guest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to RabbitMQ")
}

func TestCloseWithoutConnection(t *testing.T) {
	assert.NotPanics(t, func() { (&RabbitMQ{}).Close() })
}
