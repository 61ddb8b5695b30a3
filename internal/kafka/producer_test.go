package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishAfterClose(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, 1, zap.NewNop())
	require.NoError(t, p.Publish("order.created", []byte("k"), []byte("v")))

	p.Close()
	p.Close()
	assert.ErrorIs(t, p.Publish("order.created", []byte("k"), []byte("v")), ErrProducerClosed)

	m, ok := <-p.inbox
	require.True(t, ok)
	assert.Equal(t, "order.created", m.Topic)
	_, ok = <-p.inbox
	assert.False(t, ok)
}
