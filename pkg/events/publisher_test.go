package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Publish(context.Background(), TopicCart, New("cart_updated", "guest:1", map[string]int{"items": 2})))
	require.NoError(t, r.Publish(context.Background(), TopicOrder, New("order_created", "user:1", nil)))

	assert.Equal(t, []string{"cart_updated", "order_created"}, r.Types())
	assert.Equal(t, TopicCart, r.Events[0].Topic)
	assert.Equal(t, "guest:1", r.Events[0].Event.Key)
	assert.False(t, r.Events[0].Event.OccurredAt.IsZero())
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), TopicCart, New("x", "k", nil)))
	assert.NoError(t, p.Close())
}
