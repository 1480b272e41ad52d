package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	body, err := json.Marshal(OTPNotification{MobileNumber: "9999999999", Code: "123456"})
	require.NoError(t, err)
	require.NoError(t, q.Publish(ctx, Message{Type: "otp", Body: body}))

	messages, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case msg := <-messages:
		assert.Equal(t, "otp", msg.Type)
		var n OTPNotification
		require.NoError(t, json.Unmarshal(msg.Body, &n))
		assert.Equal(t, "123456", n.Code)
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestInMemoryPublishHonorsCancel(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, q.Publish(ctx, Message{Type: "otp"}))

	// queue is full; a canceled context must not block
	cancel()
	assert.ErrorIs(t, q.Publish(ctx, Message{Type: "otp"}), context.Canceled)
}
