package bus

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notePayload struct {
	Note string
}

func (p notePayload) Kind() string { return "test.note" }

func TestSendReceiveFIFO(t *testing.T) {
	b := New()

	for i := 1; i <= 3; i++ {
		err := b.Send(Draft{
			Sender:   "IngestionAgent",
			Receiver: "RetrievalAgent",
			Payload:  notePayload{Note: fmt.Sprintf("E%d", i)},
		})
		require.NoError(t, err)
	}

	for i := 1; i <= 3; i++ {
		env, ok := b.Receive("RetrievalAgent")
		require.True(t, ok)

		payload, ok := env.Payload.(notePayload)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("E%d", i), payload.Note)
		assert.Equal(t, "IngestionAgent", env.Sender)
		assert.NotEmpty(t, env.MessageID)
		assert.False(t, env.Timestamp.IsZero())
	}

	_, ok := b.Receive("RetrievalAgent")
	assert.False(t, ok)
}

func TestSendMalformed(t *testing.T) {
	b := New()

	cases := []struct {
		name  string
		draft Draft
	}{
		{"missing sender", Draft{Receiver: "R", Payload: notePayload{}}},
		{"missing receiver", Draft{Sender: "S", Payload: notePayload{}}},
		{"missing payload", Draft{Sender: "S", Receiver: "R"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, b.Send(tc.draft), ErrMalformedEnvelope)
		})
	}

	assert.Equal(t, 0, b.Peek("R"))
}

func TestReceiveUnknownQueue(t *testing.T) {
	b := New()

	_, ok := b.Receive("nobody")
	assert.False(t, ok)
	assert.Equal(t, 0, b.Peek("nobody"))
}

func TestPeekDoesNotConsume(t *testing.T) {
	b := New()

	require.NoError(t, b.Send(Draft{Sender: "S", Receiver: "R", Payload: notePayload{}}))
	require.NoError(t, b.Send(Draft{Sender: "S", Receiver: "R", Payload: notePayload{}}))

	assert.Equal(t, 2, b.Peek("R"))
	assert.Equal(t, 2, b.Peek("R"))

	_, ok := b.Receive("R")
	require.True(t, ok)
	assert.Equal(t, 1, b.Peek("R"))
}

func TestClear(t *testing.T) {
	b := New()

	require.NoError(t, b.Send(Draft{Sender: "S", Receiver: "R", Payload: notePayload{}}))
	require.NoError(t, b.Send(Draft{Sender: "S", Receiver: "R", Payload: notePayload{}}))

	b.Clear("R")

	_, ok := b.Receive("R")
	assert.False(t, ok)

	// Clearing an unknown queue is a no-op.
	b.Clear("missing")
}

func TestStats(t *testing.T) {
	b := New()

	require.NoError(t, b.Send(Draft{Sender: "IngestionAgent", Receiver: "RetrievalAgent", Payload: notePayload{}}))
	require.NoError(t, b.Send(Draft{Sender: "RetrievalAgent", Receiver: "LLMResponseAgent", Payload: notePayload{}}))
	require.NoError(t, b.Send(Draft{Sender: "app", Receiver: "LLMResponseAgent", Payload: notePayload{}}))

	stats := b.Stats()
	require.Len(t, stats, 2)

	assert.Equal(t, 1, stats["RetrievalAgent"].MessageCount)
	assert.Equal(t, "IngestionAgent", stats["RetrievalAgent"].LatestSender)

	assert.Equal(t, 2, stats["LLMResponseAgent"].MessageCount)
	assert.Equal(t, "app", stats["LLMResponseAgent"].LatestSender)
}

func TestIndependentQueues(t *testing.T) {
	b := New()

	require.NoError(t, b.Send(Draft{Sender: "S", Receiver: "A", Payload: notePayload{Note: "a"}}))
	require.NoError(t, b.Send(Draft{Sender: "S", Receiver: "B", Payload: notePayload{Note: "b"}}))

	envB, ok := b.Receive("B")
	require.True(t, ok)
	assert.Equal(t, "b", envB.Payload.(notePayload).Note)

	assert.Equal(t, 1, b.Peek("A"))
}

func TestConcurrentSendReceive(t *testing.T) {
	b := New()

	const senders = 8
	const perSender = 50

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				_ = b.Send(Draft{
					Sender:   fmt.Sprintf("sender-%d", id),
					Receiver: "R",
					Payload:  notePayload{},
				})
			}
		}(i)
	}
	wg.Wait()

	received := 0
	for {
		if _, ok := b.Receive("R"); !ok {
			break
		}
		received++
	}

	assert.Equal(t, senders*perSender, received)
}
