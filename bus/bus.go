// Package bus provides in-process message passing between pipeline agents,
// with one FIFO queue per receiver. Queues live for the lifetime of the
// process; nothing is persisted.
package bus

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrMalformedEnvelope = errors.New("envelope requires sender, receiver and payload")

// Payload is the content of an envelope. Each known payload shape declares
// its kind so receivers can dispatch without inspecting the structure.
type Payload interface {
	Kind() string
}

// Draft is what a sender hands to the bus. Timestamp and message id are
// stamped at send time.
type Draft struct {
	Sender   string
	Receiver string
	Payload  Payload
}

type Envelope struct {
	Sender    string
	Receiver  string
	Payload   Payload
	Timestamp time.Time
	MessageID string
}

type QueueStats struct {
	MessageCount int    `json:"message_count"`
	LatestSender string `json:"latest_sender,omitempty"`
}

type queue struct {
	mu        sync.Mutex
	envelopes []Envelope
}

type Bus struct {
	mu     sync.RWMutex
	queues map[string]*queue
}

func New() *Bus {
	return &Bus{
		queues: make(map[string]*queue),
	}
}

// Send validates the draft, stamps it and appends it to the tail of the
// receiver's queue. Queues are created lazily on first use.
func (b *Bus) Send(draft Draft) error {
	if draft.Sender == "" || draft.Receiver == "" || draft.Payload == nil {
		return ErrMalformedEnvelope
	}

	now := time.Now()

	env := Envelope{
		Sender:    draft.Sender,
		Receiver:  draft.Receiver,
		Payload:   draft.Payload,
		Timestamp: now,
		MessageID: fmt.Sprintf("%s-%s-%d", draft.Sender, draft.Receiver, now.UnixNano()),
	}

	q := b.queue(draft.Receiver)

	q.mu.Lock()
	defer q.mu.Unlock()

	q.envelopes = append(q.envelopes, env)
	return nil
}

// Receive pops the oldest envelope for receiver. The second return value is
// false when the queue is absent or empty; callers poll rather than block.
func (b *Bus) Receive(receiver string) (Envelope, bool) {
	b.mu.RLock()
	q, ok := b.queues[receiver]
	b.mu.RUnlock()

	if !ok {
		return Envelope{}, false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.envelopes) == 0 {
		return Envelope{}, false
	}

	env := q.envelopes[0]
	q.envelopes = q.envelopes[1:]

	return env, true
}

// Peek reports the current depth of receiver's queue without mutating it.
func (b *Bus) Peek(receiver string) int {
	b.mu.RLock()
	q, ok := b.queues[receiver]
	b.mu.RUnlock()

	if !ok {
		return 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.envelopes)
}

// Clear discards all pending envelopes for receiver.
func (b *Bus) Clear(receiver string) {
	b.mu.RLock()
	q, ok := b.queues[receiver]
	b.mu.RUnlock()

	if !ok {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.envelopes = nil
}

// Stats reports the depth and most recent sender of every known queue.
func (b *Bus) Stats() map[string]QueueStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := make(map[string]QueueStats, len(b.queues))
	for name, q := range b.queues {
		q.mu.Lock()

		s := QueueStats{
			MessageCount: len(q.envelopes),
		}
		if n := len(q.envelopes); n > 0 {
			s.LatestSender = q.envelopes[n-1].Sender
		}

		q.mu.Unlock()

		stats[name] = s
	}

	return stats
}

func (b *Bus) queue(receiver string) *queue {
	b.mu.RLock()
	q, ok := b.queues[receiver]
	b.mu.RUnlock()

	if ok {
		return q
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if q, ok := b.queues[receiver]; ok {
		return q
	}

	q = &queue{}
	b.queues[receiver] = q

	return q
}
