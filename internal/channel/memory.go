package channel

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Registry backed by buffered channels. It is used
// by tests and by local runs without a broker. Consumers on the same
// destination compete for messages (one channel per destination), matching
// the consumer-group semantics of the Kafka registry.
type Memory struct {
	mu      sync.Mutex
	buffer  int
	streams map[string]chan Message
	closed  bool
}

// NewMemory creates an in-memory registry with the given per-destination
// buffer capacity.
func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = 64
	}
	return &Memory{
		buffer:  buffer,
		streams: make(map[string]chan Message),
	}
}

func (m *Memory) stream(destination string) chan Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.streams[destination]
	if !ok {
		ch = make(chan Message, m.buffer)
		m.streams[destination] = ch
	}
	return ch
}

// Publish submits the message, failing when the destination buffer is full
// rather than blocking the caller.
func (m *Memory) Publish(ctx context.Context, destination string, msg Message) error {
	select {
	case m.stream(destination) <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("memory registry: destination %q full", destination)
	}
}

// Consume returns the destination's stream. The group id is accepted for
// interface parity but unused: all in-process consumers share one stream.
func (m *Memory) Consume(ctx context.Context, destination, group string) (<-chan Message, error) {
	src := m.stream(destination)
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-src:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Pending returns how many messages are queued on the destination.
// Test helper.
func (m *Memory) Pending(destination string) int {
	return len(m.stream(destination))
}
