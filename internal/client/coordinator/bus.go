package coordinator

import "sync"

// Message types on the tab broadcast channel.
const (
	MessageActive  = "active"
	MessageStopped = "stopped"
	MessageChanged = "changed"
)

type Message struct {
	Type  string `json:"type"`
	TabID string `json:"tabId"`
}

// Bus is a shared, unordered, best-effort broadcast channel. No
// acknowledgment, no ordering, no delivery guarantee; everything built on
// it is advisory.
type Bus interface {
	Publish(msg Message) error
	// Subscribe registers a handler for every message on the channel,
	// including the subscriber's own. It returns an unsubscribe func.
	Subscribe(handler func(Message)) (func(), error)
}

// MemoryBus is an in-process Bus for tests and for tabs hosted in one
// binary.
type MemoryBus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func(Message)
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[int]func(Message))}
}

func (b *MemoryBus) Publish(msg Message) error {
	b.mu.Lock()
	handlers := make([]func(Message), 0, len(b.handlers))
	for _, handler := range b.handlers {
		handlers = append(handlers, handler)
	}
	b.mu.Unlock()

	// Delivered off the publisher's goroutine: the channel promises no
	// ordering relative to anything else.
	for _, handler := range handlers {
		go handler(msg)
	}
	return nil
}

func (b *MemoryBus) Subscribe(handler func(Message)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}, nil
}
