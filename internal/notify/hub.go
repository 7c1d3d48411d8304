// Package notify fans out "something changed" events to in-process
// listeners such as dashboards and the AMQP bridge.
package notify

import (
	"context"
	"sync"
	"time"

	"chitieu/internal/core"
)

// KindTransactionCreated is published once per confirmed transaction.
const KindTransactionCreated = "transaction-created"

// Event carries no guarantee beyond "something changed"; listeners re-read
// what they need.
type Event struct {
	Kind          string
	TransactionID string
	Type          core.TransactionType
	At            time.Time
}

// TransactionCreated builds the event published after a confirm.
func TransactionCreated(id string, t core.TransactionType, at time.Time) Event {
	return Event{Kind: KindTransactionCreated, TransactionID: id, Type: t, At: at}
}

type Listener func(ctx context.Context, e Event)

// Hub is an explicit observer list. The zero value is ready to use.
type Hub struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
	chans     map[int]chan Event
}

func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers l and returns a function removing it. Calling the
// returned function more than once is harmless.
func (h *Hub) Subscribe(l Listener) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listeners == nil {
		h.listeners = make(map[int]Listener)
	}
	id := h.nextID
	h.nextID++
	h.listeners[id] = l
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

// SubscribeChan returns a channel receiving events. When the buffer is full
// new events are dropped, so a slow reader sees at least one pending event
// rather than all of them. cancel closes the channel.
func (h *Hub) SubscribeChan(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.chans == nil {
		h.chans = make(map[int]chan Event)
	}
	id := h.nextID
	h.nextID++
	h.chans[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.chans, id)
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber. Listeners run synchronously on the
// caller's goroutine, outside the hub lock, so they may unsubscribe.
func (h *Hub) Publish(ctx context.Context, e Event) {
	h.mu.RLock()
	listeners := make([]Listener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	for _, ch := range h.chans {
		select {
		case ch <- e:
		default:
		}
	}
	h.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, e)
	}
}

// Len returns the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners) + len(h.chans)
}
