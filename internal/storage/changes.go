package storage

import "sync"

// Op classifies a change event.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// ChangeEvent is the fire-and-forget signal emitted after a successful
// mutation. It carries no row payloads; interested viewers re-fetch what
// they are allowed to see.
type ChangeEvent struct {
	Table   string `json:"table"`
	GroupID string `json:"group_id"`
	Op      Op     `json:"op"`
}

// Notifier implements observer registration and dispatch for ChangeEvents.
// Store implementations embed it to satisfy Store.Subscribe.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(ChangeEvent)
}

// Subscribe registers fn and returns a function that removes it again.
func (n *Notifier) Subscribe(fn func(ChangeEvent)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func(ChangeEvent))
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Emit delivers ev to every current subscriber. Callbacks run on the
// caller's goroutine after the mutation has committed; they must not block.
func (n *Notifier) Emit(ev ChangeEvent) {
	n.mu.Lock()
	subs := make([]func(ChangeEvent), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
