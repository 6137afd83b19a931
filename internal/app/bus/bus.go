// Package bus implements the host event bus: a synchronous, in-process
// publish/subscribe mechanism keyed by event name.
//
// Handlers for the same event run in ascending priority order, to completion,
// within the request that raised the event. There is no queue and no
// background worker — Raise returns only after every handler has returned.
package bus

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// DefaultPriority is where ordinary subscribers run.
const DefaultPriority = 10

// Handler is invoked synchronously when a bound event fires.
type Handler func(ctx context.Context, event string, args []any) error

type subscription struct {
	priority int
	seq      int // registration order, breaks priority ties
	handler  Handler
}

// Bus dispatches raised events to subscribed handlers.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]subscription
	seq  int
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers a handler for an event at the given priority.
// Lower priorities run first; equal priorities run in registration order.
func (b *Bus) Subscribe(event string, priority int, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	subs := append(b.subs[event], subscription{priority: priority, seq: b.seq, handler: h})
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].priority != subs[j].priority {
			return subs[i].priority < subs[j].priority
		}
		return subs[i].seq < subs[j].seq
	})
	b.subs[event] = subs
}

// SubscriberCount returns how many handlers are bound to an event.
func (b *Bus) SubscriberCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[event])
}

// Raise fires an event. Every handler runs even if an earlier one failed;
// the joined error is returned so request-level callers can surface it.
func (b *Bus) Raise(ctx context.Context, event string, args ...any) error {
	b.mu.RLock()
	subs := b.subs[event]
	b.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := s.handler(ctx, event, args); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
