package entangle

import (
	"fmt"
	"sync/atomic"
)

// ActorNamespace returns the hidden namespace that holds the Actor for typeName.
func ActorNamespace(typeName string) string {
	return "__" + typeName + "Actor"
}

// Counter hands out impl-namespace numbers for one compilation session.
//
// Every call to Next returns a distinct value; the counter is never reset.
// Thread-safety: Counter is safe for concurrent use (atomic operations),
// although expansions within a session run sequentially.
type Counter struct {
	next atomic.Int64
}

// NewCounter creates a counter whose first value is 0.
func NewCounter() *Counter {
	return &Counter{}
}

// NewCounterAt creates a counter whose first value is start.
// Used to resume a persisted session without reusing numbers.
func NewCounterAt(start int64) *Counter {
	c := &Counter{}
	c.next.Store(start)
	return c
}

// Next returns the next number and advances the counter.
func (c *Counter) Next() int64 {
	return c.next.Add(1) - 1
}

// Current returns the number the next call to Next will return.
func (c *Counter) Current() int64 {
	return c.next.Load()
}

// NextImplNamespace returns a fresh `__impl<N>` namespace name.
func (c *Counter) NextImplNamespace() string {
	return fmt.Sprintf("__impl%d", c.Next())
}
