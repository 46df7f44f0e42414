package entangle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActorNamespace(t *testing.T) {
	assert.Equal(t, "__CounterActor", ActorNamespace("Counter"))
	assert.Equal(t, ActorNamespace("Counter"), ActorNamespace("Counter"), "pure function")
	assert.NotEqual(t, ActorNamespace("Counter"), ActorNamespace("Timer"))
}

func TestCounter_NewCounter(t *testing.T) {
	c := NewCounter()
	assert.Equal(t, int64(0), c.Current(), "new counter should start at 0")
}

func TestCounter_NewCounterAt(t *testing.T) {
	c := NewCounterAt(7)
	assert.Equal(t, int64(7), c.Current())
	assert.Equal(t, "__impl7", c.NextImplNamespace())
	assert.Equal(t, int64(8), c.Current())
}

func TestCounter_Next_Sequential(t *testing.T) {
	c := NewCounter()

	// Returns the value before incrementing
	assert.Equal(t, int64(0), c.Next())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(3), c.Current())
}

func TestCounter_NextImplNamespace(t *testing.T) {
	c := NewCounter()
	assert.Equal(t, "__impl0", c.NextImplNamespace())
	assert.Equal(t, "__impl1", c.NextImplNamespace())
}

func TestCounter_Independent(t *testing.T) {
	a := NewCounter()
	b := NewCounter()
	a.Next()
	a.Next()
	assert.Equal(t, "__impl0", b.NextImplNamespace(), "sessions must not share state")
}

func TestCounter_ThreadSafe(t *testing.T) {
	c := NewCounter()
	const goroutines = 50
	const callsPerGoroutine = 100

	var wg sync.WaitGroup
	names := make(chan string, goroutines*callsPerGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				names <- c.NextImplNamespace()
			}
		}()
	}
	wg.Wait()
	close(names)

	seen := make(map[string]bool)
	for n := range names {
		assert.False(t, seen[n], "namespace %s generated twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, goroutines*callsPerGoroutine)
}
