package resilience

import (
	"errors"
	"fmt"
	"sync"
)

var ErrCallPanicked = errors.New("singleflight call panicked")

// SingleFlight coalesces concurrent calls sharing a key into one execution.
// Callers that join an in-flight call receive its result with shared=true.
type SingleFlight[T any] struct {
	mu    sync.Mutex
	calls map[string]*call[T]
}

type call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func (g *SingleFlight[T]) Do(key string, fn func() (T, error)) (val T, err error, shared bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call[T])
	}
	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-c.done
		return c.val, c.err, true
	}

	c := &call[T]{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = runRecovered(fn)
	return c.val, c.err, false
}

func runRecovered[T any](fn func() (T, error)) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			val, err = zero, fmt.Errorf("%w: %v", ErrCallPanicked, r)
		}
	}()
	return fn()
}
