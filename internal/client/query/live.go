package query

import (
	"context"
	"sync"
)

// Live is a typed live query result. Only the newest unread value is kept.
type Live[T any] struct {
	updates chan T
	cancel  context.CancelFunc

	mu  sync.Mutex
	err error
}

func newLive[T any](cancel context.CancelFunc) *Live[T] {
	return &Live[T]{updates: make(chan T, 1), cancel: cancel}
}

// Static returns a finished Live carrying exactly one value.
func Static[T any](v T) *Live[T] {
	l := newLive[T](func() {})
	l.updates <- v
	close(l.updates)
	return l
}

// push is called from a single producer goroutine.
func (l *Live[T]) push(v T) {
	select {
	case l.updates <- v:
		return
	default:
	}
	select {
	case <-l.updates:
	default:
	}
	l.updates <- v
}

func (l *Live[T]) finish(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
	close(l.updates)
}

// Updates is closed when the underlying subscription ends.
func (l *Live[T]) Updates() <-chan T {
	return l.updates
}

// Err reports why Updates was closed; nil after Close.
func (l *Live[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close cancels the subscription.
func (l *Live[T]) Close() {
	l.cancel()
}
