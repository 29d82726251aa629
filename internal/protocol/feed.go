package protocol

import "sync"

// Feed carries the snapshots of one live query. It buffers at most one
// snapshot: a newer push replaces an unread older one, so a slow reader
// always sees the latest state and a producer never blocks.
type Feed struct {
	mu      sync.Mutex
	updates chan Result
	done    chan struct{}
	err     error
	closed  bool
}

func NewFeed() *Feed {
	return &Feed{
		updates: make(chan Result, 1),
		done:    make(chan struct{}),
	}
}

// Push offers a snapshot. It reports false once the feed is finished.
func (f *Feed) Push(r Result) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false
	}
	select {
	case <-f.updates:
	default:
	}
	f.updates <- r
	return true
}

// Finish ends the feed with err (nil for a normal cancel). The first call
// wins, later calls are ignored.
func (f *Feed) Finish(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	f.err = err
	close(f.updates)
	close(f.done)
}

// Updates is closed after Finish, once any buffered snapshot is drained.
func (f *Feed) Updates() <-chan Result {
	return f.updates
}

// Done is closed by Finish.
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

// Err returns the error passed to Finish.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
