package async

import (
	"context"
	"sync"
)

// Task is a single-assignment result container. It bridges the two vendor
// calling conventions: listener-pair APIs complete it from their success and
// failure callbacks, suspend-style APIs complete it from a goroutine, and the
// consumer waits on it with a context either way.
type Task[T any] struct {
	mu   sync.Mutex
	done chan struct{}

	val T
	err error
}

func NewTask[T any]() *Task[T] {
	return &Task[T]{done: make(chan struct{})}
}

// Resolved returns an already-completed Task carrying val.
func Resolved[T any](val T) *Task[T] {
	t := NewTask[T]()
	t.Complete(val)
	return t
}

// Failed returns an already-completed Task carrying err.
func Failed[T any](err error) *Task[T] {
	t := NewTask[T]()
	t.Fail(err)
	return t
}

// Complete resolves the task with val. Completing an already-completed task
// is a no-op, so a racing success listener and failure listener cannot
// produce two outcomes.
func (t *Task[T]) Complete(val T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.done:
		return
	default:
	}

	t.val = val
	close(t.done)
}

// Fail resolves the task with err. No-op if already completed.
func (t *Task[T]) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.done:
		return
	default:
	}

	t.err = err
	close(t.done)
}

// Wait blocks until the task completes or ctx is done. A ctx expiry abandons
// the wait only; the task may still complete later and late completions are
// simply never observed by this caller.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then registers fn to run on a new goroutine once the task completes.
func (t *Task[T]) Then(fn func(T, error)) {
	go func() {
		<-t.done
		fn(t.val, t.err)
	}()
}
