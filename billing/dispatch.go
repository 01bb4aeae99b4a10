package billing

import (
	"sync"
)

// Dispatcher is the single logical callback thread of the billing client.
// Every push-channel notification is delivered through it, one at a time and
// in submission order, so handler-side state needs no synchronization.
type Dispatcher struct {
	mu      sync.Mutex
	closed  bool
	senders sync.WaitGroup

	queue chan func()
	stop  chan struct{}
	done  chan struct{}
}

func NewDispatcher(buffer int) *Dispatcher {
	d := &Dispatcher{
		queue: make(chan func(), buffer),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for fn := range d.queue {
		fn()
	}
}

// Dispatch enqueues fn for execution on the dispatcher goroutine. Calls
// after Shutdown, and calls still blocked on a full queue when Shutdown
// begins, are dropped.
func (d *Dispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.senders.Add(1)
	d.mu.Unlock()
	defer d.senders.Done()

	// The send happens outside the lock so Shutdown stays callable while the
	// queue is full behind a slow handler.
	select {
	case d.queue <- fn:
	case <-d.stop:
	}
}

// Shutdown stops accepting work and waits for queued callbacks to finish.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.stop)
	d.mu.Unlock()

	// No sender may touch the queue once it is closed.
	d.senders.Wait()
	close(d.queue)
	<-d.done
}
