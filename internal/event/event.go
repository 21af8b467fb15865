// Package event implements the one-shot, multi-listener latch described
// in spec.md 3 and 9: a listener registered before NotifyAll is woken by
// it; a listener registered after NotifyAll observes the event as
// already fired. This is the primitive behind done-events and
// start-events in the task lifecycle (spec.md 4.6).
package event

import "sync"

// Event is a one-shot broadcast latch. The zero value is not usable; use
// New.
type Event struct {
	mu     sync.Mutex
	fired  bool
	waitCh chan struct{}
}

// New constructs an unfired Event.
func New() *Event {
	return &Event{waitCh: make(chan struct{})}
}

// Listen returns a Listener observing this Event. If the Event has
// already fired, the returned Listener is immediately ready: waitCh is
// closed, so Wait/Done/Ready behave correctly without needing to record
// whether it was already fired at Listen time.
func (e *Event) Listen() *Listener {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &Listener{ch: e.waitCh}
}

// NotifyAll fires the event exactly once, waking every Listener obtained
// via Listen so far and every future Listen call. Calling NotifyAll more
// than once is a no-op.
func (e *Event) NotifyAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fired {
		return
	}
	e.fired = true
	close(e.waitCh)
}

// Fired reports whether NotifyAll has already been called.
func (e *Event) Fired() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fired
}

// Listener is a single-use handle obtained from Event.Listen.
type Listener struct {
	ch chan struct{}
}

// Wait blocks until the source Event fires. It returns immediately if
// the Listener was already ready at creation time.
func (l *Listener) Wait() {
	<-l.ch
}

// Done returns a channel that is closed when the source Event fires,
// for use in a select alongside a context's Done channel or other
// cancellation signal. The returned channel is already closed if the
// Listener was ready at creation time.
func (l *Listener) Done() <-chan struct{} {
	return l.ch
}

// Ready reports whether the source Event has fired, without blocking.
func (l *Listener) Ready() bool {
	select {
	case <-l.ch:
		return true
	default:
		return false
	}
}
