package ui

import (
	"sync"

	tea "charm.land/bubbletea/v2"
)

// dispatchMsg carries one session handler invocation into the Bubble Tea loop.
type dispatchMsg struct {
	fn func()
}

// Dispatcher moves session handler invocations onto the Bubble Tea event loop,
// so handlers and UI updates never run concurrently. Its Dispatch method is
// meant for session.Options.Dispatch.
type Dispatcher struct {
	queue    chan func()
	done     chan struct{}
	stopOnce sync.Once
}

// NewDispatcher creates a dispatcher buffering up to size pending invocations.
func NewDispatcher(size int) *Dispatcher {
	if size <= 0 {
		size = 64
	}
	return &Dispatcher{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Dispatch queues fn. It blocks while the queue is full and drops fn once the dispatcher is stopped.
func (d *Dispatcher) Dispatch(fn func()) {
	select {
	case <-d.done:
		return
	default:
	}

	select {
	case d.queue <- fn:
	case <-d.done:
	}
}

// Stop releases blocked Dispatch callers and ends the listener command.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.done) })
}

// Next waits for the next queued invocation. The model re-arms it after every dispatchMsg.
func (d *Dispatcher) Next() tea.Cmd {
	return func() tea.Msg {
		select {
		case fn := <-d.queue:
			return dispatchMsg{fn: fn}
		case <-d.done:
			return nil
		}
	}
}
