package runner

import "sync"

// Input is one snapshot of the controls: joystick bits and switch bits.
type Input struct {
	Joystick uint8
	Switches uint8
}

// InputSender is the presentation side of the input channel. It only
// enqueues a snapshot when it differs from the previous one, so the channel
// never fills up with repeats.
//
// Send is meant to be called from a single goroutine. Close may be called
// from any goroutine and unblocks a Send waiting on a full channel.
type InputSender struct {
	mu     sync.Mutex
	ch     chan Input
	done   chan struct{}
	last   Input
	closed bool
}

func newInputSender(capacity int) *InputSender {
	return &InputSender{
		ch:   make(chan Input, capacity),
		done: make(chan struct{}),
	}
}

// Send queues (joystick, switches) if it changed since the last call and
// reports whether anything was queued. It blocks while the channel is full,
// until the worker takes a snapshot or Close is called. Sends after Close
// are ignored.
func (s *InputSender) Send(joystick, switches uint8) bool {
	in := Input{Joystick: joystick, Switches: switches}
	s.mu.Lock()
	if s.closed || in == s.last {
		s.mu.Unlock()
		return false
	}
	s.last = in
	s.mu.Unlock()

	select {
	case s.ch <- in:
		return true
	case <-s.done:
		return false
	}
}

// Pending returns the number of snapshots not yet consumed by the worker.
func (s *InputSender) Pending() int { return len(s.ch) }

// Close disconnects the sender, which tells the worker to stop. Snapshots
// still queued are discarded.
func (s *InputSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}
