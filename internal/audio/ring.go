// Package audio carries emulated audio from the runner to a playback device.
//
// The runner goroutine pushes stereo frames into a Ring; the device callback
// pulls them through a Sink. Neither side ever blocks the other: a full ring
// drops the newest frame and an empty ring plays silence.
package audio

import "sync/atomic"

// Ring is a fixed capacity single-producer/single-consumer queue of stereo
// frames. Push must only be called from one goroutine and Pop from one other
// goroutine.
type Ring struct {
	buf     []uint32 // packed L (low 16 bits) and R (high 16 bits)
	read    atomic.Uint64
	write   atomic.Uint64
	dropped atomic.Uint64
}

// NewRing allocates a ring holding up to capacity stereo frames.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]uint32, capacity)}
}

// Push appends one frame. When the ring is full the frame is discarded and
// Push returns false.
func (r *Ring) Push(left, right int16) bool {
	w := r.write.Load()
	if w-r.read.Load() >= uint64(len(r.buf)) {
		r.dropped.Add(1)
		return false
	}
	r.buf[w%uint64(len(r.buf))] = uint32(uint16(left)) | uint32(uint16(right))<<16
	r.write.Store(w + 1)
	return true
}

// Pop removes the oldest frame. ok is false when the ring is empty.
func (r *Ring) Pop() (left, right int16, ok bool) {
	rd := r.read.Load()
	if rd == r.write.Load() {
		return 0, 0, false
	}
	v := r.buf[rd%uint64(len(r.buf))]
	r.read.Store(rd + 1)
	return int16(uint16(v)), int16(uint16(v >> 16)), true
}

// Len returns the number of buffered frames.
func (r *Ring) Len() int {
	return int(r.write.Load() - r.read.Load())
}

// Cap returns the capacity in frames.
func (r *Ring) Cap() int { return len(r.buf) }

// Dropped returns how many frames Push discarded because the ring was full.
func (r *Ring) Dropped() uint64 { return r.dropped.Load() }
