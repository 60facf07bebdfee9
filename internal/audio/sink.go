package audio

import (
	"encoding/binary"
	"sync/atomic"
)

// bytesPerFrame is one stereo frame of signed 16-bit little-endian samples.
const bytesPerFrame = 4

// Sink implements io.Reader over a Ring for a pull-model playback device.
// Missing frames are replaced by silence so Read never blocks and never fails.
type Sink struct {
	ring      *Ring
	rec       *Recorder
	underruns atomic.Uint64
	scratch   []int16
}

// NewSink wraps ring. A nil ring yields silence forever.
func NewSink(ring *Ring) *Sink {
	return &Sink{ring: ring}
}

// Record tees everything handed to the device into rec.
// It must be called before the device starts reading.
func (s *Sink) Record(rec *Recorder) { s.rec = rec }

func (s *Sink) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		// smaller than one frame: pad so the device never sees a zero read
		clear(p)
		return len(p), nil
	}

	if s.rec != nil {
		if cap(s.scratch) < frames*2 {
			s.scratch = make([]int16, 0, frames*2)
		}
		s.scratch = s.scratch[:0]
	}

	short := false
	for i := 0; i < frames; i++ {
		var l, r int16
		if s.ring != nil {
			var ok bool
			l, r, ok = s.ring.Pop()
			short = short || !ok
		} else {
			short = true
		}
		off := i * bytesPerFrame
		binary.LittleEndian.PutUint16(p[off:], uint16(l))
		binary.LittleEndian.PutUint16(p[off+2:], uint16(r))
		if s.rec != nil {
			s.scratch = append(s.scratch, l, r)
		}
	}
	if short {
		s.underruns.Add(1)
	}
	if s.rec != nil {
		s.rec.Write(s.scratch)
	}
	return frames * bytesPerFrame, nil
}

// Underruns counts Read calls that had to substitute silence.
func (s *Sink) Underruns() uint64 { return s.underruns.Load() }
