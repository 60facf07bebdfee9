package audio

import (
	"fmt"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recorder writes the played stream to a 16-bit stereo PCM WAV file.
type Recorder struct {
	mu     sync.Mutex
	f      *os.File
	enc    *wav.Encoder
	buf    *goaudio.IntBuffer
	frames int
	err    error
}

// CreateRecorder creates (or truncates) path.
func CreateRecorder(path string, sampleRate int) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav: %w", err)
	}
	return &Recorder{
		f:   f,
		enc: wav.NewEncoder(f, sampleRate, 16, 2, 1),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 2, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

// Write appends interleaved L/R samples. After the first encoder error
// further writes are ignored and the error is reported by Close.
func (r *Recorder) Write(samples []int16) {
	if len(samples) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil || r.enc == nil {
		return
	}
	data := r.buf.Data[:0]
	for _, s := range samples {
		data = append(data, int(s))
	}
	r.buf.Data = data
	if err := r.enc.Write(r.buf); err != nil {
		r.err = err
		return
	}
	r.frames += len(samples) / 2
}

// Frames returns the number of stereo frames written so far.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Close finalizes the WAV header and closes the file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return r.err
	}
	encErr := r.enc.Close()
	fileErr := r.f.Close()
	r.enc = nil
	switch {
	case r.err != nil:
		return fmt.Errorf("write wav: %w", r.err)
	case encErr != nil:
		return fmt.Errorf("finalize wav: %w", encErr)
	case fileErr != nil:
		return fmt.Errorf("close wav: %w", fileErr)
	}
	return nil
}
