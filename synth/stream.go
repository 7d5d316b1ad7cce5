package synth

import (
	"encoding/binary"
	"sync"
)

// Stream renders the sink's synthesizer on demand. It implements io.Reader
// for audio players expecting 16-bit little-endian stereo.
type Stream struct {
	sink *Sink

	mu          sync.Mutex
	left, right []float32
	samples     int64
	stopped     bool
}

func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		clear(p)
		return len(p), nil
	}

	// 16-bit stereo = 4 bytes per sample
	n := len(p) / 4
	if n == 0 {
		return 0, nil
	}
	if cap(s.left) < n {
		s.left = make([]float32, n)
		s.right = make([]float32, n)
	}
	left, right := s.left[:n], s.right[:n]

	s.sink.render(left, right)
	s.samples += int64(n)

	for i := range n {
		l := int16(clamp(left[i], -1, 1) * 32767)
		r := int16(clamp(right[i], -1, 1) * 32767)
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
	}
	return n * 4, nil
}

// Stop makes further reads return silence
func (s *Stream) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// Samples returns the number of stereo samples rendered so far
func (s *Stream) Samples() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}

func clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
