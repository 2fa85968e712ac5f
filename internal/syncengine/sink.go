package syncengine

import (
	"sync"
	"time"
)

// Playback is a handle to one scheduled buffer. Stop is benign out of order:
// stopping a clip that has not begun, or one that already finished, is a
// no-op.
type Playback interface {
	Stop()
}

// AudioSink is the audio output device the engine schedules buffers on. The
// playback surface itself lives outside the core, so the sink only needs to
// honor delays and in-buffer offsets.
type AudioSink interface {
	// Play schedules pcm (mono 16-bit little-endian at sampleRate) to begin
	// after delay, skipping the first offset seconds of the buffer. gain is
	// a 0..1 volume multiplier.
	Play(pcm []byte, sampleRate int, delay, offset, gain float64) (Playback, error)
	// Close releases the underlying audio device. Idempotent.
	Close() error
}

type noopPlayback struct{}

func (noopPlayback) Stop() {}

// NullSink discards all audio. Useful when only subtitle tracking is needed.
type NullSink struct{}

func (NullSink) Play([]byte, int, float64, float64, float64) (Playback, error) {
	return noopPlayback{}, nil
}

func (NullSink) Close() error { return nil }

// StreamSink delivers each buffer's remaining PCM to a send callback at its
// scheduled start time. The receiving side (e.g. a websocket peer) does its
// own buffering, so one delivery per clip is enough.
type StreamSink struct {
	send func(pcm []byte, sampleRate int)

	mu     sync.Mutex
	closed bool
}

func NewStreamSink(send func(pcm []byte, sampleRate int)) *StreamSink {
	return &StreamSink{send: send}
}

func (s *StreamSink) Play(pcm []byte, sampleRate int, delay, offset, gain float64) (Playback, error) {
	skip := int(offset*float64(sampleRate)) * 2
	if skip >= len(pcm) {
		return noopPlayback{}, nil
	}
	remaining := pcm[skip:]

	timer := time.AfterFunc(durationFromSeconds(delay), func() {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if !closed {
			s.send(remaining, sampleRate)
		}
	})
	return &timerPlayback{timer: timer}, nil
}

func (s *StreamSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

type timerPlayback struct {
	timer *time.Timer
}

func (p *timerPlayback) Stop() {
	p.timer.Stop()
}

func durationFromSeconds(seconds float64) time.Duration {
	if seconds < 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
