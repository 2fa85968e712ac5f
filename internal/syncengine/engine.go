// Package syncengine schedules independently generated speech buffers
// against an externally driven video clock and tracks the active subtitle.
package syncengine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"echodub/internal/types"
	"echodub/log"
	apperrors "echodub/pkg/errors"
	"echodub/pkg/util"
)

// State is the engine lifecycle: Idle -> Loaded -> Playing <-> Paused,
// terminated by Destroy.
type State uint8

const (
	StateIdle State = iota
	StateLoaded
	StatePlaying
	StatePaused
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

const defaultPollInterval = 100 * time.Millisecond

// SubtitleFunc receives subtitle-change notifications. nil subtitle means no
// chunk covers the current video time.
type SubtitleFunc func(subtitle *types.Subtitle)

// Config carries engine construction settings.
type Config struct {
	SampleRate   int           // sample rate of the loaded PCM payloads
	PollInterval time.Duration // subtitle poll cadence, default 100ms
}

type playableBuffer struct {
	chunkID   int
	startTime float64
	pcm       []byte
	duration  float64
}

// Engine owns its own real-time clock. It never queries the host video
// element: video time is derived as the offset supplied at the last
// play/seek plus real elapsed time, which keeps the dubbed audio decoupled
// from (and synchronized to) the host player's own reported position.
type Engine struct {
	cfg  Config
	sink AudioSink
	now  func() time.Time

	mu              sync.Mutex
	state           State
	chunks          []*types.DubbedChunk
	buffers         []playableBuffer
	playbacks       []Playback
	volume          float64
	videoTimeOffset float64   // video time at the last play/seek
	realClockAtPlay time.Time // engine clock reading at the last play
	onSubtitle      SubtitleFunc
	activeChunkID   int
	pollStop        chan struct{}
	pollDone        chan struct{}
}

func New(sink AudioSink, cfg Config) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Engine{
		cfg:           cfg,
		sink:          sink,
		now:           time.Now,
		state:         StateIdle,
		volume:        1.0,
		activeChunkID: -1,
	}
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LoadChunks decodes every chunk's audio payload into a playable buffer.
// Chunks with absent or undecodable payloads are skipped for audio (logged,
// never fatal) but still participate in subtitle tracking.
func (e *Engine) LoadChunks(chunks []*types.DubbedChunk) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateDestroyed {
		return apperrors.ErrEngineDestroyed
	}

	e.chunks = chunks
	e.buffers = e.buffers[:0]
	for _, chunk := range chunks {
		pcm, err := decodePCM(chunk.AudioPayload)
		if err != nil {
			log.GetLogger().Warn("skipping undecodable audio payload",
				zap.Int("chunk_id", chunk.ID),
				zap.Error(err))
			continue
		}
		e.buffers = append(e.buffers, playableBuffer{
			chunkID:   chunk.ID,
			startTime: chunk.StartTime,
			pcm:       pcm,
			duration:  util.PCMDuration(len(pcm), e.cfg.SampleRate),
		})
	}
	e.state = StateLoaded
	return nil
}

// decodePCM validates a raw mono 16-bit payload. Absent payloads mean the
// chunk was degraded to subtitle-only by the pipeline.
func decodePCM(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, apperrors.New(apperrors.CodeAudioDecodeFailed, "empty audio payload")
	}
	if len(payload) < util.PCMBytesPerSample {
		return nil, apperrors.New(apperrors.CodeAudioDecodeFailed, "payload shorter than one sample")
	}
	if len(payload)%util.PCMBytesPerSample != 0 {
		return nil, apperrors.New(apperrors.CodeAudioDecodeFailed, "payload is not whole 16-bit samples")
	}
	return payload, nil
}

// Play starts (or restarts) playback as if the video were at fromVideoTime.
// Any previously scheduled buffers are cancelled first; each play call fully
// replaces the schedule.
func (e *Engine) Play(fromVideoTime float64) error {
	e.mu.Lock()

	switch e.state {
	case StateDestroyed:
		e.mu.Unlock()
		return apperrors.ErrEngineDestroyed
	case StateIdle:
		e.mu.Unlock()
		return apperrors.ErrEngineNotLoaded
	}

	e.stopScheduledLocked()
	e.realClockAtPlay = e.now()
	e.videoTimeOffset = fromVideoTime

	for _, buf := range e.buffers {
		delta := buf.startTime - fromVideoTime
		if delta < -buf.duration {
			continue // already fully in the past
		}

		var handle Playback
		var err error
		if delta >= 0 {
			// starts in the future
			handle, err = e.sink.Play(buf.pcm, e.cfg.SampleRate, delta, 0, e.volume)
		} else {
			// mid-chunk: start immediately with an in-buffer offset
			offset := fromVideoTime - buf.startTime
			if offset > buf.duration {
				continue
			}
			handle, err = e.sink.Play(buf.pcm, e.cfg.SampleRate, 0, offset, e.volume)
		}
		if err != nil {
			log.GetLogger().Warn("failed to schedule audio buffer",
				zap.Int("chunk_id", buf.chunkID),
				zap.Error(err))
			continue
		}
		e.playbacks = append(e.playbacks, handle)
	}

	e.state = StatePlaying
	e.startPollerLocked()
	e.mu.Unlock()
	return nil
}

// Pause halts all scheduled buffers and freezes the derived video time.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateDestroyed:
		return apperrors.ErrEngineDestroyed
	case StatePlaying:
	default:
		return nil // pausing while not playing is a no-op
	}

	e.videoTimeOffset = e.currentVideoTimeLocked()
	e.stopScheduledLocked()
	e.stopPollerLocked()
	e.state = StatePaused
	return nil
}

// SeekTo repositions playback. While playing it is a full reschedule; while
// paused or merely loaded it only updates the remembered offset. Seeking past
// the last chunk is valid: nothing gets scheduled and no subtitle is emitted.
func (e *Engine) SeekTo(videoTime float64) error {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	switch state {
	case StateDestroyed:
		return apperrors.ErrEngineDestroyed
	case StateIdle:
		return apperrors.ErrEngineNotLoaded
	case StatePlaying:
		return e.Play(videoTime)
	default:
		e.mu.Lock()
		e.videoTimeOffset = videoTime
		e.mu.Unlock()
		return nil
	}
}

// GetCurrentVideoTime derives the logical video position from the engine's
// own clock: the offset supplied at the last play/seek plus real elapsed
// time, frozen while paused.
func (e *Engine) GetCurrentVideoTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentVideoTimeLocked()
}

func (e *Engine) currentVideoTimeLocked() float64 {
	if e.state != StatePlaying {
		return e.videoTimeOffset
	}
	return e.videoTimeOffset + e.now().Sub(e.realClockAtPlay).Seconds()
}

// SetVolume sets the gain (clamped to 0..1) applied to buffers scheduled by
// subsequent Play calls.
func (e *Engine) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}
	e.mu.Lock()
	e.volume = volume
	e.mu.Unlock()
}

// OnSubtitle registers the subtitle-change callback.
func (e *Engine) OnSubtitle(fn SubtitleFunc) {
	e.mu.Lock()
	e.onSubtitle = fn
	e.mu.Unlock()
}

// GetSubtitleAt returns the subtitle whose [startTime, endTime) interval
// contains t, nil when no chunk covers it.
func (e *Engine) GetSubtitleAt(t float64) *types.Subtitle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subtitleAtLocked(t)
}

func (e *Engine) subtitleAtLocked(t float64) *types.Subtitle {
	for _, chunk := range e.chunks {
		if t >= chunk.StartTime && t < chunk.EndTime {
			subtitle := chunk.Subtitle()
			return &subtitle
		}
	}
	return nil
}

// Destroy stops all playback, cancels the polling loop and releases the
// audio device. Idempotent.
func (e *Engine) Destroy() {
	e.mu.Lock()
	if e.state == StateDestroyed {
		e.mu.Unlock()
		return
	}
	e.stopScheduledLocked()
	e.stopPollerLocked()
	e.state = StateDestroyed
	e.buffers = nil
	e.chunks = nil
	e.mu.Unlock()

	if err := e.sink.Close(); err != nil {
		log.GetLogger().Warn("audio sink close failed", zap.Error(err))
	}
}

func (e *Engine) stopScheduledLocked() {
	for _, playback := range e.playbacks {
		playback.Stop()
	}
	e.playbacks = e.playbacks[:0]
}

// startPollerLocked launches the subtitle poll loop. At most one poller runs
// per engine; restarting playback reuses the active one.
func (e *Engine) startPollerLocked() {
	if e.pollStop != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	e.pollStop = stop
	e.pollDone = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(e.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.pollSubtitle()
			}
		}
	}()
}

func (e *Engine) stopPollerLocked() {
	if e.pollStop == nil {
		return
	}
	close(e.pollStop)
	e.pollStop = nil
	e.pollDone = nil
	e.activeChunkID = -1
}

// pollSubtitle emits a notification only when the active chunk changed since
// the previous tick.
func (e *Engine) pollSubtitle() {
	e.mu.Lock()
	if e.state != StatePlaying {
		e.mu.Unlock()
		return
	}
	subtitle := e.subtitleAtLocked(e.currentVideoTimeLocked())
	id := -1
	if subtitle != nil {
		id = subtitle.ID
	}
	changed := id != e.activeChunkID
	e.activeChunkID = id
	callback := e.onSubtitle
	e.mu.Unlock()

	if changed && callback != nil {
		callback(subtitle)
	}
}
