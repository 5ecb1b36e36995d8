package usbcam

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle phase of a Session's stream.
type State int32

const (
	StateIdle State = iota
	StateConfiguring
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfiguring:
		return "configuring"
	case StateStreaming:
		return "streaming"
	}
	return "unknown"
}

// Session drives one capture device at a time: it starts and stops the
// stream, serves control calls against the streaming descriptor and holds
// the latest decoded frame.
//
// LatestFrame, IsStreaming, State and the frame counters may be called
// from any goroutine. The remaining methods are serialized.
type Session struct {
	sys *System

	// BufferCount and WaitTimeout apply to the next StartStream.
	BufferCount uint32
	WaitTimeout time.Duration

	mu        sync.Mutex
	state     atomic.Int32
	streaming atomic.Bool
	st        *stream
	cfg       StreamConfig
	frames    frameSlot
}

// NewSession returns an idle session using sys for device access. A nil
// sys means DefaultSystem.
func NewSession(sys *System) *Session {
	if sys == nil {
		sys = DefaultSystem
	}
	return &Session{
		sys:         sys,
		BufferCount: defaultBufferCount,
		WaitTimeout: defaultWaitTimeout,
	}
}

func (s *Session) ListDevices() []DeviceIdentity {
	return s.sys.ListDevices()
}

func (s *Session) Probe(path string) DeviceInfo {
	return s.sys.Probe(path)
}

// StartStream opens cfg.DevicePath, negotiates the requested mode and
// starts the capture goroutine. On failure nothing stays acquired and the
// returned error is a *StreamError.
func (s *Session) StartStream(cfg StreamConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st != nil {
		return &StreamError{Device: cfg.DevicePath, Op: "start", Kind: ErrAlreadyStreaming}
	}

	code, ok := LookupFormat(cfg.FormatName)
	if !ok {
		err := &StreamError{Device: cfg.DevicePath, Op: "start", Kind: ErrFormatNegotiation, Err: errors.New("unsupported format " + cfg.FormatName)}
		logf("%v", err)
		return err
	}

	s.state.Store(int32(StateConfiguring))
	st, err := openStream(s.sys, cfg, code, s.bufferCount(), &s.frames)
	if err != nil {
		s.state.Store(int32(StateIdle))
		logf("%v", err)
		return err
	}

	s.st = st
	s.cfg = cfg
	s.cfg.Width, s.cfg.Height = st.width, st.height
	s.streaming.Store(true)
	s.state.Store(int32(StateStreaming))

	st.wg.Add(1)
	go st.capture(&s.streaming, s.waitTimeout())
	return nil
}

func (s *Session) bufferCount() uint32 {
	if s.BufferCount == 0 {
		return defaultBufferCount
	}
	return s.BufferCount
}

func (s *Session) waitTimeout() time.Duration {
	if s.WaitTimeout <= 0 {
		return defaultWaitTimeout
	}
	return s.WaitTimeout
}

// StopStream stops the capture goroutine and waits for it before
// releasing the buffers and the descriptor. It does nothing when no
// stream is running.
func (s *Session) StopStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	st := s.st
	if st == nil {
		return
	}

	s.streaming.Store(false)
	st.wg.Wait()

	if !st.isClosed() {
		if err := st.dev.StreamOff(); err != nil {
			st.logf("stream off: %v", err)
		}
	}
	n := st.ring.release()
	s.frames.release()
	st.closeDevice()

	if st.decodeErrors > 0 {
		st.logf("%d frames failed to decode", st.decodeErrors)
	}
	st.logf("stopped, released %d buffers", n)

	s.st = nil
	s.cfg = StreamConfig{}
	s.state.Store(int32(StateIdle))
}

// Close stops any running stream.
func (s *Session) Close() error {
	s.StopStream()
	return nil
}

// IsStreaming reports whether a stream was started and not yet stopped.
// It stays true after a fatal capture error; see StreamErr.
func (s *Session) IsStreaming() bool {
	return s.streaming.Load()
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// StreamErr returns the error that ended the capture goroutine, or nil
// while it is healthy or no stream exists.
func (s *Session) StreamErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == nil {
		return nil
	}
	if err := s.st.fatal.Load(); err != nil {
		return err
	}
	return nil
}

// Config returns the running stream's configuration with the size the
// driver settled on, or false when idle.
func (s *Session) Config() (StreamConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.st != nil
}

// LatestFrame returns the most recently decoded frame, or nil when none
// has been decoded since the stream started. The image must not be
// modified.
func (s *Session) LatestFrame() image.Image {
	img, _ := s.frames.read()
	return img
}

// FrameCount is the number of frames published by this session. It keeps
// counting across streams.
func (s *Session) FrameCount() uint64 {
	return s.frames.count.Load()
}

// LatestFrameSeq returns the latest frame with its sequence number.
func (s *Session) LatestFrameSeq() (image.Image, uint64) {
	return s.frames.read()
}

func (s *Session) LastFrameAt() time.Time {
	return s.frames.lastFrameAt()
}
