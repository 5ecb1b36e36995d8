package usbcam

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adamlouis/usbcam/frame"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

const (
	defaultBufferCount = 4
	defaultWaitTimeout = time.Second
)

// StreamConfig selects the mode a stream is started in. FormatName is one
// of MJPEG, Motion-JPEG, YUYV, H.264 or H264.
type StreamConfig struct {
	DevicePath string
	FormatName string
	Width      uint32
	Height     uint32
	FrameRate  float32
}

// bufferRing is the set of kernel buffers mapped into the process for
// one stream. Every mapped buffer is unmapped exactly once by release.
type bufferRing struct {
	dev  Device
	bufs [][]byte
}

// mapAll maps and queues count buffers. On failure the buffers mapped so
// far stay in the ring for release to unmap.
func (r *bufferRing) mapAll(count uint32) error {
	r.bufs = make([][]byte, 0, count)
	for index := uint32(0); index < count; index++ {
		buf, err := r.dev.MapBuffer(index)
		if err != nil {
			return fmt.Errorf("map buffer %d: %w", index, err)
		}
		r.bufs = append(r.bufs, buf)

		if err := r.dev.QueueBuffer(index); err != nil {
			return fmt.Errorf("queue buffer %d: %w", index, err)
		}
	}
	return nil
}

func (r *bufferRing) filled(index, used uint32) ([]byte, bool) {
	if int(index) >= len(r.bufs) {
		return nil, false
	}
	buf := r.bufs[index]
	if int(used) > len(buf) {
		used = uint32(len(buf))
	}
	return buf[:used], true
}

// release unmaps every buffer and empties the ring. It returns how many
// buffers were unmapped.
func (r *bufferRing) release() (n int) {
	for i, buf := range r.bufs {
		if err := r.dev.UnmapBuffer(buf); err != nil {
			logf("unmap buffer %d: %v", i, err)
		}
		n++
	}
	r.bufs = nil
	return n
}

// stream is one started stream: the descriptor, the ring and the
// negotiated mode. It lives from StartStream until StopStream.
type stream struct {
	id     string
	path   string
	dev    Device
	format PixelFormat
	width  uint32
	height uint32
	ring   bufferRing
	decode frame.Decoder

	// devMu guards closed. Control calls hold it for the duration of
	// their ioctl so the descriptor cannot be closed under them.
	devMu  sync.Mutex
	closed bool

	wg    sync.WaitGroup
	fatal atomic.Pointer[StreamError]

	frames       *frameSlot
	decodeErrors int
}

func (st *stream) logf(format string, args ...interface{}) {
	logf("[stream "+st.id+"] "+format, args...)
}

func (st *stream) fail(op string, kind, err error) *StreamError {
	return &StreamError{Device: st.path, Op: op, Kind: kind, Err: err}
}

// withDevice runs fn on the descriptor unless it has been closed.
func (st *stream) withDevice(fn func(Device) error) error {
	st.devMu.Lock()
	defer st.devMu.Unlock()
	if st.closed {
		return ErrNotStreaming
	}
	return fn(st.dev)
}

func (st *stream) isClosed() bool {
	st.devMu.Lock()
	defer st.devMu.Unlock()
	return st.closed
}

// closeDevice closes the descriptor once; later calls do nothing.
func (st *stream) closeDevice() {
	st.devMu.Lock()
	defer st.devMu.Unlock()
	if st.closed {
		return
	}
	st.closed = true
	if err := st.dev.Close(); err != nil {
		st.logf("close %s: %v", st.path, err)
	}
}

// openStream runs the configuration sequence: open, format, frame rate,
// buffers, stream on. Whatever was acquired is released before an error
// is returned.
func openStream(sys *System, cfg StreamConfig, code PixelFormat, bufferCount uint32, frames *frameSlot) (st *stream, err error) {
	st = &stream{
		id:     uuid.NewString(),
		path:   cfg.DevicePath,
		format: code,
		frames: frames,
	}

	dev, err := sys.Open(cfg.DevicePath, unix.O_RDWR)
	if err != nil {
		return nil, st.fail("open", ErrDeviceOpen, err)
	}
	st.dev = dev
	st.ring.dev = dev

	defer func() {
		if err != nil {
			if n := st.ring.release(); n > 0 {
				st.logf("released %d buffers after failed start", n)
			}
			st.closeDevice()
			st = nil
		}
	}()

	gotCode, w, h, err := dev.SetImageFormat(code, cfg.Width, cfg.Height, V4L2_FIELD_INTERLACED)
	if err != nil {
		return st, st.fail("set format", ErrFormatNegotiation, err)
	}
	if gotCode != code {
		return st, st.fail("set format", ErrFormatNegotiation, fmt.Errorf("driver chose %s instead of %s", gotCode, code))
	}
	if w != cfg.Width || h != cfg.Height {
		st.logf("driver adjusted %dx%d to %dx%d", cfg.Width, cfg.Height, w, h)
	}
	st.width, st.height = w, h

	fps := math.Round(float64(cfg.FrameRate))
	if fps < 1 {
		return st, st.fail("set frame rate", ErrFrameRateNegotiation, fmt.Errorf("frame rate %v", cfg.FrameRate))
	}
	if err = dev.SetTimePerFrame(1, uint32(fps)); err != nil {
		return st, st.fail("set frame rate", ErrFrameRateNegotiation, err)
	}

	count, err := dev.RequestBuffers(bufferCount)
	if err != nil {
		return st, st.fail("request buffers", ErrBufferNegotiation, err)
	}
	if count == 0 {
		return st, st.fail("request buffers", ErrBufferNegotiation, errors.New("no buffers granted"))
	}

	if err = st.ring.mapAll(count); err != nil {
		return st, st.fail("map buffers", ErrBufferMap, err)
	}

	st.decode, err = frame.GetDecoder(frame.FourCC(code.String()), int(w), int(h))
	if err != nil {
		return st, st.fail("decoder", ErrFormatNegotiation, err)
	}

	if err = dev.StreamOn(); err != nil {
		return st, st.fail("stream on", ErrStreamStart, err)
	}

	st.logf("streaming %s %s %dx%d @ %v fps with %d buffers", st.path, code, w, h, fps, count)
	return st, nil
}

// capture is the stream's goroutine. It runs until running reports false
// or the device fails; a failure also turns the stream off and closes
// the descriptor.
func (st *stream) capture(running *atomic.Bool, waitTimeout time.Duration) {
	defer st.wg.Done()

	err := st.loop(running, waitTimeout)
	if err == nil {
		return
	}

	st.logf("capture stopped: %v", err)
	if err := st.dev.StreamOff(); err != nil {
		st.logf("stream off: %v", err)
	}
	st.closeDevice()
	// published after the close so callers that see it also see the
	// device gone
	st.fatal.Store(err)
}

func (st *stream) loop(running *atomic.Bool, waitTimeout time.Duration) *StreamError {
	var timeout *Timeout

	for running.Load() {
		err := st.dev.WaitForFrame(waitTimeout)
		if errors.As(err, &timeout) {
			continue
		}
		if err != nil {
			return st.fail("wait for frame", ErrDequeue, err)
		}

		index, used, err := st.dev.DequeueBuffer()
		if errors.Is(err, unix.EAGAIN) {
			continue
		}
		if err != nil {
			return st.fail("dequeue", ErrDequeue, err)
		}

		st.handle(index, used)

		if err := st.dev.QueueBuffer(index); err != nil {
			return st.fail("requeue", ErrRequeue, err)
		}
	}
	return nil
}

func (st *stream) handle(index, used uint32) {
	buf, ok := st.ring.filled(index, used)
	if !ok {
		st.logf("dequeued unknown buffer %d", index)
		return
	}
	img, err := st.decode(buf)
	if err != nil {
		st.decodeErrors++
		if st.decodeErrors == 1 {
			st.logf("decode %s frame: %v", st.format, err)
		}
		return
	}
	st.frames.publish(img)
}
