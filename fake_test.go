package usbcam

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

type fakeSize struct {
	width, height uint32
	stepwise      bool
	intervals     []FrameInterval
}

type fakeFormat struct {
	code  PixelFormat
	desc  string
	sizes []fakeSize
}

type controlWrite struct {
	id    ControlID
	value int32
}

// fakeCamera is the hardware behind a fake node. Every descriptor opened
// on the node shares it.
type fakeCamera struct {
	mu sync.Mutex

	caps     Capability
	capsErr  error
	formats  []fakeFormat
	controls map[ControlID]*fakeControl
	payload  []byte

	grant       int // buffers granted by REQBUFS; -1 grants what was asked
	failMapAt   int // -1 never fails
	failDequeue  error
	failRequeue  error // only once streaming
	failStreamOn error
	failSetAll   bool
	adjustTo    [2]uint32

	opens, closes, doubleCloses int
	mapped, unmapped            int
	streamOns, streamOffs       int
	waits                       int
	writes                      []controlWrite
}

type fakeControl struct {
	desc    ControlDescriptor
	value   int32
	failSet bool
}

func newFakeCamera(card string) *fakeCamera {
	return &fakeCamera{
		caps: Capability{
			Driver:       "uvcvideo",
			Card:         card,
			BusInfo:      "usb-0000:00:14.0-1",
			Capabilities: V4L2_CAP_VIDEO_CAPTURE | V4L2_CAP_STREAMING,
		},
		controls:  map[ControlID]*fakeControl{},
		grant:     -1,
		failMapAt: -1,
	}
}

func (c *fakeCamera) addControl(desc ControlDescriptor, value int32) {
	c.controls[desc.ID] = &fakeControl{desc: desc, value: value}
}

func (c *fakeCamera) value(id ControlID) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controls[id].value
}

func (c *fakeCamera) counts() (opens, closes, mapped, unmapped int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens, c.closes, c.mapped, c.unmapped
}

func (c *fakeCamera) setFailDequeue(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failDequeue = err
}

func (c *fakeCamera) setFailRequeue(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failRequeue = err
}

func (c *fakeCamera) waitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waits
}

// fakeSystem serves fake nodes by path.
type fakeSystem struct {
	mu      sync.Mutex
	cams    map[string]*fakeCamera
	openErr map[string]error
	flags   []int
}

func newFakeSystem() *fakeSystem {
	return &fakeSystem{cams: map[string]*fakeCamera{}, openErr: map[string]error{}}
}

func (fs *fakeSystem) system(dir string) *System {
	return &System{Dir: dir, Open: fs.open}
}

func (fs *fakeSystem) open(path string, flags int) (Device, error) {
	fs.mu.Lock()
	fs.flags = append(fs.flags, flags)
	err := fs.openErr[path]
	cam, ok := fs.cams[path]
	fs.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, unix.ENOENT
	}
	cam.mu.Lock()
	cam.opens++
	cam.mu.Unlock()
	return &fakeDevice{cam: cam}, nil
}

type fakeDevice struct {
	cam       *fakeCamera
	closed    bool
	streaming bool
	bufs      [][]byte
	queued    []uint32
}

func (d *fakeDevice) Capability() (Capability, error) {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	return d.cam.caps, d.cam.capsErr
}

func (d *fakeDevice) format(code PixelFormat) (fakeFormat, bool) {
	for _, f := range d.cam.formats {
		if f.code == code {
			return f, true
		}
	}
	return fakeFormat{}, false
}

func (d *fakeDevice) PixelFormat(index uint32) (PixelFormat, string, error) {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	if int(index) >= len(d.cam.formats) {
		return 0, "", unix.EINVAL
	}
	f := d.cam.formats[index]
	return f.code, f.desc, nil
}

func (d *fakeDevice) FrameSize(code PixelFormat, index uint32) (FrameSize, error) {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	f, ok := d.format(code)
	if !ok || int(index) >= len(f.sizes) {
		return FrameSize{}, unix.EINVAL
	}
	s := f.sizes[index]
	if s.stepwise {
		return FrameSize{Type: V4L2_FRMSIZE_TYPE_STEPWISE, MinWidth: 16, MaxWidth: s.width, StepWidth: 16, MinHeight: 16, MaxHeight: s.height, StepHeight: 16}, nil
	}
	return FrameSize{Type: V4L2_FRMSIZE_TYPE_DISCRETE, MinWidth: s.width, MaxWidth: s.width, MinHeight: s.height, MaxHeight: s.height}, nil
}

func (d *fakeDevice) FrameInterval(code PixelFormat, width, height, index uint32) (FrameInterval, error) {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	f, ok := d.format(code)
	if !ok {
		return FrameInterval{}, unix.EINVAL
	}
	for _, s := range f.sizes {
		if s.width == width && s.height == height {
			if int(index) >= len(s.intervals) {
				return FrameInterval{}, unix.EINVAL
			}
			return s.intervals[index], nil
		}
	}
	return FrameInterval{}, unix.EINVAL
}

func (d *fakeDevice) SetImageFormat(code PixelFormat, width, height, field uint32) (PixelFormat, uint32, uint32, error) {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	if _, ok := d.format(code); !ok {
		return 0, 0, 0, unix.EINVAL
	}
	if d.cam.adjustTo[0] != 0 {
		return code, d.cam.adjustTo[0], d.cam.adjustTo[1], nil
	}
	return code, width, height, nil
}

func (d *fakeDevice) SetTimePerFrame(numerator, denominator uint32) error {
	if numerator == 0 || denominator == 0 {
		return unix.EINVAL
	}
	return nil
}

func (d *fakeDevice) RequestBuffers(count uint32) (uint32, error) {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	if d.cam.grant >= 0 {
		return uint32(d.cam.grant), nil
	}
	return count, nil
}

func (d *fakeDevice) MapBuffer(index uint32) ([]byte, error) {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	if int(index) == d.cam.failMapAt {
		return nil, unix.ENOMEM
	}
	d.cam.mapped++
	buf := make([]byte, 1<<20)
	d.bufs = append(d.bufs, buf)
	return buf, nil
}

func (d *fakeDevice) UnmapBuffer(buf []byte) error {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	d.cam.unmapped++
	return nil
}

func (d *fakeDevice) QueueBuffer(index uint32) error {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	if d.closed {
		return unix.EBADF
	}
	if d.streaming && d.cam.failRequeue != nil {
		return d.cam.failRequeue
	}
	d.queued = append(d.queued, index)
	return nil
}

func (d *fakeDevice) DequeueBuffer() (uint32, uint32, error) {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	if d.cam.failDequeue != nil {
		return 0, 0, d.cam.failDequeue
	}
	if len(d.queued) == 0 {
		return 0, 0, unix.EAGAIN
	}
	index := d.queued[0]
	d.queued = d.queued[1:]
	n := copy(d.bufs[index], d.cam.payload)
	return index, uint32(n), nil
}

func (d *fakeDevice) WaitForFrame(timeout time.Duration) error {
	d.cam.mu.Lock()
	d.cam.waits++
	ready := d.streaming && (len(d.queued) > 0 || d.cam.failDequeue != nil)
	d.cam.mu.Unlock()

	if !ready {
		time.Sleep(timeout)
		return new(Timeout)
	}
	time.Sleep(time.Millisecond)
	return nil
}

func (d *fakeDevice) StreamOn() error {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	if d.cam.failStreamOn != nil {
		return d.cam.failStreamOn
	}
	d.cam.streamOns++
	d.streaming = true
	return nil
}

func (d *fakeDevice) StreamOff() error {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	if d.closed {
		return unix.EBADF
	}
	d.cam.streamOffs++
	d.streaming = false
	return nil
}

func (d *fakeDevice) QueryControl(id ControlID) (ControlDescriptor, error) {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	if d.closed {
		return ControlDescriptor{}, unix.EBADF
	}
	c, ok := d.cam.controls[id]
	if !ok {
		return ControlDescriptor{}, unix.EINVAL
	}
	return c.desc, nil
}

func (d *fakeDevice) GetControl(id ControlID) (int32, error) {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	c, ok := d.cam.controls[id]
	if d.closed || !ok {
		return 0, unix.EINVAL
	}
	return c.value, nil
}

func (d *fakeDevice) SetControl(id ControlID, value int32) error {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	c, ok := d.cam.controls[id]
	if d.closed || !ok {
		return unix.EINVAL
	}
	if c.failSet || d.cam.failSetAll {
		return unix.EIO
	}
	if value < c.desc.Minimum {
		value = c.desc.Minimum
	}
	if value > c.desc.Maximum {
		value = c.desc.Maximum
	}
	c.value = value
	d.cam.writes = append(d.cam.writes, controlWrite{id: id, value: value})
	return nil
}

func (d *fakeDevice) Close() error {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	if d.closed {
		d.cam.doubleCloses++
		return unix.EBADF
	}
	d.closed = true
	d.cam.closes++
	return nil
}

func discreteSize(w, h uint32, rates ...uint32) fakeSize {
	s := fakeSize{width: w, height: h}
	for _, r := range rates {
		s.intervals = append(s.intervals, FrameInterval{Type: V4L2_FRMIVAL_TYPE_DISCRETE, Numerator: 1, Denominator: r})
	}
	return s
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// webcamFixture is a 640x480 MJPEG/YUYV camera at /dev/video0 with a
// small control set.
func webcamFixture(t *testing.T) (*fakeSystem, *fakeCamera) {
	t.Helper()
	cam := newFakeCamera("HD Pro Webcam C920")
	cam.formats = []fakeFormat{
		{code: PixelFormatYUYV, desc: "YUYV 4:2:2", sizes: []fakeSize{discreteSize(640, 480, 30, 15)}},
		{code: PixelFormatMJPEG, desc: "Motion-JPEG", sizes: []fakeSize{discreteSize(640, 480, 30), discreteSize(1280, 720, 30, 24)}},
	}
	cam.payload = testJPEG(t, 640, 480)

	cam.addControl(ControlDescriptor{ID: V4L2_CID_BRIGHTNESS, Type: V4L2_CTRL_TYPE_INTEGER, Minimum: 0, Maximum: 255, Step: 1, DefaultValue: 128}, 40)
	cam.addControl(ControlDescriptor{ID: V4L2_CID_CONTRAST, Type: V4L2_CTRL_TYPE_INTEGER, Minimum: 0, Maximum: 255, Step: 1, DefaultValue: 32}, 200)
	cam.addControl(ControlDescriptor{ID: V4L2_CID_AUTO_WHITE_BALANCE, Type: V4L2_CTRL_TYPE_BOOLEAN, Minimum: 0, Maximum: 1, Step: 1, DefaultValue: 1}, 0)
	cam.addControl(ControlDescriptor{ID: V4L2_CID_HUE, Type: V4L2_CTRL_TYPE_INTEGER, Minimum: -180, Maximum: 180, Step: 1, DefaultValue: 0, Flags: V4L2_CTRL_FLAG_DISABLED}, 50)
	cam.addControl(ControlDescriptor{ID: V4L2_CID_EXPOSURE_AUTO, Type: V4L2_CTRL_TYPE_MENU, Minimum: 0, Maximum: 3, Step: 1, DefaultValue: 3}, 1)
	cam.addControl(ControlDescriptor{ID: V4L2_CID_EXPOSURE_ABSOLUTE, Type: V4L2_CTRL_TYPE_INTEGER, Minimum: 3, Maximum: 2047, Step: 1, DefaultValue: 250, Flags: V4L2_CTRL_FLAG_INACTIVE}, 500)
	cam.addControl(ControlDescriptor{ID: V4L2_CID_FOCUS_AUTO, Type: V4L2_CTRL_TYPE_BOOLEAN, Minimum: 0, Maximum: 1, Step: 1, DefaultValue: 1, Flags: V4L2_CTRL_FLAG_READ_ONLY}, 0)
	cam.addControl(ControlDescriptor{ID: V4L2_CID_PRIVATE_BASE, Name: "LED1 Mode", Type: V4L2_CTRL_TYPE_MENU, Minimum: 0, Maximum: 3, Step: 1, DefaultValue: 3}, 0)

	fs := newFakeSystem()
	fs.cams["/dev/video0"] = cam
	return fs, cam
}

func mjpegConfig() StreamConfig {
	return StreamConfig{DevicePath: "/dev/video0", FormatName: "MJPEG", Width: 640, Height: 480, FrameRate: 30}
}

// fastSession returns a session that re-checks its streaming flag often.
func fastSession(sys *System) *Session {
	s := NewSession(sys)
	s.WaitTimeout = 5 * time.Millisecond
	return s
}
