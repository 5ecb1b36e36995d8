package usbcam

import (
	"time"

	"golang.org/x/sys/unix"
)

const VIDEO4LINUX_DIR = "/dev"

// Capability is the identity block returned by VIDIOC_QUERYCAP.
type Capability struct {
	Driver       string
	Card         string
	BusInfo      string
	Version      uint32
	Capabilities uint32
}

func (c Capability) CanCapture() bool {
	return c.Capabilities&V4L2_CAP_VIDEO_CAPTURE != 0
}

func (c Capability) CanStream() bool {
	return c.Capabilities&V4L2_CAP_STREAMING != 0
}

// Device is an opened capture node. Every method maps onto one kernel
// request; enumeration methods return unix.EINVAL past the last index.
type Device interface {
	Capability() (Capability, error)
	PixelFormat(index uint32) (PixelFormat, string, error)
	FrameSize(code PixelFormat, index uint32) (FrameSize, error)
	FrameInterval(code PixelFormat, width, height, index uint32) (FrameInterval, error)

	// SetImageFormat returns the format and size the driver settled on.
	SetImageFormat(code PixelFormat, width, height, field uint32) (PixelFormat, uint32, uint32, error)
	SetTimePerFrame(numerator, denominator uint32) error

	RequestBuffers(count uint32) (uint32, error)
	MapBuffer(index uint32) ([]byte, error)
	UnmapBuffer(buf []byte) error
	QueueBuffer(index uint32) error
	// DequeueBuffer returns the ring index of a filled buffer and the
	// number of bytes used in it.
	DequeueBuffer() (uint32, uint32, error)
	// WaitForFrame blocks until a buffer can be dequeued. It returns a
	// *Timeout when nothing arrived within timeout.
	WaitForFrame(timeout time.Duration) error
	StreamOn() error
	StreamOff() error

	QueryControl(id ControlID) (ControlDescriptor, error)
	GetControl(id ControlID) (int32, error)
	SetControl(id ControlID, value int32) error

	Close() error
}

// Opener opens the device node at path with the given open(2) flags.
type Opener func(path string, flags int) (Device, error)

// fileDevice is a Device backed by a V4L2 file descriptor.
type fileDevice struct {
	fd uintptr
}

// OpenDevice opens a V4L2 node. It is the Opener used outside tests.
func OpenDevice(path string, flags int) (Device, error) {
	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return &fileDevice{fd: uintptr(fd)}, nil
}

func (d *fileDevice) Capability() (Capability, error) {
	return queryCapabilities(d.fd)
}

func (d *fileDevice) PixelFormat(index uint32) (PixelFormat, string, error) {
	return getPixelFormat(d.fd, index)
}

func (d *fileDevice) FrameSize(code PixelFormat, index uint32) (FrameSize, error) {
	return getFrameSize(d.fd, index, code)
}

func (d *fileDevice) FrameInterval(code PixelFormat, width, height, index uint32) (FrameInterval, error) {
	return getFrameInterval(d.fd, index, code, width, height)
}

func (d *fileDevice) SetImageFormat(code PixelFormat, width, height, field uint32) (PixelFormat, uint32, uint32, error) {
	c := uint32(code)
	if err := setImageFormat(d.fd, &c, &width, &height, field); err != nil {
		return 0, 0, 0, err
	}
	return PixelFormat(c), width, height, nil
}

func (d *fileDevice) SetTimePerFrame(numerator, denominator uint32) error {
	return setTimePerFrame(d.fd, numerator, denominator)
}

func (d *fileDevice) RequestBuffers(count uint32) (uint32, error) {
	err := mmapRequestBuffers(d.fd, &count)
	return count, err
}

func (d *fileDevice) MapBuffer(index uint32) ([]byte, error) {
	var length uint32
	return mmapQueryBuffer(d.fd, index, &length)
}

func (d *fileDevice) UnmapBuffer(buf []byte) error {
	return mmapReleaseBuffer(buf)
}

func (d *fileDevice) QueueBuffer(index uint32) error {
	return mmapEnqueueBuffer(d.fd, index)
}

func (d *fileDevice) DequeueBuffer() (uint32, uint32, error) {
	var index, length uint32
	err := mmapDequeueBuffer(d.fd, &index, &length)
	return index, length, err
}

func (d *fileDevice) WaitForFrame(timeout time.Duration) error {
	count, err := waitForFrame(d.fd, timeout)

	if count < 0 || err != nil {
		return err
	}
	if count == 0 {
		return new(Timeout)
	}
	return nil
}

func (d *fileDevice) StreamOn() error {
	return startStreaming(d.fd)
}

func (d *fileDevice) StreamOff() error {
	return stopStreaming(d.fd)
}

func (d *fileDevice) QueryControl(id ControlID) (ControlDescriptor, error) {
	return queryControl(d.fd, uint32(id))
}

func (d *fileDevice) GetControl(id ControlID) (int32, error) {
	return getControl(d.fd, uint32(id))
}

func (d *fileDevice) SetControl(id ControlID, value int32) error {
	return setControl(d.fd, uint32(id), value)
}

func (d *fileDevice) Close() error {
	return unix.Close(int(d.fd))
}
