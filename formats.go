package usbcam

import "strings"

type PixelFormat uint32

const (
	PixelFormatMJPEG PixelFormat = 'M' | 'J'<<8 | 'P'<<16 | 'G'<<24
	PixelFormatJPEG  PixelFormat = 'J' | 'P'<<8 | 'E'<<16 | 'G'<<24
	PixelFormatYUYV  PixelFormat = 'Y' | 'U'<<8 | 'Y'<<16 | 'V'<<24
	PixelFormatH264  PixelFormat = 'H' | '2'<<8 | '6'<<16 | '4'<<24
)

// String returns the four character code of the format.
func (p PixelFormat) String() string {
	b := []byte{byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24)}
	return strings.TrimRight(string(b), " \x00")
}

// formatNames maps the names a caller may pick from a DeviceInfo to the
// pixel format negotiated with the device. Lookups are case sensitive.
var formatNames = map[string]PixelFormat{
	"MJPEG":       PixelFormatMJPEG,
	"Motion-JPEG": PixelFormatMJPEG,
	"YUYV":        PixelFormatYUYV,
	"YUYV 4:2:2":  PixelFormatYUYV,
	"H.264":       PixelFormatH264,
	"H264":        PixelFormatH264,
}

// LookupFormat resolves a format name to its pixel format code.
func LookupFormat(name string) (PixelFormat, bool) {
	pf, ok := formatNames[name]
	return pf, ok
}

// Struct that describes frame size supported by a webcam
// For fixed sizes min and max values will be the same and
// step value will be equal to '0'
type FrameSize struct {
	Type uint32

	MinWidth  uint32
	MaxWidth  uint32
	StepWidth uint32

	MinHeight  uint32
	MaxHeight  uint32
	StepHeight uint32
}

func (s FrameSize) Discrete() bool {
	return s.Type == V4L2_FRMSIZE_TYPE_DISCRETE
}

// FrameInterval is one time-per-frame entry reported for a frame size.
// Only discrete entries describe a single interval.
type FrameInterval struct {
	Type        uint32
	Numerator   uint32
	Denominator uint32
}

func (i FrameInterval) Discrete() bool {
	return i.Type == V4L2_FRMIVAL_TYPE_DISCRETE
}

// Rate converts the interval to frames per second. A zero numerator
// yields zero.
func (i FrameInterval) Rate() float32 {
	if i.Numerator == 0 {
		return 0
	}
	return float32(i.Denominator) / float32(i.Numerator)
}
