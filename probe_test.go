package usbcam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestProbe(t *testing.T) {
	fs, cam := webcamFixture(t)

	info := fs.system("/dev").Probe("/dev/video0")

	require.True(t, info.Usable())
	assert.Equal(t, "HD Pro Webcam C920", info.DisplayName)
	assert.Equal(t, "uvcvideo", info.DriverName)
	assert.Equal(t, "usb-0000:00:14.0-1", info.BusInfo)
	assert.True(t, info.Capture)
	assert.True(t, info.Streaming)
	assert.Equal(t, []FormatDescriptor{
		{
			FormatName:  "YUYV 4:2:2",
			PixelFormat: PixelFormatYUYV,
			Resolutions: []ResolutionInfo{{Width: 640, Height: 480, FrameRates: []float32{30, 15}}},
		},
		{
			FormatName:  "Motion-JPEG",
			PixelFormat: PixelFormatMJPEG,
			Resolutions: []ResolutionInfo{
				{Width: 640, Height: 480, FrameRates: []float32{30}},
				{Width: 1280, Height: 720, FrameRates: []float32{30, 24}},
			},
		},
	}, info.Formats)

	opens, closes, _, _ := cam.counts()
	assert.Equal(t, 1, opens)
	assert.Equal(t, 1, closes)
}

func TestProbeDropsNonDiscrete(t *testing.T) {
	cam := newFakeCamera("odd")
	noRates := fakeSize{width: 320, height: 240}
	stepRate := fakeSize{width: 800, height: 600, intervals: []FrameInterval{
		{Type: V4L2_FRMIVAL_TYPE_STEPWISE, Numerator: 1, Denominator: 30},
		{Type: V4L2_FRMIVAL_TYPE_DISCRETE, Numerator: 0, Denominator: 30},
	}}
	stepwise := discreteSize(1920, 1080, 30)
	stepwise.stepwise = true
	cam.formats = []fakeFormat{{
		code:  PixelFormatYUYV,
		desc:  "YUYV 4:2:2",
		sizes: []fakeSize{noRates, stepRate, stepwise, discreteSize(640, 480, 5)},
	}}
	fs := newFakeSystem()
	fs.cams["/dev/video3"] = cam

	info := fs.system("/dev").Probe("/dev/video3")

	require.Len(t, info.Formats, 1)
	assert.Equal(t, []ResolutionInfo{{Width: 640, Height: 480, FrameRates: []float32{5}}}, info.Formats[0].Resolutions)
}

func TestProbeCaptureWithoutStreaming(t *testing.T) {
	fs, cam := webcamFixture(t)
	cam.caps.Capabilities = V4L2_CAP_VIDEO_CAPTURE

	info := fs.system("/dev").Probe("/dev/video0")

	assert.True(t, info.Capture)
	assert.False(t, info.Streaming)
	assert.True(t, info.Usable())
}

func TestProbeUnusable(t *testing.T) {
	fs := newFakeSystem()
	assert.Equal(t, DeviceInfo{}, fs.system("/dev").Probe("/dev/video9"))

	cam := newFakeCamera("dead")
	cam.capsErr = unix.EIO
	fs.cams["/dev/video1"] = cam
	info := fs.system("/dev").Probe("/dev/video1")
	assert.False(t, info.Usable())
	assert.Equal(t, DeviceInfo{}, info)

	opens, closes, _, _ := cam.counts()
	assert.Equal(t, opens, closes)
}

func TestFrameIntervalRate(t *testing.T) {
	assert.Equal(t, float32(30), FrameInterval{Numerator: 1, Denominator: 30}.Rate())
	assert.Equal(t, float32(7.5), FrameInterval{Numerator: 2, Denominator: 15}.Rate())
	assert.Zero(t, FrameInterval{Numerator: 0, Denominator: 30}.Rate())
}

func TestLookupFormat(t *testing.T) {
	for name, want := range map[string]PixelFormat{
		"MJPEG":       PixelFormatMJPEG,
		"Motion-JPEG": PixelFormatMJPEG,
		"YUYV":        PixelFormatYUYV,
		"YUYV 4:2:2":  PixelFormatYUYV,
		"H.264":       PixelFormatH264,
		"H264":        PixelFormatH264,
	} {
		got, ok := LookupFormat(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := LookupFormat("RGB3")
	assert.False(t, ok)
	assert.Equal(t, "MJPG", PixelFormatMJPEG.String())
}
