package usbcam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func streamingSession(t *testing.T) (*Session, *fakeCamera) {
	t.Helper()
	fs, cam := webcamFixture(t)
	s := fastSession(fs.system("/dev"))
	require.NoError(t, s.StartStream(mjpegConfig()))
	t.Cleanup(s.StopStream)
	return s, cam
}

func TestControlsNotStreaming(t *testing.T) {
	fs, cam := webcamFixture(t)
	s := fastSession(fs.system("/dev"))

	_, ok := s.QueryControl(V4L2_CID_BRIGHTNESS)
	assert.False(t, ok)

	_, err := s.GetControl(V4L2_CID_BRIGHTNESS)
	assert.ErrorIs(t, err, ErrControlUnavailable)
	assert.ErrorIs(t, err, ErrNotStreaming)

	err = s.SetControl(V4L2_CID_BRIGHTNESS, 10)
	assert.ErrorIs(t, err, ErrControlUnavailable)
	assert.ErrorIs(t, err, ErrNotStreaming)

	assert.ErrorIs(t, s.ResetAllToDefault(), ErrNotStreaming)
	assert.Nil(t, s.Controls())

	opens, _, _, _ := cam.counts()
	assert.Zero(t, opens)
	assert.Empty(t, cam.writes)
}

func TestQueryControl(t *testing.T) {
	s, _ := streamingSession(t)

	desc, ok := s.QueryControl(V4L2_CID_BRIGHTNESS)
	require.True(t, ok)
	assert.Equal(t, "Brightness", desc.Name)
	assert.Equal(t, int32(0), desc.Minimum)
	assert.Equal(t, int32(255), desc.Maximum)
	assert.Equal(t, int32(128), desc.DefaultValue)

	desc, ok = s.QueryControl(V4L2_CID_PRIVATE_BASE)
	require.True(t, ok)
	assert.Equal(t, "LED1 Mode", desc.Name)

	_, ok = s.QueryControl(V4L2_CID_HUE)
	assert.False(t, ok, "disabled control")

	_, ok = s.QueryControl(V4L2_CID_GAMMA)
	assert.False(t, ok, "unknown control")

	desc, ok = s.QueryControl(V4L2_CID_EXPOSURE_ABSOLUTE)
	require.True(t, ok)
	assert.True(t, desc.Inactive())
}

func TestGetSetControl(t *testing.T) {
	s, cam := streamingSession(t)

	v, err := s.GetControl(V4L2_CID_BRIGHTNESS)
	require.NoError(t, err)
	assert.Equal(t, int32(40), v)

	require.NoError(t, s.SetControl(V4L2_CID_BRIGHTNESS, 100))
	v, err = s.GetControl(V4L2_CID_BRIGHTNESS)
	require.NoError(t, err)
	assert.Equal(t, int32(100), v)

	require.NoError(t, s.SetControl(V4L2_CID_BRIGHTNESS, 300))
	assert.Equal(t, int32(255), cam.value(V4L2_CID_BRIGHTNESS))

	err = s.SetControl(V4L2_CID_GAMMA, 1)
	assert.ErrorIs(t, err, ErrControlUnavailable)
	assert.ErrorIs(t, err, ErrControlSetFailed)
	assert.ErrorIs(t, err, unix.EINVAL)

	_, err = s.GetControl(V4L2_CID_GAMMA)
	assert.ErrorIs(t, err, ErrControlGetFailed)
}

func TestResetAllToDefault(t *testing.T) {
	s, cam := streamingSession(t)

	require.NoError(t, s.ResetAllToDefault())

	assert.Equal(t, int32(128), cam.value(V4L2_CID_BRIGHTNESS))
	assert.Equal(t, int32(32), cam.value(V4L2_CID_CONTRAST))
	assert.Equal(t, int32(1), cam.value(V4L2_CID_AUTO_WHITE_BALANCE))
	assert.Equal(t, int32(3), cam.value(V4L2_CID_EXPOSURE_AUTO))
	assert.Equal(t, int32(250), cam.value(V4L2_CID_EXPOSURE_ABSOLUTE))
	assert.Equal(t, int32(3), cam.value(V4L2_CID_PRIVATE_BASE))

	// disabled and read-only controls are left alone
	assert.Equal(t, int32(50), cam.value(V4L2_CID_HUE))
	assert.Equal(t, int32(0), cam.value(V4L2_CID_FOCUS_AUTO))
	cam.mu.Lock()
	defer cam.mu.Unlock()
	for _, w := range cam.writes {
		assert.NotEqual(t, V4L2_CID_HUE, w.id)
		assert.NotEqual(t, V4L2_CID_FOCUS_AUTO, w.id)
	}
	assert.Len(t, cam.writes, 6)
}

func TestResetAllToDefaultContinuesPastFailures(t *testing.T) {
	s, cam := streamingSession(t)
	cam.mu.Lock()
	cam.controls[V4L2_CID_CONTRAST].failSet = true
	cam.mu.Unlock()

	err := s.ResetAllToDefault()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrControlSetFailed)
	assert.ErrorIs(t, err, unix.EIO)
	assert.Equal(t, int32(128), cam.value(V4L2_CID_BRIGHTNESS))
	assert.Equal(t, int32(200), cam.value(V4L2_CID_CONTRAST))
	assert.Equal(t, int32(3), cam.value(V4L2_CID_PRIVATE_BASE))
}

func TestControls(t *testing.T) {
	s, _ := streamingSession(t)

	var ids []ControlID
	for _, desc := range s.Controls() {
		ids = append(ids, desc.ID)
	}
	assert.Equal(t, []ControlID{
		V4L2_CID_BRIGHTNESS,
		V4L2_CID_CONTRAST,
		V4L2_CID_AUTO_WHITE_BALANCE,
		V4L2_CID_EXPOSURE_AUTO,
		V4L2_CID_EXPOSURE_ABSOLUTE,
		V4L2_CID_FOCUS_AUTO,
		V4L2_CID_PRIVATE_BASE,
	}, ids)
}

func TestControlName(t *testing.T) {
	assert.Equal(t, "Brightness", ControlName(V4L2_CID_BRIGHTNESS))
	assert.Equal(t, "White Balance, Automatic", ControlName(V4L2_CID_AUTO_WHITE_BALANCE))
	assert.Equal(t, "Unknown Control", ControlName(0x12345678))
}

func TestControlSweepStopsInPrivateRange(t *testing.T) {
	var base, private int
	controlSweep(func(id ControlID) bool {
		if id >= V4L2_CID_PRIVATE_BASE {
			private++
			return id < V4L2_CID_PRIVATE_BASE+2
		}
		base++
		return false
	})
	assert.Equal(t, 44+36, base)
	assert.Equal(t, 3, private)
}

func TestControlErrorMessage(t *testing.T) {
	err := &ControlError{ID: V4L2_CID_CONTRAST, Reason: ErrControlSetFailed, Err: unix.EIO}
	assert.Equal(t, "control Contrast (0x00980901): control set failed: input/output error", err.Error())
}
