package usbcam

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
}

func TestListDevices(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "video10", "video2", "video0", "video1x", "media0", "videoX")

	fs := newFakeSystem()
	cam0 := newFakeCamera("Integrated Camera")
	cam10 := newFakeCamera("USB 2.0 Camera")
	broken := newFakeCamera("broken")
	broken.capsErr = unix.ENOTTY
	fs.cams[filepath.Join(dir, "video0")] = cam0
	fs.cams[filepath.Join(dir, "video10")] = cam10
	fs.cams[filepath.Join(dir, "video2")] = broken

	devices := fs.system(dir).ListDevices()

	assert.Equal(t, []DeviceIdentity{
		{Path: filepath.Join(dir, "video0"), DisplayName: "Integrated Camera"},
		{Path: filepath.Join(dir, "video10"), DisplayName: "USB 2.0 Camera"},
	}, devices)

	for _, cam := range []*fakeCamera{cam0, cam10, broken} {
		opens, closes, _, _ := cam.counts()
		assert.Equal(t, 1, opens)
		assert.Equal(t, opens, closes, "descriptor left open")
	}
	for _, flags := range fs.flags {
		assert.NotZero(t, flags&unix.O_NONBLOCK)
	}
}

func TestListDevicesSkipsUnopenable(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "video0", "video1")

	fs := newFakeSystem()
	fs.openErr[filepath.Join(dir, "video0")] = unix.EACCES
	fs.cams[filepath.Join(dir, "video1")] = newFakeCamera("Webcam")

	devices := fs.system(dir).ListDevices()
	require.Len(t, devices, 1)
	assert.Equal(t, "Webcam", devices[0].DisplayName)
}

func TestListDevicesMissingDir(t *testing.T) {
	fs := newFakeSystem()
	devices := fs.system(filepath.Join(t.TempDir(), "missing")).ListDevices()
	assert.NotNil(t, devices)
	assert.Empty(t, devices)
}
