package main

import (
	"testing"

	"github.com/adamlouis/usbcam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseControlID(t *testing.T) {
	id, err := parseControlID("Brightness")
	require.NoError(t, err)
	assert.Equal(t, usbcam.V4L2_CID_BRIGHTNESS, id)

	id, err = parseControlID("0x009a0901")
	require.NoError(t, err)
	assert.Equal(t, usbcam.V4L2_CID_EXPOSURE_AUTO, id)

	_, err = parseControlID("loudness")
	assert.ErrorContains(t, err, "unknown control")
}

func TestParseControlList(t *testing.T) {
	settings, err := parseControlList("brightness=10,autoexp=1")
	require.NoError(t, err)
	assert.Equal(t, map[usbcam.ControlID]int32{
		usbcam.V4L2_CID_BRIGHTNESS:    10,
		usbcam.V4L2_CID_EXPOSURE_AUTO: 1,
	}, settings)

	settings, err = parseControlList("")
	require.NoError(t, err)
	assert.Empty(t, settings)

	for _, bad := range []string{"brightness", "brightness=x", "nope=1", "a=1=2"} {
		_, err := parseControlList(bad)
		assert.Error(t, err, bad)
	}
}
