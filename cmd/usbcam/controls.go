package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/adamlouis/usbcam"
)

var cnames = map[string]usbcam.ControlID{
	"brightness":           usbcam.V4L2_CID_BRIGHTNESS,
	"contrast":             usbcam.V4L2_CID_CONTRAST,
	"saturation":           usbcam.V4L2_CID_SATURATION,
	"hue":                  usbcam.V4L2_CID_HUE,
	"gamma":                usbcam.V4L2_CID_GAMMA,
	"sharpness":            usbcam.V4L2_CID_SHARPNESS,
	"gain":                 usbcam.V4L2_CID_GAIN,
	"autowb":               usbcam.V4L2_CID_AUTO_WHITE_BALANCE,
	"wb_temperature":       usbcam.V4L2_CID_WHITE_BALANCE_TEMPERATURE,
	"backlight":            usbcam.V4L2_CID_BACKLIGHT_COMPENSATION,
	"power_line_frequency": usbcam.V4L2_CID_POWER_LINE_FREQUENCY,
	"rotate":               usbcam.V4L2_CID_ROTATE,
	"autoexp":              usbcam.V4L2_CID_EXPOSURE_AUTO,
	"exposure":             usbcam.V4L2_CID_EXPOSURE_ABSOLUTE,
	"pan":                  usbcam.V4L2_CID_PAN_ABSOLUTE,
	"tilt":                 usbcam.V4L2_CID_TILT_ABSOLUTE,
	"zoom":                 usbcam.V4L2_CID_ZOOM_ABSOLUTE,
	"focus":                usbcam.V4L2_CID_FOCUS_ABSOLUTE,
	"autofocus":            usbcam.V4L2_CID_FOCUS_AUTO,
}

// parseControlID accepts a short name from cnames or a numeric id such
// as 0x00980900.
func parseControlID(s string) (usbcam.ControlID, error) {
	if id, ok := cnames[strings.ToLower(s)]; ok {
		return id, nil
	}
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: unknown control (known: %s)", s, strings.Join(controlNames(), ", "))
	}
	return usbcam.ControlID(n), nil
}

func controlNames() []string {
	names := make([]string, 0, len(cnames))
	for name := range cnames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseControlList parses "name=value,name=value".
func parseControlList(s string) (map[usbcam.ControlID]int32, error) {
	settings := map[usbcam.ControlID]int32{}
	if s == "" {
		return settings, nil
	}
	for _, control := range strings.Split(s, ",") {
		kv := strings.Split(control, "=")
		if len(kv) != 2 {
			return nil, fmt.Errorf("bad control option: %s", control)
		}
		id, err := parseControlID(kv[0])
		if err != nil {
			return nil, err
		}
		val, err := strconv.ParseInt(kv[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad control value: %s (%v)", control, err)
		}
		settings[id] = int32(val)
	}
	return settings, nil
}
