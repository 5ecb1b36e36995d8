// Package panel models the slider panel of a camera control window
// without depending on any GUI toolkit. A GUI binds one widget row per
// Slider and renders the SliderState values returned here.
package panel

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/adamlouis/usbcam"
)

const (
	LabelAuto        = "AUTO"
	LabelUnsupported = "NA"
)

// Controller is the control surface of a streaming session.
type Controller interface {
	QueryControl(id usbcam.ControlID) (usbcam.ControlDescriptor, bool)
	GetControl(id usbcam.ControlID) (int32, error)
	SetControl(id usbcam.ControlID, value int32) error
}

var ErrNoAutoControl = errors.New("slider has no auto control")

// Slider is one row of the panel. Auto is zero for a plain slider;
// otherwise it names the control whose "on" state takes the slider over.
type Slider struct {
	Name    string
	Control usbcam.ControlID
	Auto    usbcam.ControlID
}

func (s Slider) Coupled() bool {
	return s.Auto != 0
}

// SliderState is what a row shows.
type SliderState struct {
	Enabled     bool
	Min         int32
	Max         int32
	Value       int32
	Label       string
	AutoChecked bool
}

func DefaultSliders() []Slider {
	return []Slider{
		{Name: "Brightness", Control: usbcam.V4L2_CID_BRIGHTNESS},
		{Name: "Contrast", Control: usbcam.V4L2_CID_CONTRAST},
		{Name: "Saturation", Control: usbcam.V4L2_CID_SATURATION},
		{Name: "Hue", Control: usbcam.V4L2_CID_HUE},
		{Name: "White Balance", Control: usbcam.V4L2_CID_WHITE_BALANCE_TEMPERATURE, Auto: usbcam.V4L2_CID_AUTO_WHITE_BALANCE},
		{Name: "Gamma", Control: usbcam.V4L2_CID_GAMMA},
		{Name: "Sharpness", Control: usbcam.V4L2_CID_SHARPNESS},
		{Name: "Exposure", Control: usbcam.V4L2_CID_EXPOSURE_ABSOLUTE, Auto: usbcam.V4L2_CID_EXPOSURE_AUTO},
		{Name: "Gain", Control: usbcam.V4L2_CID_GAIN},
		{Name: "Pan", Control: usbcam.V4L2_CID_PAN_ABSOLUTE},
		{Name: "Tilt", Control: usbcam.V4L2_CID_TILT_ABSOLUTE},
		{Name: "Backlight", Control: usbcam.V4L2_CID_BACKLIGHT_COMPENSATION},
		{Name: "Power Line", Control: usbcam.V4L2_CID_POWER_LINE_FREQUENCY},
		{Name: "Zoom", Control: usbcam.V4L2_CID_ZOOM_ABSOLUTE},
		{Name: "Focus", Control: usbcam.V4L2_CID_FOCUS_ABSOLUTE, Auto: usbcam.V4L2_CID_FOCUS_AUTO},
	}
}

// Auto exposure is a menu, not a boolean. Any mode but manual lets the
// camera drive the exposure time.
func autoOn(id usbcam.ControlID, value int32) bool {
	if id == usbcam.V4L2_CID_EXPOSURE_AUTO {
		return value != usbcam.V4L2_EXPOSURE_MANUAL
	}
	return value != 0
}

func autoValue(id usbcam.ControlID, on bool) int32 {
	if id == usbcam.V4L2_CID_EXPOSURE_AUTO {
		if on {
			return usbcam.V4L2_EXPOSURE_APERTURE_PRIORITY
		}
		return usbcam.V4L2_EXPOSURE_MANUAL
	}
	if on {
		return 1
	}
	return 0
}

// Read builds the state of s from the device. An auto control that is
// on shows "AUTO" and disables the slider; an unsupported control shows
// "NA".
func Read(c Controller, s Slider) SliderState {
	if s.Coupled() {
		if v, err := c.GetControl(s.Auto); err == nil && autoOn(s.Auto, v) {
			state := SliderState{AutoChecked: true, Label: LabelAuto}
			if desc, ok := c.QueryControl(s.Control); ok {
				state.Min, state.Max = desc.Minimum, desc.Maximum
			}
			return state
		}
	}
	return readPlain(c, s.Control)
}

func readPlain(c Controller, id usbcam.ControlID) SliderState {
	desc, ok := c.QueryControl(id)
	if !ok {
		return SliderState{Label: LabelUnsupported}
	}
	v, err := c.GetControl(id)
	if err != nil {
		return SliderState{Label: LabelUnsupported}
	}
	return SliderState{
		Enabled: true,
		Min:     desc.Minimum,
		Max:     desc.Maximum,
		Value:   v,
		Label:   strconv.Itoa(int(v)),
	}
}

// ReadAll reads every slider, in order.
func ReadAll(c Controller, sliders []Slider) []SliderState {
	states := make([]SliderState, len(sliders))
	for i, s := range sliders {
		states[i] = Read(c, s)
	}
	return states
}

// SetAuto switches the auto control of s and returns the row's new state.
// Turning auto off re-reads the manual value the device now holds.
func SetAuto(c Controller, s Slider, on bool) (SliderState, error) {
	if !s.Coupled() {
		return Read(c, s), fmt.Errorf("%s: %w", s.Name, ErrNoAutoControl)
	}
	if err := c.SetControl(s.Auto, autoValue(s.Auto, on)); err != nil {
		return Read(c, s), err
	}
	return Read(c, s), nil
}

// SetValue writes v to the slider's control.
func SetValue(c Controller, s Slider, v int32) (SliderState, error) {
	if err := c.SetControl(s.Control, v); err != nil {
		return Read(c, s), err
	}
	return Read(c, s), nil
}
