package usbcam

type ControlID uint32

const (
	V4L2_CID_BASE                ControlID = 0x00980900
	V4L2_CID_CAMERA_CLASS_BASE   ControlID = 0x009a0900
	V4L2_CID_PRIVATE_BASE        ControlID = 0x08000000
	V4L2_CID_LASTP1              ControlID = V4L2_CID_BASE + 44
	V4L2_CID_CAMERA_CLASS_LASTP1 ControlID = V4L2_CID_CAMERA_CLASS_BASE + 37

	privateControlLimit = 256
)

// User class controls.
const (
	V4L2_CID_BRIGHTNESS                ControlID = V4L2_CID_BASE + 0
	V4L2_CID_CONTRAST                  ControlID = V4L2_CID_BASE + 1
	V4L2_CID_SATURATION                ControlID = V4L2_CID_BASE + 2
	V4L2_CID_HUE                       ControlID = V4L2_CID_BASE + 3
	V4L2_CID_AUDIO_VOLUME              ControlID = V4L2_CID_BASE + 5
	V4L2_CID_AUDIO_BALANCE             ControlID = V4L2_CID_BASE + 6
	V4L2_CID_AUDIO_BASS                ControlID = V4L2_CID_BASE + 7
	V4L2_CID_AUDIO_TREBLE              ControlID = V4L2_CID_BASE + 8
	V4L2_CID_AUDIO_MUTE                ControlID = V4L2_CID_BASE + 9
	V4L2_CID_AUDIO_LOUDNESS            ControlID = V4L2_CID_BASE + 10
	V4L2_CID_BLACK_LEVEL               ControlID = V4L2_CID_BASE + 11
	V4L2_CID_AUTO_WHITE_BALANCE        ControlID = V4L2_CID_BASE + 12
	V4L2_CID_DO_WHITE_BALANCE          ControlID = V4L2_CID_BASE + 13
	V4L2_CID_RED_BALANCE               ControlID = V4L2_CID_BASE + 14
	V4L2_CID_BLUE_BALANCE              ControlID = V4L2_CID_BASE + 15
	V4L2_CID_GAMMA                     ControlID = V4L2_CID_BASE + 16
	V4L2_CID_EXPOSURE                  ControlID = V4L2_CID_BASE + 17
	V4L2_CID_AUTOGAIN                  ControlID = V4L2_CID_BASE + 18
	V4L2_CID_GAIN                      ControlID = V4L2_CID_BASE + 19
	V4L2_CID_HFLIP                     ControlID = V4L2_CID_BASE + 20
	V4L2_CID_VFLIP                     ControlID = V4L2_CID_BASE + 21
	V4L2_CID_POWER_LINE_FREQUENCY      ControlID = V4L2_CID_BASE + 24
	V4L2_CID_HUE_AUTO                  ControlID = V4L2_CID_BASE + 25
	V4L2_CID_WHITE_BALANCE_TEMPERATURE ControlID = V4L2_CID_BASE + 26
	V4L2_CID_SHARPNESS                 ControlID = V4L2_CID_BASE + 27
	V4L2_CID_BACKLIGHT_COMPENSATION    ControlID = V4L2_CID_BASE + 28
	V4L2_CID_CHROMA_AGC                ControlID = V4L2_CID_BASE + 29
	V4L2_CID_COLOR_KILLER              ControlID = V4L2_CID_BASE + 30
	V4L2_CID_COLORFX                   ControlID = V4L2_CID_BASE + 31
	V4L2_CID_AUTOBRIGHTNESS            ControlID = V4L2_CID_BASE + 32
	V4L2_CID_BAND_STOP_FILTER          ControlID = V4L2_CID_BASE + 33
	V4L2_CID_ROTATE                    ControlID = V4L2_CID_BASE + 34
	V4L2_CID_BG_COLOR                  ControlID = V4L2_CID_BASE + 35
	V4L2_CID_CHROMA_GAIN               ControlID = V4L2_CID_BASE + 36
	V4L2_CID_ILLUMINATORS_1            ControlID = V4L2_CID_BASE + 37
	V4L2_CID_ILLUMINATORS_2            ControlID = V4L2_CID_BASE + 38
	V4L2_CID_MIN_BUFFERS_FOR_CAPTURE   ControlID = V4L2_CID_BASE + 39
	V4L2_CID_MIN_BUFFERS_FOR_OUTPUT    ControlID = V4L2_CID_BASE + 40
	V4L2_CID_ALPHA_COMPONENT           ControlID = V4L2_CID_BASE + 41
	V4L2_CID_COLORFX_CBCR              ControlID = V4L2_CID_BASE + 42
	V4L2_CID_COLORFX_RGB               ControlID = V4L2_CID_BASE + 43
)

// Camera class controls.
const (
	V4L2_CID_EXPOSURE_AUTO               ControlID = V4L2_CID_CAMERA_CLASS_BASE + 1
	V4L2_CID_EXPOSURE_ABSOLUTE           ControlID = V4L2_CID_CAMERA_CLASS_BASE + 2
	V4L2_CID_EXPOSURE_AUTO_PRIORITY      ControlID = V4L2_CID_CAMERA_CLASS_BASE + 3
	V4L2_CID_PAN_RELATIVE                ControlID = V4L2_CID_CAMERA_CLASS_BASE + 4
	V4L2_CID_TILT_RELATIVE               ControlID = V4L2_CID_CAMERA_CLASS_BASE + 5
	V4L2_CID_PAN_RESET                   ControlID = V4L2_CID_CAMERA_CLASS_BASE + 6
	V4L2_CID_TILT_RESET                  ControlID = V4L2_CID_CAMERA_CLASS_BASE + 7
	V4L2_CID_PAN_ABSOLUTE                ControlID = V4L2_CID_CAMERA_CLASS_BASE + 8
	V4L2_CID_TILT_ABSOLUTE               ControlID = V4L2_CID_CAMERA_CLASS_BASE + 9
	V4L2_CID_FOCUS_ABSOLUTE              ControlID = V4L2_CID_CAMERA_CLASS_BASE + 10
	V4L2_CID_FOCUS_RELATIVE              ControlID = V4L2_CID_CAMERA_CLASS_BASE + 11
	V4L2_CID_FOCUS_AUTO                  ControlID = V4L2_CID_CAMERA_CLASS_BASE + 12
	V4L2_CID_ZOOM_ABSOLUTE               ControlID = V4L2_CID_CAMERA_CLASS_BASE + 13
	V4L2_CID_ZOOM_RELATIVE               ControlID = V4L2_CID_CAMERA_CLASS_BASE + 14
	V4L2_CID_ZOOM_CONTINUOUS             ControlID = V4L2_CID_CAMERA_CLASS_BASE + 15
	V4L2_CID_PRIVACY                     ControlID = V4L2_CID_CAMERA_CLASS_BASE + 16
	V4L2_CID_IRIS_ABSOLUTE               ControlID = V4L2_CID_CAMERA_CLASS_BASE + 17
	V4L2_CID_IRIS_RELATIVE               ControlID = V4L2_CID_CAMERA_CLASS_BASE + 18
	V4L2_CID_AUTO_EXPOSURE_BIAS          ControlID = V4L2_CID_CAMERA_CLASS_BASE + 19
	V4L2_CID_AUTO_N_PRESET_WHITE_BALANCE ControlID = V4L2_CID_CAMERA_CLASS_BASE + 20
	V4L2_CID_WIDE_DYNAMIC_RANGE          ControlID = V4L2_CID_CAMERA_CLASS_BASE + 21
	V4L2_CID_IMAGE_STABILIZATION         ControlID = V4L2_CID_CAMERA_CLASS_BASE + 22
	V4L2_CID_ISO_SENSITIVITY             ControlID = V4L2_CID_CAMERA_CLASS_BASE + 23
	V4L2_CID_ISO_SENSITIVITY_AUTO        ControlID = V4L2_CID_CAMERA_CLASS_BASE + 24
	V4L2_CID_EXPOSURE_METERING           ControlID = V4L2_CID_CAMERA_CLASS_BASE + 25
	V4L2_CID_SCENE_MODE                  ControlID = V4L2_CID_CAMERA_CLASS_BASE + 26
	V4L2_CID_3A_LOCK                     ControlID = V4L2_CID_CAMERA_CLASS_BASE + 27
	V4L2_CID_AUTO_FOCUS_START            ControlID = V4L2_CID_CAMERA_CLASS_BASE + 28
	V4L2_CID_AUTO_FOCUS_STOP             ControlID = V4L2_CID_CAMERA_CLASS_BASE + 29
	V4L2_CID_AUTO_FOCUS_STATUS           ControlID = V4L2_CID_CAMERA_CLASS_BASE + 30
	V4L2_CID_AUTO_FOCUS_RANGE            ControlID = V4L2_CID_CAMERA_CLASS_BASE + 31
	V4L2_CID_PAN_SPEED                   ControlID = V4L2_CID_CAMERA_CLASS_BASE + 32
	V4L2_CID_TILT_SPEED                  ControlID = V4L2_CID_CAMERA_CLASS_BASE + 33
	V4L2_CID_CAMERA_ORIENTATION          ControlID = V4L2_CID_CAMERA_CLASS_BASE + 34
	V4L2_CID_CAMERA_SENSOR_ROTATION      ControlID = V4L2_CID_CAMERA_CLASS_BASE + 35
	V4L2_CID_HDR_SENSOR_MODE             ControlID = V4L2_CID_CAMERA_CLASS_BASE + 36
)

// V4L2_CID_EXPOSURE_AUTO menu entries.
const (
	V4L2_EXPOSURE_AUTO              int32 = 0
	V4L2_EXPOSURE_MANUAL            int32 = 1
	V4L2_EXPOSURE_SHUTTER_PRIORITY  int32 = 2
	V4L2_EXPOSURE_APERTURE_PRIORITY int32 = 3
)

const unknownControlName = "Unknown Control"

var controlNames = map[ControlID]string{
	V4L2_CID_BRIGHTNESS:                "Brightness",
	V4L2_CID_CONTRAST:                  "Contrast",
	V4L2_CID_SATURATION:                "Saturation",
	V4L2_CID_HUE:                       "Hue",
	V4L2_CID_AUDIO_VOLUME:              "Volume",
	V4L2_CID_AUDIO_BALANCE:             "Balance",
	V4L2_CID_AUDIO_BASS:                "Bass",
	V4L2_CID_AUDIO_TREBLE:              "Treble",
	V4L2_CID_AUDIO_MUTE:                "Mute",
	V4L2_CID_AUDIO_LOUDNESS:            "Loudness",
	V4L2_CID_BLACK_LEVEL:               "Black Level",
	V4L2_CID_AUTO_WHITE_BALANCE:        "White Balance, Automatic",
	V4L2_CID_DO_WHITE_BALANCE:          "Do White Balance",
	V4L2_CID_RED_BALANCE:               "Red Balance",
	V4L2_CID_BLUE_BALANCE:              "Blue Balance",
	V4L2_CID_GAMMA:                     "Gamma",
	V4L2_CID_EXPOSURE:                  "Exposure",
	V4L2_CID_AUTOGAIN:                  "Gain, Automatic",
	V4L2_CID_GAIN:                      "Gain",
	V4L2_CID_HFLIP:                     "Horizontal Flip",
	V4L2_CID_VFLIP:                     "Vertical Flip",
	V4L2_CID_POWER_LINE_FREQUENCY:      "Power Line Frequency",
	V4L2_CID_HUE_AUTO:                  "Hue, Automatic",
	V4L2_CID_WHITE_BALANCE_TEMPERATURE: "White Balance Temperature",
	V4L2_CID_SHARPNESS:                 "Sharpness",
	V4L2_CID_BACKLIGHT_COMPENSATION:    "Backlight Compensation",
	V4L2_CID_CHROMA_AGC:                "Chroma AGC",
	V4L2_CID_COLOR_KILLER:              "Color Killer",
	V4L2_CID_COLORFX:                   "Color Effects",
	V4L2_CID_AUTOBRIGHTNESS:            "Brightness, Automatic",
	V4L2_CID_BAND_STOP_FILTER:          "Band-Stop Filter",
	V4L2_CID_ROTATE:                    "Rotate",
	V4L2_CID_BG_COLOR:                  "Background Color",
	V4L2_CID_CHROMA_GAIN:               "Chroma Gain",
	V4L2_CID_ILLUMINATORS_1:            "Illuminator 1",
	V4L2_CID_ILLUMINATORS_2:            "Illuminator 2",
	V4L2_CID_MIN_BUFFERS_FOR_CAPTURE:   "Min Number of Capture Buffers",
	V4L2_CID_MIN_BUFFERS_FOR_OUTPUT:    "Min Number of Output Buffers",
	V4L2_CID_ALPHA_COMPONENT:           "Alpha Component",
	V4L2_CID_COLORFX_CBCR:              "Color Effects, CbCr",
	V4L2_CID_COLORFX_RGB:               "Color Effects, RGB",

	V4L2_CID_EXPOSURE_AUTO:               "Auto Exposure",
	V4L2_CID_EXPOSURE_ABSOLUTE:           "Exposure Time, Absolute",
	V4L2_CID_EXPOSURE_AUTO_PRIORITY:      "Exposure, Dynamic Framerate",
	V4L2_CID_PAN_RELATIVE:                "Pan, Relative",
	V4L2_CID_TILT_RELATIVE:               "Tilt, Relative",
	V4L2_CID_PAN_RESET:                   "Pan, Reset",
	V4L2_CID_TILT_RESET:                  "Tilt, Reset",
	V4L2_CID_PAN_ABSOLUTE:                "Pan, Absolute",
	V4L2_CID_TILT_ABSOLUTE:               "Tilt, Absolute",
	V4L2_CID_FOCUS_ABSOLUTE:              "Focus, Absolute",
	V4L2_CID_FOCUS_RELATIVE:              "Focus, Relative",
	V4L2_CID_FOCUS_AUTO:                  "Focus, Automatic Continuous",
	V4L2_CID_ZOOM_ABSOLUTE:               "Zoom, Absolute",
	V4L2_CID_ZOOM_RELATIVE:               "Zoom, Relative",
	V4L2_CID_ZOOM_CONTINUOUS:             "Zoom, Continuous",
	V4L2_CID_PRIVACY:                     "Privacy",
	V4L2_CID_IRIS_ABSOLUTE:               "Iris, Absolute",
	V4L2_CID_IRIS_RELATIVE:               "Iris, Relative",
	V4L2_CID_AUTO_EXPOSURE_BIAS:          "Auto Exposure, Bias",
	V4L2_CID_AUTO_N_PRESET_WHITE_BALANCE: "White Balance, Auto & Preset",
	V4L2_CID_WIDE_DYNAMIC_RANGE:          "Wide Dynamic Range",
	V4L2_CID_IMAGE_STABILIZATION:         "Image Stabilization",
	V4L2_CID_ISO_SENSITIVITY:             "ISO Sensitivity",
	V4L2_CID_ISO_SENSITIVITY_AUTO:        "ISO Sensitivity, Auto",
	V4L2_CID_EXPOSURE_METERING:           "Exposure, Metering Mode",
	V4L2_CID_SCENE_MODE:                  "Scene Mode",
	V4L2_CID_3A_LOCK:                     "3A Lock",
	V4L2_CID_AUTO_FOCUS_START:            "Auto Focus, Start",
	V4L2_CID_AUTO_FOCUS_STOP:             "Auto Focus, Stop",
	V4L2_CID_AUTO_FOCUS_STATUS:           "Auto Focus, Status",
	V4L2_CID_AUTO_FOCUS_RANGE:            "Auto Focus, Range",
	V4L2_CID_PAN_SPEED:                   "Pan, Speed",
	V4L2_CID_TILT_SPEED:                  "Tilt, Speed",
	V4L2_CID_CAMERA_ORIENTATION:          "Camera Orientation",
	V4L2_CID_CAMERA_SENSOR_ROTATION:      "Camera Sensor Rotation",
	V4L2_CID_HDR_SENSOR_MODE:             "HDR Sensor Mode",
}

// ControlName returns the display name of a control id. It is only used
// for diagnostics.
func ControlName(id ControlID) string {
	if name, ok := controlNames[id]; ok {
		return name
	}
	return unknownControlName
}

// ControlDescriptor is the kernel's answer to a control query. It is never
// cached: toggling an auto control can change a dependent control's flags.
type ControlDescriptor struct {
	ID           ControlID
	Name         string
	Type         uint32
	Minimum      int32
	Maximum      int32
	Step         int32
	DefaultValue int32
	Flags        uint32
}

func (c ControlDescriptor) Disabled() bool {
	return c.Flags&V4L2_CTRL_FLAG_DISABLED != 0
}

func (c ControlDescriptor) ReadOnly() bool {
	return c.Flags&V4L2_CTRL_FLAG_READ_ONLY != 0
}

func (c ControlDescriptor) Inactive() bool {
	return c.Flags&V4L2_CTRL_FLAG_INACTIVE != 0
}

// resettable reports whether writing the default value makes sense for
// the control.
func (c ControlDescriptor) resettable() bool {
	if c.Disabled() || c.ReadOnly() {
		return false
	}
	switch c.Type {
	case V4L2_CTRL_TYPE_BUTTON, V4L2_CTRL_TYPE_CTRL_CLASS, V4L2_CTRL_TYPE_STRING, V4L2_CTRL_TYPE_INTEGER64:
		return false
	}
	return true
}

// controlSweep lists every id the registry visits: the user class, the
// camera class and the vendor private range, in that order. The private
// range has no fixed end; next reports whether to keep scanning it.
func controlSweep(visit func(id ControlID) (next bool)) {
	for id := V4L2_CID_BASE; id < V4L2_CID_LASTP1; id++ {
		visit(id)
	}
	for id := V4L2_CID_CAMERA_CLASS_BASE + 1; id < V4L2_CID_CAMERA_CLASS_LASTP1; id++ {
		visit(id)
	}
	for id := V4L2_CID_PRIVATE_BASE; id < V4L2_CID_PRIVATE_BASE+privateControlLimit; id++ {
		if !visit(id) {
			return
		}
	}
}
