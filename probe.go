package usbcam

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ResolutionInfo is one discrete frame size and its discrete frame rates.
type ResolutionInfo struct {
	Width      uint32
	Height     uint32
	FrameRates []float32
}

// FormatDescriptor is one pixel format and the resolutions it supports.
// FormatName is the kernel's description, e.g. "Motion-JPEG".
type FormatDescriptor struct {
	FormatName  string
	PixelFormat PixelFormat
	Resolutions []ResolutionInfo
}

// DeviceInfo is rebuilt on every Probe call and belongs to the caller.
// Capture and Streaming mirror the driver's capability bits.
type DeviceInfo struct {
	DisplayName string
	DriverName  string
	BusInfo     string
	Capture     bool
	Streaming   bool
	Formats     []FormatDescriptor
}

// Usable reports whether the probe found at least one format.
func (d DeviceInfo) Usable() bool {
	return len(d.Formats) > 0
}

// Probe enumerates the default system's device at path.
func Probe(path string) DeviceInfo {
	return DefaultSystem.Probe(path)
}

// Probe opens path and enumerates its formats, discrete resolutions and
// discrete frame rates. Resolutions without a discrete rate are dropped.
// A device that cannot be opened or queried yields the zero DeviceInfo.
func (s *System) Probe(path string) DeviceInfo {
	dev, err := s.Open(path, unix.O_RDWR)
	if err != nil {
		logf("[probe] %v", &StreamError{Device: path, Op: "open", Kind: ErrDeviceOpen, Err: err})
		return DeviceInfo{}
	}
	defer closeDevice(dev, path)

	caps, err := dev.Capability()
	if err != nil {
		logf("[probe] %v", &StreamError{Device: path, Op: "query capabilities", Kind: ErrCapabilityQuery, Err: err})
		return DeviceInfo{}
	}

	info := DeviceInfo{
		DisplayName: caps.Card,
		DriverName:  caps.Driver,
		BusInfo:     caps.BusInfo,
		Capture:     caps.CanCapture(),
		Streaming:   caps.CanStream(),
	}

	for index := uint32(0); ; index++ {
		code, desc, err := dev.PixelFormat(index)
		if err != nil {
			endOfEnumeration(err, "[probe] %s: format %d", path, index)
			break
		}
		info.Formats = append(info.Formats, FormatDescriptor{
			FormatName:  desc,
			PixelFormat: code,
			Resolutions: probeResolutions(dev, path, code),
		})
	}
	return info
}

func probeResolutions(dev Device, path string, code PixelFormat) []ResolutionInfo {
	var resolutions []ResolutionInfo
	for index := uint32(0); ; index++ {
		size, err := dev.FrameSize(code, index)
		if err != nil {
			endOfEnumeration(err, "[probe] %s: %s frame size %d", path, code, index)
			break
		}
		if !size.Discrete() {
			continue
		}
		rates := probeFrameRates(dev, path, code, size.MaxWidth, size.MaxHeight)
		if len(rates) == 0 {
			continue
		}
		resolutions = append(resolutions, ResolutionInfo{
			Width:      size.MaxWidth,
			Height:     size.MaxHeight,
			FrameRates: rates,
		})
	}
	return resolutions
}

func probeFrameRates(dev Device, path string, code PixelFormat, width, height uint32) []float32 {
	var rates []float32
	for index := uint32(0); ; index++ {
		ival, err := dev.FrameInterval(code, width, height, index)
		if err != nil {
			endOfEnumeration(err, "[probe] %s: %s %dx%d interval %d", path, code, width, height, index)
			break
		}
		if !ival.Discrete() || ival.Numerator == 0 {
			continue
		}
		rates = append(rates, ival.Rate())
	}
	return rates
}

// endOfEnumeration logs err unless it is the kernel's EINVAL marking the
// end of an index walk.
func endOfEnumeration(err error, format string, args ...interface{}) {
	if errors.Is(err, unix.EINVAL) {
		return
	}
	logf(format+": %v", append(args, err)...)
}
