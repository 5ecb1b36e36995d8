package usbcam

import (
	"errors"
	"fmt"
)

var (
	ErrDeviceOpen           = errors.New("device open failed")
	ErrCapabilityQuery      = errors.New("capability query failed")
	ErrFormatNegotiation    = errors.New("format negotiation failed")
	ErrFrameRateNegotiation = errors.New("frame rate negotiation failed")
	ErrBufferNegotiation    = errors.New("buffer negotiation failed")
	ErrBufferMap            = errors.New("buffer map failed")
	ErrStreamStart          = errors.New("stream start failed")
	ErrDequeue              = errors.New("dequeue failed")
	ErrRequeue              = errors.New("requeue failed")

	ErrControlUnsupported = errors.New("control unsupported")
	ErrControlDisabled    = errors.New("control disabled")
	ErrControlSetFailed   = errors.New("control set failed")
	ErrControlGetFailed   = errors.New("control get failed")
	ErrControlUnavailable = errors.New("control unavailable")

	ErrNotStreaming     = errors.New("not streaming")
	ErrAlreadyStreaming = errors.New("already streaming")
)

// StreamError reports a failure of the streaming lifecycle on a device.
// Kind is one of the package sentinels, Err the underlying cause (often a
// unix.Errno); errors.Is matches either.
type StreamError struct {
	Device string
	Op     string
	Kind   error
	Err    error
}

func (e *StreamError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Device, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Device, e.Kind, e.Err)
}

func (e *StreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ControlError reports a failed control call. It always matches
// ErrControlUnavailable plus the specific reason.
type ControlError struct {
	ID     ControlID
	Reason error
	Err    error
}

func (e *ControlError) Error() string {
	msg := fmt.Sprintf("control %s (0x%08x): %v", ControlName(e.ID), uint32(e.ID), e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ControlError) Unwrap() []error {
	errs := []error{ErrControlUnavailable, e.Reason}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

type Timeout struct{}

func (t *Timeout) Error() string {
	return "Timeout error"
}
