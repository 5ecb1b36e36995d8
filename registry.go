package usbcam

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// lookupControl queries id on the streaming device. It reports
// ErrControlUnsupported for ids the driver does not know and
// ErrControlDisabled for ids it flags as disabled.
func (st *stream) lookupControl(id ControlID) (ControlDescriptor, error) {
	var desc ControlDescriptor
	err := st.withDevice(func(dev Device) (err error) {
		desc, err = dev.QueryControl(id)
		return err
	})
	switch {
	case errors.Is(err, unix.EINVAL):
		return desc, fmt.Errorf("%w: %v", ErrControlUnsupported, err)
	case err != nil:
		return desc, err
	case desc.Disabled():
		return desc, ErrControlDisabled
	}
	if desc.Name == "" {
		desc.Name = ControlName(id)
	}
	return desc, nil
}

// QueryControl describes control id on the streaming device. It reports
// false when no stream is running or the control is unknown or disabled.
func (s *Session) QueryControl(id ControlID) (ControlDescriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == nil {
		return ControlDescriptor{}, false
	}
	desc, err := s.st.lookupControl(id)
	if err != nil {
		return ControlDescriptor{}, false
	}
	return desc, true
}

// GetControl reads the current value of control id.
func (s *Session) GetControl(id ControlID) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == nil {
		return 0, &ControlError{ID: id, Reason: ErrNotStreaming}
	}

	var value int32
	err := s.st.withDevice(func(dev Device) (err error) {
		value, err = dev.GetControl(id)
		return err
	})
	if errors.Is(err, ErrNotStreaming) {
		return 0, &ControlError{ID: id, Reason: ErrNotStreaming}
	}
	if err != nil {
		logf("[control] get %s: %v", ControlName(id), err)
		return 0, &ControlError{ID: id, Reason: ErrControlGetFailed, Err: err}
	}
	return value, nil
}

// SetControl writes value to control id. The driver may clamp it.
func (s *Session) SetControl(id ControlID, value int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == nil {
		return &ControlError{ID: id, Reason: ErrNotStreaming}
	}
	return s.st.setControl(id, value)
}

func (st *stream) setControl(id ControlID, value int32) error {
	err := st.withDevice(func(dev Device) error {
		return dev.SetControl(id, value)
	})
	if errors.Is(err, ErrNotStreaming) {
		return &ControlError{ID: id, Reason: ErrNotStreaming}
	}
	if err != nil {
		logf("[control] set %s to %d: %v", ControlName(id), value, err)
		return &ControlError{ID: id, Reason: ErrControlSetFailed, Err: err}
	}
	return nil
}

// ResetAllToDefault writes the default value to every supported, enabled
// and writable control. A failing control does not stop the sweep; the
// failures are joined into the returned error. It reports ErrNotStreaming
// once a capture failure has closed the device.
func (s *Session) ResetAllToDefault() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == nil || s.st.isClosed() {
		return ErrNotStreaming
	}

	var errs []error
	reset := 0
	err := s.st.sweep(func(desc ControlDescriptor) {
		if !desc.resettable() {
			return
		}
		if err := s.st.setControl(desc.ID, desc.DefaultValue); err != nil {
			errs = append(errs, err)
			return
		}
		reset++
	})
	if err != nil {
		return err
	}
	s.st.logf("reset %d controls to default, %d failed", reset, len(errs))
	return errors.Join(errs...)
}

// Controls lists every supported, enabled control of the streaming
// device, in sweep order.
func (s *Session) Controls() []ControlDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == nil || s.st.isClosed() {
		return nil
	}

	var descs []ControlDescriptor
	if err := s.st.sweep(func(desc ControlDescriptor) {
		descs = append(descs, desc)
	}); err != nil {
		return nil
	}
	return descs
}

// sweep calls fn for each control the device supports and has enabled.
// The private range ends at the first id the driver does not know. It
// stops with ErrNotStreaming if the device is closed underneath it.
func (st *stream) sweep(fn func(ControlDescriptor)) error {
	var closed error
	controlSweep(func(id ControlID) bool {
		if closed != nil {
			return false
		}
		desc, err := st.lookupControl(id)
		if errors.Is(err, ErrControlDisabled) {
			return true
		}
		if errors.Is(err, ErrNotStreaming) {
			closed = err
			return false
		}
		if err != nil {
			if !errors.Is(err, ErrControlUnsupported) {
				logf("[control] query %s: %v", ControlName(id), err)
			}
			return false
		}
		fn(desc)
		return true
	})
	return closed
}
