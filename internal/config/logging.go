package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/adamlouis/usbcam"
)

// RotatingFileWriter is an io.Writer that moves the log file aside once
// it would grow past maxBytes: file becomes file.1, file.1 becomes
// file.2, up to backupCount files.
type RotatingFileWriter struct {
	mu          sync.Mutex
	path        string
	maxBytes    int
	backupCount int
	file        *os.File // nil after a failed rotation until reopened
	size        int64
	closed      bool
}

// NewRotatingFileWriter opens path for appending. maxBytes <= 0 disables
// rotation.
func NewRotatingFileWriter(path string, maxBytes, backupCount int) (*RotatingFileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("config: create log dir: %w", err)
	}
	rw := &RotatingFileWriter{path: path, maxBytes: maxBytes, backupCount: backupCount}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

func (rw *RotatingFileWriter) open() error {
	f, err := os.OpenFile(rw.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("config: open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	rw.file = f
	rw.size = info.Size()
	return nil
}

func (rw *RotatingFileWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.closed {
		return 0, os.ErrClosed
	}
	if rw.file == nil {
		if err := rw.open(); err != nil {
			return 0, err
		}
	}
	if rw.maxBytes > 0 && rw.size > 0 && rw.size+int64(len(p)) > int64(rw.maxBytes) {
		if err := rw.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

func (rw *RotatingFileWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.closed = true
	if rw.file == nil {
		return nil
	}
	err := rw.file.Close()
	rw.file = nil
	return err
}

func (rw *RotatingFileWriter) rotate() error {
	err := rw.file.Close()
	rw.file = nil
	if err != nil {
		return fmt.Errorf("config: close log file: %w", err)
	}

	if rw.backupCount == 0 {
		if err := removeIfExists(rw.path); err != nil {
			return err
		}
	}
	for i := rw.backupCount; i > 0; i-- {
		src := rw.path
		if i > 1 {
			src = fmt.Sprintf("%s.%d", rw.path, i-1)
		}
		dst := fmt.Sprintf("%s.%d", rw.path, i)
		if err := removeIfExists(dst); err != nil {
			return err
		}
		if err := os.Rename(src, dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: rotate log file: %w", err)
		}
	}
	return rw.open()
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: rotate log file: %w", err)
	}
	return nil
}

// ConfigureLogging points the standard logger and the usbcam diagnostics
// logger at stderr and, when cfg.Log.File is set, a rotating file. The
// returned cleanup closes the file.
func ConfigureLogging(cfg *Config) (cleanup func(), err error) {
	var writers []io.Writer
	var closers []io.Closer

	if cfg.Log.File != "" {
		rw, err := NewRotatingFileWriter(cfg.Log.File, cfg.Log.MaxBytes, cfg.Log.BackupCount)
		if err != nil {
			return func() {}, err
		}
		writers = append(writers, rw)
		closers = append(closers, rw)
	}
	if cfg.Log.Stderr || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	w := io.MultiWriter(writers...)
	log.SetOutput(w)
	usbcam.SetLogger(log.New(w, "usbcam: ", log.LstdFlags))

	cleanup = func() {
		log.SetOutput(os.Stderr)
		usbcam.SetLogger(nil)
		for _, c := range closers {
			c.Close()
		}
	}
	return cleanup, nil
}
