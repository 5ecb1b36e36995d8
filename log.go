package usbcam

import (
	"log"
	"os"
	"sync/atomic"
)

var logger atomic.Pointer[log.Logger]

func init() {
	logger.Store(log.New(os.Stderr, "usbcam: ", log.LstdFlags))
}

// SetLogger replaces the diagnostics logger. A nil logger restores the
// default one writing to stderr.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(os.Stderr, "usbcam: ", log.LstdFlags)
	}
	logger.Store(l)
}

// Logger returns the logger diagnostics are written to.
func Logger() *log.Logger {
	return logger.Load()
}

func logf(format string, args ...interface{}) {
	logger.Load().Printf(format, args...)
}
