package usbcam

import (
	"image"
	"sync/atomic"
	"time"
)

type publishedFrame struct {
	img image.Image
	seq uint64
	at  time.Time
}

// frameSlot holds the most recently decoded frame. The capture goroutine
// is the only writer; readers get whatever was published last. There is
// no queue: frames a reader misses are gone.
type frameSlot struct {
	latest atomic.Pointer[publishedFrame]
	count  atomic.Uint64
}

// publish replaces the latest frame. img must not be modified afterwards.
func (fs *frameSlot) publish(img image.Image) {
	seq := fs.count.Add(1)
	fs.latest.Store(&publishedFrame{img: img, seq: seq, at: time.Now()})
}

func (fs *frameSlot) read() (image.Image, uint64) {
	p := fs.latest.Load()
	if p == nil {
		return nil, 0
	}
	return p.img, p.seq
}

func (fs *frameSlot) lastFrameAt() time.Time {
	p := fs.latest.Load()
	if p == nil {
		return time.Time{}
	}
	return p.at
}

// release drops the latest frame. The counter keeps running so a poller
// never mistakes a new stream's first frame for one it has seen.
func (fs *frameSlot) release() {
	fs.latest.Store(nil)
}
