// package snapshot reads still frames out of a streaming session.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"

	"github.com/adamlouis/usbcam"
)

const (
	defaultTimeout  = 5 * time.Second
	defaultInterval = 30 * time.Millisecond
	defaultRate     = 30
)

// Source publishes decoded frames with an increasing sequence number.
// *usbcam.Session is a Source.
type Source interface {
	LatestFrameSeq() (image.Image, uint64)
}

var ErrNoFrame = errors.New("no frame received")

// Poller hands new frames of a Source to a callback. It polls rather
// than subscribes: frames published between two ticks are skipped.
type Poller struct {
	Source   Source
	Interval time.Duration
}

func NewPoller(src Source) *Poller {
	return &Poller{Source: src, Interval: defaultInterval}
}

func (p *Poller) interval() time.Duration {
	if p.Interval <= 0 {
		return defaultInterval
	}
	return p.Interval
}

// Run calls fn for every frame newer than the last one it delivered,
// until ctx is done.
func (p *Poller) Run(ctx context.Context, fn func(img image.Image, seq uint64)) error {
	ticker := time.NewTicker(p.interval())
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		img, seq := p.Source.LatestFrameSeq()
		if img == nil || seq == last {
			continue
		}
		last = seq
		fn(img, seq)
	}
}

// Next waits for a frame with a sequence number above after.
func (p *Poller) Next(ctx context.Context, after uint64) (image.Image, uint64, error) {
	ticker := time.NewTicker(p.interval())
	defer ticker.Stop()

	for {
		if img, seq := p.Source.LatestFrameSeq(); img != nil && seq > after {
			return img, seq, nil
		}
		select {
		case <-ctx.Done():
			return nil, 0, fmt.Errorf("%w: %w", ErrNoFrame, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Snapper takes stills from one device.
type Snapper struct {
	session *usbcam.Session
	poller  *Poller
	device  string

	Width   int
	Height  int
	Format  string
	Rate    float32
	Timeout time.Duration

	// PollInterval is how often Snap checks the session for a new frame.
	PollInterval time.Duration
}

// NewSnapper creates a new Snapper on session.
func NewSnapper(session *usbcam.Session) *Snapper {
	return &Snapper{
		session:      session,
		poller:       NewPoller(session),
		Rate:         defaultRate,
		Timeout:      defaultTimeout,
		PollInterval: defaultInterval,
	}
}

// Open starts streaming device in format at resolution, given as "WxH".
func (c *Snapper) Open(device, format, resolution string) error {
	c.Close()

	w, h, err := ParseResolution(resolution)
	if err != nil {
		return fmt.Errorf("%s: %w", device, err)
	}
	err = c.session.StartStream(usbcam.StreamConfig{
		DevicePath: device,
		FormatName: format,
		Width:      uint32(w),
		Height:     uint32(h),
		FrameRate:  c.Rate,
	})
	if err != nil {
		return err
	}
	cfg, _ := c.session.Config()
	c.device = device
	c.Format = format
	c.Width = int(cfg.Width)
	c.Height = int(cfg.Height)
	return nil
}

// Snap returns the first frame decoded after the call, waiting at most
// Timeout.
func (c *Snapper) Snap(ctx context.Context) (image.Image, error) {
	if !c.session.IsStreaming() {
		return nil, usbcam.ErrNotStreaming
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	_, after := c.session.LatestFrameSeq()
	img, err := c.next(ctx, after)
	if err != nil {
		if serr := c.session.StreamErr(); serr != nil {
			return nil, serr
		}
		return nil, err
	}
	return img, nil
}

func (c *Snapper) next(ctx context.Context, after uint64) (image.Image, error) {
	c.poller.Interval = c.PollInterval
	img, _, err := c.poller.Next(ctx, after)
	return img, err
}

// Query returns the formats of the open device with their resolutions.
func (c *Snapper) Query() map[string][]string {
	m := map[string][]string{}
	for _, f := range c.session.Probe(c.device).Formats {
		r := []string{}
		for _, res := range f.Resolutions {
			r = append(r, fmt.Sprintf("%dx%d", res.Width, res.Height))
		}
		m[f.FormatName] = r
	}
	return m
}

// GetControl returns the current value of a camera control.
func (c *Snapper) GetControl(id usbcam.ControlID) (int32, error) {
	return c.session.GetControl(id)
}

// SetControl sets the selected camera control.
func (c *Snapper) SetControl(id usbcam.ControlID, value int32) error {
	return c.session.SetControl(id, value)
}

// Close stops streaming.
func (c *Snapper) Close() {
	c.session.StopStream()
}

// ParseResolution splits "640x480" into its width and height.
func ParseResolution(s string) (int, int, error) {
	parts := strings.Split(s, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%s: illegal resolution", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("%s: illegal width", parts[0])
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("%s: illegal height", parts[1])
	}
	return w, h, nil
}
