// package frame decodes raw webcam buffers into images.
package frame

import (
	"errors"
	"fmt"
	"image"
	"sync"
)

type FourCC string

// Decoder turns the used part of a capture buffer into an image. The
// returned image never aliases buf: the buffer goes back to the kernel as
// soon as the decoder returns.
type Decoder func(buf []byte) (image.Image, error)

// ErrNoDecoder is returned for formats that can be negotiated but not
// decoded, such as H.264.
var ErrNoDecoder = errors.New("no decoder for format")

var mu sync.RWMutex

var decoderFactoryMap = map[FourCC]func(int, int) Decoder{}

// RegisterDecoder registers a decoder factory for a format.
// Note that only one factory can be registered for any single format.
func RegisterDecoder(format FourCC, factory func(w, h int) Decoder) {
	mu.Lock()
	defer mu.Unlock()
	decoderFactoryMap[format] = factory
}

// GetDecoder returns a decoder producing w x h images for this format.
func GetDecoder(format FourCC, w, h int) (Decoder, error) {
	mu.RLock()
	factory, ok := decoderFactoryMap[format]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrNoDecoder, format)
	}
	return factory(w, h), nil
}

// PixelFormatToFourCC converts the v4l2 pixel format code to a FourCC.
func PixelFormatToFourCC(pf uint32) FourCC {
	b := make([]byte, 4)
	b[0] = byte(pf)
	b[1] = byte(pf >> 8)
	b[2] = byte(pf >> 16)
	b[3] = byte(pf >> 24)
	return FourCC(b)
}

// FourCCToPixelFormat converts the four character string to a v4l2 pixel format code.
func FourCCToPixelFormat(f FourCC) (uint32, error) {
	if len(f) != 4 {
		return 0, fmt.Errorf("%s: Illegal FourCC", f)
	}
	return uint32(f[0]) | uint32(f[1])<<8 | uint32(f[2])<<16 | uint32(f[3])<<24, nil
}

func init() {
	RegisterDecoder("H264", func(w, h int) Decoder {
		return func([]byte) (image.Image, error) {
			return nil, fmt.Errorf("%w 'H264'", ErrNoDecoder)
		}
	})
}
