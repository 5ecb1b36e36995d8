package frame

import (
	"fmt"
	"image"
)

// Register this decoder for this format.
func init() {
	RegisterDecoder("YUYV", newYUYV422Decoder)
}

// Return a decoder that copies packed YUYV 4:2:2 frames into an
// image.YCbCr with 4:2:2 subsampling.
func newYUYV422Decoder(w, h int) Decoder {
	expLen := 2 * w * h
	return func(f []byte) (image.Image, error) {
		if w <= 0 || h <= 0 || len(f) < expLen {
			return nil, fmt.Errorf("Wrong frame length (exp: %d, read %d)", expLen, len(f))
		}
		img := image.NewYCbCr(image.Rect(0, 0, w, h), image.YCbCrSubsampleRatio422)
		for y := 0; y < h; y++ {
			row := f[y*2*w : (y+1)*2*w]
			yo := y * img.YStride
			co := y * img.CStride
			for x := 0; x+1 < w; x += 2 {
				i := x * 2
				img.Y[yo+x] = row[i]
				img.Cb[co+x/2] = row[i+1]
				img.Y[yo+x+1] = row[i+2]
				img.Cr[co+x/2] = row[i+3]
			}
		}
		return img, nil
	}
}
