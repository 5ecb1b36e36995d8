package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// Register this decoder for these formats.
func init() {
	RegisterDecoder("MJPG", newJPEGDecoder)
	RegisterDecoder("JPEG", newJPEGDecoder)
}

// Return a decoder for JPEG and Motion-JPEG frames of the given size.
func newJPEGDecoder(w, h int) Decoder {
	return func(f []byte) (image.Image, error) {
		img, err := jpeg.Decode(bytes.NewReader(withHuffmanTables(f)))
		if err != nil {
			return nil, err
		}
		return fitTo(img, w, h), nil
	}
}

// fitTo scales img to w x h when the decoded size differs from the
// negotiated one.
func fitTo(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if w <= 0 || h <= 0 || (b.Dx() == w && b.Dy() == h) {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// withHuffmanTables returns f with the standard JPEG Huffman tables
// inserted after SOI when the frame has none. UVC cameras commonly omit
// the DHT segment from Motion-JPEG frames.
func withHuffmanTables(f []byte) []byte {
	if len(f) < 4 || f[0] != 0xFF || f[1] != 0xD8 {
		return f
	}
	for i := 2; i+4 <= len(f); {
		if f[i] != 0xFF {
			return f
		}
		marker := f[i+1]
		switch {
		case marker == 0xFF:
			// Fill byte.
			i++
			continue
		case marker == 0xC4:
			return f
		case marker == 0xDA:
			out := make([]byte, 0, len(f)+len(standardDHT))
			out = append(out, f[:2]...)
			out = append(out, standardDHT...)
			return append(out, f[2:]...)
		}
		length := int(f[i+2])<<8 | int(f[i+3])
		if length < 2 {
			return f
		}
		i += 2 + length
	}
	return f
}

type huffmanSpec struct {
	class, id byte
	count     [16]byte
	value     []byte
}

// Annex K.3 of the JPEG specification.
var standardHuffman = []huffmanSpec{
	{
		class: 0, id: 0,
		count: [16]byte{0, 1, 5, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0},
		value: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	},
	{
		class: 1, id: 0,
		count: [16]byte{0, 2, 1, 3, 3, 2, 4, 3, 5, 5, 4, 4, 0, 0, 1, 125},
		value: []byte{
			0x01, 0x02, 0x03, 0x00, 0x04, 0x11, 0x05, 0x12,
			0x21, 0x31, 0x41, 0x06, 0x13, 0x51, 0x61, 0x07,
			0x22, 0x71, 0x14, 0x32, 0x81, 0x91, 0xa1, 0x08,
			0x23, 0x42, 0xb1, 0xc1, 0x15, 0x52, 0xd1, 0xf0,
			0x24, 0x33, 0x62, 0x72, 0x82, 0x09, 0x0a, 0x16,
			0x17, 0x18, 0x19, 0x1a, 0x25, 0x26, 0x27, 0x28,
			0x29, 0x2a, 0x34, 0x35, 0x36, 0x37, 0x38, 0x39,
			0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48, 0x49,
			0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58, 0x59,
			0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68, 0x69,
			0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78, 0x79,
			0x7a, 0x83, 0x84, 0x85, 0x86, 0x87, 0x88, 0x89,
			0x8a, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97, 0x98,
			0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5, 0xa6, 0xa7,
			0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4, 0xb5, 0xb6,
			0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3, 0xc4, 0xc5,
			0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2, 0xd3, 0xd4,
			0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda, 0xe1, 0xe2,
			0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9, 0xea,
			0xf1, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
			0xf9, 0xfa,
		},
	},
	{
		class: 0, id: 1,
		count: [16]byte{0, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0},
		value: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	},
	{
		class: 1, id: 1,
		count: [16]byte{0, 2, 1, 2, 4, 4, 3, 4, 7, 5, 4, 4, 0, 1, 2, 119},
		value: []byte{
			0x00, 0x01, 0x02, 0x03, 0x11, 0x04, 0x05, 0x21,
			0x31, 0x06, 0x12, 0x41, 0x51, 0x07, 0x61, 0x71,
			0x13, 0x22, 0x32, 0x81, 0x08, 0x14, 0x42, 0x91,
			0xa1, 0xb1, 0xc1, 0x09, 0x23, 0x33, 0x52, 0xf0,
			0x15, 0x62, 0x72, 0xd1, 0x0a, 0x16, 0x24, 0x34,
			0xe1, 0x25, 0xf1, 0x17, 0x18, 0x19, 0x1a, 0x26,
			0x27, 0x28, 0x29, 0x2a, 0x35, 0x36, 0x37, 0x38,
			0x39, 0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48,
			0x49, 0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58,
			0x59, 0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68,
			0x69, 0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78,
			0x79, 0x7a, 0x82, 0x83, 0x84, 0x85, 0x86, 0x87,
			0x88, 0x89, 0x8a, 0x92, 0x93, 0x94, 0x95, 0x96,
			0x97, 0x98, 0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5,
			0xa6, 0xa7, 0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4,
			0xb5, 0xb6, 0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3,
			0xc4, 0xc5, 0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2,
			0xd3, 0xd4, 0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda,
			0xe2, 0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9,
			0xea, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
			0xf9, 0xfa,
		},
	},
}

var standardDHT = buildDHT(standardHuffman)

func buildDHT(specs []huffmanSpec) []byte {
	var body bytes.Buffer
	for _, s := range specs {
		n := 0
		for _, c := range s.count {
			n += int(c)
		}
		if n != len(s.value) {
			panic(fmt.Sprintf("huffman table %d/%d: %d codes, %d values", s.class, s.id, n, len(s.value)))
		}
		body.WriteByte(s.class<<4 | s.id)
		body.Write(s.count[:])
		body.Write(s.value)
	}
	length := body.Len() + 2
	seg := []byte{0xFF, 0xC4, byte(length >> 8), byte(length)}
	return append(seg, body.Bytes()...)
}
