package snapshot

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func WriteJPEG(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// Save writes img to path, picking the encoding from the extension.
func Save(path string, img image.Image) (err error) {
	var encode func(io.Writer, image.Image) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = WritePNG
	case ".jpg", ".jpeg":
		encode = func(w io.Writer, img image.Image) error {
			return WriteJPEG(w, img, jpeg.DefaultQuality)
		}
	default:
		return fmt.Errorf("%s: unknown image type", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return encode(f, img)
}
