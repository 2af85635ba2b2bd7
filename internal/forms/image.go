package forms

import (
	"bytes"
	"errors"
	"image"

	// decoders accepted for post images
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxImagePixels bounds width*height so a small, highly compressed file
// cannot expand into gigabytes once decoded.
const MaxImagePixels = 89478485

var ErrInvalidImage = errors.New(MsgInvalidImage)

// DecodeImage fully decodes data and returns the image format name.
// Headers alone are not trusted: truncated files must fail too.
func DecodeImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrInvalidImage
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return "", ErrInvalidImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return "", ErrInvalidImage
	}
	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", ErrInvalidImage
	}
	return format, nil
}
