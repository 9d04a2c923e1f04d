package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

var ErrInvalidImage = errors.New("invalid image data")

// DecodeDataURI accepts either a "data:<mime>;base64,<payload>" URI or a bare
// base64 payload and returns the raw bytes.
func DecodeDataURI(encoded string) ([]byte, error) {
	payload := strings.TrimSpace(encoded)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 || !strings.Contains(payload[:idx], ";base64") {
			return nil, ErrInvalidImage
		}
		payload = payload[idx+1:]
	}
	if payload == "" {
		return nil, ErrInvalidImage
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return b, nil
}

// Resize scales img down to width keeping the aspect ratio. Images already
// narrower than width, or a non-positive width, are returned untouched.
func Resize(img image.Image, width int) image.Image {
	b := img.Bounds()
	if width <= 0 || b.Dx() <= width {
		return img
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Prepare decodes data, resizes it to width and re-encodes it. PNG input
// stays PNG; every other format becomes JPEG.
func Prepare(data []byte, width int) (out []byte, contentType, ext string, err error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img = Resize(img, width)
	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", "", err
		}
		return buf.Bytes(), "image/png", "png", nil
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", "", err
	}
	return buf.Bytes(), "image/jpeg", "jpg", nil
}
