// Package imaging normalizes uploaded item photos.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

const (
	// MaxDimension is the maximum width or height of a stored photo.
	MaxDimension = 1024

	// MaxUploadBytes bounds how much of an upload is read.
	MaxUploadBytes = 10 << 20

	jpegQuality = 85
)

// MIMEType is the type of every processed photo.
const MIMEType = "image/jpeg"

var (
	ErrUnsupportedFormat = errors.New("unsupported image format (only JPEG and PNG accepted)")
	ErrTooLarge          = errors.New("image too large")
)

// Photo is a processed item photo.
type Photo struct {
	Data   []byte
	Width  int
	Height int
}

// Process validates a JPEG or PNG upload by sniffing its bytes, fits it
// within MaxDimension, flattens transparency onto white and re-encodes it as
// JPEG.
func Process(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	switch http.DetectContentType(data) {
	case "image/jpeg", "image/png":
	default:
		return nil, ErrUnsupportedFormat
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	w, h := fit(src.Bounds().Dx(), src.Bounds().Dy(), MaxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == src.Bounds().Dx() && h == src.Bounds().Dy() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &Photo{Data: buf.Bytes(), Width: w, Height: h}, nil
}

// fit scales w x h down, keeping the aspect ratio, so that neither side
// exceeds limit. Smaller images are left as they are.
func fit(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}

	var nw, nh int
	if w >= h {
		nw, nh = limit, h*limit/w
	} else {
		nw, nh = w*limit/h, limit
	}
	return atLeastOne(nw), atLeastOne(nh)
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
