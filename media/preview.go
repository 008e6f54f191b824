// Package media prepares image upload previews shown while upload is in
// progress.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"cbe/config"
)

var ErrUnsupported = errors.New("unsupported image type")

// Preview is downscaled copy of uploaded image.
type Preview struct {
	// SourceMIME is detected type of uploaded data.
	SourceMIME string
	MIME       string
	Width      int
	Height     int
	Data       []byte
}

// DataURI returns preview as base64 data URI.
func (p *Preview) DataURI() string {
	return "data:" + p.MIME + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Detect returns MIME type of image data.
func Detect(data []byte) (string, error) {
	kind, err := filetype.Match(data)
	if err == nil && kind != filetype.Unknown && filetype.IsImage(data) {
		return kind.MIME.Value, nil
	}
	if IsSVG(data) {
		return "image/svg+xml", nil
	}
	return "", ErrUnsupported
}

func decode(data []byte, mime string, maxDim int) (image.Image, error) {
	if mime == "image/svg+xml" {
		img, err := rasterizeSVG(data, maxDim)
		if err != nil {
			return nil, fmt.Errorf("unable to rasterize svg: %w", err)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", mime, err)
	}
	return img, nil
}

// NewPreview decodes image (SVG is rasterized), fits it into configured box
// and encodes it in configured format.
func NewPreview(data []byte, cfg *config.ImagesConfig) (*Preview, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image: %w", ErrUnsupported)
	}
	mime, err := Detect(data)
	if err != nil {
		return nil, err
	}
	img, err := decode(data, mime, cfg.PreviewMaxSize)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() > cfg.PreviewMaxSize || b.Dy() > cfg.PreviewMaxSize {
		img = imaging.Fit(img, cfg.PreviewMaxSize, cfg.PreviewMaxSize, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	switch cfg.PreviewFormat {
	case config.PreviewFormatPng:
		err = imaging.Encode(buf, img, imaging.PNG)
	default:
		err = imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(cfg.JPEGQuality))
	}
	if err != nil {
		return nil, fmt.Errorf("unable to encode preview: %w", err)
	}
	return &Preview{
		SourceMIME: mime,
		MIME:       cfg.PreviewFormat.MIME(),
		Width:      img.Bounds().Dx(),
		Height:     img.Bounds().Dy(),
		Data:       buf.Bytes(),
	}, nil
}
