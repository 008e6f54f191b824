package media

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// size used when SVG has no usable viewBox
const defaultSVGSize = 512

// limit for rasterized dimension, protects against huge viewBox values
var maxRasterDim = 4096

// IsSVG reports whether data looks like SVG document. Type detection by
// magic numbers does not cover text formats.
func IsSVG(data []byte) bool {
	head := data[:min(len(data), 1024)]
	return bytes.Contains(head, []byte("<svg")) ||
		(bytes.HasPrefix(bytes.TrimSpace(head), []byte("<?xml")) && bytes.Contains(data, []byte("<svg")))
}

// rasterizeSVG renders SVG on white background fitting it into box of
// maxDim, intrinsic size is kept when it is smaller.
func rasterizeSVG(data []byte, maxDim int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	w, h := int(math.Ceil(icon.ViewBox.W)), int(math.Ceil(icon.ViewBox.H))
	if w <= 0 || h <= 0 {
		w, h = defaultSVGSize, defaultSVGSize
	}
	limit := maxRasterDim
	if maxDim > 0 {
		limit = min(limit, maxDim)
	}
	if w > limit || h > limit {
		s := min(float64(limit)/float64(w), float64(limit)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return dst, nil
}
