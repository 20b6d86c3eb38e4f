package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/cluster-analysis/internal/clusters"
)

// CropOptions controls how a single cluster is cut out of its page.
type CropOptions struct {
	// Padding adds a border of Background around the crop, in pixels of the
	// unscaled crop.
	Padding int

	// Scale resizes the padded crop; values <= 0 or 1 leave it unscaled.
	Scale float64

	// Background fills the padding and shows through transparent pixels.
	// Nil means opaque white.
	Background color.Color
}

// CropCluster extracts the pixels covered by b.
//
// b is expressed relative to the image origin, as produced by cluster
// analysis. The crop is clipped to the image and composited onto an opaque
// Background, so glyphs from transparent pages come out as ink on paper.
//
// Parameters:
//   - img: The analyzed page.
//   - b: The cluster bounds, relative to img.Bounds().Min.
//   - opts: Padding, Scale and Background. A Scale of 0 or 1 keeps the size.
//
// Returns:
//   - *image.NRGBA: The crop, anchored at the origin.
//   - error: Non-nil if the box does not intersect the image.
//
// # Errors
//
//   - Returns error if b lies entirely outside img, or has no area
func CropCluster(img image.Image, b clusters.BoundingBox, opts CropOptions) (*image.NRGBA, error) {
	bounds := img.Bounds()
	rect := image.Rect(b.X, b.Y, b.Right(), b.Bottom()).Add(bounds.Min)
	if rect.Intersect(bounds).Empty() {
		return nil, fmt.Errorf("cluster (%d,%d %dx%d) outside image bounds %dx%d",
			b.X, b.Y, b.Width, b.Height, bounds.Dx(), bounds.Dy())
	}

	cropped := imaging.Crop(img, rect)

	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	pad := opts.Padding
	if pad < 0 {
		pad = 0
	}
	w := cropped.Bounds().Dx() + 2*pad
	h := cropped.Bounds().Dy() + 2*pad
	canvas := imaging.New(w, h, bg)
	cropped = imaging.Overlay(canvas, cropped, image.Pt(pad, pad), 1.0)

	if opts.Scale > 0 && opts.Scale != 1.0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * opts.Scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * opts.Scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return cropped, nil
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNGBase64 encodes img as a standard base64 PNG string.
func EncodePNGBase64(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
