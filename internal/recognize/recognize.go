// Package recognize attaches glyph recognition results to analyzed clusters.
//
// Recognition is backed by Tesseract through gosseract and is only compiled
// in when building with the "tesseract" tag:
//
//	go build -tags tesseract ./cmd/cluster-analysis
//
// Without the tag, New returns ErrUnavailable and Available reports false, so
// the rest of the service works on machines without libtesseract.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
package recognize

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/cluster-analysis/internal/clusters"
	"github.com/ironsheep/cluster-analysis/internal/imaging"
)

// ErrUnavailable is returned when the binary was built without Tesseract.
var ErrUnavailable = errors.New("glyph recognition is not available")

// Recognition is the result of recognizing a single cluster.
type Recognition struct {
	// Text is the recognized glyph, empty when nothing was recognized.
	Text string `json:"text"`

	// Confidence is the recognizer's certainty in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Recognizer turns an image of a single glyph into text.
//
// Implementations must be safe for concurrent use.
type Recognizer interface {
	Recognize(img image.Image) (Recognition, error)
	Close() error
}

// Options configures the recognizer and the crops handed to it.
type Options struct {
	// Language is the Tesseract language code, e.g. "eng".
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string

	// Padding is the blank border added around each cluster before
	// recognition. Tesseract does poorly on glyphs touching the edge.
	Padding int

	// Scale enlarges each crop; small glyphs recognize better upscaled.
	Scale float64
}

// DefaultOptions returns English recognition with a 4 pixel border and 3x
// upscaling.
func DefaultOptions() Options {
	return Options{
		Language: "eng",
		Padding:  4,
		Scale:    3,
	}
}

// Annotate recognizes every cluster of res and returns an annotated copy.
//
// Clusters are cropped from img with imaging.CropCluster, composited onto
// white. A cluster that cannot be recognized is an error; res is never
// modified.
func Annotate(r Recognizer, img image.Image, res *clusters.Result, opts Options) (*clusters.Result, error) {
	crop := imaging.CropOptions{Padding: opts.Padding, Scale: opts.Scale}

	var firstErr error
	out := res.Annotate(func(i int, c clusters.Cluster) clusters.Cluster {
		if firstErr != nil {
			return c
		}
		glyph, err := imaging.CropCluster(img, c.Bounds, crop)
		if err != nil {
			firstErr = fmt.Errorf("cluster %d: %w", i, err)
			return c
		}
		rec, err := r.Recognize(glyph)
		if err != nil {
			firstErr = fmt.Errorf("cluster %d: %w", i, err)
			return c
		}
		c.Text = rec.Text
		c.Confidence = rec.Confidence
		return c
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
