//go:build tesseract

package recognize

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/cluster-analysis/internal/imaging"
)

// Available reports whether this binary was built with Tesseract support.
func Available() bool { return true }

// Tesseract recognizes single glyphs with a shared gosseract client.
//
// A gosseract client is not safe for concurrent use, so calls are
// serialized.
type Tesseract struct {
	mu     sync.Mutex
	client glyphClient
}

// glyphClient is the subset of *gosseract.Client used by Tesseract.
type glyphClient interface {
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	GetBoundingBoxes(level gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error)
	Close() error
}

// New creates a Tesseract recognizer configured for single characters.
func New(opts Options) (Recognizer, error) {
	client := gosseract.NewClient()

	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}

	lang := opts.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &Tesseract{client: client}, nil
}

// Recognize runs Tesseract over a single glyph image.
func (t *Tesseract) Recognize(img image.Image) (Recognition, error) {
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return Recognition{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(data); err != nil {
		return Recognition{}, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return Recognition{}, fmt.Errorf("OCR failed: %w", err)
	}

	rec := Recognition{Text: strings.TrimSpace(text)}
	if rec.Text == "" {
		return rec, nil
	}

	// Confidence of the best symbol; a single-char page has at most a few.
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil {
		return Recognition{}, fmt.Errorf("failed to read confidence: %w", err)
	}
	for _, box := range boxes {
		if c := box.Confidence / 100.0; c > rec.Confidence {
			rec.Confidence = c
		}
	}
	return rec, nil
}

// Close releases the underlying Tesseract handle.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}
