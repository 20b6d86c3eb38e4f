//go:build tesseract

package recognize

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/cluster-analysis/internal/clusters"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func TestTesseract_RecognizeGlyphs(t *testing.T) {
	r, err := New(DefaultOptions())
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer r.Close()

	if !Available() {
		t.Error("Available should be true with the tesseract tag")
	}

	img := createPage(80, 30)
	drawText(img, 10, 20, "X", color.Black)

	res := clusters.Analyze(img, clusters.LeftToRight, clusters.DefaultOptions())
	if len(res.Clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(res.Clusters))
	}

	out, err := Annotate(r, img, res, Options{Padding: 8, Scale: 4})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	got := strings.ToUpper(out.Clusters[0].Text)
	t.Logf("recognized %q with confidence %.2f", out.Clusters[0].Text, out.Clusters[0].Confidence)
	if got != "X" {
		t.Logf("unexpected recognition %q (OCR on bitmap fonts may vary)", got)
	}
	if out.Clusters[0].Confidence < 0 || out.Clusters[0].Confidence > 1 {
		t.Errorf("confidence out of range: %v", out.Clusters[0].Confidence)
	}
}

func TestTesseract_BlankGlyph(t *testing.T) {
	r, err := New(DefaultOptions())
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer r.Close()

	rec, err := r.Recognize(createPage(20, 20))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if rec.Text != "" {
		t.Logf("blank image recognized as %q", rec.Text)
	}
}

// stubClient stands in for a gosseract client.
type stubClient struct {
	text     string
	boxes    []gosseract.BoundingBox
	boxesErr error
}

func (c *stubClient) SetImageFromBytes([]byte) error { return nil }
func (c *stubClient) Text() (string, error)         { return c.text, nil }
func (c *stubClient) Close() error                  { return nil }

func (c *stubClient) GetBoundingBoxes(gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error) {
	return c.boxes, c.boxesErr
}

func TestTesseract_Confidence(t *testing.T) {
	r := &Tesseract{client: &stubClient{
		text:  " A\n",
		boxes: []gosseract.BoundingBox{{Confidence: 40}, {Confidence: 87}},
	}}

	rec, err := r.Recognize(createPage(10, 10))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if rec.Text != "A" {
		t.Errorf("Text: got %q, want A", rec.Text)
	}
	if rec.Confidence != 0.87 {
		t.Errorf("Confidence: got %v, want 0.87", rec.Confidence)
	}
}

func TestTesseract_ConfidenceError(t *testing.T) {
	boom := errors.New("iterator failed")
	r := &Tesseract{client: &stubClient{text: "A", boxesErr: boom}}

	_, err := r.Recognize(createPage(10, 10))
	if !errors.Is(err, boom) {
		t.Fatalf("expected the bounding box error, got %v", err)
	}
}
