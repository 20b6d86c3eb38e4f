package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/cluster-analysis/internal/clusters"
)

// OverlayOptions controls the reading-order preview.
type OverlayOptions struct {
	// BoxColor is a "#RRGGBB" outline color applied to every box. Empty gives
	// each line its own hue.
	BoxColor string

	// ShowNumbers labels every box with its 1-based reading position.
	ShowNumbers bool
}

// DefaultOverlayOptions returns per-line colors with numbering enabled.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{ShowNumbers: true}
}

// OverlayResult contains the rendered preview.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Lines       int    `json:"lines"`
	Clusters    int    `json:"clusters"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// RenderOverlay draws the outline of every cluster on a copy of img, in the
// reading order given by lines, and returns the result as a base64 PNG.
//
// Parameters:
//   - img: The analyzed page.
//   - lines: The line grouping returned by clusters.AnalyzeLines.
//   - opts: Outline color and numbering; see DefaultOverlayOptions.
//
// Returns:
//   - *OverlayResult: The encoded preview with line and cluster counts.
//   - error: Non-nil only if PNG encoding fails.
func RenderOverlay(img image.Image, lines []clusters.Line, opts OverlayOptions) (*OverlayResult, error) {
	canvas := DrawOverlay(img, lines, opts)

	encoded, err := EncodePNGBase64(canvas)
	if err != nil {
		return nil, err
	}

	n := 0
	for _, ln := range lines {
		n += len(ln.Boxes)
	}
	return &OverlayResult{
		Width:       canvas.Bounds().Dx(),
		Height:      canvas.Bounds().Dy(),
		Lines:       len(lines),
		Clusters:    n,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// DrawOverlay is RenderOverlay without the encoding step.
// The returned image is anchored at the origin.
func DrawOverlay(img image.Image, lines []clusters.Line, opts OverlayOptions) *image.NRGBA {
	canvas := imaging.Clone(img)

	var fixed *color.NRGBA
	if opts.BoxColor != "" {
		if c, err := parseHexColor(opts.BoxColor); err == nil {
			fixed = &c
		}
	}

	labelColor := color.NRGBA{255, 255, 255, 255}
	pos := 0
	for i, ln := range lines {
		boxColor := lineColor(i)
		if fixed != nil {
			boxColor = *fixed
		}
		for _, b := range ln.Boxes {
			pos++
			drawRect(canvas, b, boxColor)
			if opts.ShowNumbers {
				x, y := b.X, b.Y-8
				if y < 0 {
					y = b.Bottom() + 2
				}
				drawLabel(canvas, x, y, strconv.Itoa(pos), labelColor, boxColor)
			}
		}
	}
	return canvas
}

// lineColor spreads line hues by the golden angle so neighbours differ.
func lineColor(i int) color.NRGBA {
	hue := math.Mod(float64(i)*137.508, 360)
	r, g, b := colorful.Hsv(hue, 0.85, 0.9).RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// parseHexColor parses a hex color string like "#FF0000".
func parseHexColor(hex string) (color.NRGBA, error) {
	if hex == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// drawRect outlines b with a one pixel border.
func drawRect(img draw.Image, b clusters.BoundingBox, c color.Color) {
	right, bottom := b.Right()-1, b.Bottom()-1
	for x := b.X; x <= right; x++ {
		img.Set(x, b.Y, c)
		img.Set(x, bottom, c)
	}
	for y := b.Y; y <= bottom; y++ {
		img.Set(b.X, y, c)
		img.Set(right, y, c)
	}
}

// drawLabel draws a small digit label at the given position on a filled
// background, clipped to the image.
func drawLabel(img draw.Image, x, y int, text string, fg, bg color.Color) {
	// 3x5 pixel font
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	bounds := img.Bounds()
	inside := func(px, py int) bool {
		return px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 6

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if px, py := x+dx, y+dy; inside(px, py) {
				img.Set(px, py, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				if px, py := cx+col, y+row; inside(px, py) {
					img.Set(px, py, fg)
				}
			}
		}
		cx += charWidth
	}
}
