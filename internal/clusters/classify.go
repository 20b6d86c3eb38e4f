package clusters

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Policy selects how the classifier separates ink from background.
type Policy string

const (
	// PolicyContrast marks a pixel as ink when it is opaque enough and its
	// color differs from the background color by more than ColorTolerance.
	PolicyContrast Policy = "contrast"

	// PolicyLuminance marks a pixel as ink when it is opaque enough and
	// darker than LuminanceThreshold. Suited to dark ink on light paper.
	PolicyLuminance Policy = "luminance"
)

// ClassifierConfig holds the thresholds used by Classify.
//
// Thresholds are configuration constants; they are never derived from the
// raster being classified. Only the background color may be sampled.
type ClassifierConfig struct {
	// Policy selects the classification rule. Empty means PolicyContrast.
	Policy Policy

	// AlphaThreshold is the alpha value (0-255) at or below which a pixel is
	// treated as transparent background. 0 means "not fully transparent".
	AlphaThreshold uint8

	// ColorTolerance is the CIE-Lab distance (go-colorful scale, where black
	// to white is 1.0) above which a pixel differs from the background.
	ColorTolerance float64

	// LuminanceThreshold is the 8-bit luma strictly below which a pixel is
	// ink under PolicyLuminance.
	LuminanceThreshold uint8

	// Background fixes the background color. When nil, the background is
	// sampled from the raster border with SampleBackground.
	Background *color.NRGBA
}

// DefaultClassifierConfig returns the thresholds used when nothing else is
// configured.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		Policy:             PolicyContrast,
		AlphaThreshold:     0,
		ColorTolerance:     0.1,
		LuminanceThreshold: 128,
	}
}

// Mask is a boolean grid marking ink pixels.
type Mask struct {
	Width  int
	Height int
	bits   []bool
}

// NewMask allocates an all-background mask. Negative dimensions are
// clamped to zero.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{Width: width, Height: height, bits: make([]bool, width*height)}
}

// At reports whether (x, y) is ink. Coordinates outside the mask are
// background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.bits[y*m.Width+x]
}

// Set marks (x, y). Coordinates outside the mask are ignored.
func (m *Mask) Set(x, y int, ink bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.bits[y*m.Width+x] = ink
}

// Count returns the number of ink pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// Classify builds the foreground mask of img.
//
// The raster is first normalized to an origin-anchored NRGBA copy, so the
// mask always uses coordinates relative to img.Bounds().Min. A 0x0 raster
// yields an empty mask.
func Classify(img image.Image, cfg ClassifierConfig) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	if m.Width == 0 || m.Height == 0 {
		return m
	}

	src := imaging.Clone(img)
	switch cfg.Policy {
	case PolicyLuminance:
		classifyLuminance(src, cfg, m)
	default:
		classifyContrast(src, cfg, m)
	}
	return m
}

func classifyContrast(src *image.NRGBA, cfg ClassifierConfig, m *Mask) {
	var bg color.NRGBA
	if cfg.Background != nil {
		bg = *cfg.Background
	} else {
		bg = SampleBackground(src)
	}

	transparentBg := bg.A <= cfg.AlphaThreshold
	bgColor := toColorful(bg.R, bg.G, bg.B)

	// Distances are memoized per RGB triple; glyph images use few colors.
	seen := make(map[uint32]bool)

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := src.PixOffset(x, y)
			p := src.Pix[i : i+4 : i+4]
			if p[3] <= cfg.AlphaThreshold {
				continue
			}
			if transparentBg {
				m.bits[y*m.Width+x] = true
				continue
			}

			key := uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2])
			ink, ok := seen[key]
			if !ok {
				ink = toColorful(p[0], p[1], p[2]).DistanceLab(bgColor) > cfg.ColorTolerance
				seen[key] = ink
			}
			m.bits[y*m.Width+x] = ink
		}
	}
}

func classifyLuminance(src *image.NRGBA, cfg ClassifierConfig, m *Mask) {
	// bild premultiplies alpha, so grayscale an opaque copy and let
	// AlphaThreshold alone decide transparency.
	opaque := imaging.Clone(src)
	for i := 3; i < len(opaque.Pix); i += 4 {
		opaque.Pix[i] = 0xff
	}
	gray := effect.Grayscale(opaque)
	gb := gray.Bounds()

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := src.PixOffset(x, y)
			if src.Pix[i+3] <= cfg.AlphaThreshold {
				continue
			}
			if gray.RGBAAt(gb.Min.X+x, gb.Min.Y+y).R < cfg.LuminanceThreshold {
				m.bits[y*m.Width+x] = true
			}
		}
	}
}

// SampleBackground estimates the background color of src from its border.
//
// Border pixels are quantized to 16 levels per channel and the most common
// bucket wins; fully transparent pixels all fall into one "transparent"
// bucket. The first exact color seen in the winning bucket is returned.
// Ties go to the bucket seen first in border scan order. An empty image
// yields transparent black.
func SampleBackground(src *image.NRGBA) color.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return color.NRGBA{}
	}

	counts := make(map[uint32]int)
	first := make(map[uint32]color.NRGBA)
	order := make([]uint32, 0, 16)

	sample := func(x, y int) {
		c := src.NRGBAAt(b.Min.X+x, b.Min.Y+y)
		var key uint32
		if c.A == 0 {
			c = color.NRGBA{}
			key = 1 << 24 // distinct from every opaque bucket
		} else {
			key = uint32(c.R/16)<<12 | uint32(c.G/16)<<8 | uint32(c.B/16)<<4 | uint32(c.A/16) | 1<<25
		}
		if _, ok := counts[key]; !ok {
			first[key] = c
			order = append(order, key)
		}
		counts[key]++
	}

	for x := 0; x < w; x++ {
		sample(x, 0)
		if h > 1 {
			sample(x, h-1)
		}
	}
	for y := 1; y < h-1; y++ {
		sample(0, y)
		if w > 1 {
			sample(w-1, y)
		}
	}

	best := order[0]
	for _, key := range order[1:] {
		if counts[key] > counts[best] {
			best = key
		}
	}
	return first[best]
}

func toColorful(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}
