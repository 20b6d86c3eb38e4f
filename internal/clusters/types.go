package clusters

import (
	"errors"
	"fmt"
)

// BoundingBox is the minimal axis-aligned rectangle covering a component.
//
// The box covers the pixels [X, X+Width) x [Y, Y+Height). Width and Height
// are always at least 1 for boxes produced by this package.
type BoundingBox struct {
	X      int `json:"x"`      // Left edge (inclusive)
	Y      int `json:"y"`      // Top edge (inclusive)
	Width  int `json:"width"`  // Horizontal extent in pixels
	Height int `json:"height"` // Vertical extent in pixels
}

// Right returns the exclusive right edge.
func (b BoundingBox) Right() int { return b.X + b.Width }

// Bottom returns the exclusive bottom edge.
func (b BoundingBox) Bottom() int { return b.Y + b.Height }

// CenterY returns the vertical center of the box.
func (b BoundingBox) CenterY() float64 { return float64(b.Y) + float64(b.Height)/2 }

// Direction is the horizontal reading direction used to order clusters
// within a line.
type Direction string

const (
	// LeftToRight orders clusters by ascending x.
	LeftToRight Direction = "ltr"

	// RightToLeft orders clusters by descending x.
	RightToLeft Direction = "rtl"

	// DefaultDirection is used when the caller does not request a direction
	// and no other default is configured.
	DefaultDirection = RightToLeft
)

// ErrInvalidDirection is returned by ParseDirection for tokens other than
// "ltr" and "rtl".
var ErrInvalidDirection = errors.New("invalid read order")

// ParseDirection converts a request token into a Direction.
//
// The empty string is accepted and yields the empty Direction, meaning
// "unspecified"; Order resolves it to the configured default.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "":
		return "", nil
	case LeftToRight, RightToLeft:
		return Direction(s), nil
	}
	return "", fmt.Errorf("%w '%s'", ErrInvalidDirection, s)
}

// Valid reports whether d is one of the two concrete directions.
func (d Direction) Valid() bool {
	return d == LeftToRight || d == RightToLeft
}

// Component is one labeled connected region of ink pixels.
type Component struct {
	// Label is the canonical label of the component in its Labeling.
	// Label values carry no ordering semantics beyond determinism.
	Label int `json:"label"`

	// Area is the number of ink pixels in the component.
	Area int `json:"area"`

	// Bounds is the minimal rectangle covering every pixel of the component.
	Bounds BoundingBox `json:"bounds"`
}

// Cluster is the externally reported unit: one component's bounding box.
//
// Its position in Result.Clusters encodes reading order. Text and Confidence
// are only populated when glyph recognition was requested.
type Cluster struct {
	Bounds     BoundingBox `json:"bounds"`
	Text       string      `json:"text,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`
}

// Line is an intermediate group of boxes that a reader scans as one line.
type Line struct {
	// Top is the smallest Y of any member (inclusive).
	Top int `json:"top"`

	// Bottom is the largest exclusive bottom edge of any member.
	Bottom int `json:"bottom"`

	// Boxes holds the members in reading order once Order returns.
	Boxes []BoundingBox `json:"boxes"`
}

// Result is the outcome of one analysis run.
type Result struct {
	// Direction is the direction that was actually applied.
	Direction Direction `json:"direction"`

	// Clusters is the flat reading-order sequence. Never nil.
	Clusters []Cluster `json:"clusters"`
}

// Annotate returns a copy of r with fn applied to every cluster.
//
// The receiver is left untouched, so a Result can be shared while an
// enriched copy is built for a single response.
func (r *Result) Annotate(fn func(i int, c Cluster) Cluster) *Result {
	out := &Result{
		Direction: r.Direction,
		Clusters:  make([]Cluster, len(r.Clusters)),
	}
	for i, c := range r.Clusters {
		out.Clusters[i] = fn(i, c)
	}
	return out
}
