package clusters

import (
	"math"
	"sort"
)

// OrderConfig tunes the reading-order organizer.
type OrderConfig struct {
	// DefaultDirection is applied when no direction is requested.
	// Empty means DefaultDirection.
	DefaultDirection Direction

	// LineOverlap is the fraction of vertical overlap, relative to the
	// shorter of box and line, that must be strictly exceeded for a box to
	// join a line. 0 groups on any non-zero overlap.
	LineOverlap float64
}

// DefaultOrderConfig returns the organizer defaults.
func DefaultOrderConfig() OrderConfig {
	return OrderConfig{DefaultDirection: DefaultDirection, LineOverlap: 0}
}

// ResolveDirection returns the direction an analysis will apply.
//
// An explicit ltr or rtl request is used verbatim. Anything else resolves to
// cfg.DefaultDirection, or to DefaultDirection when that is unset. The rule
// depends only on its arguments.
func ResolveDirection(requested Direction, cfg OrderConfig) Direction {
	if requested.Valid() {
		return requested
	}
	if cfg.DefaultDirection.Valid() {
		return cfg.DefaultDirection
	}
	return DefaultDirection
}

// Order groups boxes into lines and sorts them into reading order.
//
// # Line Grouping
//
// Boxes are visited top to bottom (ties by x, then height). A box joins an
// existing line when its vertical overlap with the line's current extent,
// divided by the smaller of the two heights, exceeds cfg.LineOverlap. If
// several lines qualify, the one whose vertical center is nearest the box's
// center wins, with earlier lines winning exact ties. Joining grows the
// line's extent, so a tall glyph beside short ones stays on their line.
//
// # Ordering
//
// Lines are returned by ascending Top. Within a line, boxes run by
// ascending x for ltr and descending x for rtl; equal x falls back to y,
// then width, then height.
//
// The input slice is not modified. Zero boxes yield no lines.
func Order(boxes []BoundingBox, requested Direction, cfg OrderConfig) (Direction, []Line) {
	dir := ResolveDirection(requested, cfg)
	if len(boxes) == 0 {
		return dir, []Line{}
	}

	sorted := make([]BoundingBox, len(boxes))
	copy(sorted, boxes)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Height < b.Height
	})

	lines := make([]*Line, 0)
	for _, box := range sorted {
		best := -1
		bestDist := math.Inf(1)
		for i, ln := range lines {
			if ln.overlapFraction(box) <= cfg.LineOverlap {
				continue
			}
			d := math.Abs(ln.centerY() - box.CenterY())
			if d < bestDist {
				best, bestDist = i, d
			}
		}

		if best < 0 {
			lines = append(lines, &Line{
				Top:    box.Y,
				Bottom: box.Bottom(),
				Boxes:  []BoundingBox{box},
			})
			continue
		}

		ln := lines[best]
		ln.Boxes = append(ln.Boxes, box)
		if box.Y < ln.Top {
			ln.Top = box.Y
		}
		if box.Bottom() > ln.Bottom {
			ln.Bottom = box.Bottom()
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Top < lines[j].Top
	})

	out := make([]Line, len(lines))
	for i, ln := range lines {
		sortLine(ln.Boxes, dir)
		out[i] = *ln
	}
	return dir, out
}

// Flatten concatenates the lines into the flat cluster sequence.
func Flatten(lines []Line) []Cluster {
	n := 0
	for _, ln := range lines {
		n += len(ln.Boxes)
	}
	out := make([]Cluster, 0, n)
	for _, ln := range lines {
		for _, b := range ln.Boxes {
			out = append(out, Cluster{Bounds: b})
		}
	}
	return out
}

// overlapFraction returns the vertical overlap between the line extent and
// b divided by the smaller of the two heights, or 0 when they do not overlap.
func (l *Line) overlapFraction(b BoundingBox) float64 {
	top := l.Top
	if b.Y > top {
		top = b.Y
	}
	bottom := l.Bottom
	if b.Bottom() < bottom {
		bottom = b.Bottom()
	}
	overlap := bottom - top
	if overlap <= 0 {
		return 0
	}

	shorter := l.Bottom - l.Top
	if b.Height < shorter {
		shorter = b.Height
	}
	return float64(overlap) / float64(shorter)
}

func (l *Line) centerY() float64 {
	return float64(l.Top+l.Bottom) / 2
}

func sortLine(boxes []BoundingBox, dir Direction) {
	sort.SliceStable(boxes, func(i, j int) bool {
		a, b := boxes[i], boxes[j]
		if a.X != b.X {
			if dir == RightToLeft {
				return a.X > b.X
			}
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Width != b.Width {
			return a.Width < b.Width
		}
		return a.Height < b.Height
	})
}
