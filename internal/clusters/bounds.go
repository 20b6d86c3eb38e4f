package clusters

// Components computes the bounding box and pixel area of every labeled
// component, returned in label order (index i holds label i+1).
//
// Each box is the minimal rectangle [minX..maxX] x [minY..maxY] over the
// component's pixels, so Width = maxX-minX+1 and Height = maxY-minY+1.
// Nearby but disjoint components are never merged here.
func Components(l *Labeling) []Component {
	n := l.Count
	if n == 0 {
		return []Component{}
	}

	minX := make([]int, n)
	minY := make([]int, n)
	maxX := make([]int, n)
	maxY := make([]int, n)
	area := make([]int, n)
	for i := 0; i < n; i++ {
		minX[i], minY[i] = l.Width, l.Height
		maxX[i], maxY[i] = -1, -1
	}

	for y := 0; y < l.Height; y++ {
		row := y * l.Width
		for x := 0; x < l.Width; x++ {
			lab := l.Labels[row+x]
			if lab == 0 {
				continue
			}
			i := lab - 1
			if x < minX[i] {
				minX[i] = x
			}
			if x > maxX[i] {
				maxX[i] = x
			}
			if y < minY[i] {
				minY[i] = y
			}
			if y > maxY[i] {
				maxY[i] = y
			}
			area[i]++
		}
	}

	comps := make([]Component, n)
	for i := 0; i < n; i++ {
		comps[i] = Component{
			Label: i + 1,
			Area:  area[i],
			Bounds: BoundingBox{
				X:      minX[i],
				Y:      minY[i],
				Width:  maxX[i] - minX[i] + 1,
				Height: maxY[i] - minY[i] + 1,
			},
		}
	}
	return comps
}

// FilterComponents drops components with fewer than minArea pixels.
// A minArea of 1 or less keeps everything. The input is not modified.
func FilterComponents(comps []Component, minArea int) []Component {
	out := make([]Component, 0, len(comps))
	for _, c := range comps {
		if c.Area >= minArea {
			out = append(out, c)
		}
	}
	return out
}

// Boxes extracts the bounding boxes of comps in order.
func Boxes(comps []Component) []BoundingBox {
	boxes := make([]BoundingBox, len(comps))
	for i, c := range comps {
		boxes[i] = c.Bounds
	}
	return boxes
}
