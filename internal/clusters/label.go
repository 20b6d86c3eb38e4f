package clusters

// Connectivity is the pixel adjacency rule used when labeling.
type Connectivity int

const (
	// Connectivity4 joins pixels that share an edge.
	Connectivity4 Connectivity = 4

	// Connectivity8 also joins pixels that touch only at a corner, so glyph
	// strokes meeting diagonally form one cluster.
	Connectivity8 Connectivity = 8
)

// Previously visited neighbors in raster order: W, NW, N, NE.
var (
	prevDX8 = [4]int{-1, -1, 0, 1}
	prevDY8 = [4]int{0, -1, -1, -1}
	prevDX4 = [2]int{-1, 0}
	prevDY4 = [2]int{0, -1}
)

// Labeling assigns every ink pixel of a Mask to exactly one component.
type Labeling struct {
	Width  int
	Height int

	// Labels holds one entry per pixel in row-major order. 0 is background;
	// components are numbered 1..Count in the raster order of their first
	// pixel.
	Labels []int32

	// Count is the number of components.
	Count int
}

// At returns the label of (x, y), or 0 for background and out-of-range
// coordinates.
func (l *Labeling) At(x, y int) int {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return 0
	}
	return int(l.Labels[y*l.Width+x])
}

// Label partitions the ink pixels of m into maximal connected components.
//
// # Algorithm
//
// Classic two-pass labeling over an array-backed disjoint set:
//
//  1. Raster scan: each ink pixel takes the label of its already visited
//     ink neighbors (W, N, and for 8-connectivity NW and NE). When several
//     neighbors carry different labels, their classes are merged. A pixel
//     with no labeled neighbor opens a new provisional label.
//  2. Resolution: every provisional label is replaced by a dense canonical
//     label numbered in the order components are first met.
//
// Runs in O(pixels) time; auxiliary space is the label grid plus one int32
// per provisional label. The disjoint set is discarded on return.
func Label(m *Mask, conn Connectivity) *Labeling {
	w, h := m.Width, m.Height
	labels := make([]int32, w*h)

	dxs, dys := prevDX8[:], prevDY8[:]
	if conn == Connectivity4 {
		dxs, dys = prevDX4[:], prevDY4[:]
	}

	ds := newDisjointSet(64)

	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			if !m.bits[row+x] {
				continue
			}

			var cur int32
			for k := range dxs {
				nx, ny := x+dxs[k], y+dys[k]
				if nx < 0 || nx >= w || ny < 0 {
					continue
				}
				n := labels[ny*w+nx]
				if n == 0 {
					continue
				}
				if cur == 0 {
					cur = n
				} else if cur != n {
					cur = ds.union(cur, n)
				}
			}
			if cur == 0 {
				cur = ds.add()
			}
			labels[row+x] = cur
		}
	}

	canonical := make([]int32, ds.len())
	var next int32
	for i, lab := range labels {
		if lab == 0 {
			continue
		}
		root := ds.find(lab)
		if canonical[root] == 0 {
			next++
			canonical[root] = next
		}
		labels[i] = canonical[root]
	}

	return &Labeling{Width: w, Height: h, Labels: labels, Count: int(next)}
}

// disjointSet is a union-find forest stored as a parent array indexed by
// provisional label. Index 0 is reserved for background.
type disjointSet struct {
	parent []int32
}

func newDisjointSet(capacity int) *disjointSet {
	ds := &disjointSet{parent: make([]int32, 1, capacity)}
	return ds
}

func (d *disjointSet) len() int { return len(d.parent) }

// add opens a new singleton class and returns its label.
func (d *disjointSet) add() int32 {
	id := int32(len(d.parent))
	d.parent = append(d.parent, id)
	return id
}

// find returns the root of x, halving the path as it walks.
func (d *disjointSet) find(x int32) int32 {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

// union merges the classes of a and b and returns the surviving root.
// The smaller root index always survives.
func (d *disjointSet) union(a, b int32) int32 {
	ra, rb := d.find(a), d.find(b)
	switch {
	case ra == rb:
		return ra
	case ra < rb:
		d.parent[rb] = ra
		return ra
	default:
		d.parent[ra] = rb
		return rb
	}
}
