// Package clusters implements the glyph cluster analysis engine.
//
// Given a decoded raster, the package segments it into foreground "ink"
// regions, computes a tight bounding box per region, and orders the boxes
// the way a reader scans them: line by line, left-to-right or right-to-left.
//
// # Pipeline
//
// Analysis runs as a strictly sequential pipeline where every stage consumes
// an immutable snapshot of the previous stage's output:
//
//  1. Classify: raster -> Mask (ink vs background, per pixel)
//  2. Label: Mask -> Labeling (8-connected components via union-find)
//  3. Components: Labeling -> []Component (bounding box and area per label)
//  4. Order: []BoundingBox -> []Line (line grouping and intra-line order)
//  5. Assemble: []Line -> Result (flat cluster sequence + direction)
//
// Analyze wires all five stages together.
//
// # Coordinate System
//
// Coordinates are 0-based with the origin at the top-left pixel of the
// raster, regardless of the raster's own bounds origin. X increases rightward
// and Y increases downward. A BoundingBox covers the pixels
// [X, X+Width) x [Y, Y+Height).
//
// # Thread Safety
//
// Every function is a pure computation over its arguments. Each call
// allocates its own mask, label grid and disjoint set, so independent
// analyses may run concurrently without locking.
//
// # Errors
//
// The engine is total over well-formed rasters: a 0x0 image or an image with
// no ink yields an empty cluster list, never an error. The only error in the
// package is ErrInvalidDirection, returned by ParseDirection.
package clusters
