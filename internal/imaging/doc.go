// Package imaging handles the image plumbing around cluster analysis.
//
// It decodes base64 and data URI payloads, gates them to PNG, caches images
// loaded from disk for the MCP server, cuts single clusters out of a page
// for recognition, and renders reading-order previews.
//
// # Coordinate System
//
// Cluster boxes are relative to the image origin: (0,0) is the top-left
// pixel, X grows rightward and Y downward. Functions that accept a box
// translate it by the image's Bounds().Min, so images with a non-zero origin
// are handled transparently.
//
// # Supported Formats
//
// PNG, JPEG, GIF, BMP, TIFF and WebP decoders are registered so that the
// format of any reasonable upload can be named. Only PNG is analyzed;
// DecodePNG and LoadPNG return errors wrapping ErrNotPNG for the rest.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless.
package imaging
