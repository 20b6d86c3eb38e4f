// Package server implements the MCP (Model Context Protocol) server for
// cluster analysis.
//
// # Protocol
//
// The server speaks JSON-RPC 2.0, one message per line:
//   - Input: requests on the reader passed to Serve (stdin in production)
//   - Output: responses on the writer passed to Serve (stdout in production)
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load an image and report its size, format and whether it can be analyzed
//   - image_cluster_analysis: Bounding boxes of every ink cluster, in reading order
//   - image_cluster_overlay: The image with numbered cluster outlines, as base64 PNG
//   - image_cluster_crop: One cluster cropped onto white, as base64 PNG
//
// Only PNG files are analyzed; image_load accepts anything the registered
// decoders understand.
//
// # Image Caching
//
// Images are cached by path and reused across tool calls for the lifetime
// of the server.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
