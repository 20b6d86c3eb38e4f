package server

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/cluster-analysis/internal/clusters"
	"github.com/ironsheep/cluster-analysis/internal/imaging"
	"github.com/ironsheep/cluster-analysis/internal/recognize"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_cluster_analysis").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithField("tool", params.Name).WithError(err).Warn("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_cluster_analysis":
		return s.handleClusterAnalysis(args)
	case "image_cluster_overlay":
		return s.handleClusterOverlay(args)
	case "image_cluster_crop":
		return s.handleClusterCrop(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type clusterAnalysisArgs struct {
	Path      string `json:"path"`
	Direction string `json:"direction"`
	Recognize bool   `json:"recognize"`
}

type analysisInput struct {
	img image.Image
	dir clusters.Direction
}

// loadForAnalysis loads a PNG and validates the requested direction.
func (s *Server) loadForAnalysis(path, direction string) (*analysisInput, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	dir, err := clusters.ParseDirection(direction)
	if err != nil {
		return nil, err
	}
	img, err := imaging.LoadPNG(s.cache, path)
	if err != nil {
		return nil, err
	}
	return &analysisInput{img: img, dir: dir}, nil
}

func (s *Server) handleClusterAnalysis(args json.RawMessage) (interface{}, error) {
	var a clusterAnalysisArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Recognize && s.opts.Recognizer == nil {
		return nil, recognize.ErrUnavailable
	}

	in, err := s.loadForAnalysis(a.Path, a.Direction)
	if err != nil {
		return nil, err
	}

	res := clusters.Analyze(in.img, in.dir, s.opts.Analysis)
	if a.Recognize {
		return recognize.Annotate(s.opts.Recognizer, in.img, res, s.opts.Recognize)
	}
	return res, nil
}

type clusterOverlayArgs struct {
	Path        string `json:"path"`
	Direction   string `json:"direction"`
	BoxColor    string `json:"box_color"`
	ShowNumbers *bool  `json:"show_numbers"`
}

func (s *Server) handleClusterOverlay(args json.RawMessage) (interface{}, error) {
	var a clusterOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	in, err := s.loadForAnalysis(a.Path, a.Direction)
	if err != nil {
		return nil, err
	}

	opts := imaging.DefaultOverlayOptions()
	opts.BoxColor = a.BoxColor
	if a.ShowNumbers != nil {
		opts.ShowNumbers = *a.ShowNumbers
	}

	_, lines := clusters.AnalyzeLines(in.img, in.dir, s.opts.Analysis)
	return imaging.RenderOverlay(in.img, lines, opts)
}

type clusterCropArgs struct {
	Path    string  `json:"path"`
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Padding int     `json:"padding"`
	Scale   float64 `json:"scale"`
}

// clusterCropResult contains one cropped cluster.
type clusterCropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func (s *Server) handleClusterCrop(args json.RawMessage) (interface{}, error) {
	var a clusterCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	in, err := s.loadForAnalysis(a.Path, "")
	if err != nil {
		return nil, err
	}

	box := clusters.BoundingBox{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}
	cropped, err := imaging.CropCluster(in.img, box, imaging.CropOptions{Padding: a.Padding, Scale: a.Scale})
	if err != nil {
		return nil, err
	}

	encoded, err := imaging.EncodePNGBase64(cropped)
	if err != nil {
		return nil, err
	}
	return &clusterCropResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}
