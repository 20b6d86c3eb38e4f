package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

var directionProperty = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"ltr", "rtl"},
	"description": "Reading direction within a line. Defaults to the server's configured direction (rtl unless changed)",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and alpha channel. Reports whether the image can be analyzed (PNG only).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_cluster_analysis",
			Description: "Find the connected ink clusters (glyphs, marks) in a PNG and return their bounding boxes in reading order: lines top to bottom, clusters within a line left-to-right or right-to-left.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty,
					"direction": directionProperty,
					"recognize": map[string]interface{}{
						"type":        "boolean",
						"description": "Recognize the character in each cluster (requires a Tesseract build)",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_cluster_overlay",
			Description: "Draw every cluster's bounding box on a copy of the image, numbered in reading order, and return it as base64-encoded PNG. Use this to check how an image was segmented.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty,
					"direction": directionProperty,
					"box_color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as #RRGGBB. Defaults to a distinct color per line",
					},
					"show_numbers": map[string]interface{}{
						"type":        "boolean",
						"description": "Label each box with its reading position",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_cluster_crop",
			Description: "Crop one cluster's bounding box from a PNG onto a white background and return it as base64-encoded PNG, optionally padded and scaled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"x":      map[string]interface{}{"type": "integer", "description": "Left edge of the box"},
					"y":      map[string]interface{}{"type": "integer", "description": "Top edge of the box"},
					"width":  map[string]interface{}{"type": "integer", "description": "Box width in pixels"},
					"height": map[string]interface{}{"type": "integer", "description": "Box height in pixels"},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Blank border added on every side",
						"default":     0,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Resize factor applied after padding",
						"default":     1,
					},
				},
				"required": []string{"path", "x", "y", "width", "height"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
