// Package httpapi exposes cluster analysis over HTTP.
//
// # Routes
//
//   - POST /clusteranalysis: analyze a base64 PNG and return its clusters in reading order
//   - GET /_ah/warmup: warmup probe
//   - GET /healthz: liveness probe
//
// Every response is a JSON envelope:
//
//	{"success": true, "code": 200, "result": {...}}
//	{"success": false, "code": 400, "message": "..."}
//
// Unknown routes answer 404 and known routes called with the wrong method
// answer 405 with an Allow header, both as envelopes.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/ironsheep/cluster-analysis/internal/clusters"
)

// Response messages. Clients match on these strings.
const (
	msgContentType      = "The request content type must be application/json"
	msgInvalidJSON      = "The request body is not valid JSON"
	msgMissingImage     = "The request is missing the image parameter"
	msgImageData        = "Unable to process image data: "
	msgNotPNG           = "Only png images are accepted"
	msgReadOrder        = "Invalid read order '%s'"
	msgNoRecognition    = "Glyph recognition is not available"
	msgTooLarge         = "The request body is too large"
	msgTooManyPixels    = "The image exceeds the limit of %d pixels"
	msgBusy             = "The server is busy, try again later"
	msgInternal         = "Internal server error"
	msgNotFound         = "The requested URL was not found on the server"
	msgMethodNotAllowed = "The method is not allowed for the requested URL"
)

// AnalysisRequest is the body of POST /clusteranalysis.
type AnalysisRequest struct {
	// Image is a base64 PNG, optionally as a data URI. Line breaks are
	// ignored.
	Image string `json:"image"`

	// Direction is "ltr" or "rtl". Absent or null selects the configured
	// default.
	Direction *string `json:"direction,omitempty"`

	// Preview adds a base64 PNG with numbered cluster outlines.
	Preview bool `json:"preview,omitempty"`

	// Recognize fills in the text of every cluster.
	Recognize bool `json:"recognize,omitempty"`
}

// AnalysisResponse is the result member of a successful analysis.
type AnalysisResponse struct {
	*clusters.Result
	Preview string `json:"preview,omitempty"`
}

// envelope is the wire shape of every response.
type envelope struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Result  interface{} `json:"result,omitempty"`
	Message string      `json:"message,omitempty"`
}

// RequestError is a failure reported to the client with a status code.
type RequestError struct {
	Status  int
	Message string
	Cause   error
}

func (e *RequestError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RequestError) Unwrap() error { return e.Cause }

func badRequest(msg string, cause error) *RequestError {
	return &RequestError{Status: http.StatusBadRequest, Message: msg, Cause: cause}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeResult(w http.ResponseWriter, result interface{}) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Code: http.StatusOK, Result: result})
}

func writeError(w http.ResponseWriter, err *RequestError) {
	writeJSON(w, err.Status, envelope{Success: false, Code: err.Status, Message: err.Message})
}
