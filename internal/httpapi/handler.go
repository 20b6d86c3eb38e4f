package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"mime"
	"net/http"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/ironsheep/cluster-analysis/internal/clusters"
	"github.com/ironsheep/cluster-analysis/internal/imaging"
	"github.com/ironsheep/cluster-analysis/internal/logging"
	"github.com/ironsheep/cluster-analysis/internal/recognize"
)

// Options configures a Handler.
type Options struct {
	// Analysis is passed to every pipeline run.
	Analysis clusters.Options

	// MaxBodyBytes caps the request body. Zero means 10 MiB.
	MaxBodyBytes int64

	// MaxPixels caps the width*height an image header may declare. Zero
	// means 16 megapixels.
	MaxPixels int

	// MaxConcurrent caps concurrently running analyses. Zero means 4.
	MaxConcurrent int64

	// Recognizer serves "recognize": true requests. Nil disables them.
	Recognizer recognize.Recognizer

	// Recognize controls the crops handed to Recognizer.
	Recognize recognize.Options

	Logger *logrus.Logger
}

// Handler serves the HTTP API.
type Handler struct {
	opts   Options
	log    *logrus.Logger
	sem    *semaphore.Weighted
	routes map[string]map[string]http.HandlerFunc
	chain  http.Handler

	// analyze runs the pipeline; replaced in tests.
	analyze func(img image.Image, dir clusters.Direction, opts clusters.Options) (*clusters.Result, []clusters.Line)
}

// NewHandler builds the API handler. The returned handler already carries
// request IDs, panic recovery and access logging.
func NewHandler(opts Options) http.Handler {
	return newHandler(opts)
}

func newHandler(opts Options) *Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = 16 << 20
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	h := &Handler{
		opts:    opts,
		log:     logger,
		sem:     semaphore.NewWeighted(opts.MaxConcurrent),
		analyze: clusters.AnalyzeLines,
	}
	h.routes = map[string]map[string]http.HandlerFunc{
		"/clusteranalysis": {http.MethodPost: h.handleClusterAnalysis},
		"/_ah/warmup":      {http.MethodGet: h.handleProbe, http.MethodHead: h.handleProbe},
		"/healthz":         {http.MethodGet: h.handleProbe, http.MethodHead: h.handleProbe},
	}
	h.chain = withRequestID(withAccessLog(logger, withRecovery(logger, http.HandlerFunc(h.route))))
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.chain.ServeHTTP(w, r)
}

func (h *Handler) route(w http.ResponseWriter, r *http.Request) {
	methods, ok := h.routes[r.URL.Path]
	if !ok {
		writeError(w, &RequestError{Status: http.StatusNotFound, Message: msgNotFound})
		return
	}
	fn, ok := methods[r.Method]
	if !ok {
		allowed := make([]string, 0, len(methods))
		for m := range methods {
			allowed = append(allowed, m)
		}
		sort.Strings(allowed)
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		writeError(w, &RequestError{Status: http.StatusMethodNotAllowed, Message: msgMethodNotAllowed})
		return
	}
	fn(w, r)
}

func (h *Handler) handleProbe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Code: http.StatusOK})
}

func (h *Handler) handleClusterAnalysis(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	resp, err := h.clusterAnalysis(r)
	if err != nil {
		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			reqErr = &RequestError{Status: http.StatusInternalServerError, Message: msgInternal, Cause: err}
		}
		entry := h.log.WithFields(logrus.Fields{
			"request_id": requestIDFrom(r.Context()),
			"status":     reqErr.Status,
		})
		if reqErr.Status >= http.StatusInternalServerError {
			entry.WithError(err).Error("Cluster analysis failed")
		} else {
			entry.WithError(err).Debug("Rejected cluster analysis request")
		}
		writeError(w, reqErr)
		return
	}
	writeResult(w, resp)
}

// clusterAnalysis validates the request in a fixed order so that a
// request with several problems always reports the same one.
func (h *Handler) clusterAnalysis(r *http.Request) (*AnalysisResponse, error) {
	if !isJSON(r.Header.Get("Content-Type")) {
		return nil, badRequest(msgContentType, nil)
	}

	req, err := h.decodeRequest(r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Image) == "" {
		return nil, badRequest(msgMissingImage, nil)
	}

	data, err := h.checkImage(req.Image)
	if err != nil {
		return nil, err
	}

	dir, err := parseDirection(req.Direction)
	if err != nil {
		return nil, err
	}

	if req.Recognize && h.opts.Recognizer == nil {
		return nil, badRequest(msgNoRecognition, recognize.ErrUnavailable)
	}

	if err := h.sem.Acquire(r.Context(), 1); err != nil {
		return nil, &RequestError{Status: http.StatusServiceUnavailable, Message: msgBusy, Cause: err}
	}
	defer h.sem.Release(1)

	// Pixel memory is only allocated while holding a slot.
	img, err := imaging.DecodePNG(data)
	if err != nil {
		return nil, badRequest(msgImageData+err.Error(), err)
	}

	result, lines := h.analyze(img, dir, h.opts.Analysis)

	h.log.WithFields(logrus.Fields{
		"request_id": requestIDFrom(r.Context()),
		"width":      img.Bounds().Dx(),
		"height":     img.Bounds().Dy(),
		"direction":  result.Direction,
		"clusters":   len(result.Clusters),
		"lines":      len(lines),
	}).Debug("Analyzed image")

	if req.Recognize {
		result, err = recognize.Annotate(h.opts.Recognizer, img, result, h.opts.Recognize)
		if err != nil {
			return nil, fmt.Errorf("glyph recognition: %w", err)
		}
	}

	resp := &AnalysisResponse{Result: result}
	if req.Preview {
		overlay, err := imaging.RenderOverlay(img, lines, imaging.DefaultOverlayOptions())
		if err != nil {
			return nil, fmt.Errorf("render preview: %w", err)
		}
		resp.Preview = overlay.ImageBase64
	}
	return resp, nil
}

func (h *Handler) decodeRequest(r *http.Request) (*AnalysisRequest, error) {
	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &RequestError{Status: http.StatusRequestEntityTooLarge, Message: msgTooLarge, Cause: err}
		}
		return nil, badRequest(msgInvalidJSON, err)
	}
	return &req, nil
}

// checkImage decodes the payload and validates the image header without
// decoding pixels.
func (h *Handler) checkImage(payload string) ([]byte, error) {
	data, err := imaging.DecodePayload(payload)
	if err != nil {
		return nil, badRequest(msgImageData+err.Error(), err)
	}
	if _, err := imaging.CheckPNG(data, h.opts.MaxPixels); err != nil {
		switch {
		case errors.Is(err, imaging.ErrNotPNG):
			return nil, badRequest(msgNotPNG, err)
		case errors.Is(err, imaging.ErrTooManyPixels):
			return nil, &RequestError{
				Status:  http.StatusRequestEntityTooLarge,
				Message: fmt.Sprintf(msgTooManyPixels, h.opts.MaxPixels),
				Cause:   err,
			}
		default:
			return nil, badRequest(msgImageData+err.Error(), err)
		}
	}
	return data, nil
}

// parseDirection treats an absent direction as unspecified. A direction
// that is present must name one of the two orders, so "" is rejected.
func parseDirection(s *string) (clusters.Direction, error) {
	if s == nil {
		return "", nil
	}
	dir, err := clusters.ParseDirection(*s)
	if err != nil || dir == "" {
		return "", badRequest(fmt.Sprintf(msgReadOrder, *s), clusters.ErrInvalidDirection)
	}
	return dir, nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
