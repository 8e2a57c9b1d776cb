package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/muliwe/aitm-detector/internal/asset"
	"github.com/muliwe/aitm-detector/internal/detector"
	"github.com/muliwe/aitm-detector/internal/fingerprint"
	"github.com/muliwe/aitm-detector/internal/logger"
	"github.com/muliwe/aitm-detector/internal/metrics"
)

const version = "1.0.0"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// DebugResponse shows how the caller's own request was classified
type DebugResponse struct {
	Result    detector.Result       `json:"result"`
	Requester fingerprint.Requester `json:"requester"`
	AllowList []string              `json:"allow_list"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	detector   *detector.Detector
	asset      asset.Loader
	detections *logger.Logger // optional JSONL detection log
	console    *logrus.Logger
	metrics    *metrics.Metrics // optional
}

// NewHandler creates a new handler with dependencies
func NewHandler(d *detector.Detector, a asset.Loader, l *logger.Logger) *Handler {
	return &Handler{
		detector:   d,
		asset:      a,
		detections: l,
		console:    logrus.StandardLogger(),
	}
}

// SetConsole replaces the console logger
func (h *Handler) SetConsole(c *logrus.Logger) {
	h.console = c
}

// SetMetrics enables metrics recording
func (h *Handler) SetMetrics(m *metrics.Metrics) {
	h.metrics = m
}

// HandleDetect answers GET /aitmdetector.
// The status is 200 whatever happens.
func (h *Handler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	result := h.detector.Inspect(r)
	h.metrics.RecordVerdict(string(result.Verdict))

	outcome := h.respond(result)
	outcome.Render(w)
	h.metrics.RecordResponse(string(outcome.Kind))

	h.record(r, result, outcome, time.Since(startTime))
}

// respond maps a verdict to an outcome, loading the image when needed
func (h *Handler) respond(result detector.Result) Outcome {
	if result.Trusted() {
		return TrustedOutcome()
	}

	image, err := h.asset.Load()
	if err != nil {
		return FaultOutcome(err)
	}
	return UntrustedOutcome(image)
}

func (h *Handler) record(r *http.Request, result detector.Result, outcome Outcome, elapsed time.Duration) {
	requester := fingerprint.Collect(r)

	entry := h.console.WithFields(logrus.Fields{
		"request_id":  result.RequestID,
		"remote_addr": r.RemoteAddr,
		"verdict":     result.Verdict,
		"referer":     result.Referer,
		"outcome":     outcome.Kind,
	})

	switch {
	case outcome.Kind == OutcomeFault:
		h.metrics.RecordFault()
		entry.WithError(outcome.Err).Error("Error processing detection request")
	case result.Trusted():
		entry.Info("Valid referer")
	case !result.RefererPresent:
		entry.Info("Missing referer")
	default:
		entry.Info("Bad referer")
	}

	if h.detections == nil {
		return
	}

	written, err := h.detections.LogDetection(result, string(outcome.Kind), outcome.Err, requester, elapsed.Milliseconds())
	if err != nil {
		h.console.WithError(err).Warn("Error writing detection log")
	}
	if !written {
		h.metrics.RecordLogDropped()
	}
}

// HandleHealth handles the health check endpoint
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(HealthResponse{
		Status:  "ok",
		Version: version,
	}); err != nil {
		h.console.WithError(err).Warn("Error encoding health response")
	}
}

// HandleDebug returns the classification of the caller's request (optional endpoint)
func (h *Handler) HandleDebug(w http.ResponseWriter, r *http.Request) {
	resp := DebugResponse{
		Result:    h.detector.Inspect(r),
		Requester: fingerprint.Collect(r),
		AllowList: h.detector.AllowList().Entries(),
	}

	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(resp); err != nil {
		h.console.WithError(err).Warn("Error encoding debug response")
	}
}
