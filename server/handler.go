// Package server exposes the parser over HTTP
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tagstream/actions"
	"tagstream/config"
	"tagstream/internal"
	"tagstream/logger"
	"tagstream/metrics"
	"tagstream/parser"
	"tagstream/stream"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 16 << 20

// ParseRequest is the body of POST /v1/parse
type ParseRequest struct {
	Content     string `json:"content"`
	IsStreaming bool   `json:"is_streaming"`
}

// ParseResponse carries a parsed message and its action plan
type ParseResponse struct {
	RequestID string `json:"request_id"`
	*parser.Message
	Plan *actions.Plan `json:"plan"`
}

// Handler serves the parse endpoints
type Handler struct {
	config  *config.Config
	log     *logger.ObservabilityLogger
	metrics *metrics.Metrics
}

// NewHandler creates a new handler
func NewHandler(cfg *config.Config, log *logger.ObservabilityLogger, m *metrics.Metrics) *Handler {
	return &Handler{
		config:  cfg,
		log:     log,
		metrics: m,
	}
}

// Routes registers every endpoint on a new mux
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.HandleRoot)
	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc("/v1/parse", h.HandleParse)
	mux.HandleFunc("/v1/stream", h.HandleStream)
	if h.metrics != nil {
		mux.Handle("/metrics", h.metrics.Handler())
	}
	return mux
}

// HandleParse parses one buffer snapshot
func (h *Handler) HandleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := internal.NewRequestID()

	var req ParseRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		h.log.Warn(logger.ComponentServer, logger.CategoryValidation, requestID, "Invalid JSON in request", map[string]interface{}{
			"error": err.Error(),
		})
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	h.log.Request(requestID, "Parse request received", map[string]interface{}{
		"bytes":        len(req.Content),
		"is_streaming": req.IsStreaming,
	})

	start := time.Now()
	msg := parser.Parse(req.Content, req.IsStreaming)
	h.metrics.ObserveParse(msg, time.Since(start))

	h.respond(w, requestID, msg)
}

// HandleStream reads a streamed completion from the request body and returns
// the final snapshot. The body format comes from config unless ?format= is
// given ("sse" or "text").
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	requestID := internal.NewRequestID()
	ctx := internal.WithRequestID(r.Context(), requestID)

	format := h.config.Stream.Format
	if f := r.URL.Query().Get("format"); f != "" {
		format = strings.ToLower(f)
	}

	session := stream.NewSession(stream.Options{
		RequestID:          requestID,
		MinReparseInterval: h.config.Stream.MinReparseInterval,
		Logger:             h.log,
		Metrics:            h.metrics,
	})

	h.log.Request(requestID, "Stream request received", map[string]interface{}{"format": format})

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var err error
	switch format {
	case config.FormatSSE:
		err = stream.ReadSSE(ctx, body, session)
	case config.FormatText:
		err = stream.ReadText(ctx, body, session, h.config.Stream.ChunkSize)
	default:
		http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error(logger.ComponentServer, logger.CategoryError, requestID, "Stream read failed", map[string]interface{}{
			"error": err.Error(),
		})
		http.Error(w, "Failed to read stream", http.StatusBadRequest)
		return
	}

	h.respond(w, requestID, session.Finish())
}

func (h *Handler) respond(w http.ResponseWriter, requestID string, msg *parser.Message) {
	plan := actions.BuildPlan(msg, h.log)

	h.log.Info(logger.ComponentServer, logger.CategorySuccess, requestID, "Parse complete", map[string]interface{}{
		"pieces":  len(msg.Pieces),
		"plan":    plan.Summary(),
		"skipped": len(plan.Skipped),
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ParseResponse{RequestID: requestID, Message: msg, Plan: plan}); err != nil {
		h.log.Error(logger.ComponentServer, logger.CategoryError, requestID, "Failed to write response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// HandleRoot provides basic information about the service
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
		"service": "tagstream",
		"status":  "running",
		"endpoints": []string{
			"GET /health - Health check",
			"GET /metrics - Prometheus metrics",
			"POST /v1/parse - Parse a response buffer",
			"POST /v1/stream - Parse a streamed completion",
		},
	})
}

// HandleHealth provides a simple health check endpoint
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}

