package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmax-ai/locklord/pkg/engine"
	"github.com/rmax-ai/locklord/pkg/reports"
)

// Server binds the engine's operation surface to HTTP. It owns no engine
// state: every handler is a thin translation between JSON and store
// operations, and the store's own lock provides request atomicity.
type Server struct {
	store  *engine.Store
	server *http.Server

	// debug enables the /debug/inject-wait route, which bypasses
	// avoidance. Scenario runners and tests only.
	debug bool
}

// NewServer creates an API server for the given store.
func NewServer(store *engine.Store, addr string, debug bool) *Server {
	s := &Server{store: store, debug: debug}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/processes", s.handleProcesses)
	mux.HandleFunc("/v1/resources", s.handleResources)
	mux.HandleFunc("/v1/request", s.handleRequest)
	mux.HandleFunc("/v1/release", s.handleRelease)
	mux.HandleFunc("/v1/detect", s.handleDetect)
	mux.HandleFunc("/v1/predict", s.handlePredict)
	mux.HandleFunc("/v1/recover", s.handleRecover)
	mux.HandleFunc("/v1/reset", s.handleReset)
	mux.HandleFunc("/v1/graph", s.handleGraph)
	mux.HandleFunc("/v1/log", s.handleLog)
	mux.HandleFunc("/v1/reports", s.handleReports)

	if debug {
		mux.HandleFunc("/debug/inject-wait", s.handleInjectWait)
	}

	handler := withLogging(withRecovery(withSecureHeaders(mux)))

	if addr == "" {
		addr = ":8090"
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	return s
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the HTTP server (blocking).
func (s *Server) Start() error {
	slog.Info("server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	slog.Info("server stopping")
	return s.server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Status())
}

func (s *Server) handleProcesses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.store.Processes())
	case http.MethodPost:
		var req AddProcessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json_body")
			return
		}
		if req.ProcessID == "" {
			writeError(w, http.StatusBadRequest, "missing_process_id")
			return
		}
		if err := s.store.AddProcess(req.ProcessID, engine.ParsePriority(req.Priority)); err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"success":   true,
			"processId": req.ProcessID,
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.store.Resources())
	case http.MethodPost:
		var req AddResourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json_body")
			return
		}
		if req.ResourceID == "" {
			writeError(w, http.StatusBadRequest, "missing_resource_id")
			return
		}
		if err := s.store.AddResource(req.ResourceID, req.ResourceType); err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"success":    true,
			"resourceId": req.ResourceID,
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeResourceOp(w, r)
	if !ok {
		return
	}

	outcome, err := s.store.Request(req.ProcessID, req.ResourceID)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	resp := RequestResponse{
		Holder:    outcome.Holder,
		Prevented: outcome.Prevented,
		Cycle:     outcome.Cycle,
		Message:   outcome.Message,
	}
	switch outcome.Result {
	case engine.ResultAllocated:
		resp.Success = true
		resp.Allocated = true
	case engine.ResultWaiting:
		resp.Success = true
		resp.Waiting = true
	case engine.ResultDenied:
		// A prevented request is a designed denial, not an error:
		// 200 with the would-be cycle as payload.
		resp.Success = false
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeResourceOp(w, r)
	if !ok {
		return
	}
	if err := s.store.Release(req.ProcessID, req.ResourceID); err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Detect())
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	predictions := s.store.Predict()
	risk := "low"
	if len(predictions) > 0 {
		risk = "high"
	}
	writeJSON(w, http.StatusOK, PredictResponse{
		Predictions: predictions,
		RiskLevel:   risk,
	})
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	result, err := s.store.Recover()
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"victim":   result.Victim,
		"released": result.Released,
		"message":  result.Message,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	s.store.Reset()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Graph())
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, s.store.Log().Recent(limit))
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	reportType := reports.ReportType(r.URL.Query().Get("type"))
	if reportType == "" {
		reportType = reports.ReportTypeActivity
	}
	format := reports.ReportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = reports.ReportFormatCSV
	}

	gen, err := reports.NewReportGenerator(reportType, format, s.store)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := reports.ReportParams{Severity: r.URL.Query().Get("severity")}
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		params.Limit = parsed
	}

	out, err := gen.Generate(r.Context(), params)
	if err != nil {
		slog.Error("report generation failed",
			"trace_id", getTraceID(r.Context()), "type", reportType, "error", err)
		writeError(w, http.StatusInternalServerError, "report_generation_failed")
		return
	}

	if format == reports.ReportFormatJSON {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/csv")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, out); err != nil {
		slog.Error("failed to stream report", "error", err)
	}
}

func (s *Server) handleInjectWait(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeResourceOp(w, r)
	if !ok {
		return
	}
	if err := s.store.InjectWait(req.ProcessID, req.ResourceID); err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func decodeResourceOp(w http.ResponseWriter, r *http.Request) (ResourceOpRequest, bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return ResourceOpRequest{}, false
	}
	var req ResourceOpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json_body")
		return ResourceOpRequest{}, false
	}
	if req.ProcessID == "" || req.ResourceID == "" {
		writeError(w, http.StatusBadRequest, "missing_required_fields")
		return ResourceOpRequest{}, false
	}
	return req, true
}

// writeEngineError maps store errors to HTTP status codes.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrDuplicateID),
		errors.Is(err, engine.ErrAlreadyHeld),
		errors.Is(err, engine.ErrAlreadyWaiting),
		errors.Is(err, engine.ErrNotHeld),
		errors.Is(err, engine.ErrNoDeadlock):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		slog.Error("engine operation failed",
			"trace_id", getTraceID(r.Context()), "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
