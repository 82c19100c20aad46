package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/streamfusion"
	"github.com/example/streamfusion/internal/config"
	"github.com/example/streamfusion/internal/pipelinereg"
	"github.com/example/streamfusion/internal/runstore"
	"github.com/example/streamfusion/pkg/logging"
)

// Handler wires HTTP requests to a run store and the pipeline registry.
type Handler struct {
	cfg       *config.Config
	store     *runstore.Store
	startedAt time.Time
	version   string
}

type runRequest struct {
	Pipeline string `json:"pipeline"`
	Input    []any  `json:"input"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

// NewHandler creates a Handler.
func NewHandler(cfg *config.Config, store *runstore.Store, startedAt time.Time, version string) *Handler {
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	if version == "" {
		version = Version
	}
	return &Handler{cfg: cfg, store: store, startedAt: startedAt, version: version}
}

// Register wires every route onto r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Post("/v1/runs", h.handleCreateRun)
	r.Get("/v1/runs/{id}", h.handleGetRun)
	r.Get("/v1/runs/{id}/events", h.handleRunEvents)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    h.version,
		"uptime_sec": time.Since(h.startedAt).Seconds(),
	})
}

func (h *Handler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("invalid payload: %v", err))
		return
	}
	if req.Pipeline == "" {
		writeAPIError(w, http.StatusBadRequest, "invalid_request", "pipeline is required")
		return
	}

	def, ok := h.cfg.FindPipeline(req.Pipeline)
	if !ok {
		writeAPIError(w, http.StatusNotFound, "not_found", fmt.Sprintf("unknown pipeline %q", req.Pipeline))
		return
	}

	run := &runstore.Run{
		ID:           generateID(),
		PipelineName: req.Pipeline,
		Status:       runstore.StatusRunning,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := h.store.Create(run); err != nil {
		writeAPIError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	h.execute(run, def, req.Input)

	writeJSON(w, http.StatusCreated, run)
}

// execute materializes def over input synchronously and persists the
// outcome. A real deployment with a long-running source (internal/source.SQLIterable
// over a large table) would run this in a goroutine and let the events
// endpoint observe progress instead; kept synchronous here to keep the
// HTTP contract simple for the in-memory demo pipelines.
func (h *Handler) execute(run *runstore.Run, def pipelinereg.Definition, input []any) {
	it, err := pipelinereg.Build(def, input)
	if err != nil {
		h.finishWithError(run, err)
		return
	}
	defer it.Close()

	result, err := it.ToList()
	if err != nil {
		h.finishWithError(run, err)
		return
	}

	run.Status = runstore.StatusSucceeded
	run.Result = result
	run.Steps = stepInfos(it)
	run.UpdatedAt = time.Now().UTC()
	if err := h.store.Update(run); err != nil {
		logging.Errorf("persisting run %s: %v", run.ID, err)
	}
}

func (h *Handler) finishWithError(run *runstore.Run, err error) {
	run.Status = runstore.StatusFailed
	run.Error = err.Error()
	run.UpdatedAt = time.Now().UTC()
	if updateErr := h.store.Update(run); updateErr != nil {
		logging.Errorf("persisting failed run %s: %v", run.ID, updateErr)
	}
}

func stepInfos(it *stream.Iterator) []runstore.StepInfo {
	snaps := it.Steps()
	out := make([]runstore.StepInfo, len(snaps))
	for i, s := range snaps {
		out[i] = runstore.StepInfo{Kind: s.Kind}
	}
	return out
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.store.Get(id)
	if err != nil {
		handleStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handler) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "application/x-ndjson")
	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)

	ctx := r.Context()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	tracker := NewRunTracker()
	for {
		run, err := h.store.Get(id)
		if err != nil {
			_ = enc.Encode(apiErrorResponse{Error: apiError{Code: "not_found", Message: err.Error()}})
			return
		}

		for _, event := range tracker.Diff(run) {
			if err := enc.Encode(event); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			if event.Event == "stream_finished" {
				return
			}
		}

		if isTerminal(run.Status) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func handleStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, runstore.ErrRunNotFound):
		writeAPIError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeAPIError(w, http.StatusInternalServerError, "store_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiErrorResponse{Error: apiError{Code: code, Message: message}})
}

func generateID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
