package internal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
)

// MockServer stands in for a running streamfusion server, just enough
// to exercise the SDK client's request/response shapes without
// bringing in the full internal/server wiring.
type MockServer struct {
	Server *httptest.Server
}

func NewMockServer() *MockServer {
	ms := &MockServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/v1/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Pipeline string `json:"pipeline"`
			Input    []any  `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		result := make([]any, 0, len(req.Input))
		for _, v := range req.Input {
			if n, ok := v.(float64); ok && n > 0 {
				result = append(result, n*2)
			}
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "mock-run",
			"pipeline_name": req.Pipeline,
			"status":        "succeeded",
			"steps":         []map[string]string{{"kind": "filter"}, {"kind": "map"}},
			"result":        result,
		})
	})
	mux.HandleFunc("/v1/runs/mock-run/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		_ = enc.Encode(map[string]any{"event": "run_status", "run_id": "mock-run", "seq": 1})
		_ = enc.Encode(map[string]any{"event": "run_succeeded", "run_id": "mock-run", "seq": 2})
		_ = enc.Encode(map[string]any{"event": "stream_finished", "run_id": "mock-run", "seq": 3})
	})
	ms.Server = httptest.NewServer(mux)
	return ms
}

func (m *MockServer) Close() {
	if m.Server != nil {
		m.Server.Close()
	}
}
