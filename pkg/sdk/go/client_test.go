package gosdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientCreateRun(t *testing.T) {
	t.Parallel()

	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/v1/runs" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		defer r.Body.Close()

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Run{ID: "run-create", PipelineName: "double", Status: "succeeded", Result: []any{2.0, 4.0}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	run, err := client.CreateRun(context.Background(), "double", []any{1.0, 2.0})
	if err != nil {
		t.Fatalf("CreateRun errored: %v", err)
	}
	if received["pipeline"] != "double" {
		t.Fatalf("unexpected pipeline sent: %v", received["pipeline"])
	}
	if run.ID != "run-create" {
		t.Fatalf("unexpected run ID: %s", run.ID)
	}
	if len(run.Result) != 2 {
		t.Fatalf("unexpected result: %v", run.Result)
	}
}

func TestClientGetRun(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/runs/abc" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Run{ID: "abc", Status: "succeeded"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	run, err := client.GetRun(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetRun errored: %v", err)
	}
	if run.ID != "abc" {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestClientGetRunPropagatesHTTPErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.GetRun(context.Background(), "missing"); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}

func TestClientStreamRunEvents(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(`{"event":"run_status","run_id":"abc","seq":1}` + "\n"))
		_, _ = w.Write([]byte(`{"event":"stream_finished","run_id":"abc","seq":2}` + "\n"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	events, err := client.StreamRunEvents(context.Background(), "abc")
	if err != nil {
		t.Fatalf("StreamRunEvents errored: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	if events[1].Event != "stream_finished" {
		t.Fatalf("expected final event to be stream_finished, got %s", events[1].Event)
	}
}
