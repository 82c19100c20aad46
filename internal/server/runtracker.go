package server

import "github.com/example/streamfusion/internal/runstore"

// RunEvent is one event describing a run's progress, written as one
// line of newline-delimited JSON over /v1/runs/{id}/events.
type RunEvent struct {
	Event string `json:"event"`
	RunID string `json:"run_id"`
	Seq   uint64 `json:"seq"`
	Data  any    `json:"data,omitempty"`
}

// RunTracker diffs successive snapshots of a Run and emits the events a
// client hasn't seen yet, the same state-diffing shape the engine used
// for per-step job progress, adapted to report run-status
// transitions (pending -> running -> succeeded/failed) instead of
// per-step job status.
type RunTracker struct {
	lastStatus runstore.Status
	seq        uint64
}

// NewRunTracker returns an initialized tracker.
func NewRunTracker() *RunTracker {
	return &RunTracker{}
}

// Diff compares run against prior state and returns events to emit, in
// order, each carrying a monotonically increasing Seq.
func (t *RunTracker) Diff(run *runstore.Run) []RunEvent {
	if run == nil {
		return nil
	}
	var events []RunEvent

	if run.Status != t.lastStatus {
		t.lastStatus = run.Status
		events = append(events, t.next(run.ID, "run_status", run))

		switch run.Status {
		case runstore.StatusSucceeded:
			events = append(events, t.next(run.ID, "run_succeeded", run))
			events = append(events, t.next(run.ID, "stream_finished", run))
		case runstore.StatusFailed:
			events = append(events, t.next(run.ID, "run_failed", run))
			events = append(events, t.next(run.ID, "stream_finished", run))
		}
	}

	return events
}

func (t *RunTracker) next(runID, name string, data any) RunEvent {
	t.seq++
	return RunEvent{Event: name, RunID: runID, Seq: t.seq, Data: data}
}

func isTerminal(status runstore.Status) bool {
	return status == runstore.StatusSucceeded || status == runstore.StatusFailed
}
