package stream

// RefCounted is implemented by host values that participate in the
// engine's reference-counting discipline (spec.md §9, "Host-refcounted
// handles"). Plain Go values don't implement it, so Acquire/Release
// become no-ops and the garbage collector does the rest; values crossing
// from a refcounted host runtime (e.g. a cgo bridge) can implement it to
// get the exact acquire-on-copy, release-on-drop discipline §4.1 and §7
// require.
type RefCounted interface {
	Acquire()
	Release()
}

func acquire(v any) {
	if rc, ok := v.(RefCounted); ok {
		rc.Acquire()
	}
}

func release(v any) {
	if rc, ok := v.(RefCounted); ok {
		rc.Release()
	}
}

// Handle is an owned reference to a host-runtime value: a callable or a
// HostIterator. Construction acquires, Release drops, Retain reacquires
// for a copy — the smart-handle shape spec.md §9 describes mapping
// cleanly onto a target language's owning-reference idiom.
type Handle struct {
	value any
}

func newHandle(v any) Handle {
	acquire(v)
	return Handle{value: v}
}

// Retain returns a new Handle to the same value, acquiring an
// additional reference. Used by StepNode.clone and by CompiledNext to
// pin callables for the compiled path's lifetime (§4.5).
func (h Handle) Retain() Handle {
	acquire(h.value)
	return h
}

// Release drops this handle's reference. Safe to call on an
// already-released or zero Handle.
func (h *Handle) Release() {
	if h.value == nil {
		return
	}
	release(h.value)
	h.value = nil
}

// Value returns the underlying host value, or nil if the handle has
// already been released.
func (h Handle) Value() any { return h.value }
