package stream

import (
	"sync"
	"time"

	"github.com/example/streamfusion/pkg/metrics"
)

// dispatchState implements the public iterator's state machine (§4.6):
// Fresh -> Streaming -> {Exhausted, Errored}. Exhausted and Errored are
// sticky.
type dispatchState int

const (
	stateFresh dispatchState = iota
	stateStreaming
	stateExhausted
	stateErrored
)

// Iterator is the public iterator object (spec.md §3, §6.3): a Pipeline
// plus dispatcher state selecting interpreted vs compiled execution.
// Destruction releases the source handle, every step callable, and any
// compiled resources; it happens when the stream reaches Exhausted or
// Errored, or on Close. No finalizer is registered, so an Iterator that
// is dropped before any of those never releases its handles.
type Iterator struct {
	mu       sync.Mutex
	pipeline *Pipeline
	state    dispatchState
	compiled *CompiledNext
	lastErr  error
}

// config holds the per-builder-call options applied by Option values.
type config struct {
	composer   Composer
	jitEnabled bool
}

func defaultConfig() config {
	return config{composer: DefaultComposer, jitEnabled: false}
}

// Option customizes a Map/Filter builder call.
type Option func(*config)

// WithComposer overrides the Composer used for map-over-map fusion
// (§4.2, §6.2). Applies to the pipeline being built or extended, and is
// inherited by further chaining unless overridden again.
func WithComposer(c Composer) Option {
	return func(cfg *config) { cfg.composer = c }
}

// WithJIT opts this pipeline into the JIT backend (§4.5). Per spec.md
// §9 the JIT may be omitted entirely since the interpreter is
// semantically complete, so it is opt-in here rather than automatic.
// Inherited by further chaining unless overridden again.
func WithJIT() Option {
	return func(cfg *config) { cfg.jitEnabled = true }
}

// Map builds or extends a pipeline with a Map step (spec.md §6.3).
// source is either an existing *Iterator (the tail being extended) or
// anything asIterable accepts (an Iterable, a slice/array, or a receive
// channel).
func Map(callable Callable, source any, opts ...Option) (*Iterator, error) {
	return build(callable, KindMap, source, opts)
}

// Filter builds or extends a pipeline with a Filter step.
func Filter(callable Callable, source any, opts ...Option) (*Iterator, error) {
	return build(callable, KindFilter, source, opts)
}

func build(callable Callable, kind StepKind, source any, opts []Option) (*Iterator, error) {
	if callable == nil {
		return nil, &ArgumentError{Message: "callable must not be nil"}
	}
	if source == nil {
		return nil, &ArgumentError{Message: "source must not be nil"}
	}

	if tail, ok := source.(*Iterator); ok {
		tail.mu.Lock()
		defer tail.mu.Unlock()

		cfg := config{composer: tail.pipeline.composer, jitEnabled: tail.pipeline.jitEnabled}
		for _, opt := range opts {
			opt(&cfg)
		}

		// Extend a shallow copy carrying this call's options, so that a
		// WithComposer given here also governs this call's fusion.
		base := *tail.pipeline
		base.composer = cfg.composer
		base.jitEnabled = cfg.jitEnabled
		pipeline := extendPipeline(&base, callable, kind)
		return &Iterator{pipeline: pipeline}, nil
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	iterable, err := asIterable(source)
	if err != nil {
		return nil, err
	}
	pipeline, err := newPipeline(callable, kind, iterable, cfg.composer)
	if err != nil {
		return nil, err
	}
	pipeline.jitEnabled = cfg.jitEnabled
	return &Iterator{pipeline: pipeline}, nil
}

// decideDispatch is first_next (§4.5): called once, on the first pull.
// A pipeline built without WithJIT always keeps the interpreter. Below
// the step-count or length-hint thresholds it permanently selects the
// interpreter; otherwise it attempts compilation, surfacing any failure
// as a ConfigError.
func (it *Iterator) decideDispatch() {
	if !it.pipeline.jitEnabled {
		return
	}
	if len(it.pipeline.steps) < CompileThresholdSteps {
		return
	}
	if it.pipeline.lengthHint() < CompileThresholdSize {
		return
	}

	start := time.Now()
	compiled, err := compile(it.pipeline)
	metrics.ObserveCompile(time.Since(start), err)
	if err != nil {
		it.state = stateErrored
		it.lastErr = &ConfigError{Err: err}
		return
	}
	it.compiled = compiled
}

// Next implements the standard pull-one protocol (§4.3, §4.6): it
// returns ErrExhausted once the stream is drained. Exhausted and
// Errored are sticky; repeated calls after either do no further work.
func (it *Iterator) Next() (any, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	switch it.state {
	case stateExhausted:
		return nil, ErrExhausted
	case stateErrored:
		return nil, it.lastErr
	}

	if it.state == stateFresh {
		it.state = stateStreaming
		metrics.IteratorOpened()
		it.decideDispatch()
		if it.state == stateErrored {
			err := it.lastErr
			metrics.IteratorClosed()
			it.destroyLocked()
			return nil, err
		}
	}

	backend := "interpreted"
	var v any
	var err error
	if it.compiled != nil {
		backend = "compiled"
		v, err = it.compiled.next(it.pipeline)
	} else {
		v, err = pullOne(it.pipeline)
	}

	switch {
	case err == ErrExhausted:
		it.state = stateExhausted
		metrics.ObservePull(backend, "exhausted")
		metrics.IteratorClosed()
		it.destroyLocked()
		return nil, ErrExhausted
	case err != nil:
		it.state = stateErrored
		it.lastErr = err
		metrics.ObservePull(backend, "error")
		metrics.IteratorClosed()
		it.destroyLocked()
		return nil, err
	default:
		metrics.ObservePull(backend, "value")
		return v, nil
	}
}

// ToList materializes the iterator (§4.4, §6.3 "to_list"): semantics
// identical to repeatedly calling Next, but without per-element
// dispatch-state bookkeeping.
func (it *Iterator) ToList() ([]any, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	switch it.state {
	case stateExhausted:
		return nil, nil
	case stateErrored:
		return nil, it.lastErr
	}

	if it.state == stateFresh {
		it.state = stateStreaming
		metrics.IteratorOpened()
		it.decideDispatch()
		if it.state == stateErrored {
			err := it.lastErr
			metrics.IteratorClosed()
			it.destroyLocked()
			return nil, err
		}
	}

	backend := "interpreted"
	var out []any
	var err error
	if it.compiled != nil {
		backend = "compiled"
		out, err = it.compiled.all(it.pipeline)
	} else {
		out, err = pullAll(it.pipeline)
	}

	if err != nil {
		it.state = stateErrored
		it.lastErr = err
		metrics.ObservePull(backend, "error")
		metrics.IteratorClosed()
		it.destroyLocked()
		return nil, err
	}
	it.state = stateExhausted
	metrics.ObservePull(backend, "exhausted")
	metrics.IteratorClosed()
	it.destroyLocked()
	return out, nil
}

// Steps returns a snapshot sequence of (kind_name, callable) pairs
// (§6.3). Later fusions via further chaining off this Iterator are not
// reflected, since this Iterator's own pipeline is immutable after
// construction (§3 invariant 4).
func (it *Iterator) Steps() []StepSnapshot {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.pipeline.snapshot()
}

// Close releases the iterator's pipeline early, without waiting for the
// stream to be pulled to exhaustion or for the garbage collector to
// reclaim it. Safe to call more than once.
func (it *Iterator) Close() {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.state == stateExhausted || it.state == stateErrored {
		return
	}
	if it.state == stateStreaming {
		metrics.IteratorClosed()
	}
	it.state = stateExhausted
	it.destroyLocked()
}

func (it *Iterator) destroyLocked() {
	if it.pipeline != nil {
		it.pipeline.destroy()
	}
	if it.compiled != nil {
		it.compiled.release()
		it.compiled = nil
	}
}
