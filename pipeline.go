package stream

import "github.com/example/streamfusion/pkg/metrics"

// Pipeline is an ordered sequence of StepNodes plus an owned upstream
// iterator handle (spec.md §3).
//
// Invariants, enforced by construction and never violated afterward:
//  1. len(steps) >= 1 once construction returns.
//  2. source is a valid, owned host iterator handle.
//  3. No two adjacent Map steps exist; any such adjacency is eliminated
//     eagerly by extendPipeline (§4.2). Filter-Filter and
//     Filter<->Map sequences are permitted and preserved verbatim.
//  4. steps is immutable after construction, except that the JIT
//     backend may read it to build a CompiledNext snapshot; compiling
//     never mutates the pipeline.
type Pipeline struct {
	steps      []StepNode
	source     Handle
	composer   Composer
	jitEnabled bool
}

// newPipeline builds a fresh, single-node pipeline over src (§4.2
// "Fresh pipeline").
func newPipeline(callable Callable, kind StepKind, src Iterable, composer Composer) (*Pipeline, error) {
	it, err := src.Iterate()
	if err != nil {
		return nil, &SourceError{Err: err}
	}
	return &Pipeline{
		steps:    []StepNode{newStepNode(callable, kind)},
		source:   newHandle(it),
		composer: composer,
	}, nil
}

// extendPipeline builds a new pipeline that extends tail with a step of
// the given kind, applying the map-over-map fusion rule (§4.2
// "Extension"):
//
//  1. Copy tail.steps and retain tail.source.
//  2. If kind == Map and the last copied node is also Map, attempt to
//     compose the new callable with the last node's callable. On
//     success, replace the last node's callable in place (same step
//     count as tail; do not append). On failure, fall through.
//  3. Otherwise, append a new StepNode.
//
// No fusion is performed across a filter boundary, nor between
// filters.
func extendPipeline(tail *Pipeline, callable Callable, kind StepKind) *Pipeline {
	steps := make([]StepNode, len(tail.steps))
	for i, s := range tail.steps {
		steps[i] = s.clone()
	}
	p := &Pipeline{
		steps:      steps,
		source:     tail.source.Retain(),
		composer:   tail.composer,
		jitEnabled: tail.jitEnabled,
	}

	if kind == KindMap && len(p.steps) > 0 {
		last := &p.steps[len(p.steps)-1]
		if last.kind == KindMap {
			if composed, err := p.composer.Compose(callable, last.callableFunc()); err == nil {
				last.replaceCallable(composed)
				metrics.ObserveFusion()
				return p
			}
			// compose failed: demote to the non-fatal fallback and
			// append instead of fusing (§4.2 step 3, §7).
			metrics.ObserveFusionFallback()
		}
	}

	p.steps = append(p.steps, newStepNode(callable, kind))
	return p
}

// next advances the pipeline's source iterator — the Host API's
// iterator_next primitive.
func (p *Pipeline) next() (any, error) {
	it, _ := p.source.Value().(HostIterator)
	if it == nil {
		return nil, errNilCallable
	}
	return it.Next()
}

// lengthHint returns the source's best-effort size estimate, used only
// by the JIT heuristic (§4.5, §6.1).
func (p *Pipeline) lengthHint() int {
	if lh, ok := p.source.Value().(LengthHinter); ok {
		return lh.LengthHint()
	}
	return 0
}

// destroy releases every owned handle: the source and every step's
// callable.
func (p *Pipeline) destroy() {
	p.source.Release()
	for i := range p.steps {
		p.steps[i].destroy()
	}
}

// StepSnapshot is one entry of Iterator.Steps(): a step's kind_name and
// its callable (spec.md §6.3).
type StepSnapshot struct {
	Kind     string
	Callable Callable
}

// snapshot returns a copy of the step sequence's (kind, callable) pairs.
func (p *Pipeline) snapshot() []StepSnapshot {
	out := make([]StepSnapshot, len(p.steps))
	for i, s := range p.steps {
		out[i] = StepSnapshot{Kind: s.kind.String(), Callable: s.callableFunc()}
	}
	return out
}
