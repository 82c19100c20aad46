package stream

import "github.com/example/streamfusion/pkg/metrics"

// Compile-time thresholds for the JIT dispatcher's first_next decision
// (spec.md §4.5). A pipeline is only ever compiled once it has enough
// steps and its source reports enough length to amortize compilation.
const (
	CompileThresholdSteps = 10
	CompileThresholdSize  = 50_000_000
)

// CompiledNext is the JIT backend's lowered form of a Pipeline (§3,
// §4.5): a specialized function built once from a snapshot of the step
// vector, plus the pinned callable handles that function closes over.
//
// This module's dependency set has no cgo-free access to a native
// code-generation backend (no Cranelift/LLVM-style binding appears
// anywhere in the retrieval pack — see DESIGN.md), so CompiledNext
// emits no machine code. compile snapshots the step kinds and extracts
// each step's Go callable once, and the resulting closure runs
// compiledNextElement over those slices. compiledNextElement still
// branches on StepKind for every step of every element, exactly as the
// interpreter does; what it saves is the per-step Handle lookup and
// callable type assertion that StepNode.apply performs. Observable
// behavior matches §4.3.
//
// CompiledNext is non-copyable in spirit: callers must only reach it
// through Iterator, which never copies it after compile returns.
type CompiledNext struct {
	pinned []Handle
	fn     func(*Pipeline) (any, error)
	allFn  func(*Pipeline) ([]any, error)
}

// compile builds a CompiledNext from a snapshot of p's step vector,
// pinning each callable by acquiring an additional reference. Compiling
// never mutates p (§3 invariant 4).
func compile(p *Pipeline) (*CompiledNext, error) {
	if len(p.steps) == 0 {
		return nil, errEmptyPipeline
	}

	pinned := make([]Handle, len(p.steps))
	kinds := make([]StepKind, len(p.steps))
	fns := make([]Callable, len(p.steps))
	for i, s := range p.steps {
		pinned[i] = s.callable.Retain()
		kinds[i] = s.kind
		fns[i] = s.callableFunc()
	}

	next := func(pp *Pipeline) (any, error) {
		return compiledNextElement(pp, kinds, fns)
	}
	all := func(pp *Pipeline) ([]any, error) {
		var out []any
		for {
			v, err := next(pp)
			if err == ErrExhausted {
				return out, nil
			}
			if err != nil {
				for _, item := range out {
					release(item)
				}
				return nil, err
			}
			out = append(out, v)
		}
	}

	return &CompiledNext{pinned: pinned, fn: next, allFn: all}, nil
}

// compiledNextElement implements the lowering contract of §4.5: a
// straight-line chain with a backward edge only on filter-drop,
// operating directly against the pinned callables and the pipeline's
// source. Its observable behavior matches pullOne element-for-element,
// including error points (§8 property 5).
func compiledNextElement(p *Pipeline, kinds []StepKind, fns []Callable) (any, error) {
nextElement:
	for {
		element, err := p.next()
		if err != nil {
			if err == ErrExhausted {
				return nil, ErrExhausted
			}
			return nil, &SourceError{Err: err}
		}

		for i, kind := range kinds {
			applied, err := fns[i](element)
			if err != nil {
				release(element)
				return nil, &CallableError{Step: kind, Err: err}
			}

			if kind == KindMap {
				release(element)
				element = applied
				continue
			}

			notTruthy, terr := truthyNot(applied)
			release(applied)
			if terr != nil {
				release(element)
				return nil, &TruthinessError{Err: terr}
			}
			if notTruthy {
				release(element)
				metrics.ObserveFilterReject()
				continue nextElement
			}
		}
		return element, nil
	}
}

func (c *CompiledNext) next(p *Pipeline) (any, error)  { return c.fn(p) }
func (c *CompiledNext) all(p *Pipeline) ([]any, error) { return c.allFn(p) }

// release frees the compiled function's pinned references (§4.5
// "CompiledNext lifecycle"). There is no separate native-code resource
// to free in this Go rendition beyond the pinned handles.
func (c *CompiledNext) release() {
	if c == nil {
		return
	}
	for i := range c.pinned {
		c.pinned[i].Release()
	}
	c.pinned = nil
}
