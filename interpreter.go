package stream

import "github.com/example/streamfusion/pkg/metrics"

// pullOne executes the pipeline's pull-one semantics (spec.md §4.3):
// draw elements from the source until one survives every step, applying
// steps in application order. Each step is invoked at most once per
// element that reaches it; a filter that drops an element stops
// downstream steps from running on it. On any error, every
// currently-held handle is released before returning.
func pullOne(p *Pipeline) (any, error) {
	for {
		element, err := p.next()
		if err != nil {
			if err == ErrExhausted {
				return nil, ErrExhausted
			}
			return nil, &SourceError{Err: err}
		}

		dropped := false
		for _, step := range p.steps {
			applied, err := step.apply(element)
			if err != nil {
				release(element)
				return nil, err
			}

			if step.kind == KindMap {
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
				dropped = true
				metrics.ObserveFilterReject()
				break
			}
			// keep: continue to the next step with the original element.
		}

		if dropped {
			continue
		}
		return element, nil
	}
}

// pullAll materializes the pipeline (§4.4): semantics identical to
// repeated pull-one, accumulated into a slice. On a mid-stream error,
// every value already accumulated is released before the error is
// returned.
func pullAll(p *Pipeline) ([]any, error) {
	var out []any
	for {
		v, err := pullOne(p)
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
