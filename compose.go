package stream

// Composer merges two callables into one equivalent callable — the
// external "compose" collaborator of spec.md §6.2. The core depends
// only on this interface; Pipeline construction demotes any Compose
// failure to a non-fatal fallback (append instead of fuse, §4.2), so
// any implementation, including one that always fails, is safe to
// plug in.
type Composer interface {
	// Compose returns a callable equivalent to x -> outer(inner(x)).
	Compose(outer, inner Callable) (Callable, error)
}

// funcComposer is the default Composer: ordinary Go closure
// composition. It never fails, but still satisfies Composer's error
// return so tests can inject a Composer that always errors to exercise
// the fusion-fallback path (spec.md §8 property 2).
type funcComposer struct{}

func (funcComposer) Compose(outer, inner Callable) (Callable, error) {
	return func(x any) (any, error) {
		v, err := inner(x)
		if err != nil {
			return nil, err
		}
		return outer(v)
	}, nil
}

// DefaultComposer is the Composer a fresh pipeline uses when
// WithComposer is not supplied to Map/Filter. A call that extends an
// existing Iterator without WithComposer inherits that Iterator's
// Composer instead.
var DefaultComposer Composer = funcComposer{}
