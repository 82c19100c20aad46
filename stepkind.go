package stream

// StepKind tags a StepNode as a Map or a Filter (spec.md §3). Ordering
// matters: Map = 0, Filter = 1, so the tag can serve as a dense index;
// the interpreter and the compiled path in jit.go compare it directly
// against KindMap rather than indexing by it.
type StepKind int

const (
	// KindMap applies a callable and keeps its result.
	KindMap StepKind = iota
	// KindFilter applies a predicate and keeps the original element
	// only if the predicate's result is truthy.
	KindFilter
)

// String returns the literal "map" or "filter", matching the kind_name
// contract of Iterator.Steps (spec.md §6.3).
func (k StepKind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindFilter:
		return "filter"
	default:
		return "unknown"
	}
}
