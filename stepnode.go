package stream

// StepNode is a single map-or-filter record: a kind tag plus an owned
// callable handle (spec.md §3, §4.1).
//
// Invariant: callable is a valid, owned handle to a host callable for
// as long as the node exists; ownership is released on destroy. A
// StepNode is never mutated except by replaceCallable, which fusion
// uses to rewrite the last node of a tail pipeline in place (§4.2).
type StepNode struct {
	kind     StepKind
	callable Handle
}

// newStepNode acquires a reference to callable and stores kind.
func newStepNode(callable Callable, kind StepKind) StepNode {
	return StepNode{kind: kind, callable: newHandle(callable)}
}

// clone returns a StepNode holding an additional reference to the same
// callable: "exactly one net acquisition per live copy" (§4.1).
func (n StepNode) clone() StepNode {
	return StepNode{kind: n.kind, callable: n.callable.Retain()}
}

// callableFunc returns the underlying Go callable, or nil if the node
// has been destroyed.
func (n StepNode) callableFunc() Callable {
	fn, _ := n.callable.Value().(Callable)
	return fn
}

// apply calls callable(element) via the Host API's call_one primitive,
// returning a new owned value or a CallableError.
func (n StepNode) apply(element any) (any, error) {
	fn := n.callableFunc()
	if fn == nil {
		return nil, &CallableError{Step: n.kind, Err: errNilCallable}
	}
	v, err := fn(element)
	if err != nil {
		return nil, &CallableError{Step: n.kind, Err: err}
	}
	return v, nil
}

// replaceCallable releases the current callable and acquires
// newCallable. Used only by map-over-map fusion (§4.2).
func (n *StepNode) replaceCallable(newCallable Callable) {
	n.callable.Release()
	n.callable = newHandle(newCallable)
}

// destroy releases the callable.
func (n *StepNode) destroy() {
	n.callable.Release()
}
