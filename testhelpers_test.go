package stream

import (
	"errors"
	"reflect"
	"sync/atomic"
)

var errBoom = errors.New("boom")

// countedElement is a host value that tracks its own release count, used
// to assert the reference-conservation property (spec.md §8 property 4):
// every value produced by the source is either returned to the caller
// or released exactly once before an error return.
type countedElement struct {
	n        int
	released *int32
}

func (c countedElement) Release() { atomic.AddInt32(c.released, 1) }
func (c countedElement) Acquire() {}

// sliceSourceOf builds a []any of countedElement values sharing one
// release counter, plus a function to read how many have been released
// so far.
func sliceSourceOf(values ...int) ([]any, *int32) {
	var released int32
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = countedElement{n: v, released: &released}
	}
	return out, &released
}

// failingIterator returns an error (not ErrExhausted) from its second
// call onward, to test SourceError propagation.
type failingIterator struct {
	calls int
	err   error
}

func (f *failingIterator) Next() (any, error) {
	f.calls++
	if f.calls == 1 {
		return 1, nil
	}
	return nil, f.err
}

type failingIterable struct{ it *failingIterator }

func (f failingIterable) Iterate() (HostIterator, error) { return f.it, nil }

// countingIterator tracks Acquire/Release calls on itself (as the
// pipeline's source handle) to verify Pipeline/Iterator lifecycle
// bookkeeping, and serves int values from a backing slice.
type countingIterator struct {
	values   []int
	i        int
	acquires int32
	releases int32
}

func (c *countingIterator) Next() (any, error) {
	if c.i >= len(c.values) {
		return nil, ErrExhausted
	}
	v := c.values[c.i]
	c.i++
	return v, nil
}

func (c *countingIterator) Acquire() { atomic.AddInt32(&c.acquires, 1) }
func (c *countingIterator) Release() { atomic.AddInt32(&c.releases, 1) }

func (c *countingIterator) LengthHint() int {
	if c.i >= len(c.values) {
		return 0
	}
	return len(c.values) - c.i
}

type countingIterable struct{ it *countingIterator }

func (c countingIterable) Iterate() (HostIterator, error) { return c.it, nil }

// rvOf and sliceIterableFrom let tests build a sliceIterator/Iterable
// directly from a pre-populated []any of countedElement values, so the
// reflect-based production path (asIterable) is exercised end to end
// even when the slice holds refcount-tracking test values instead of
// plain ints.
func rvOf(values []any) reflect.Value { return reflect.ValueOf(values) }

type fixedIterable struct{ it HostIterator }

func (f fixedIterable) Iterate() (HostIterator, error) { return f.it, nil }

func sliceIterableFrom(it HostIterator) Iterable { return fixedIterable{it: it} }

func atomicLoad(p *int32) int32 { return atomic.LoadInt32(p) }

// hintedIterator wraps a small backing slice but reports a caller-fixed
// LengthHint, letting tests drive the JIT threshold decision (§4.5)
// without actually iterating hundreds of millions of elements.
type hintedIterator struct {
	values []int
	i      int
	hint   int
}

func (h *hintedIterator) Next() (any, error) {
	if h.i >= len(h.values) {
		return nil, ErrExhausted
	}
	v := h.values[h.i]
	h.i++
	return v, nil
}

func (h *hintedIterator) LengthHint() int { return h.hint }

type hintedIterable struct{ it *hintedIterator }

func (h hintedIterable) Iterate() (HostIterator, error) { return h.it, nil }
