package stream

import (
	"errors"
	"reflect"
)

// Iterable is any host-runtime value that can produce a HostIterator —
// the Host API's get_iterator operation (spec.md §6.1).
type Iterable interface {
	Iterate() (HostIterator, error)
}

// HostIterator is the Host API's iterator_next / advance primitive
// (§6.1). Next returns ErrExhausted to signal a clean end of stream,
// and any other error is propagated as a SourceError.
type HostIterator interface {
	Next() (any, error)
}

// LengthHinter is optionally implemented by a HostIterator to back the
// JIT dispatcher's length_hint heuristic (§4.5, §6.1). Iterators that
// don't implement it report a hint of 0, which never triggers
// compilation on size alone.
type LengthHinter interface {
	LengthHint() int
}

// Truther lets a host value customize truthiness testing — the Host
// API's truthiness_not primitive (§6.1). Values that don't implement it
// fall back to Go's own truthy/falsy convention (see defaultTruthy).
type Truther interface {
	Truthy() (bool, error)
}

// Callable is the Host API's call_one primitive (§6.1): invoke a host
// callable with one argument, returning a newly owned value or an
// error.
type Callable func(arg any) (any, error)

var errUnsupportedSource = errors.New("source does not implement Iterable and is not a slice, array, or channel")

// asIterable adapts an arbitrary Go value into an Iterable — the Host
// API's get_iterator operation (§6.1) — for the shapes a Go caller
// typically hands to Map/Filter: something that already implements
// Iterable, a slice/array, or a receive channel.
//
// No example repo in the retrieval pack ships a generic "make any slice
// or channel iterable" helper, so this one spot in the core reaches for
// the standard reflect package rather than a third-party one; see
// DESIGN.md.
func asIterable(v any) (Iterable, error) {
	if it, ok := v.(Iterable); ok {
		return it, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return &sliceIterable{rv: rv}, nil
	case reflect.Chan:
		return &chanIterable{rv: rv}, nil
	default:
		return nil, &ArgumentError{Message: errUnsupportedSource.Error()}
	}
}

type sliceIterable struct{ rv reflect.Value }

func (s *sliceIterable) Iterate() (HostIterator, error) {
	return &sliceIterator{rv: s.rv, n: s.rv.Len()}, nil
}

type sliceIterator struct {
	rv reflect.Value
	i  int
	n  int
}

func (s *sliceIterator) Next() (any, error) {
	if s.i >= s.n {
		return nil, ErrExhausted
	}
	v := s.rv.Index(s.i).Interface()
	s.i++
	return v, nil
}

func (s *sliceIterator) LengthHint() int {
	if s.n-s.i < 0 {
		return 0
	}
	return s.n - s.i
}

type chanIterable struct{ rv reflect.Value }

func (c *chanIterable) Iterate() (HostIterator, error) {
	return &chanIterator{rv: c.rv}, nil
}

type chanIterator struct{ rv reflect.Value }

func (c *chanIterator) Next() (any, error) {
	v, ok := c.rv.Recv()
	if !ok {
		return nil, ErrExhausted
	}
	return v.Interface(), nil
}

// defaultTruthy implements Go's natural falsy set for values that don't
// implement Truther: nil, false, the zero value of numeric types, empty
// strings, and zero-length slices/maps/arrays are falsy; everything
// else — including structs and non-nil pointers — is truthy.
func defaultTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int8:
		return x != 0
	case int16:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint:
		return x != 0
	case uint8:
		return x != 0
	case uint16:
		return x != 0
	case uint32:
		return x != 0
	case uint64:
		return x != 0
	case float32:
		return x != 0
	case float64:
		return x != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() != 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

// truthyNot mirrors the Host API's truthiness_not primitive (§6.1):
// returns true when applied is falsy (drop this element) and false
// when it is truthy (keep it).
func truthyNot(v any) (bool, error) {
	if t, ok := v.(Truther); ok {
		truthy, err := t.Truthy()
		if err != nil {
			return false, err
		}
		return !truthy, nil
	}
	return !defaultTruthy(v), nil
}
