package stream

import (
	"errors"
	"testing"
)

func toList(t *testing.T, it *Iterator) []any {
	t.Helper()
	out, err := it.ToList()
	if err != nil {
		t.Fatalf("ToList: %v", err)
	}
	return out
}

func ints(vs ...any) []int {
	out := make([]int, len(vs))
	for i, v := range vs {
		out[i] = v.(int)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// S1: map(x+1, [1,2,3,4]).
func TestScenarioS1(t *testing.T) {
	it, err := Map(addN(1), []int{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	got := ints(toList(t, it)...)
	if !equalInts(got, []int{2, 3, 4, 5}) {
		t.Fatalf("got %v", got)
	}
}

// S2: filter(x>2, [1,2,3,4]).
func TestScenarioS2(t *testing.T) {
	it, err := Filter(gt(2), []int{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	got := ints(toList(t, it)...)
	if !equalInts(got, []int{3, 4}) {
		t.Fatalf("got %v", got)
	}
	steps := it.Steps()
	if len(steps) != 1 || steps[0].Kind != "filter" {
		t.Fatalf("steps = %+v", steps)
	}
}

// S3: map(f, filter(p, [1,2,3,4])).
func TestScenarioS3(t *testing.T) {
	filtered, err := Filter(gt(2), []int{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	mapped, err := Map(addN(1), filtered)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	got := ints(toList(t, mapped)...)
	if !equalInts(got, []int{4, 5}) {
		t.Fatalf("got %v", got)
	}

	steps := mapped.Steps()
	if len(steps) != 2 || steps[0].Kind != "filter" || steps[1].Kind != "map" {
		t.Fatalf("steps = %+v", steps)
	}
}

// S4: map(x+1, map(x*2, [1,2,3,4])) — fuses to one Map step.
func TestScenarioS4Fused(t *testing.T) {
	inner, err := Map(func(x any) (any, error) { return x.(int) * 2, nil }, []int{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	outer, err := Map(addN(1), inner)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	got := ints(toList(t, outer)...)
	if !equalInts(got, []int{3, 5, 7, 9}) {
		t.Fatalf("got %v", got)
	}
	if steps := outer.Steps(); len(steps) != 1 {
		t.Fatalf("expected fusion to produce exactly 1 Map step, got %d: %+v", len(steps), steps)
	}
}

// S4 variant: same chain with a Composer that always fails — fusion
// transparency (§8 property 2): still correct, just 2 Map steps.
func TestScenarioS4ComposeFailureStillCorrect(t *testing.T) {
	inner, err := Map(func(x any) (any, error) { return x.(int) * 2, nil }, []int{1, 2, 3, 4}, WithComposer(failingComposer{}))
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	outer, err := Map(addN(1), inner)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	got := ints(toList(t, outer)...)
	if !equalInts(got, []int{3, 5, 7, 9}) {
		t.Fatalf("got %v", got)
	}
	if steps := outer.Steps(); len(steps) != 2 {
		t.Fatalf("expected 2 Map steps when compose fails, got %d", len(steps))
	}
}

// S5: map(f, [1,2,3]) with f raising on input 2.
func TestScenarioS5(t *testing.T) {
	it, err := Map(func(x any) (any, error) {
		if x.(int) == 2 {
			return nil, errBoom
		}
		return x.(int) + 1, nil
	}, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	first, err := it.Next()
	if err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if first.(int) != 2 {
		t.Fatalf("first = %v, want 2", first)
	}

	_, err = it.Next()
	var ce *CallableError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CallableError, got %T (%v)", err, err)
	}

	// Errored is sticky: further pulls return the same error without
	// doing more work.
	_, err2 := it.Next()
	if err2 != err && err2.Error() != err.Error() {
		t.Fatalf("expected sticky error, got %v then %v", err, err2)
	}
}

func TestMapRejectsNilCallableAndSource(t *testing.T) {
	if _, err := Map(nil, []int{1}); err == nil {
		t.Fatalf("expected ArgumentError for nil callable")
	}
	if _, err := Map(identity, nil); err == nil {
		t.Fatalf("expected ArgumentError for nil source")
	}
}

func TestStepsIsIdempotentSnapshot(t *testing.T) {
	it, err := Map(addN(1), []int{1, 2, 3})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	a := it.Steps()
	b := it.Steps()
	if len(a) != len(b) || len(a) != 1 {
		t.Fatalf("steps mismatch: %+v vs %+v", a, b)
	}
	if a[0].Kind != "map" || b[0].Kind != "map" {
		t.Fatalf("kind_name must be the literal \"map\"")
	}
}

func TestExhaustedStateIsSticky(t *testing.T) {
	it, err := Map(identity, []int{1})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if _, err := it.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if _, err := it.Next(); err != ErrExhausted {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if _, err := it.Next(); err != ErrExhausted {
		t.Fatalf("expected ErrExhausted to stick, got %v", err)
	}
}
