package stream

import (
	"errors"
	"testing"
)

func identity(x any) (any, error) { return x, nil }

func TestStepNodeApplyMap(t *testing.T) {
	n := newStepNode(func(x any) (any, error) {
		return x.(int) + 1, nil
	}, KindMap)
	defer n.destroy()

	got, err := n.apply(41)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.(int) != 42 {
		t.Fatalf("got %v, want 42", got)
	}
}

func TestStepNodeApplyWrapsCallableError(t *testing.T) {
	boom := errors.New("boom")
	n := newStepNode(func(any) (any, error) { return nil, boom }, KindFilter)
	defer n.destroy()

	_, err := n.apply(1)
	var ce *CallableError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CallableError, got %T (%v)", err, err)
	}
	if ce.Step != KindFilter {
		t.Fatalf("expected KindFilter, got %v", ce.Step)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestStepNodeCloneSharesCallable(t *testing.T) {
	n := newStepNode(identity, KindMap)
	defer n.destroy()

	c := n.clone()
	defer c.destroy()

	if c.kind != n.kind {
		t.Fatalf("clone kind mismatch")
	}
	if c.callableFunc() == nil {
		t.Fatalf("clone lost its callable")
	}
}

func TestStepNodeReplaceCallable(t *testing.T) {
	n := newStepNode(identity, KindMap)
	defer n.destroy()

	n.replaceCallable(func(x any) (any, error) { return x.(int) * 2, nil })
	got, err := n.apply(21)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.(int) != 42 {
		t.Fatalf("got %v, want 42", got)
	}
}

func TestStepKindString(t *testing.T) {
	cases := map[StepKind]string{KindMap: "map", KindFilter: "filter"}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("StepKind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
