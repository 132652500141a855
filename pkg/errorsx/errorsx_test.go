package errorsx

import "testing"

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonProtocol)
	if Reason(err) != ReasonProtocol {
		t.Fatalf("expected reason %s, got %s", ReasonProtocol, Reason(err))
	}
	if !HasReason(err, ReasonProtocol) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonFrameTooShort)
	second := Wrap(first, ReasonProtocol)
	if Reason(second) != ReasonFrameTooShort {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
