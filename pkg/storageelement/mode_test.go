package storageelement

import "testing"

func TestPermitsPerMode(t *testing.T) {
	cases := []struct {
		mode Mode
		op   Operation
		want bool
	}{
		{ModeEdit, OpCreate, true},
		{ModeEdit, OpDelete, true},
		{ModeRW, OpCreate, true},
		{ModeRW, OpDelete, false},
		{ModeRO, OpRead, true},
		{ModeRO, OpCreate, false},
		{ModeAR, OpRead, true},
		{ModeAR, OpUpdateMetadata, true},
		{ModeAR, OpCreate, false},
	}
	for _, tc := range cases {
		if got := Permits(tc.mode, tc.op); got != tc.want {
			t.Errorf("Permits(%s, %s) = %v, want %v", tc.mode, tc.op, got, tc.want)
		}
	}
}

func TestCanTransitionTo(t *testing.T) {
	if !CanTransitionTo(ModeRW, ModeRO) {
		t.Error("expected RW -> RO to be allowed")
	}
	if !CanTransitionTo(ModeRO, ModeAR) {
		t.Error("expected RO -> AR to be allowed")
	}
	if CanTransitionTo(ModeAR, ModeRW) {
		t.Error("expected AR -> RW to be rejected, AR is terminal")
	}
	if CanTransitionTo(ModeEdit, ModeRO) {
		t.Error("expected EDIT -> RO to be rejected, EDIT changes only via operator restart")
	}
}

func TestModeControllerTransition(t *testing.T) {
	c := NewModeController(ModeRW)
	if c.Current() != ModeRW {
		t.Fatalf("expected initial mode RW, got %s", c.Current())
	}

	transition, err := c.Transition(ModeRO, "capacity warning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transition.From != ModeRW || transition.To != ModeRO {
		t.Errorf("unexpected transition record: %+v", transition)
	}
	if c.Current() != ModeRO {
		t.Fatalf("expected current mode RO, got %s", c.Current())
	}

	if _, err := c.Transition(ModeRW, "revert"); err != ErrInvalidModeTransition {
		t.Errorf("expected ErrInvalidModeTransition reverting RO -> RW, got %v", err)
	}

	history := c.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 recorded transition, got %d", len(history))
	}
}

func TestModeControllerHistoryIsACopy(t *testing.T) {
	c := NewModeController(ModeRW)
	c.Transition(ModeRO, "first")

	history := c.History()
	history[0].Reason = "tampered"

	if c.History()[0].Reason != "first" {
		t.Error("expected History() to return a defensive copy")
	}
}
