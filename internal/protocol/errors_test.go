package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrWorldBusy,
		ErrBadRequest,
		ErrNoResource,
		ErrInvalidTarget,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestIsKnownAction(t *testing.T) {
	for _, a := range []string{ActOpen, ActClose, ActCollect, ActDeposit} {
		if !IsKnownAction(a) {
			t.Fatalf("expected known action: %q", a)
		}
	}
	if IsKnownAction("TELEPORT") {
		t.Fatalf("expected unknown action rejected")
	}
}
