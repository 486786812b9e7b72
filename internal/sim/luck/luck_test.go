package luck

import "testing"

func TestDeterministic_SameKeySameValue(t *testing.T) {
	a := NewDeterministic(42)
	b := NewDeterministic(42)
	for i := -3; i < 3; i++ {
		for j := -3; j < 3; j++ {
			x := a.Draw(i, j, "spawn")
			y := b.Draw(i, j, "spawn")
			if x != y {
				t.Fatalf("draw mismatch at %d,%d: %v vs %v", i, j, x, y)
			}
			if x < 0 || x >= 1 {
				t.Fatalf("draw out of range at %d,%d: %v", i, j, x)
			}
		}
	}
}

func TestDeterministic_KeyAndSeedMatter(t *testing.T) {
	d := NewDeterministic(1)
	if d.Draw(0, 0, "spawn") == d.Draw(0, 0, "coins") {
		t.Fatalf("expected purpose tag to change the draw")
	}
	if Draw(1, 5, 5) == Draw(2, 5, 5) {
		t.Fatalf("expected seed to change the draw")
	}
}

func TestBytesToFloat(t *testing.T) {
	if got := bytesToFloat([4]byte{0, 0, 0, 0}); got != 0 {
		t.Fatalf("zero bytes: got %v", got)
	}
	if got := bytesToFloat([4]byte{128, 0, 0, 0}); got != 0.5 {
		t.Fatalf("half: got %v", got)
	}
	if got := bytesToFloat([4]byte{255, 255, 255, 255}); got >= 1 {
		t.Fatalf("max bytes must stay below 1: got %v", got)
	}
}

func TestInt_Range(t *testing.T) {
	src := NewDeterministic(7)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		n := Int(src, 1, 6, i)
		if n < 1 || n > 6 {
			t.Fatalf("Int out of range: %d", n)
		}
		seen[n] = true
	}
	if len(seen) != 6 {
		t.Fatalf("expected all six values, saw %v", seen)
	}
	if n := Int(src, 3, 3, "x"); n != 3 {
		t.Fatalf("degenerate range: got %d", n)
	}
}

func TestKey(t *testing.T) {
	if got := Key(-1, 2, "spawn"); got != "-1:2:spawn" {
		t.Fatalf("Key: got %q", got)
	}
	if got := Key(int64(3), 0.5); got != "3:0.5" {
		t.Fatalf("Key: got %q", got)
	}
}

func TestNew_Modes(t *testing.T) {
	if _, err := New("", 1); err != nil {
		t.Fatalf("default mode: %v", err)
	}
	src, err := New("random", 99)
	if err != nil {
		t.Fatalf("random mode: %v", err)
	}
	if v := src.Draw(); v < 0 || v >= 1 {
		t.Fatalf("random draw out of range: %v", v)
	}
	if _, err := New("dice", 1); err == nil {
		t.Fatalf("expected unknown mode rejected")
	}
}
