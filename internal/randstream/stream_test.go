package randstream

import "testing"

func TestIndicesAreDisjointPerAgent(t *testing.T) {
	s, err := New(42, 3, 5)
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}
	seen := make(map[int]bool, s.Len())
	for a := 0; a < 3; a++ {
		for tick := 0; tick < 5; tick++ {
			i := s.Index(a, tick)
			if seen[i] {
				t.Fatalf("index %d reused by agent %d tick %d", i, a, tick)
			}
			seen[i] = true
		}
	}
	if len(seen) != s.Len() {
		t.Fatalf("covered %d of %d slots", len(seen), s.Len())
	}
}

func TestValuesInUnitRangeAndDeterministic(t *testing.T) {
	a, _ := New(7, 4, 10)
	b, _ := New(7, 4, 10)
	for agent := 0; agent < 4; agent++ {
		for tick := 0; tick < 25; tick++ {
			v := a.At(agent, tick)
			if v < 0 || v >= 1 {
				t.Fatalf("value %f out of range", v)
			}
			if v != b.At(agent, tick) {
				t.Fatal("same seed must give the same stream")
			}
		}
	}
	if a.At(9, 0) != 0 {
		t.Fatal("unknown agent must read zero")
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(1, 0, 3); err == nil {
		t.Fatal("expected error for zero agents")
	}
	if _, err := New(1, 2, 0); err == nil {
		t.Fatal("expected error for zero ticks")
	}
}
