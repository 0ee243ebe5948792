package pheromone

import (
	"math/rand"
	"testing"

	"mazeswarm/internal/grid"
	"mazeswarm/internal/worldmap"
)

func newMap(t *testing.T, max float32, landmarks ...grid.Node) *worldmap.Map {
	t.Helper()
	m, err := worldmap.New(grid.Bounds{Width: 3, Height: 3}, grid.Four, max, landmarks...)
	if err != nil {
		t.Fatalf("new map: %v", err)
	}
	return m
}

func TestDepositProportionalToUnexplored(t *testing.T) {
	m := newMap(t, 100)
	p := DefaultParams()
	p.TrailDecay = 0
	n := grid.Node{X: 1, Y: 1}
	carried := UpdatePheromoneLevels(m, n, p, 3, 0.5)
	if got := m.Cell(n).Pheromone(); got != 3.5 {
		t.Fatalf("pheromone = %f, want 3.5", got)
	}
	if carried != p.TrailRefill {
		t.Fatalf("carried = %f, want refill %f", carried, p.TrailRefill)
	}
}

func TestExploredNodeIsNotReinforced(t *testing.T) {
	m := newMap(t, 100)
	p := DefaultParams()
	n := grid.Node{X: 0, Y: 2}
	carried := UpdatePheromoneLevels(m, n, p, 0, 0.5)
	if got := m.Cell(n).Pheromone(); got != 0 {
		t.Fatalf("explored node received %f", got)
	}
	if m.Cell(n).Revisits() != 1 {
		t.Fatal("expected a recorded revisit")
	}
	if carried >= 0.5 {
		t.Fatalf("carried charge should dissolve per square, got %f", carried)
	}
}

func TestDepositAtMaxSaturates(t *testing.T) {
	m := newMap(t, 4)
	n := grid.Node{X: 2, Y: 2}
	m.Deposit(n, 4)
	UpdatePheromoneLevels(m, n, DefaultParams(), 2, 0)
	if got := m.Cell(n).Pheromone(); got != 4 {
		t.Fatalf("expected saturation at 4, got %f", got)
	}
}

func TestDepositsCommuteUnderReordering(t *testing.T) {
	unexplored := []int{1, 3, 2, 4, 1, 1, 2}
	p := DefaultParams()
	p.TrailDecay = 0
	final := func(order []int) float32 {
		m := newMap(t, 9)
		for _, i := range order {
			UpdatePheromoneLevels(m, grid.Node{}, p, unexplored[i], 0)
		}
		return m.Cell(grid.Node{}).Pheromone()
	}
	rng := rand.New(rand.NewSource(3))
	want := final(rng.Perm(len(unexplored)))
	for i := 0; i < 10; i++ {
		if got := final(rng.Perm(len(unexplored))); got != want {
			t.Fatalf("order changed result: %f vs %f", got, want)
		}
	}
}

func TestUpdateNodeStatus(t *testing.T) {
	start := grid.Node{X: 0, Y: 0}
	m := newMap(t, 1, start)
	n := grid.Node{X: 1, Y: 1}
	UpdateNodeStatus(m, n, 3, 2)
	if got := m.Cell(n).Status(); got != worldmap.Partial {
		t.Fatalf("status = %s", got)
	}
	UpdateNodeStatus(m, n, 3, 0)
	if got := m.Cell(n).Status(); got != worldmap.Explored {
		t.Fatalf("status = %s", got)
	}
	UpdateNodeStatus(m, n, 3, 5)
	if got := m.Cell(n).Status(); got != worldmap.Explored {
		t.Fatalf("status moved backward to %s", got)
	}

	tip := grid.Node{X: 2, Y: 0}
	if !UpdateNodeStatus(m, tip, 1, 0) || !m.Cell(tip).Deadend() {
		t.Fatal("expected single-passage node to become a dead end")
	}
	if UpdateNodeStatus(m, start, 1, 0) || m.Cell(start).Deadend() {
		t.Fatal("start must never become a dead end")
	}
}

func TestDissolvePolicies(t *testing.T) {
	a, b := grid.Node{X: 0, Y: 1}, grid.Node{X: 1, Y: 1}
	tests := []struct {
		name   string
		policy DecayPolicy
		wantA  float32
		wantB  float32
	}{
		{name: "passive", policy: DecayPassive, wantA: 0.75, wantB: 0.75},
		{name: "on visit", policy: DecayOnVisit, wantA: 0.5, wantB: 1},
		{name: "none", policy: DecayNone, wantA: 1, wantB: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMap(t, 10)
			m.Deposit(a, 1)
			m.Deposit(b, 1)
			m.RecordRevisit(a)
			m.RecordRevisit(a)
			Dissolve(m, Params{Policy: tt.policy, Rate: 0.25})
			if got := m.Cell(a).Pheromone(); got != tt.wantA {
				t.Fatalf("a = %f, want %f", got, tt.wantA)
			}
			if got := m.Cell(b).Pheromone(); got != tt.wantB {
				t.Fatalf("b = %f, want %f", got, tt.wantB)
			}
		})
	}
}

func TestParseDecayPolicy(t *testing.T) {
	for in, want := range map[string]DecayPolicy{"passive": DecayPassive, "On-Visit": DecayOnVisit, "none": DecayNone} {
		got, err := ParseDecayPolicy(in)
		if err != nil || got != want {
			t.Fatalf("parse %q = %v, %v", in, got, err)
		}
	}
	if _, err := ParseDecayPolicy("sometimes"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestStatusNeverSkipsPartial(t *testing.T) {
	m := newMap(t, 1)
	n := grid.Node{X: 1, Y: 1}
	UpdateNodeStatus(m, n, 2, 0)
	if got := m.Cell(n).Status(); got != worldmap.Partial {
		t.Fatalf("first visit status = %s, want partial", got)
	}
	UpdateNodeStatus(m, n, 2, 0)
	if got := m.Cell(n).Status(); got != worldmap.Explored {
		t.Fatalf("second visit status = %s, want explored", got)
	}
}

func TestEveryArrivalLaysMarker(t *testing.T) {
	m := newMap(t, 10)
	p := DefaultParams()
	n := grid.Node{X: 1, Y: 0}
	UpdatePheromoneLevels(m, n, p, 2, 0)
	UpdatePheromoneLevels(m, n, p, 0, 0)
	if got := m.Cell(n).Marker(); got != 2*p.MarkerDeposit {
		t.Fatalf("marker = %f, want %f", got, 2*p.MarkerDeposit)
	}

	Dissolve(m, Params{Policy: DecayPassive, Rate: 0.5, MarkerRate: 0.25})
	if got := m.Cell(n).Marker(); got != 1.75 {
		t.Fatalf("marker after dissolve = %f, want 1.75", got)
	}
	if got := m.Cell(n).Pheromone(); got != 1.5 {
		t.Fatalf("attractant after dissolve = %f, want 1.5", got)
	}
}
