package planner

import (
	"mazeswarm/internal/grid"
	"mazeswarm/internal/worldmap"
)

// Kind records which rule produced a choice.
type Kind uint8

const (
	None Kind = iota
	Explore
	Exploit
	Backtrack
)

func (k Kind) String() string {
	return [...]string{"none", "explore", "exploit", "backtrack"}[k]
}

// Policy weighs candidate directions during exploitation.
type Policy struct {
	SwampPenalty    float32
	ReversalPenalty float32
}

func DefaultPolicy() Policy {
	return Policy{SwampPenalty: 0.5, ReversalPenalty: 0.25}
}

type Choice struct {
	Direction grid.Direction
	Kind      Kind
}

// ChoosePassage picks the next direction from node.
//
// Unexplored open passages win first, and the random value only breaks a tie
// between equally attractive ones. Without them the open passage with the
// highest weighted pheromone is taken; the weight is the attractant
// discounted by the visit marker. When nothing is open the agent
// backtracks: the same weighting over every structurally passable direction,
// which at a dead-end tip is the reverse of the arrival direction. The bool
// is false when no direction qualifies at all.
func ChoosePassage(m *worldmap.Map, node grid.Node, b Browse, p Paths, pol Policy, arrival grid.Direction, hasArrival bool, random float32) (Choice, bool) {
	if b.Unexplored > 0 {
		d := b.MostAttractive
		if b.PheromoneShared {
			d = b.Shared[pick(len(b.Shared), random)]
		}
		return Choice{Direction: d, Kind: Explore}, true
	}

	conn := m.Connectivity()
	var reverse grid.Direction
	if hasArrival {
		reverse = conn.Reverse(arrival)
	}
	if d, ok := weighted(m, node, p.Open(), p.Swamp, pol, reverse, hasArrival, random); ok {
		return Choice{Direction: d, Kind: Exploit}, true
	}
	if hasArrival && p.Passable.Has(reverse) {
		others := p.Passable.Without(reverse)
		if others == 0 {
			return Choice{Direction: reverse, Kind: Backtrack}, true
		}
	}
	if d, ok := weighted(m, node, p.Passable, p.Swamp, pol, reverse, hasArrival, random); ok {
		return Choice{Direction: d, Kind: Backtrack}, true
	}
	return Choice{}, false
}

func weighted(m *worldmap.Map, node grid.Node, candidates, swamp grid.DirectionSet, pol Policy, reverse grid.Direction, hasReverse bool, random float32) (grid.Direction, bool) {
	if candidates == 0 {
		return 0, false
	}
	conn := m.Connectivity()
	best := float32(-1)
	var tied []grid.Direction
	for _, d := range conn.Directions() {
		if !candidates.Has(d) {
			continue
		}
		target, _ := m.Neighbour(node, d)
		c := m.Cell(target)
		w := (1 + c.Pheromone()) / (1 + c.Marker())
		if swamp.Has(d) {
			w *= pol.SwampPenalty
		}
		if hasReverse && d == reverse {
			w *= pol.ReversalPenalty
		}
		switch {
		case w > best:
			best = w
			tied = append(tied[:0], d)
		case w == best:
			tied = append(tied, d)
		}
	}
	if len(tied) == 0 {
		return 0, false
	}
	return tied[pick(len(tied), random)], true
}

// pick maps a value in [0, 1) onto an index in [0, n).
func pick(n int, random float32) int {
	if n <= 1 {
		return 0
	}
	i := int(random * float32(n))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Target returns the node reached from node by moving in d.
func Target(node grid.Node, p Paths, d grid.Direction) grid.Node {
	if int(d) >= len(p.Deltas) {
		return node
	}
	return node.Step(p.Deltas[d])
}
