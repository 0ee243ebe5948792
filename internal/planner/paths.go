// Package planner classifies the directions around a node from the shared
// map and chooses where an agent goes next.
package planner

import (
	"mazeswarm/internal/grid"
	"mazeswarm/internal/worldmap"
)

// Paths classifies every direction around one node. Passable holds known,
// in-bounds directions without a wall. Forbidden holds walls, the map edge,
// dead-end neighbours and the register bitmap.
type Paths struct {
	Passable  grid.DirectionSet
	Swamp     grid.DirectionSet
	Forbidden grid.DirectionSet
	Deadends  int
	Deltas    []grid.Delta
}

// Open returns the passable directions that are not forbidden.
func (p Paths) Open() grid.DirectionSet {
	return p.Passable &^ p.Forbidden
}

// LivePassages counts passable directions that do not lead into a dead end.
func (p Paths) LivePassages() int {
	return p.Passable.Count() - p.Deadends
}

// GetPaths is a pure read of the map around node.
func GetPaths(m *worldmap.Map, node grid.Node, registerForbidden grid.DirectionSet) Paths {
	conn := m.Connectivity()
	p := Paths{
		Forbidden: registerForbidden & grid.All(conn),
		Deltas:    conn.Deltas(),
	}
	cell := m.Cell(node)
	if cell == nil {
		p.Forbidden = grid.All(conn)
		return p
	}
	topo := cell.Topology()
	for _, d := range conn.Directions() {
		target, inside := m.Neighbour(node, d)
		if !inside {
			p.Forbidden = p.Forbidden.With(d)
			continue
		}
		if !topo.Passage(d) {
			if topo.Walls.Has(d) {
				p.Forbidden = p.Forbidden.With(d)
			}
			continue
		}
		p.Passable = p.Passable.With(d)
		if topo.Swamps.Has(d) {
			p.Swamp = p.Swamp.With(d)
		}
		if m.Cell(target).Deadend() {
			p.Deadends++
			p.Forbidden = p.Forbidden.With(d)
		}
	}
	return p
}

// Browse is the ranking of the open directions around a node.
type Browse struct {
	PheromoneShared bool
	MostAttractive  grid.Direction
	Unexplored      int
	IsPassage       []bool
	IsForbidden     []bool
	Passes          int
	// Shared lists the unexplored directions tied at the top pheromone level.
	Shared []grid.Direction
}

// BrowsePassages ranks the open directions whose target is still unexplored
// by pheromone. Ties go to the lowest direction index.
func BrowsePassages(m *worldmap.Map, node grid.Node, p Paths) Browse {
	conn := m.Connectivity()
	n := conn.N()
	b := Browse{
		IsPassage:   make([]bool, n),
		IsForbidden: make([]bool, n),
	}
	best := float32(-1)
	for _, d := range conn.Directions() {
		b.IsPassage[d] = p.Passable.Has(d)
		b.IsForbidden[d] = p.Forbidden.Has(d)
		if !b.IsPassage[d] || b.IsForbidden[d] {
			continue
		}
		b.Passes++
		target, _ := m.Neighbour(node, d)
		c := m.Cell(target)
		if c.Status() != worldmap.Unexplored {
			continue
		}
		b.Unexplored++
		level := c.Pheromone()
		switch {
		case level > best:
			best = level
			b.MostAttractive = d
			b.Shared = append(b.Shared[:0], d)
		case level == best:
			b.Shared = append(b.Shared, d)
		}
	}
	b.PheromoneShared = len(b.Shared) > 1
	return b
}
