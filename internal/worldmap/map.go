// Package worldmap is the shared environment map: one Cell per grid node,
// mutated by every agent in the same tick through commutative atomics.
// Components never reach it through globals; the Map handle is passed in.
package worldmap

import (
	"fmt"

	"mazeswarm/internal/grid"
)

type Map struct {
	bounds grid.Bounds
	conn   grid.Connectivity
	max    float32
	cells  []Cell
}

// New allocates the map. Landmarks (start and goal) are never flagged as
// dead ends.
func New(bounds grid.Bounds, conn grid.Connectivity, maxPheromone float32, landmarks ...grid.Node) (*Map, error) {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return nil, fmt.Errorf("map bounds must be > 0, got %dx%d", bounds.Width, bounds.Height)
	}
	if _, err := grid.ParseConnectivity(int(conn)); err != nil {
		return nil, err
	}
	if maxPheromone <= 0 {
		return nil, fmt.Errorf("max pheromone must be > 0")
	}
	m := &Map{
		bounds: bounds,
		conn:   conn,
		max:    maxPheromone,
		cells:  make([]Cell, bounds.Cells()),
	}
	for _, n := range landmarks {
		if !bounds.Contains(n) {
			return nil, fmt.Errorf("landmark %s outside map %dx%d", n, bounds.Width, bounds.Height)
		}
		m.cells[bounds.Index(n)].landmark = true
	}
	return m, nil
}

func (m *Map) Bounds() grid.Bounds {
	return m.bounds
}

func (m *Map) Connectivity() grid.Connectivity {
	return m.conn
}

func (m *Map) MaxPheromone() float32 {
	return m.max
}

// Cell returns the cell at n, or nil outside the map.
func (m *Map) Cell(n grid.Node) *Cell {
	if !m.bounds.Contains(n) {
		return nil
	}
	return &m.cells[m.bounds.Index(n)]
}

// Neighbour returns the node one step from n in direction d and whether it is
// inside the map.
func (m *Map) Neighbour(n grid.Node, d grid.Direction) (grid.Node, bool) {
	next := n.Step(m.conn.Delta(d))
	return next, m.bounds.Contains(next)
}

// Deposit adds amount to the pheromone at n, saturating in [0, MaxPheromone].
func (m *Map) Deposit(n grid.Node, amount float32) float32 {
	c := m.Cell(n)
	if c == nil {
		return 0
	}
	return c.pheromone.AddClamped(amount, 0, m.max)
}

// Evaporate removes amount from the pheromone at n, flooring at zero.
func (m *Map) Evaporate(n grid.Node, amount float32) float32 {
	c := m.Cell(n)
	if c == nil {
		return 0
	}
	return c.pheromone.AddClamped(-amount, 0, m.max)
}

// Mark adds amount to the visit marker at n, saturating in [0, MaxPheromone].
func (m *Map) Mark(n grid.Node, amount float32) float32 {
	c := m.Cell(n)
	if c == nil {
		return 0
	}
	return c.marker.AddClamped(amount, 0, m.max)
}

// Fade removes amount from the visit marker at n, flooring at zero.
func (m *Map) Fade(n grid.Node, amount float32) float32 {
	c := m.Cell(n)
	if c == nil {
		return 0
	}
	return c.marker.AddClamped(-amount, 0, m.max)
}

func (m *Map) RecordRevisit(n grid.Node) {
	if c := m.Cell(n); c != nil {
		c.revisits.Add(1)
	}
}

// TakeRevisits returns the revisit count of n and resets it.
func (m *Map) TakeRevisits(n grid.Node) uint32 {
	c := m.Cell(n)
	if c == nil {
		return 0
	}
	return c.revisits.Swap(0)
}

// MarkDeadend flags n as a dead end. It reports whether this call set the
// flag. Landmarks are never flagged.
func (m *Map) MarkDeadend(n grid.Node) bool {
	c := m.Cell(n)
	if c == nil || c.landmark {
		return false
	}
	return c.deadend.CompareAndSwap(false, true)
}

func (m *Map) MarkGoal(n grid.Node) {
	if c := m.Cell(n); c != nil {
		c.goal.Store(true)
	}
}

// Each calls fn for every node in row order.
func (m *Map) Each(fn func(grid.Node, *Cell)) {
	for i := range m.cells {
		fn(m.bounds.Node(i), &m.cells[i])
	}
}

// ExploredFraction is the share of counted cells whose status is Explored.
// A nil include counts every cell.
func (m *Map) ExploredFraction(include func(grid.Node) bool) float64 {
	total, explored := 0, 0
	m.Each(func(n grid.Node, c *Cell) {
		if include != nil && !include(n) {
			return
		}
		total++
		if c.Status() == Explored {
			explored++
		}
	})
	if total == 0 {
		return 0
	}
	return float64(explored) / float64(total)
}
