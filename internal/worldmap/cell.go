package worldmap

import (
	"sync/atomic"

	"mazeswarm/internal/grid"
	"mazeswarm/internal/vecmath"
)

// Status is the exploration state of a cell. It only ever increases.
type Status uint32

const (
	Unexplored Status = iota
	Partial
	Explored
)

func (s Status) String() string {
	switch s {
	case Unexplored:
		return "unexplored"
	case Partial:
		return "partial"
	case Explored:
		return "explored"
	default:
		return "unknown"
	}
}

// Topology is the canonical (world-frame) collective memory entry of a cell.
type Topology struct {
	Known  grid.DirectionSet
	Walls  grid.DirectionSet
	Swamps grid.DirectionSet
}

func (t Topology) pack() uint32 {
	return uint32(t.Known) | uint32(t.Walls)<<8 | uint32(t.Swamps)<<16
}

func unpackTopology(v uint32) Topology {
	return Topology{
		Known:  grid.DirectionSet(v),
		Walls:  grid.DirectionSet(v >> 8),
		Swamps: grid.DirectionSet(v >> 16),
	}
}

// Passage reports whether d is known and not a wall.
func (t Topology) Passage(d grid.Direction) bool {
	return t.Known.Has(d) && !t.Walls.Has(d)
}

// Complete reports whether every direction of c has been sensed.
func (t Topology) Complete(c grid.Connectivity) bool {
	all := grid.All(c)
	return t.Known&all == all
}

// Cell is one shared map unit. Every field is written through atomics.
type Cell struct {
	pheromone vecmath.AtomicFloat32
	marker    vecmath.AtomicFloat32
	topology  atomic.Uint32
	status    atomic.Uint32
	deadend   atomic.Bool
	goal      atomic.Bool
	revisits  atomic.Uint32
	landmark  bool
}

func (c *Cell) Pheromone() float32 {
	return c.pheromone.Load()
}

// Marker is the visit trace left by every arrival, independent of the
// attractant.
func (c *Cell) Marker() float32 {
	return c.marker.Load()
}

func (c *Cell) Topology() Topology {
	return unpackTopology(c.topology.Load())
}

// MergeTopology ORs t into the cell and returns the entry before and after
// the merge. Known structure is never removed.
func (c *Cell) MergeTopology(t Topology) (before, after Topology) {
	mask := t.pack()
	old := c.topology.Or(mask)
	return unpackTopology(old), unpackTopology(old | mask)
}

func (c *Cell) Status() Status {
	return Status(c.status.Load())
}

// RaiseStatus moves the status forward to s. Lower values are ignored.
func (c *Cell) RaiseStatus(s Status) Status {
	for {
		old := c.status.Load()
		if Status(old) >= s {
			return Status(old)
		}
		if c.status.CompareAndSwap(old, uint32(s)) {
			return s
		}
	}
}

func (c *Cell) Deadend() bool {
	return c.deadend.Load()
}

func (c *Cell) Goal() bool {
	return c.goal.Load()
}

func (c *Cell) Landmark() bool {
	return c.landmark
}

func (c *Cell) Revisits() uint32 {
	return c.revisits.Load()
}
