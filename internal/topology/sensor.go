// Package topology turns raw body-frame sensor readings into the canonical
// world-frame topology signature stored in the collective memory map.
//
// Direction indices follow package grid: 0 is North and indices run
// clockwise. An agent facing rotation r reports Around[k] for world
// direction (r + k) mod n, so Canonicalize maps it back with
// abs[d] = Around[(d - r) mod n].
package topology

import (
	"mazeswarm/internal/grid"
	"mazeswarm/internal/vecmath"
	"mazeswarm/internal/worldmap"
)

// Readings is one sensor sample: the ring of neighbours in the body frame
// and the terrain under the agent.
type Readings struct {
	Around []Terrain
	Below  Terrain
}

// Canonicalize rotates body-frame readings into the world frame. Missing
// entries read as walls.
func Canonicalize(around []Terrain, rotation grid.Direction, conn grid.Connectivity) []Terrain {
	n := conn.N()
	out := make([]Terrain, n)
	for d := 0; d < n; d++ {
		k := int(conn.Rotate(grid.Direction(d), -int(rotation)))
		if k < len(around) {
			out[d] = around[k]
		}
	}
	return out
}

// Preprocess canonicalizes the readings and classifies the window around
// every world direction. The window of direction d is (d-1, d, d+1).
func Preprocess(r Readings, rotation grid.Direction, conn grid.Connectivity) ([]Terrain, []uint8) {
	canonical := Canonicalize(r.Around, rotation, conn)
	ids := make([]uint8, len(canonical))
	for d := range canonical {
		left := canonical[conn.Rotate(grid.Direction(d), -1)]
		right := canonical[conn.Rotate(grid.Direction(d), 1)]
		ids[d] = ID(left, canonical[d], right)
	}
	return canonical, ids
}

// Traversable reports whether the window classification allows a move in d.
// Diagonal moves with eight-way connectivity need both flanking cells open
// so agents never cut a wall corner.
func Traversable(conn grid.Connectivity, d grid.Direction, t Trigram) bool {
	if t.Class == Blocked {
		return false
	}
	if conn == grid.Eight && d%2 == 1 {
		return t.Class == Junction
	}
	return true
}

// Signature builds the CMM entry for a set of trigram ids.
func Signature(conn grid.Connectivity, ids []uint8) worldmap.Topology {
	tab := Table()
	var sig worldmap.Topology
	for d, id := range ids {
		if d >= conn.N() {
			break
		}
		dir := grid.Direction(d)
		tri := tab.Lookup(id)
		sig.Known = sig.Known.With(dir)
		if !Traversable(conn, dir, tri) {
			sig.Walls = sig.Walls.With(dir)
		}
		if tri.Swamp {
			sig.Swamps = sig.Swamps.With(dir)
		}
	}
	return sig
}

// Observation carries the agent side of an Update.
type Observation struct {
	Trigrams     []uint8
	Position     vecmath.Vec
	Previous     vecmath.Vec
	Intended     grid.Direction
	HasPath      bool
	StallEpsilon float32
}

// Update merges the observation into the cell with a monotonic OR and
// derives the stall and wall flags. stalled is set when the agent was
// following a path but its displacement since the previous tick, projected
// on the intended heading, is below StallEpsilon. Sideways or backward
// motion counts as a stall. wallDetected is set when this merge newly
// recorded a wall in the intended direction.
func Update(cell *worldmap.Cell, conn grid.Connectivity, obs Observation) (stalled, wallDetected bool) {
	sig := Signature(conn, obs.Trigrams)
	before, after := cell.MergeTopology(sig)

	if obs.HasPath {
		eps := obs.StallEpsilon
		if eps <= 0 {
			eps = vecmath.DefaultEpsilon
		}
		if obs.Previous != nil && Progress(conn, obs.Intended, obs.Previous, obs.Position) < eps {
			stalled = true
		}
		if !before.Walls.Has(obs.Intended) && after.Walls.Has(obs.Intended) {
			wallDetected = true
		}
	}
	return stalled, wallDetected
}

// Progress is the signed distance travelled from previous to position along
// the unit heading of d.
func Progress(conn grid.Connectivity, d grid.Direction, previous, position vecmath.Vec) float32 {
	if len(previous) < 2 || len(position) < 2 {
		return 0
	}
	delta := conn.Delta(d)
	heading := vecmath.Of(float32(delta.DX), float32(delta.DY)).Normalize(vecmath.DefaultEpsilon)
	return position.Sub(previous).Dot(heading)
}
