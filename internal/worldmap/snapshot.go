package worldmap

import "mazeswarm/internal/grid"

// CellState is a plain copy of one cell taken at a tick boundary.
type CellState struct {
	Pheromone float32  `json:"pheromone"`
	Marker    float32  `json:"marker"`
	Topology  Topology `json:"topology"`
	Status    Status   `json:"status"`
	Deadend   bool     `json:"deadend,omitempty"`
	Goal      bool     `json:"goal,omitempty"`
	Landmark  bool     `json:"landmark,omitempty"`
}

type Snapshot struct {
	Bounds       grid.Bounds       `json:"bounds"`
	Connectivity grid.Connectivity `json:"connectivity"`
	MaxPheromone float32           `json:"max_pheromone"`
	Cells        []CellState       `json:"cells"`
}

// Snapshot copies the map. It must not run concurrently with a tick.
func (m *Map) Snapshot() Snapshot {
	out := Snapshot{
		Bounds:       m.bounds,
		Connectivity: m.conn,
		MaxPheromone: m.max,
		Cells:        make([]CellState, len(m.cells)),
	}
	for i := range m.cells {
		c := &m.cells[i]
		out.Cells[i] = CellState{
			Pheromone: c.Pheromone(),
			Marker:    c.Marker(),
			Topology:  c.Topology(),
			Status:    c.Status(),
			Deadend:   c.Deadend(),
			Goal:      c.Goal(),
			Landmark:  c.landmark,
		}
	}
	return out
}

// At returns the state of n and false when n lies outside the snapshot.
func (s Snapshot) At(n grid.Node) (CellState, bool) {
	if !s.Bounds.Contains(n) || len(s.Cells) != s.Bounds.Cells() {
		return CellState{}, false
	}
	return s.Cells[s.Bounds.Index(n)], true
}

// Counts tallies cells per status.
func (s Snapshot) Counts() map[Status]int {
	out := make(map[Status]int, 3)
	for _, c := range s.Cells {
		out[c.Status]++
	}
	return out
}
