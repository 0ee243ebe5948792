package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord is the persisted outcome of one simulation run.
type RunRecord struct {
	VersionedRecord
	ID           string    `json:"id"`
	ExperimentID string    `json:"experiment_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Seed         int64     `json:"seed"`
	MazeSeed     int64     `json:"maze_seed"`
	MazeWidth    int       `json:"maze_width"`
	MazeHeight   int       `json:"maze_height"`
	Agents       int       `json:"agents"`
	CohortSize   int       `json:"cohort_size"`
	Connectivity int       `json:"connectivity"`
	Decay        string    `json:"decay"`
	TickBudget   int       `json:"tick_budget"`
	Ticks        int       `json:"ticks"`
	Solved       bool      `json:"solved"`
	SolvedAt     int       `json:"solved_at"`
	PathLength   int       `json:"path_length"`
	PathCost     float64   `json:"path_cost"`
	Explored     float64   `json:"explored"`
	Hits         int       `json:"hits"`
	ElapsedMS    int64     `json:"elapsed_ms"`
	Maze         []string  `json:"maze"`
}

// TickRecord is one row of a run's per-tick history.
type TickRecord struct {
	Tick         int     `json:"tick"`
	Explored     float64 `json:"explored"`
	Stalled      int     `json:"stalled"`
	Backtracking int     `json:"backtracking"`
	Hits         int     `json:"hits"`
	Deadends     int     `json:"deadends"`
	Pheromone    float64 `json:"pheromone"`
	Solved       bool    `json:"solved"`
	PathLength   int     `json:"path_length"`
}

type CellRecord struct {
	Pheromone float32 `json:"pheromone"`
	Marker    float32 `json:"marker,omitempty"`
	Known     uint8   `json:"known"`
	Walls     uint8   `json:"walls"`
	Swamps    uint8   `json:"swamps"`
	Status    uint8   `json:"status"`
	Deadend   bool    `json:"deadend,omitempty"`
	Goal      bool    `json:"goal,omitempty"`
	Landmark  bool    `json:"landmark,omitempty"`
}

type AgentRecord struct {
	ID      int     `json:"id"`
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	Mode    string  `json:"mode"`
	Hits    int     `json:"hits"`
	Stalled bool    `json:"stalled,omitempty"`
	// HitTicks lists the tick of every wall hit, in order.
	HitTicks []int `json:"hit_ticks,omitempty"`
}

// MapRecord is the shared map and agent buffer at the end of a run.
type MapRecord struct {
	VersionedRecord
	RunID        string        `json:"run_id"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	Connectivity int           `json:"connectivity"`
	MaxPheromone float32       `json:"max_pheromone"`
	Cells        []CellRecord  `json:"cells"`
	Agents       []AgentRecord `json:"agents"`
}

// ExperimentRecord groups the runs of one experiment batch.
type ExperimentRecord struct {
	VersionedRecord
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Swarms    []int     `json:"swarms"`
	Sizes     []int     `json:"sizes"`
	Repeats   int       `json:"repeats"`
	RunIDs    []string  `json:"run_ids"`
}
