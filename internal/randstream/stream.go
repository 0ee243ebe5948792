// Package randstream provides the pre-filled random stream the agents read
// for tie-breaking. Each agent owns a disjoint slice of the stream so no two
// agents ever consume the same value.
package randstream

import (
	"fmt"
	"math/rand"
)

type Stream struct {
	values      []float32
	agents      int
	ticksPerRun int
}

// New fills a stream of agents*ticksPerRun values in [0, 1) from seed.
func New(seed int64, agents, ticksPerRun int) (*Stream, error) {
	if agents <= 0 {
		return nil, fmt.Errorf("agents must be > 0")
	}
	if ticksPerRun <= 0 {
		return nil, fmt.Errorf("ticks per run must be > 0")
	}
	rng := rand.New(rand.NewSource(seed))
	values := make([]float32, agents*ticksPerRun)
	for i := range values {
		values[i] = rng.Float32()
	}
	return &Stream{values: values, agents: agents, ticksPerRun: ticksPerRun}, nil
}

// Index returns the slot of agent at tick. Ticks past the run length wrap
// inside the agent's own slice.
func (s *Stream) Index(agent, tick int) int {
	return agent*s.ticksPerRun + tick%s.ticksPerRun
}

func (s *Stream) At(agent, tick int) float32 {
	if agent < 0 || agent >= s.agents || tick < 0 {
		return 0
	}
	return s.values[s.Index(agent, tick)]
}

func (s *Stream) Len() int {
	return len(s.values)
}

func (s *Stream) TicksPerRun() int {
	return s.ticksPerRun
}
