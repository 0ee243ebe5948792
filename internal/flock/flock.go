// Package flock computes the Reynolds flocking terms: cohesion and alignment
// from per-cohort sums, separation from a per-agent avoidance buffer.
package flock

import (
	"fmt"
	"sync"
	"sync/atomic"

	"mazeswarm/internal/vecmath"
)

type Weights struct {
	Cohesion      float32 `yaml:"cohesion" json:"cohesion"`
	Separation    float32 `yaml:"separation" json:"separation"`
	Alignment     float32 `yaml:"alignment" json:"alignment"`
	Inertia       float32 `yaml:"inertia" json:"inertia"`
	MinSeparation float32 `yaml:"min_separation" json:"min_separation"`
}

func DefaultWeights() Weights {
	return Weights{
		Cohesion:      0.03,
		Separation:    1,
		Alignment:     0.125,
		Inertia:       0.4,
		MinSeparation: 1,
	}
}

func (w Weights) Validate() error {
	if w.MinSeparation < 0 {
		return fmt.Errorf("min separation must be >= 0")
	}
	return nil
}

// Cohort accumulates member positions and velocities. Accumulate may be
// called from any number of goroutines; the sums are read after the cohort
// barrier.
type Cohort struct {
	pos     *vecmath.AtomicVec
	vel     *vecmath.AtomicVec
	members atomic.Int32
}

func NewCohort(dims int) *Cohort {
	return &Cohort{
		pos: vecmath.NewAtomicVec(dims),
		vel: vecmath.NewAtomicVec(dims),
	}
}

func (c *Cohort) Accumulate(position, velocity vecmath.Vec) {
	c.pos.AddVec(position)
	c.vel.AddVec(velocity)
	c.members.Add(1)
}

func (c *Cohort) Reset() {
	c.pos.Reset()
	c.vel.Reset()
	c.members.Store(0)
}

// Sums returns the accumulated position sum, velocity sum and member count.
func (c *Cohort) Sums() (vecmath.Vec, vecmath.Vec, int) {
	return c.pos.Load(), c.vel.Load(), int(c.members.Load())
}

// AvoidanceBuffer holds one repulsion accumulator per agent.
type AvoidanceBuffer struct {
	acc []*vecmath.AtomicVec
}

func NewAvoidanceBuffer(agents, dims int) *AvoidanceBuffer {
	b := &AvoidanceBuffer{acc: make([]*vecmath.AtomicVec, agents)}
	for i := range b.acc {
		b.acc[i] = vecmath.NewAtomicVec(dims)
	}
	return b
}

func (b *AvoidanceBuffer) Reset() {
	for _, a := range b.acc {
		a.Reset()
	}
}

// Avoid returns the accumulated repulsion of agent a.
func (b *AvoidanceBuffer) Avoid(a int) vecmath.Vec {
	return b.acc[a].Load()
}

// AccumulatePair adds the push of b on a into a's accumulator. The push is
// (posA - posB) / dist^2 inside minSep and zero beyond it. Coincident agents
// have no defined direction and contribute nothing.
func (b *AvoidanceBuffer) AccumulatePair(a, other int, posA, posB vecmath.Vec, minSep float32) {
	if a == other {
		return
	}
	diff := posA.Sub(posB)
	dist := diff.Len()
	if dist >= minSep {
		return
	}
	if dist < vecmath.DefaultEpsilon {
		return
	}
	b.acc[a].AddVec(diff.Scale(1 / (dist * dist)))
}

// AccumulateAll runs the ordered-pair pass for every agent over a bounded
// worker pool and returns after every contribution has landed.
func (b *AvoidanceBuffer) AccumulateAll(positions []vecmath.Vec, minSep float32, workers int) {
	if len(positions) == 0 || minSep <= 0 {
		return
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(positions) {
		workers = len(positions)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for a := range jobs {
				for other := range positions {
					b.AccumulatePair(a, other, positions[a], positions[other], minSep)
				}
			}
		}()
	}
	for a := range positions {
		jobs <- a
	}
	close(jobs)
	wg.Wait()
}

// Impulse combines the flocking terms for one agent. posSum and velSum are
// cohort totals that include the agent itself, so it is removed before the
// means are taken.
func Impulse(w Weights, position, velocity, posSum, velSum vecmath.Vec, members int, avoid vecmath.Vec) vecmath.Vec {
	out := velocity.Scale(w.Inertia)
	if members > 1 {
		others := float32(members - 1)
		centre := posSum.Sub(position).Scale(1 / others)
		out = out.Add(centre.Sub(position).Scale(w.Cohesion))
		heading := velSum.Sub(velocity).Scale(1 / others)
		out = out.Add(heading.Sub(velocity).Scale(w.Alignment))
	}
	if avoid != nil {
		out = out.Add(avoid.Scale(w.Separation))
	}
	return out.Sanitize()
}
