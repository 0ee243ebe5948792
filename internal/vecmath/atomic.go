package vecmath

import "sync/atomic"

// AtomicFloat32 is a float32 updated through compare-and-swap on its bit
// pattern. The zero value holds 0.
type AtomicFloat32 struct {
	bits atomic.Uint32
}

func (a *AtomicFloat32) Load() float32 {
	return Float32FromBits(a.bits.Load())
}

func (a *AtomicFloat32) Store(v float32) {
	a.bits.Store(Float32ToBits(v))
}

// Add adds delta and returns the new value.
func (a *AtomicFloat32) Add(delta float32) float32 {
	for {
		old := a.bits.Load()
		next := Float32FromBits(old) + delta
		if a.bits.CompareAndSwap(old, Float32ToBits(next)) {
			return next
		}
	}
}

// AddClamped adds delta and clamps the result into [lo, hi] in the same CAS,
// so the stored value never leaves the range. Non-negative deltas applied
// concurrently commute: the result is min(hi, start+sum).
func (a *AtomicFloat32) AddClamped(delta, lo, hi float32) float32 {
	for {
		old := a.bits.Load()
		next := Clamp(Float32FromBits(old)+delta, lo, hi)
		if isBad(next) {
			next = lo
		}
		if a.bits.CompareAndSwap(old, Float32ToBits(next)) {
			return next
		}
	}
}

// AtomicVec is a fixed-length vector of atomic components.
type AtomicVec struct {
	c []AtomicFloat32
}

func NewAtomicVec(dims int) *AtomicVec {
	return &AtomicVec{c: make([]AtomicFloat32, dims)}
}

func (a *AtomicVec) Dims() int {
	return len(a.c)
}

// AddVec adds v component-wise. Components are independent atomics, so a
// concurrent reader may observe a partially applied vector; readers wait for
// the reduction barrier.
func (a *AtomicVec) AddVec(v Vec) {
	for i := range a.c {
		if i < len(v) && v[i] != 0 {
			a.c[i].Add(v[i])
		}
	}
}

func (a *AtomicVec) Load() Vec {
	out := New(len(a.c))
	for i := range a.c {
		out[i] = a.c[i].Load()
	}
	return out
}

func (a *AtomicVec) Reset() {
	for i := range a.c {
		a.c[i].Store(0)
	}
}
