// Package vecmath holds the small float32 vector utilities shared by the
// flocking and movement code, including lock-free accumulators for values
// written by many agents in the same tick.
package vecmath

import (
	"math"

	"golang.org/x/exp/constraints"
)

// DefaultEpsilon is the magnitude floor below which a vector is treated as zero.
const DefaultEpsilon float32 = 1e-6

// Vec is a D-dimensional single precision vector.
type Vec []float32

func New(dims int) Vec {
	return make(Vec, dims)
}

func Of(values ...float32) Vec {
	return append(Vec(nil), values...)
}

func (v Vec) Clone() Vec {
	return append(Vec(nil), v...)
}

func (v Vec) Add(o Vec) Vec {
	out := v.Clone()
	for i := range out {
		if i < len(o) {
			out[i] += o[i]
		}
	}
	return out
}

func (v Vec) Sub(o Vec) Vec {
	out := v.Clone()
	for i := range out {
		if i < len(o) {
			out[i] -= o[i]
		}
	}
	return out
}

func (v Vec) Scale(k float32) Vec {
	out := v.Clone()
	for i := range out {
		out[i] *= k
	}
	return out
}

func (v Vec) Dot(o Vec) float32 {
	var sum float32
	for i := range v {
		if i < len(o) {
			sum += v[i] * o[i]
		}
	}
	return sum
}

func (v Vec) Len() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Normalize returns the unit vector of v, or a zero vector when |v| < eps.
func (v Vec) Normalize(eps float32) Vec {
	n := v.Len()
	if n < eps || isBad(n) {
		return New(len(v))
	}
	return v.Scale(1 / n)
}

// Limit caps the magnitude of v at max.
func (v Vec) Limit(max float32) Vec {
	n := v.Len()
	if isBad(n) {
		return New(len(v))
	}
	if n <= max || n == 0 {
		return v.Clone()
	}
	return v.Scale(max / n)
}

func (v Vec) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Sanitize replaces NaN and Inf components with zero in place.
func (v Vec) Sanitize() Vec {
	for i, x := range v {
		if isBad(x) {
			v[i] = 0
		}
	}
	return v
}

// CopyInto copies src into dst up to the shorter length and returns the count.
func CopyInto(dst, src Vec) int {
	return copy(dst, src)
}

// Distance returns |a - b|.
func Distance(a, b Vec) float32 {
	return a.Sub(b).Len()
}

func Float32ToBits(f float32) uint32 {
	return math.Float32bits(f)
}

func Float32FromBits(b uint32) float32 {
	return math.Float32frombits(b)
}

// Clamp bounds v to [lo, hi].
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isBad(f float32) bool {
	return math.IsNaN(float64(f)) || math.IsInf(float64(f), 0)
}
