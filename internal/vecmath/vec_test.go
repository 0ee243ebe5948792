package vecmath

import (
	"math"
	"sync"
	"testing"
)

func TestNormalizeGuardsZeroMagnitude(t *testing.T) {
	tests := []struct {
		name string
		in   Vec
		want Vec
	}{
		{name: "zero", in: Of(0, 0), want: Of(0, 0)},
		{name: "below epsilon", in: Of(1e-9, 0), want: Of(0, 0)},
		{name: "axis", in: Of(3, 0), want: Of(1, 0)},
		{name: "diagonal", in: Of(3, 4), want: Of(0.6, 0.8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize(DefaultEpsilon)
			for i := range tt.want {
				if math.Abs(float64(got[i]-tt.want[i])) > 1e-6 {
					t.Fatalf("normalize %v = %v, want %v", tt.in, got, tt.want)
				}
			}
		})
	}
}

func TestLimitCapsMagnitude(t *testing.T) {
	got := Of(3, 4).Limit(1)
	if math.Abs(float64(got.Len()-1)) > 1e-6 {
		t.Fatalf("expected unit length, got %v (len %f)", got, got.Len())
	}
	small := Of(0.1, 0).Limit(1)
	if small[0] != 0.1 {
		t.Fatalf("expected vector under limit to be unchanged, got %v", small)
	}
}

func TestSanitizeClearsNaN(t *testing.T) {
	v := Of(float32(math.NaN()), 2, float32(math.Inf(1)))
	v.Sanitize()
	if v[0] != 0 || v[1] != 2 || v[2] != 0 {
		t.Fatalf("unexpected sanitized vector: %v", v)
	}
}

func TestFloatBitsRoundTrip(t *testing.T) {
	for _, f := range []float32{0, -1.5, 3.25, math.MaxFloat32} {
		if got := Float32FromBits(Float32ToBits(f)); got != f {
			t.Fatalf("bits round trip %f -> %f", f, got)
		}
	}
}

func TestClampGeneric(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Fatalf("clamp int = %d", got)
	}
	if got := Clamp(float32(-0.5), 0, 1); got != 0 {
		t.Fatalf("clamp float = %f", got)
	}
}

func TestAtomicFloatConcurrentAdd(t *testing.T) {
	var a AtomicFloat32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				a.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := a.Load(); got != 6400 {
		t.Fatalf("expected 6400, got %f", got)
	}
}

func TestAtomicFloatAddClampedSaturates(t *testing.T) {
	var a AtomicFloat32
	a.Store(10)
	if got := a.AddClamped(3, 0, 10); got != 10 {
		t.Fatalf("expected saturation at 10, got %f", got)
	}
	if got := a.AddClamped(-25, 0, 10); got != 0 {
		t.Fatalf("expected floor at 0, got %f", got)
	}
}

func TestAtomicVecAccumulateAndReset(t *testing.T) {
	v := NewAtomicVec(2)
	var wg sync.WaitGroup
	for _, p := range []Vec{Of(0, 0), Of(2, 0), Of(1, 1)} {
		wg.Add(1)
		go func(p Vec) {
			defer wg.Done()
			v.AddVec(p)
		}(p)
	}
	wg.Wait()
	got := v.Load()
	if got[0] != 3 || got[1] != 1 {
		t.Fatalf("unexpected sum %v", got)
	}
	v.Reset()
	if !v.Load().IsZero() {
		t.Fatalf("expected reset vector to be zero, got %v", v.Load())
	}
}

func TestCopyInto(t *testing.T) {
	dst := New(3)
	if n := CopyInto(dst, Of(1, 2)); n != 2 {
		t.Fatalf("copied %d", n)
	}
	if dst[0] != 1 || dst[1] != 2 || dst[2] != 0 {
		t.Fatalf("unexpected copy %v", dst)
	}
}
