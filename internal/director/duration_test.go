package director

import (
	"math"
	"math/rand"
	"testing"
)

func TestVaryDurations(t *testing.T) {
	const total = 100.0
	const n = 10
	durations := vary(rand.New(rand.NewSource(7)), total, n, 0.15)

	if len(durations) != n {
		t.Fatalf("expected %d durations, got %d", n, len(durations))
	}

	// 1. The segments fill the total exactly
	sum := 0.0
	for _, d := range durations {
		sum += d
	}
	if math.Abs(sum-total) > 1e-9 {
		t.Errorf("expected sum %f, got %f", total, sum)
	}

	// 2. Each segment differs from the previous one by at most 15%
	for i := 1; i < n; i++ {
		variation := durations[i]/durations[i-1] - 1.0
		if math.Abs(variation) > 0.1501 {
			t.Errorf("segment %d variation too high: %f (prev: %f, curr: %f)", i, variation, durations[i-1], durations[i])
		}
	}
}

func TestVaryEdgeCases(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	if got := vary(r, 10, 0, 0.15); len(got) != 0 {
		t.Errorf("expected no segments, got %v", got)
	}
	if got := vary(r, 10, 1, 0.15); math.Abs(got[0]-10) > 1e-9 {
		t.Errorf("single segment must take the whole total, got %f", got[0])
	}
	for _, d := range vary(r, 12, 4, 0) {
		if math.Abs(d-3) > 1e-9 {
			t.Errorf("zero variation must split evenly, got %f", d)
		}
	}
}
