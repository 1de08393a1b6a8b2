package rng

import (
	"strings"
	"testing"
)

func TestSameSeedSameStream(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Exponential(1), b.Exponential(1); x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}
	if a.BitString(32) != b.BitString(32) {
		t.Error("bit strings differ for identical seeds")
	}
}

func TestRanges(t *testing.T) {
	s := New(7)
	for i := 0; i < 1000; i++ {
		if v := s.IntRange(1, 6); v < 1 || v > 6 {
			t.Fatalf("IntRange(1, 6) = %d", v)
		}
		if v := s.Uniform(5, 25); v < 5 || v >= 25 {
			t.Fatalf("Uniform(5, 25) = %v", v)
		}
		if v := s.Exponential(2); v < 0 {
			t.Fatalf("Exponential(2) = %v", v)
		}
	}
}

func TestBitString(t *testing.T) {
	s := New(1)
	bits := s.BitString(50)
	if len(bits) != 50 {
		t.Fatalf("len = %d, want 50", len(bits))
	}
	if strings.Trim(bits, "01") != "" {
		t.Errorf("unexpected characters in %q", bits)
	}
	if s.BitString(0) != "" {
		t.Error("BitString(0) should be empty")
	}
}
