package organism

import (
	"errors"
	"strings"
	"testing"

	"github.com/pthm-cable/forage/rng"
)

func TestMinDistanceAlign(t *testing.T) {
	tests := []struct {
		name       string
		long       string
		short      string
		wantDist   int
		wantOffset int
	}{
		{"exact prefix", "0011", "00", 0, 0},
		{"exact suffix", "1100", "00", 0, 2},
		{"first of equal offsets", "0101", "01", 0, 0},
		{"tie keeps smallest offset", "1111", "00", 2, 0},
		{"partial", "10110", "111", 1, 0},
		{"same length", "0110", "0000", 2, 0},
		{"empty short", "0101", "", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, off := MinDistanceAlign(tt.long, tt.short)
			if dist != tt.wantDist || off != tt.wantOffset {
				t.Errorf("MinDistanceAlign(%q, %q) = (%d, %d), want (%d, %d)",
					tt.long, tt.short, dist, off, tt.wantDist, tt.wantOffset)
			}
		})
	}
}

func TestAlignRejectsShortString(t *testing.T) {
	_, err := Align("01", "0101")
	if !errors.Is(err, ErrShortGenome) {
		t.Errorf("err = %v, want ErrShortGenome", err)
	}
	a, err := Align("0101", "10")
	if err != nil || a.Distance != 0 || a.Offset != 1 {
		t.Errorf("Align = %+v, %v", a, err)
	}
}

func TestMoveCloserByOne(t *testing.T) {
	got := MoveCloserByOne("1111", "00")
	if got != "0111" {
		t.Errorf("MoveCloserByOne = %q, want %q", got, "0111")
	}
	if got := MoveCloserByOne("0011", "00"); got != "0011" {
		t.Errorf("distance 0 must be unchanged, got %q", got)
	}
	// Mismatch in the middle of the aligned window, not at the window start
	if got := MoveCloserByOne("01111", "000"); got != "00111" {
		t.Errorf("MoveCloserByOne = %q, want %q", got, "00111")
	}
}

func TestMoveCloserConverges(t *testing.T) {
	r := rng.New(99)
	for i := 0; i < 200; i++ {
		short := r.BitString(r.IntRange(1, 12))
		long := r.BitString(r.IntRange(len(short), 50))

		dist, _ := MinDistanceAlign(long, short)
		if dist < 0 || dist > len(short) {
			t.Fatalf("distance %d outside [0, %d]", dist, len(short))
		}

		steps := 0
		for d := dist; d > 0; d, _ = MinDistanceAlign(long, short) {
			next := MoveCloserByOne(long, short)
			if diff := hamming(long, next); diff != 1 {
				t.Fatalf("step changed %d characters", diff)
			}
			long = next
			steps++
			if steps > dist {
				t.Fatalf("no convergence after %d steps from distance %d", steps, dist)
			}
		}
	}
}

func TestZeroGenomeMatchesZeroImmuneSystem(t *testing.T) {
	dist, off := MinDistanceAlign(strings.Repeat("0", 50), strings.Repeat("0", 10))
	if dist != 0 || off != 0 {
		t.Errorf("got (%d, %d), want (0, 0)", dist, off)
	}
}

func hamming(a, b string) int {
	n := 0
	for i := range a {
		if a[i] != b[i] {
			n++
		}
	}
	return n
}
