package landscape

import (
	"math"
	"testing"
)

func TestCellResourceLevel(t *testing.T) {
	c := NewCell(0, 0, 4, 1)

	if got := c.ResourceLevel(10); got != 4 {
		t.Errorf("never-depleted level = %v, want capacity 4", got)
	}

	eaten := c.RemoveResources(5)
	if eaten != 4 {
		t.Errorf("RemoveResources = %v, want 4", eaten)
	}
	if got := c.ResourceLevel(5); got != 0 {
		t.Errorf("level right after depletion = %v, want 0", got)
	}

	prev := 0.0
	for _, ts := range []float64{5.5, 6, 7, 8.9, 9, 20} {
		got := c.ResourceLevel(ts)
		if got < prev {
			t.Errorf("level decreased at t=%v: %v < %v", ts, got, prev)
		}
		if got < 0 || got > c.Capacity() {
			t.Errorf("level %v out of [0, %v]", got, c.Capacity())
		}
		prev = got
	}
	if got := c.ResourceLevel(7); got != 2 {
		t.Errorf("level at t=7 = %v, want 2", got)
	}
	if got := c.ResourceLevel(100); got != 4 {
		t.Errorf("saturated level = %v, want 4", got)
	}
}

func TestCellDepletedAtTimeZero(t *testing.T) {
	c := NewCell(0, 0, 3, 1)
	c.RemoveResources(0)
	if got := c.ResourceLevel(0); got != 0 {
		t.Errorf("depletion at t=0 must count as depleted, level = %v", got)
	}
}

func TestCellOccupancy(t *testing.T) {
	c := NewCell(1, 2, 1, 1)
	if c.Occupied() {
		t.Fatal("new cell should be empty")
	}
	c.Occupy(7)
	if !c.Occupied() || c.Occupant() != 7 {
		t.Errorf("Occupy(7): occupied=%v occupant=%d", c.Occupied(), c.Occupant())
	}
	c.Vacate()
	if c.Occupied() {
		t.Error("Vacate left cell occupied")
	}
}

func TestCellAtWraps(t *testing.T) {
	for _, size := range []int{1, 2, 5, 10} {
		l := New(size, 1, DefaultPeaks(size))
		for row := 0; row < size; row++ {
			for col := 0; col < size; col++ {
				want := l.CellAt(row, col)
				for _, k := range []int{-3, -1, 1, 4} {
					if got := l.CellAt(row+k*size, col); got != want {
						t.Fatalf("size %d: CellAt(%d,%d) != CellAt(%d,%d)", size, row+k*size, col, row, col)
					}
					if got := l.CellAt(row, col+k*size); got != want {
						t.Fatalf("size %d: CellAt(%d,%d) != CellAt(%d,%d)", size, row, col+k*size, row, col)
					}
				}
				if want.Row() != row || want.Col() != col {
					t.Fatalf("cell at (%d,%d) reports (%d,%d)", row, col, want.Row(), want.Col())
				}
			}
		}
	}
}

func TestCapacityPeaks(t *testing.T) {
	size := 40
	l := New(size, 1, DefaultPeaks(size))

	peak := l.CellAt(size/4, size/4).Capacity()
	other := l.CellAt(3*size/4, 3*size/4).Capacity()
	valley := l.CellAt(size/4, 3*size/4).Capacity()

	if math.Abs(peak-other) > 1e-9 {
		t.Errorf("peaks differ: %v vs %v", peak, other)
	}
	if valley >= peak {
		t.Errorf("valley %v should be below peak %v", valley, peak)
	}
	if peak < 4 || peak > 4.1 {
		t.Errorf("peak capacity = %v, want about 4", peak)
	}
}

func TestDistance(t *testing.T) {
	l := New(10, 1, DefaultPeaks(10))
	tests := []struct {
		name   string
		r1, c1 int
		r2, c2 int
		want   int
	}{
		{"same row", 3, 1, 3, 4, 3},
		{"same row wrap", 3, 1, 3, 9, 2},
		{"same col", 0, 5, 6, 5, 4},
		{"same cell", 2, 2, 2, 2, 0},
		{"diagonal", 0, 0, 1, 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := l.Distance(l.CellAt(tt.r1, tt.c1), l.CellAt(tt.r2, tt.c2))
			if got != tt.want {
				t.Errorf("Distance = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLineOfSight(t *testing.T) {
	l := New(10, 1, DefaultPeaks(10))

	cells := l.LineOfSight(0, 0, 2)
	if len(cells) != 8 {
		t.Fatalf("len = %d, want 8", len(cells))
	}
	for _, c := range cells {
		if c.Row() != 0 && c.Col() != 0 {
			t.Errorf("cell (%d,%d) is not on a cardinal line", c.Row(), c.Col())
		}
		if c.Row() == 0 && c.Col() == 0 {
			t.Error("own cell included")
		}
	}
	if first := cells[0]; first.Row() != 9 || first.Col() != 0 {
		t.Errorf("first cell = (%d,%d), want north (9,0)", first.Row(), first.Col())
	}

	// On a tiny grid wraparound revisits cells; each appears once
	small := New(3, 1, DefaultPeaks(3))
	cells = small.LineOfSight(1, 1, 6)
	seen := map[*Cell]bool{}
	for _, c := range cells {
		if seen[c] {
			t.Fatalf("duplicate cell (%d,%d)", c.Row(), c.Col())
		}
		seen[c] = true
	}
	// Row 1 and column 1 contain 5 cells including (1,1) itself
	if len(cells) != 5 {
		t.Errorf("len = %d, want 5", len(cells))
	}
}

func TestNeighbors(t *testing.T) {
	l := New(5, 1, DefaultPeaks(5))
	n := l.Neighbors(0, 0)
	want := [4][2]int{{4, 0}, {1, 0}, {0, 1}, {0, 4}}
	for i, c := range n {
		if c.Row() != want[i][0] || c.Col() != want[i][1] {
			t.Errorf("neighbor %d = (%d,%d), want %v", i, c.Row(), c.Col(), want[i])
		}
	}
}
