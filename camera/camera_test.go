package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNewFitsGrid(t *testing.T) {
	// 100 cells of 8px = 800px world; height is the limiting dimension
	cam := New(1280, 720, 100, 8)

	if cam.X != 400 || cam.Y != 400 {
		t.Errorf("expected camera at (400, 400), got (%f, %f)", cam.X, cam.Y)
	}
	if !near(cam.Zoom, 0.9) {
		t.Errorf("expected zoom 0.9, got %f", cam.Zoom)
	}
	if !near(cam.MinZoom, 0.225) {
		t.Errorf("expected MinZoom 0.225, got %f", cam.MinZoom)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 100, 8)
	cam.SetZoom(2)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestCellAt(t *testing.T) {
	cam := New(1280, 720, 100, 8)
	cam.SetZoom(1)

	// Screen center is world (400, 400): cell (50, 50)
	if r, c := cam.CellAt(640, 360); r != 50 || c != 50 {
		t.Errorf("center cell = (%d, %d), want (50, 50)", r, c)
	}
	// One cell left of center
	if r, c := cam.CellAt(640-8, 360); r != 50 || c != 49 {
		t.Errorf("left cell = (%d, %d), want (50, 49)", r, c)
	}

	// Cell centers map back to their cell
	sx, sy := cam.CellCenter(3, 97)
	if r, c := cam.CellAt(sx, sy); r != 3 || c != 97 {
		t.Errorf("CellAt(CellCenter(3, 97)) = (%d, %d)", r, c)
	}
}

func TestToroidalWrap(t *testing.T) {
	cam := New(1280, 720, 100, 8)
	cam.SetZoom(1)
	cam.X = 20 // near left edge

	// Cell at the far right should appear left of center
	sx, _ := cam.CellCenter(50, 99)
	if sx >= 640 {
		t.Errorf("expected wrapped cell left of center, got x=%f", sx)
	}
}

func TestPanWraps(t *testing.T) {
	cam := New(1280, 720, 100, 8)
	cam.SetZoom(1)
	cam.X = 100

	cam.Pan(-200, 0)
	if !near(cam.X, 700) {
		t.Errorf("expected X to wrap to 700, got %f", cam.X)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 100, 8)

	cam.SetZoom(0.01)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}
	cam.SetZoom(100)
	if cam.Zoom != 8 {
		t.Errorf("expected zoom clamped to 8, got %f", cam.Zoom)
	}
}

func TestTileOrigins(t *testing.T) {
	cam := New(1280, 720, 100, 8)
	cam.SetZoom(1)

	// An 800px copy centered on a 1280px viewport needs a column on each side
	origins := cam.TileOrigins()
	want := [][2]float32{{-560, -40}, {240, -40}, {1040, -40}}
	if len(origins) != len(want) {
		t.Fatalf("origins = %v, want %v", origins, want)
	}
	for i := range want {
		if origins[i] != want[i] {
			t.Errorf("origin %d = %v, want %v", i, origins[i], want[i])
		}
	}

	// Zoomed out to the floor, the torus tiles the screen
	cam.SetZoom(cam.MinZoom)
	origins = cam.TileOrigins()
	if len(origins) < 4 {
		t.Errorf("zoomed out origins = %d, want tiled copies", len(origins))
	}
	size := cam.WorldSize() * cam.Zoom
	for _, o := range origins {
		if o[0] >= cam.ViewportW || o[1] >= cam.ViewportH || o[0]+size <= 0 || o[1]+size <= 0 {
			t.Errorf("origin %v does not overlap the viewport", o)
		}
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, 100, 8)
	cam.SetZoom(2)

	if !cam.IsVisible(400, 400, 4) {
		t.Error("center should be visible")
	}
	// 320px visible half-width at zoom 2; 760 is 360 from center
	if cam.IsVisible(760, 400, 4) {
		t.Error("far point should not be visible")
	}
	if !cam.IsVisible(760, 400, 50) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestResetAndResize(t *testing.T) {
	cam := New(1280, 720, 100, 8)
	cam.Pan(123, 45)
	cam.SetZoom(5)

	cam.Reset()
	if cam.X != 400 || cam.Y != 400 || !near(cam.Zoom, 0.9) {
		t.Errorf("after Reset: (%f, %f) zoom %f", cam.X, cam.Y, cam.Zoom)
	}

	cam.SetZoom(cam.MinZoom)
	cam.Resize(3200, 3200)
	if !near(cam.MinZoom, 1) || cam.Zoom != cam.MinZoom {
		t.Errorf("after Resize: min %f zoom %f", cam.MinZoom, cam.Zoom)
	}
}
