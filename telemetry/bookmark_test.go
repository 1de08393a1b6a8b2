package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Outbreak(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{WindowEnd: float64(i * 10), Population: 100, Infected: 5, Uninfected: 95})
	}

	bookmarks := bd.Check(WindowStats{WindowEnd: 30, Population: 100, Infected: 30, Uninfected: 70})
	if !hasBookmark(bookmarks, BookmarkOutbreak) {
		t.Error("expected outbreak bookmark")
	}

	// The low resets after triggering: holding steady does not fire again
	bookmarks = bd.Check(WindowStats{WindowEnd: 40, Population: 100, Infected: 31, Uninfected: 69})
	if hasBookmark(bookmarks, BookmarkOutbreak) {
		t.Error("outbreak fired twice for one rise")
	}
}

func TestBookmarkDetector_Eradication(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bd.Check(WindowStats{WindowEnd: 10, Population: 50, Infected: 10, Uninfected: 40})
	bookmarks := bd.Check(WindowStats{WindowEnd: 20, Population: 50, Infected: 0, Uninfected: 50})
	if !hasBookmark(bookmarks, BookmarkEradication) {
		t.Error("expected eradication bookmark")
	}

	bookmarks = bd.Check(WindowStats{WindowEnd: 30, Population: 50, Infected: 0, Uninfected: 50})
	if hasBookmark(bookmarks, BookmarkEradication) {
		t.Error("eradication fired again while already disease-free")
	}
}

func TestBookmarkDetector_DieOff(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 4; i++ {
		bd.Check(WindowStats{WindowEnd: float64(i * 10), Population: 100, DeathsAge: 3})
	}

	bookmarks := bd.Check(WindowStats{WindowEnd: 40, Population: 100, DeathsAge: 2, DeathsStarvation: 8})
	if !hasBookmark(bookmarks, BookmarkDieOff) {
		t.Error("expected die_off bookmark")
	}
}

func TestBookmarkDetector_ImmuneFit(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bd.Check(WindowStats{WindowEnd: 10, MeanPoolDistance: 4})
	if b := bd.Check(WindowStats{WindowEnd: 20, MeanPoolDistance: 3}); hasBookmark(b, BookmarkImmuneFit) {
		t.Error("immune_fit fired before the distance halved")
	}
	if b := bd.Check(WindowStats{WindowEnd: 30, MeanPoolDistance: 1.9}); !hasBookmark(b, BookmarkImmuneFit) {
		t.Error("expected immune_fit bookmark")
	}
	if b := bd.Check(WindowStats{WindowEnd: 40, MeanPoolDistance: 0.5}); hasBookmark(b, BookmarkImmuneFit) {
		t.Error("immune_fit must fire only once")
	}
}

func TestBookmarkDetector_Endemic(t *testing.T) {
	bd := NewBookmarkDetector(10)

	fired := 0
	for i := 0; i < 12; i++ {
		stats := WindowStats{WindowEnd: float64(i * 10), Population: 100, Infected: 40, Uninfected: 60}
		if hasBookmark(bd.Check(stats), BookmarkEndemic) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("endemic fired %d times, want 1", fired)
	}
}

func TestBookmarkDetector_QuietRun(t *testing.T) {
	bd := NewBookmarkDetector(5)

	for i := 0; i < 20; i++ {
		stats := WindowStats{WindowEnd: float64(i), Population: 10, Uninfected: 10}
		if b := bd.Check(stats); len(b) != 0 {
			t.Fatalf("window %d: unexpected bookmarks %v", i, b)
		}
	}
}
