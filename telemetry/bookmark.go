package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkOutbreak    BookmarkType = "outbreak"
	BookmarkEradication BookmarkType = "eradication"
	BookmarkDieOff      BookmarkType = "die_off"
	BookmarkImmuneFit   BookmarkType = "immune_fit"
	BookmarkEndemic     BookmarkType = "endemic"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Time        float64      `csv:"time" json:"time"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"time", b.Time,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentInfectedMin  int // minimum infected count since the last outbreak
	everInfected       bool
	firstPoolDistance  float64
	immuneFitFired     bool
	stableWindowsCount int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for endemic detection
	}
	return &BookmarkDetector{
		history:           make([]WindowStats, historySize),
		historySize:       historySize,
		recentInfectedMin: -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Outbreak: infected count at least doubled from its recent low
		if b := bd.checkOutbreak(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Eradication: infections gone after having been present
		if b := bd.checkEradication(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Die-off: deaths > 2x rolling average
		if b := bd.checkDieOff(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Endemic: infected share steady over 5+ windows
		if b := bd.checkEndemic(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	// Immune fit: mean distance to the pool halved from its first reading
	if b := bd.checkImmuneFit(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if stats.Infected > 0 {
		bd.everInfected = true
	}
	if bd.recentInfectedMin < 0 || stats.Infected < bd.recentInfectedMin {
		bd.recentInfectedMin = stats.Infected
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// last returns up to n of the most recent windows, oldest first.
func (bd *BookmarkDetector) last(n int) []WindowStats {
	if have := len(bd.getHistory()); n > have {
		n = have
	}
	out := make([]WindowStats, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = bd.history[(bd.historyIdx-1-i+bd.historySize)%bd.historySize]
	}
	return out
}

func (bd *BookmarkDetector) checkOutbreak(stats WindowStats) *Bookmark {
	low := bd.recentInfectedMin
	if low < 0 {
		return nil
	}

	rise := stats.Infected - low
	if rise > 0 && stats.Infected >= 2*low && rise >= max(1, stats.Population/10) {
		// Reset the low after triggering
		bd.recentInfectedMin = stats.Infected
		return &Bookmark{
			Type:        BookmarkOutbreak,
			Time:        stats.WindowEnd,
			Description: fmt.Sprintf("Infected rose from %d to %d of %d", low, stats.Infected, stats.Population),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkEradication(stats WindowStats) *Bookmark {
	if !bd.everInfected || stats.Infected != 0 {
		return nil
	}
	prev := bd.last(1)[0]
	if prev.Infected == 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkEradication,
		Time:        stats.WindowEnd,
		Description: fmt.Sprintf("Last %d infections cleared", prev.Infected),
	}
}

func (bd *BookmarkDetector) checkDieOff(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Deaths()
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	deaths := stats.Deaths()
	if float64(deaths) > avg*2.0 && deaths >= 5 {
		return &Bookmark{
			Type:        BookmarkDieOff,
			Time:        stats.WindowEnd,
			Description: fmt.Sprintf("%d deaths is %.1fx average (%.1f)", deaths, float64(deaths)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkImmuneFit(stats WindowStats) *Bookmark {
	if bd.immuneFitFired {
		return nil
	}
	if bd.firstPoolDistance == 0 {
		bd.firstPoolDistance = stats.MeanPoolDistance
		return nil
	}
	if stats.MeanPoolDistance <= bd.firstPoolDistance/2 {
		bd.immuneFitFired = true
		return &Bookmark{
			Type:        BookmarkImmuneFit,
			Time:        stats.WindowEnd,
			Description: fmt.Sprintf("Mean distance to the pool fell from %.2f to %.2f", bd.firstPoolDistance, stats.MeanPoolDistance),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkEndemic(stats WindowStats) *Bookmark {
	if stats.Infected == 0 || stats.Uninfected == 0 {
		bd.stableWindowsCount = 0
		return nil
	}

	recent := bd.last(4)
	if len(recent) < 4 {
		return nil
	}

	// Check variance of the infected share in recent windows
	var sum float64
	for _, h := range recent {
		sum += h.InfectedFraction()
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := h.InfectedFraction() - mean
		variance += d * d
	}
	variance /= 4

	// CV^2 < 0.04 means CV < 0.2
	if mean > 0 && variance/(mean*mean) < 0.04 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkEndemic,
			Time:        stats.WindowEnd,
			Description: fmt.Sprintf("Infected share steady near %.0f%% over 5+ windows", mean*100),
		}
	}
	return nil
}
