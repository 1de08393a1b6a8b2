package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/forage/sim"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		RNGSeed: 42,
		Snapshot: sim.Snapshot{
			Time:       12.5,
			Size:       2,
			Levels:     []float64{0, 1.5, 4, 2},
			Capacities: []float64{4, 4, 4, 4},
			Agents: []sim.AgentView{
				{ID: 3, Row: 1, Col: 0, Vision: 4, Wealth: 7.25, Infected: true, Infections: 2},
			},
		},
		Tally:    sim.Tally{Infected: 1},
		Bookmark: &Bookmark{Type: BookmarkOutbreak, Time: 12.5, Description: "test"},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if !strings.HasSuffix(path, "snapshot_12.50_outbreak.json") {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.RNGSeed != 42 || loaded.Time != 12.5 || loaded.Size != 2 {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if len(loaded.Levels) != 4 || loaded.Levels[1] != 1.5 {
		t.Errorf("levels = %v", loaded.Levels)
	}
	if len(loaded.Agents) != 1 || loaded.Agents[0].Wealth != 7.25 || !loaded.Agents[0].Infected {
		t.Errorf("agents = %+v", loaded.Agents)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkOutbreak {
		t.Errorf("bookmark = %+v", loaded.Bookmark)
	}
}

func TestLoadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected version error")
	}
}
