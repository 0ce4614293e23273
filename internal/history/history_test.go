package history

import (
	"testing"
)

func TestRecordAndLoad(t *testing.T) {
	dir := t.TempDir()
	h, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Snapshots) != 0 {
		t.Fatalf("expected empty history, got %d snapshots", len(h.Snapshots))
	}

	snap := Snapshot{
		Commit:           "abc1234",
		Inputs:           []string{"grid.h"},
		Frontend:         "cheader",
		DirectivesDigest: "sha256:feed",
		Discovered:       40,
		Kept:             12,
		Dropped:          28,
		Seeds:            3,
	}
	h.Record(snap)
	if err := h.Save(dir); err != nil {
		t.Fatal(err)
	}

	h2, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(h2.Snapshots) != 1 {
		t.Fatalf("expected 1 snapshot after reload, got %d", len(h2.Snapshots))
	}
	got := h2.Snapshots[0]
	if got.Commit != "abc1234" || got.Kept != 12 || got.Frontend != "cheader" {
		t.Errorf("snapshot did not round-trip: %+v", got)
	}
	if got.Timestamp == "" {
		t.Error("Timestamp should be auto-set by Record()")
	}
}

func TestRecordCapsAt100(t *testing.T) {
	h := &History{}
	for i := 0; i < 110; i++ {
		h.Record(Snapshot{Kept: i})
	}
	if len(h.Snapshots) != 100 {
		t.Errorf("expected max 100 snapshots, got %d", len(h.Snapshots))
	}
	if h.Snapshots[len(h.Snapshots)-1].Kept != 109 {
		t.Error("cap dropped the newest snapshot instead of the oldest")
	}
}

func TestDiffGrew(t *testing.T) {
	d := Diff(Snapshot{Kept: 10, Seeds: 2}, Snapshot{Kept: 14, Seeds: 3})
	if d.Change != "grew" || d.KeptChange != 4 || d.SeedsChange != 1 {
		t.Errorf("Diff() = %+v, want grew by 4", d)
	}
}

func TestDiffShrank(t *testing.T) {
	d := Diff(Snapshot{Kept: 14}, Snapshot{Kept: 10})
	if d.Change != "shrank" || d.KeptChange != -4 {
		t.Errorf("Diff() = %+v, want shrank by 4", d)
	}
}

func TestDiffUnchanged(t *testing.T) {
	d := Diff(Snapshot{Kept: 10, Discovered: 40}, Snapshot{Kept: 10, Discovered: 44})
	if d.Change != "unchanged" || d.DiscoveredChange != 4 {
		t.Errorf("Diff() = %+v, want unchanged kept with discovered +4", d)
	}
}

func TestDiffDirectivesChanged(t *testing.T) {
	d := Diff(Snapshot{DirectivesDigest: "sha256:old"}, Snapshot{DirectivesDigest: "sha256:new"})
	if !d.DirectivesChanged {
		t.Error("digest moved but DirectivesChanged is false")
	}
	if d := Diff(Snapshot{DirectivesDigest: "sha256:same"}, Snapshot{DirectivesDigest: "sha256:same"}); d.DirectivesChanged {
		t.Error("identical digests flagged as changed")
	}
}
