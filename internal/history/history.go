// Package history keeps a dotfile log of generation runs so surface growth
// is visible over time.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const fileName = ".cgogen-history.json"

// Snapshot records the totals of one generate run.
type Snapshot struct {
	Timestamp        string   `json:"timestamp"`
	Commit           string   `json:"commit,omitempty"`
	Inputs           []string `json:"inputs,omitempty"`
	Frontend         string   `json:"frontend,omitempty"`
	DirectivesDigest string   `json:"directives_digest,omitempty"`
	Discovered       int      `json:"discovered"`
	Kept             int      `json:"kept"`
	Dropped          int      `json:"dropped"`
	Seeds            int      `json:"seeds"`
}

type History struct {
	Snapshots []Snapshot `json:"snapshots"`
}

func Load(dir string) (*History, error) {
	path := filepath.Join(dir, fileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &History{}, nil
	}
	if err != nil {
		return nil, err
	}
	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (h *History) Save(dir string) error {
	path := filepath.Join(dir, fileName)
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Record appends a snapshot, stamping it if the caller did not, and keeps
// only the most recent hundred runs.
func (h *History) Record(snap Snapshot) {
	if snap.Timestamp == "" {
		snap.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	h.Snapshots = append(h.Snapshots, snap)
	if len(h.Snapshots) > 100 {
		h.Snapshots = h.Snapshots[len(h.Snapshots)-100:]
	}
}

// Delta describes how the bound surface moved between two runs.
type Delta struct {
	Change            string `json:"change"` // "grew", "shrank", or "unchanged"
	KeptChange        int    `json:"kept_change"`
	DiscoveredChange  int    `json:"discovered_change"`
	SeedsChange       int    `json:"seeds_change"`
	DirectivesChanged bool   `json:"directives_changed"`
}

func Diff(old, cur Snapshot) Delta {
	d := Delta{
		KeptChange:        cur.Kept - old.Kept,
		DiscoveredChange:  cur.Discovered - old.Discovered,
		SeedsChange:       cur.Seeds - old.Seeds,
		DirectivesChanged: cur.DirectivesDigest != old.DirectivesDigest,
	}
	switch {
	case d.KeptChange > 0:
		d.Change = "grew"
	case d.KeptChange < 0:
		d.Change = "shrank"
	default:
		d.Change = "unchanged"
	}
	return d
}
