// Package history keeps all-time aggregates of the events the telemetry
// delivered, persisted across restarts.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// statsVersion is bumped when the schema changes.
	statsVersion = 1

	statsFileName = "history.json"
	appDirName    = "nav-telemetry"
)

// Stats is the persistent aggregate. It is loaded from and saved to
// ~/.local/state/nav-telemetry/history.json (respecting XDG_STATE_HOME).
type Stats struct {
	Version int `json:"version"`

	TotalSessions int `json:"totalSessions"`
	TotalArrivals int `json:"totalArrivals"`
	TotalCancels  int `json:"totalCancels"`
	TotalReroutes int `json:"totalReroutes"`
	TotalFeedback int `json:"totalFeedback"`

	// Cancels without a preceding arrival.
	AbandonedSessions int `json:"abandonedSessions"`

	FeedbackPerType      map[string]int `json:"feedbackPerType"`
	SessionsPerProfile   map[string]int `json:"sessionsPerProfile"`
	SimulatedSessions    int            `json:"simulatedSessions"`
	DistanceCompletedM   int64          `json:"distanceCompletedMeters"`
	LongestTripM         int            `json:"longestTripMeters"`
	MaxReroutesInSession int            `json:"maxReroutesInSession"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// Store handles loading and saving Stats to disk.
type Store struct {
	dir string
}

// NewStore creates a Store that reads/writes in dir. The directory is
// created on the first Save. An empty dir selects the default XDG state
// path.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = defaultStatsDir()
	}
	return &Store{dir: dir}
}

// Path returns the full path to the history file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, statsFileName)
}

// Load reads stats from disk. A missing file yields empty stats.
func (s *Store) Load() (*Stats, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return newStats(), nil
		}
		return nil, fmt.Errorf("reading history: %w", err)
	}

	var st Stats
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing history: %w", err)
	}
	st.initMaps()

	return &st, nil
}

// Save writes stats to disk using an atomic temp-file-then-rename pattern.
func (s *Store) Save(st *Stats) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	st.Version = statsVersion
	st.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".history-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("renaming history file: %w", err)
	}
	committed = true

	return nil
}

func newStats() *Stats {
	return &Stats{
		Version:            statsVersion,
		FeedbackPerType:    make(map[string]int),
		SessionsPerProfile: make(map[string]int),
	}
}

// initMaps ensures all map fields are non-nil after deserialization.
func (st *Stats) initMaps() {
	if st.FeedbackPerType == nil {
		st.FeedbackPerType = make(map[string]int)
	}
	if st.SessionsPerProfile == nil {
		st.SessionsPerProfile = make(map[string]int)
	}
}

// clone returns a deep copy of Stats with all maps duplicated.
func (st *Stats) clone() *Stats {
	cp := *st
	cp.FeedbackPerType = make(map[string]int, len(st.FeedbackPerType))
	for k, v := range st.FeedbackPerType {
		cp.FeedbackPerType[k] = v
	}
	cp.SessionsPerProfile = make(map[string]int, len(st.SessionsPerProfile))
	for k, v := range st.SessionsPerProfile {
		cp.SessionsPerProfile[k] = v
	}
	return &cp
}

// defaultStatsDir returns ~/.local/state/nav-telemetry, respecting
// XDG_STATE_HOME if set.
func defaultStatsDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
