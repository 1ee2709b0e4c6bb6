package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"camp-export/internal/camp"
)

// ErrNoSnapshot is returned by Latest when a camp has no saved snapshot.
var ErrNoSnapshot = errors.New("no snapshot saved")

// versionLayout has nanosecond precision and fixed width, so file names
// sort in save order.
const versionLayout = "20060102T150405.000000000Z"

// Snapshot is the joined camp data of one export run, before escaping and
// ordering. Feeding it back through schedule.NewFromSnapshot reproduces the
// export without the document store.
type Snapshot struct {
	RunID   string              `json:"run_id,omitempty"`
	User    camp.User           `json:"user"`
	Camp    camp.CampMeta       `json:"camp"`
	Meals   []camp.SpecificMeal `json:"meals"`
	SavedAt time.Time           `json:"saved_at"`
}

// SnapshotStore provides a file-based storage for export snapshots: one
// directory per camp, one file per version.
type SnapshotStore struct {
	basePath string
}

// NewSnapshotStore creates a new SnapshotStore and ensures the base directory exists.
func NewSnapshotStore(basePath string) (*SnapshotStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &SnapshotStore{basePath: basePath}, nil
}

func version(t time.Time) string {
	return t.UTC().Format(versionLayout)
}

// validName rejects ids that would escape their directory.
func validName(id string) bool {
	return id != "" && id != "." && id != ".." && filepath.Base(id) == id
}

func (s *SnapshotStore) campDir(campID string) (string, error) {
	if !validName(campID) {
		return "", fmt.Errorf("invalid camp id %q", campID)
	}
	return filepath.Join(s.basePath, campID), nil
}

func fileName(savedAt time.Time, runID string) string {
	name := version(savedAt)
	if runID != "" {
		name += "_" + runID
	}
	return name + ".json"
}

// Save writes the snapshot under its camp id, SavedAt version and run id and
// returns the file path.
func (s *SnapshotStore) Save(snap Snapshot) (string, error) {
	if snap.Camp.DocID == "" {
		return "", fmt.Errorf("snapshot has no camp id")
	}
	if snap.RunID != "" && !validName(snap.RunID) {
		return "", fmt.Errorf("invalid run id %q", snap.RunID)
	}
	dir, err := s.campDir(snap.Camp.DocID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	filePath := filepath.Join(dir, fileName(snap.SavedAt, snap.RunID))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return filePath, nil
}

// Load reads the snapshot of campID saved at savedAt. When several runs
// share the instant, the last one by run id wins.
func (s *SnapshotStore) Load(campID string, savedAt time.Time) (*Snapshot, error) {
	matches, err := s.savedAt(campID, savedAt)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("camp %s at %s: %w", campID, version(savedAt), ErrNoSnapshot)
	}
	return ReadFile(matches[len(matches)-1])
}

// Exists checks if a specific version of a snapshot exists.
func (s *SnapshotStore) Exists(campID string, savedAt time.Time) bool {
	matches, err := s.savedAt(campID, savedAt)
	return err == nil && len(matches) > 0
}

func (s *SnapshotStore) savedAt(campID string, savedAt time.Time) ([]string, error) {
	paths, err := s.versions(campID)
	if err != nil {
		return nil, err
	}
	prefix := version(savedAt)
	return slices.DeleteFunc(paths, func(p string) bool {
		name := filepath.Base(p)
		return name != prefix+".json" && !strings.HasPrefix(name, prefix+"_")
	}), nil
}

// versions lists the snapshot files of campID, oldest first.
func (s *SnapshotStore) versions(campID string) ([]string, error) {
	dir, err := s.campDir(campID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot files: %w", err)
	}

	// ReadDir sorts by file name.
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && filepath.Ext(e.Name()) == ".json" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

// Latest loads the most recent snapshot of campID.
func (s *SnapshotStore) Latest(campID string) (*Snapshot, error) {
	matches, err := s.versions(campID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("camp %s: %w", campID, ErrNoSnapshot)
	}
	return ReadFile(matches[len(matches)-1])
}

// RemoveStaleVersions removes all but the keep most recent snapshots of
// campID.
func (s *SnapshotStore) RemoveStaleVersions(campID string, keep int) error {
	matches, err := s.versions(campID)
	if err != nil {
		return err
	}
	if keep < 0 {
		keep = 0
	}
	if len(matches) <= keep {
		return nil
	}

	for _, match := range matches[:len(matches)-keep] {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to remove stale file %s: %w", match, err)
		}
	}
	return nil
}

// ReadFile reads a snapshot from any path, such as one passed on the command
// line.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", path, err)
	}
	return &snap, nil
}
