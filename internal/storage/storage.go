package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/pfr-stats/internal/dataset"
)

// ErrNotFound is returned when no snapshot exists under a name
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the on-disk form of a saved dataset
type Snapshot struct {
	Name    string          `json:"name"`
	SavedAt string          `json:"saved_at"`
	Dataset dataset.Dataset `json:"dataset"`
}

// Storage handles persistence of dataset snapshots
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

func (s *Storage) snapshotPath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}
	return filepath.Join(s.dataDir, name+".json"), nil
}

// SaveDataset writes ds under name, replacing any previous snapshot
func (s *Storage) SaveDataset(name string, ds dataset.Dataset) error {
	path, err := s.snapshotPath(name)
	if err != nil {
		return err
	}

	snapshot := Snapshot{
		Name:    name,
		SavedAt: time.Now().UTC().Format(time.RFC3339),
		Dataset: ds,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot reads the snapshot saved under name
func (s *Storage) LoadSnapshot(name string) (*Snapshot, error) {
	path, err := s.snapshotPath(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	return &snapshot, nil
}

// LoadDataset returns the dataset saved under name
func (s *Storage) LoadDataset(name string) (dataset.Dataset, error) {
	snapshot, err := s.LoadSnapshot(name)
	if err != nil {
		return dataset.Dataset{}, err
	}
	return snapshot.Dataset, nil
}
