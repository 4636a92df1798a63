// Package file persists game saves as JSON files in a directory, one file per
// profile per kind.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/cory-johannsen/delve/internal/game/state"
)

const (
	runSuffix       = ".run.json"
	permanentSuffix = ".permanent.json"
)

var validProfileID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ErrInvalidProfileID is returned for profile IDs that cannot be used as file names.
var ErrInvalidProfileID = errors.New("invalid profile id")

// Store implements state.Store on the local file system.
// All methods are safe for concurrent use.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore returns a Store rooted at dir, creating the directory if needed.
//
// Postcondition: Returns an error if dir cannot be created.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating save directory %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the save directory.
func (s *Store) Dir() string { return s.dir }

// SaveRun writes the run snapshot for profileID.
func (s *Store) SaveRun(_ context.Context, profileID string, snap state.Snapshot) error {
	return s.write(profileID, runSuffix, snap)
}

// LoadRun reads the run snapshot for profileID.
//
// Postcondition: Returns state.ErrNotFound when no run is saved.
func (s *Store) LoadRun(_ context.Context, profileID string) (state.Snapshot, error) {
	var snap state.Snapshot
	err := s.read(profileID, runSuffix, &snap)
	return snap, err
}

// SavePermanent writes the permanent record for profileID.
func (s *Store) SavePermanent(_ context.Context, profileID string, rec state.PermanentRecord) error {
	return s.write(profileID, permanentSuffix, rec)
}

// LoadPermanent reads the permanent record for profileID.
//
// Postcondition: Returns state.ErrNotFound when no record is saved.
func (s *Store) LoadPermanent(_ context.Context, profileID string) (state.PermanentRecord, error) {
	var rec state.PermanentRecord
	err := s.read(profileID, permanentSuffix, &rec)
	return rec, err
}

func (s *Store) path(profileID, suffix string) (string, error) {
	if !validProfileID.MatchString(profileID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidProfileID, profileID)
	}
	return filepath.Join(s.dir, profileID+suffix), nil
}

// write encodes v to a temporary file and renames it over the target, so a
// crash never leaves a truncated save behind.
func (s *Store) write(profileID, suffix string, v any) error {
	path, err := s.path(profileID, suffix)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func (s *Store) read(profileID, suffix string, v any) error {
	path, err := s.path(profileID, suffix)
	if err != nil {
		return err
	}
	s.mu.Lock()
	data, err := os.ReadFile(path)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return state.ErrNotFound
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
