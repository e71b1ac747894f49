package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/fontanka/edc-check/internal/classification"
	"github.com/fontanka/edc-check/internal/common"
)

// TuningFile is the on-disk form of the reviewer's custom keywords.
type TuningFile struct {
	CustomIncludes []string `yaml:"custom_includes"`
	CustomExcludes []string `yaml:"custom_excludes"`
}

// LoadTuning reads a tuning file. A missing file yields empty lists.
func LoadTuning(path string) (TuningFile, error) {
	var file TuningFile

	data, err := os.ReadFile(path) // #nosec G304 - path comes from user configuration
	if errors.Is(err, os.ErrNotExist) {
		return file, nil
	}
	if err != nil {
		return file, fmt.Errorf("failed to read tuning file: %w", err)
	}

	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}
	return file, nil
}

// SaveTuning writes a tuning file through a temporary file and a rename.
func SaveTuning(path string, file TuningFile) error {
	if file.CustomIncludes == nil {
		file.CustomIncludes = []string{}
	}
	if file.CustomExcludes == nil {
		file.CustomExcludes = []string{}
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to encode tuning file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create tuning directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write tuning file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			slog.Error("failed to remove temporary tuning file", "error", rmErr)
		}
		return fmt.Errorf("failed to replace tuning file: %w", err)
	}
	return nil
}

// TuningStore keeps a classifier's tuning in sync with its file. Changes are
// saved before they reach the in-memory tuning.
type TuningStore struct {
	tuning *classification.Tuning
	path   string
	mu     sync.Mutex
}

// OpenTuningStore loads path into a fresh Tuning.
func OpenTuningStore(path string) (*TuningStore, error) {
	file, err := LoadTuning(path)
	if err != nil {
		return nil, err
	}
	return &TuningStore{
		tuning: classification.NewTuning(file.CustomIncludes, file.CustomExcludes),
		path:   path,
	}, nil
}

// Tuning returns the live tuning for the classifier.
func (s *TuningStore) Tuning() *classification.Tuning {
	return s.tuning
}

// Path returns the tuning file location.
func (s *TuningStore) Path() string {
	return s.path
}

// Reload replaces the in-memory lists with the file contents.
func (s *TuningStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := LoadTuning(s.path)
	if err != nil {
		return err
	}
	s.tuning.Replace(file.CustomIncludes, file.CustomExcludes)
	return nil
}

// AddInclude saves and applies a new custom include keyword.
func (s *TuningStore) AddInclude(keyword string) (bool, error) {
	return s.change(keyword, true, true)
}

// RemoveInclude saves and applies the removal of a custom include keyword.
func (s *TuningStore) RemoveInclude(keyword string) (bool, error) {
	return s.change(keyword, true, false)
}

// AddExclude saves and applies a new custom exclude keyword.
func (s *TuningStore) AddExclude(keyword string) (bool, error) {
	return s.change(keyword, false, true)
}

// RemoveExclude saves and applies the removal of a custom exclude keyword.
func (s *TuningStore) RemoveExclude(keyword string) (bool, error) {
	return s.change(keyword, false, false)
}

func (s *TuningStore) change(keyword string, include, add bool) (bool, error) {
	keyword = classification.Normalize(keyword)
	if keyword == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.tuning.Snapshot()
	list := &snap.Excludes
	if include {
		list = &snap.Includes
	}

	idx := slices.Index(*list, keyword)
	switch {
	case add && idx < 0:
		*list = append(*list, keyword)
	case !add && idx >= 0:
		*list = slices.Delete(*list, idx, idx+1)
	default:
		return false, nil
	}

	if err := SaveTuning(s.path, TuningFile{CustomIncludes: snap.Includes, CustomExcludes: snap.Excludes}); err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}

	switch {
	case include && add:
		s.tuning.AddInclude(keyword)
	case include:
		s.tuning.RemoveInclude(keyword)
	case add:
		s.tuning.AddExclude(keyword)
	default:
		s.tuning.RemoveExclude(keyword)
	}

	slog.Info("Updated tuning", "keyword", keyword, "include", include, "add", add, "version", s.tuning.Version())
	return true, nil
}
