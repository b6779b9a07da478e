// Package store persists the reusable key-column and field-mapping record.
package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/TFMV/tabmatch/pkg/core"
)

// DefaultPath is the well-known configuration file, relative to the working directory.
const DefaultPath = ".tabmatch-config.json"

// Store reads and writes a SavedConfig at a fixed path.
type Store struct {
	Path   string
	Logger *zap.Logger
	now    func() time.Time
}

// New creates a Store for path. An empty path means DefaultPath.
func New(path string, logger *zap.Logger) *Store {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{Path: path, Logger: logger, now: time.Now}
}

// Save writes the configuration, replacing any previous file. keyColsA and
// keyColsB are 1-based column numbers.
func (s *Store) Save(keyColsA, keyColsB []int, m core.FieldMapping, description string) (*core.SavedConfig, error) {
	cfg := &core.SavedConfig{
		FileAFields:  keyColsA,
		FileBFields:  keyColsB,
		FieldMapping: m,
		CreatedAt:    s.now().UTC(),
		Description:  description,
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(s.Path, data, 0644); err != nil {
		return nil, &core.IOError{Op: "write", Path: s.Path, Err: err}
	}

	s.Logger.Info("Saved comparison configuration", zap.String("path", s.Path))
	return cfg, nil
}

// Load returns the saved configuration, or nil when the file is missing or
// cannot be parsed. Neither case is an error.
func (s *Store) Load() *core.SavedConfig {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.Logger.Warn("Could not read saved configuration", zap.String("path", s.Path), zap.Error(err))
		}
		return nil
	}

	var cfg core.SavedConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.Logger.Warn("Ignoring corrupted saved configuration", zap.String("path", s.Path), zap.Error(err))
		return nil
	}
	return &cfg
}

// Usable reports whether cfg can be replayed for a comparison needing keyCount
// key columns per side.
func Usable(cfg *core.SavedConfig, keyCount int) bool {
	if cfg == nil || len(cfg.FileBFields) == 0 {
		return false
	}
	if keyCount > 0 && len(cfg.FileBFields) != keyCount {
		return false
	}
	return len(cfg.FileAFields) == len(cfg.FileBFields)
}
