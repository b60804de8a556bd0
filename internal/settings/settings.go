// Package settings reads the per-user preferences file listing the
// currencies and stocks to quote on the dashboard.
package settings

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"finview/internal/log"
)

const DefaultPath = "user_settings.json"

// Settings lists the symbols the user wants quoted. Both lists may be empty.
type Settings struct {
	UserCurrencies []string `json:"user_currencies"`
	UserStocks     []string `json:"user_stocks"`
}

// Store loads settings from a JSON file on every call, so edits are picked
// up without a restart.
type Store struct {
	path string
	log  *log.Logger
}

func NewStore(path string, logger *log.Logger) *Store {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{path: path, log: logger.WithComponent(log.ComponentSettings)}
}

// Load returns the stored settings, or empty settings when the file is
// missing or malformed.
func (s *Store) Load() Settings {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("Settings file not found", "path", s.path)
		return Settings{}
	}
	if err != nil {
		s.log.Error("Failed to read settings", "path", s.path, log.FieldError, err)
		return Settings{}
	}

	var st Settings
	if err := json.Unmarshal(data, &st); err != nil {
		s.log.Error("Failed to parse settings", "path", s.path, log.FieldError, err)
		return Settings{}
	}
	return st
}
