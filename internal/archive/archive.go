// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package archive persists the last successfully decoded show of every drone
// so a restarted daemon resumes with the same programs.
package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
)

// Store keeps one show file per drone under a directory.
type Store struct {
	dir    string
	logger zerolog.Logger
}

// NewStore creates dir if needed and returns a store rooted there.
func NewStore(dir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Path returns the archive file of uid.
func (s *Store) Path(uid uint8) string {
	return filepath.Join(s.dir, fmt.Sprintf("drone-%03d.bin", uid))
}

// Save atomically replaces the archived show of uid.
func (s *Store) Save(uid uint8, data []byte) error {
	pendingFile, err := renameio.NewPendingFile(s.Path(uid), renameio.WithPermissions(0o640))
	if err != nil {
		return fmt.Errorf("create pending show file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			s.logger.Debug().Err(err).Msg("cleanup pending show file")
		}
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write show data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace show file: %w", err)
	}

	s.logger.Debug().
		Str("event", "archive.saved").
		Int("drone_id", int(uid)).
		Int("size", len(data)).
		Msg("show archived")
	return nil
}

// Load returns the archived show of uid. A missing archive yields an error
// matching os.ErrNotExist.
func (s *Store) Load(uid uint8) ([]byte, error) {
	// #nosec G304 -- path is derived from the configured data dir and a numeric uid
	data, err := os.ReadFile(s.Path(uid))
	if err != nil {
		return nil, fmt.Errorf("load show archive: %w", err)
	}
	return data, nil
}
