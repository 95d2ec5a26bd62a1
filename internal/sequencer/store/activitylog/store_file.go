// Package activitylog persists the activity log as a single JSON document.
package activitylog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"launder/internal/sequencer/models"
)

// FileStore rewrites the whole document on every save. Writes go to a temp
// file in the same directory and are renamed into place, so a reader never
// sees a half-written log.
type FileStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the log. A missing, empty or unparsable file yields an empty
// log; only I/O failures other than "not found" are errors.
func (s *FileStore) Load(ctx context.Context) (*models.ActivityLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.NewActivityLog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}

	log := models.NewActivityLog()
	if len(raw) == 0 {
		return log, nil
	}
	if err := json.Unmarshal(raw, log); err != nil {
		s.logger.WarnContext(ctx, "activity log unreadable, starting empty", "path", s.path, "error", err)
		return models.NewActivityLog(), nil
	}
	log.Repair()
	return log, nil
}

func (s *FileStore) Save(_ context.Context, log *models.ActivityLog) error {
	raw, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("encode activity log: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".activity_log-*.json")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp log: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace activity log: %w", err)
	}
	return nil
}
