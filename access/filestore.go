package access

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/m3rciful/quizbot/core/logger"
)

// FileStore keeps the allow-list in a text file with one decimal user id per line.
// The file is re-read on every lookup so external edits are honoured.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on first Add.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the allow-list file location.
func (s *FileStore) Path() string { return s.path }

// Contains reports whether userID is listed.
func (s *FileStore) Contains(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, _, err := s.read(ctx)
	if err != nil {
		return false, err
	}
	_, ok := ids[userID]
	return ok, nil
}

// Add appends userID unless it is already listed.
func (s *FileStore) Add(ctx context.Context, userID int64) (bool, error) {
	if userID <= 0 {
		return false, fmt.Errorf("allowlist: invalid user id %d", userID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, data, err := s.read(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := ids[userID]; ok {
		return false, nil
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("allowlist: create dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("allowlist: open %s: %w", s.path, err)
	}
	line := strconv.FormatInt(userID, 10) + "\n"
	if len(data) > 0 && data[len(data)-1] != '\n' {
		line = "\n" + line
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("allowlist: append %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("allowlist: close %s: %w", s.path, err)
	}
	return true, nil
}

// read loads the id set. A missing file is an empty allow-list.
// Lines that are not positive integers are skipped with a warning.
func (s *FileStore) read(ctx context.Context) (map[int64]struct{}, []byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[int64]struct{}{}, nil, nil
		}
		return nil, nil, fmt.Errorf("allowlist: read %s: %w", s.path, err)
	}

	ids := make(map[int64]struct{})
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		id, err := strconv.ParseInt(string(line), 10, 64)
		if err != nil || id <= 0 {
			logger.LogEvent(ctx, logger.Access, slog.LevelWarn, "allowlist.read",
				slog.String("status", "skip"),
				slog.String("path", s.path),
				slog.Int("line", i+1),
				slog.String("err_code", "malformed_line"),
			)
			continue
		}
		ids[id] = struct{}{}
	}
	return ids, data, nil
}
