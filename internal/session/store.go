package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/vexscan/vex/pkg/domain"
)

// Store is the durable home of the session: token pair plus cached user.
// Set replaces the whole record so token rotation can never leave a mixed
// old/new pair behind. Implementations must not touch the network or the UI.
type Store interface {
	Get() domain.Session
	Set(domain.Session) error
	SetUser(*domain.User) error
	Clear() error
}

// FileStore persists the session as a JSON file (by default
// ~/.vex/session.json). Writes are atomic: marshal, write to a temp file with
// 0600 permissions, rename over the target. An in-process mutex serializes
// writers; rotation ordering across goroutines is the guard's job.
type FileStore struct {
	path   string
	mu     sync.Mutex
	cached domain.Session
	logger *slog.Logger
}

// NewFileStore opens (or initializes) the session file at path.
// A missing file is an empty session; a corrupt one is discarded with a
// warning rather than wedging the client.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	s := &FileStore{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	// Warn if the file is readable by group/other; it holds credentials.
	if runtime.GOOS != "windows" {
		if info, statErr := os.Stat(path); statErr == nil {
			if mode := info.Mode().Perm(); mode&0077 != 0 {
				logger.Warn("session file has too-open permissions, should be 0600",
					"path", path, "current_mode", fmt.Sprintf("%04o", mode))
			}
		}
	}

	if err := json.Unmarshal(data, &s.cached); err != nil {
		logger.Warn("session file is corrupt, starting signed out", "path", path, "error", err)
		s.cached = domain.Session{}
	}
	return s, nil
}

// Get returns a copy of the current session.
func (s *FileStore) Get() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySession(s.cached)
}

// Set replaces the whole persisted session. The in-memory copy is updated
// only after the file write succeeds, so a failed write leaves the previous
// record intact on disk and in memory.
func (s *FileStore) Set(sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(sess); err != nil {
		return err
	}
	s.cached = copySession(sess)
	return nil
}

// SetUser updates only the cached profile, keeping the token pair.
func (s *FileStore) SetUser(u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := copySession(s.cached)
	if u != nil {
		cp := *u
		next.User = &cp
	} else {
		next.User = nil
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.cached = next
	return nil
}

// Clear wipes all three slots together by removing the file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	s.cached = domain.Session{}
	return nil
}

// write performs the atomic tmp-then-rename replacement.
func (s *FileStore) write(sess domain.Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	data = append(data, '\n')

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath) //nolint:errcheck
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func copySession(sess domain.Session) domain.Session {
	out := sess
	if sess.User != nil {
		cp := *sess.User
		out.User = &cp
	}
	return out
}
