package session

import (
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store keeps a Session in a JSON file.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (st *Store) Path() string { return st.path }

// Load reads the session file. A missing or unreadable file yields a fresh
// session so a broken memory file never stops the assistant.
func (st *Store) Load() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	data, err := os.ReadFile(st.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("Failed to read memory file", "path", st.path, "err", err)
		}
		return New()
	}

	s := New()
	if err := json.Unmarshal(data, s); err != nil {
		log.Warn("Corrupt memory file, starting fresh", "path", st.path, "err", err)
		return New()
	}
	s.normalize()
	return s
}

func (st *Store) Save(s *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if dir := filepath.Dir(st.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create memory dir: %w", err)
		}
	}

	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write memory: %w", err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("replace memory: %w", err)
	}
	return nil
}
