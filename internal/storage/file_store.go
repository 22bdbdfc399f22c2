// Package storage persists the chat message log as a single JSON file that is
// rewritten wholesale on every append.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/Tyrowin/chatrelay/internal/chat"
)

// FileStore keeps the message log in memory and mirrors it to one file.
type FileStore struct {
	path     string
	log      *slog.Logger
	mu       sync.RWMutex
	messages []chat.Message
}

var _ chat.Store = (*FileStore)(nil)

func NewFileStore(path string, log *slog.Logger) *FileStore {
	return &FileStore{path: path, log: log, messages: []chat.Message{}}
}

// LoadAll reads the persisted log. A missing file starts an empty log that is
// written out immediately. An unreadable or corrupt file is logged and treated
// as empty; it is overwritten by the next append.
func (s *FileStore) LoadAll() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := ReadFile(s.path)
	switch {
	case err == nil:
		s.log.Info("Messages loaded", "path", s.path, "count", len(messages))
	case errors.Is(err, fs.ErrNotExist):
		s.log.Info("No messages file found, creating a new one", "path", s.path)
		messages = []chat.Message{}
		if err := s.persist(messages); err != nil {
			s.log.Error("Could not write empty messages file", "path", s.path, "err", err)
		}
	default:
		s.log.Error("Starting with empty history", "path", s.path, "err", fmt.Errorf("%w: %w", chat.ErrStoreLoad, err))
		messages = []chat.Message{}
	}

	s.messages = messages
	return slices.Clone(messages)
}

// Append adds msg to the log and rewrites the file. The message stays in
// memory even if the write fails.
func (s *FileStore) Append(msg chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	return s.persist(s.messages)
}

// Snapshot returns a copy of the current log.
func (s *FileStore) Snapshot() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) persist(messages []chat.Message) error {
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %w", chat.ErrStorePersist, err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: %w", chat.ErrStorePersist, err)
	}
	return nil
}

// ReadFile decodes a messages file without touching it.
func ReadFile(path string) ([]chat.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var messages []chat.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	return messages, nil
}

// writeFileAtomic replaces path with data through a temp file in the same
// directory, so readers see either the old or the new log.
func writeFileAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}
	return nil
}
