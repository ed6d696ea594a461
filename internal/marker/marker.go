package marker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrNoMarker indicates no instance marker exists.
	ErrNoMarker = errors.New("no instance marker")
	// ErrMarkerExists indicates another start already claimed the marker.
	ErrMarkerExists = errors.New("instance marker already exists")
)

// Store is the single source of truth for "an instance is running".
// File-backed in production, in-memory for tests.
type Store interface {
	// Write records the PID, replacing any existing marker. Atomic with
	// respect to a concurrent Read.
	Write(pid int) error

	// Acquire records the PID only if no marker exists, so concurrent
	// starts resolve to a deterministic winner. Returns ErrMarkerExists
	// on loss.
	Acquire(pid int) error

	// Read returns the recorded PID, or ErrNoMarker.
	Read() (int, error)

	// Clear removes the marker. Idempotent.
	Clear() error
}

// FileStore keeps the marker as a single PID in a text file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed marker store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the marker file location.
func (s *FileStore) Path() string {
	return s.path
}

// Write records the PID via a temp file and rename, so a concurrent Read
// never observes a partially written marker.
func (s *FileStore) Write(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".hexar.pid.*")
	if err != nil {
		return fmt.Errorf("failed to create marker temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := fmt.Fprintf(tmp, "%d\n", pid); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close marker temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish marker: %w", err)
	}
	return nil
}

// Acquire claims the marker with an exclusive create.
func (s *FileStore) Acquire(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return ErrMarkerExists
		}
		return fmt.Errorf("failed to acquire marker: %w", err)
	}

	if _, err := fmt.Fprintf(f, "%d\n", pid); err != nil {
		f.Close()
		os.Remove(s.path)
		return fmt.Errorf("failed to write marker: %w", err)
	}
	return f.Close()
}

// Read returns the recorded PID.
func (s *FileStore) Read() (int, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNoMarker
		}
		return 0, fmt.Errorf("failed to read marker: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("corrupt marker %s: %q", s.path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// Clear removes the marker file. Missing marker is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear marker: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory marker store for tests.
type MemoryStore struct {
	mu  sync.RWMutex
	pid int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Write(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pid = pid
	return nil
}

func (s *MemoryStore) Acquire(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pid != 0 {
		return ErrMarkerExists
	}
	s.pid = pid
	return nil
}

func (s *MemoryStore) Read() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pid == 0 {
		return 0, ErrNoMarker
	}
	return s.pid, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pid = 0
	return nil
}
