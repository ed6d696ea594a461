package marker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func fileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "hexar.pid"))
}

func TestStores(t *testing.T) {
	stores := []struct {
		name string
		make func(t *testing.T) Store
	}{
		{"file", func(t *testing.T) Store { return fileStore(t) }},
		{"memory", func(t *testing.T) Store { return NewMemoryStore() }},
	}

	for _, ts := range stores {
		t.Run(ts.name, func(t *testing.T) {
			t.Run("read without marker", func(t *testing.T) {
				s := ts.make(t)
				if _, err := s.Read(); !errors.Is(err, ErrNoMarker) {
					t.Errorf("Read() error = %v, want ErrNoMarker", err)
				}
			})

			t.Run("write then read", func(t *testing.T) {
				s := ts.make(t)
				if err := s.Write(4242); err != nil {
					t.Fatalf("Write failed: %v", err)
				}
				pid, err := s.Read()
				if err != nil || pid != 4242 {
					t.Errorf("Read() = (%d, %v), want (4242, nil)", pid, err)
				}
			})

			t.Run("write replaces", func(t *testing.T) {
				s := ts.make(t)
				if err := s.Write(1); err != nil {
					t.Fatal(err)
				}
				if err := s.Write(2); err != nil {
					t.Fatal(err)
				}
				if pid, _ := s.Read(); pid != 2 {
					t.Errorf("Read() = %d, want 2", pid)
				}
			})

			t.Run("acquire is exclusive", func(t *testing.T) {
				s := ts.make(t)
				if err := s.Acquire(100); err != nil {
					t.Fatalf("first Acquire failed: %v", err)
				}
				if err := s.Acquire(200); !errors.Is(err, ErrMarkerExists) {
					t.Errorf("second Acquire error = %v, want ErrMarkerExists", err)
				}
				if pid, _ := s.Read(); pid != 100 {
					t.Errorf("loser overwrote marker: pid = %d, want 100", pid)
				}
			})

			t.Run("clear is idempotent", func(t *testing.T) {
				s := ts.make(t)
				if err := s.Write(7); err != nil {
					t.Fatal(err)
				}
				if err := s.Clear(); err != nil {
					t.Fatalf("first Clear failed: %v", err)
				}
				if err := s.Clear(); err != nil {
					t.Errorf("second Clear failed: %v", err)
				}
				if _, err := s.Read(); !errors.Is(err, ErrNoMarker) {
					t.Errorf("Read after Clear error = %v, want ErrNoMarker", err)
				}
			})

			t.Run("rejects non-positive pid", func(t *testing.T) {
				s := ts.make(t)
				if err := s.Write(0); err == nil {
					t.Error("Write(0) should fail")
				}
				if err := s.Acquire(-1); err == nil {
					t.Error("Acquire(-1) should fail")
				}
			})
		})
	}
}

func TestFileStoreCorruptMarker(t *testing.T) {
	s := fileStore(t)
	if err := os.WriteFile(s.Path(), []byte("not-a-pid\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Read(); err == nil || errors.Is(err, ErrNoMarker) {
		t.Errorf("Read of corrupt marker should fail with a distinct error, got %v", err)
	}
}

func TestFileStoreWriteIsDurable(t *testing.T) {
	s := fileStore(t)
	if err := s.Write(999); err != nil {
		t.Fatal(err)
	}

	// A fresh store over the same path must see the PID: the marker
	// survives the writer.
	again := NewFileStore(s.Path())
	pid, err := again.Read()
	if err != nil || pid != 999 {
		t.Errorf("Read from fresh store = (%d, %v), want (999, nil)", pid, err)
	}
}
