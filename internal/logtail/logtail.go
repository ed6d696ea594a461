package logtail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrNoLog indicates the log sink does not exist yet.
var ErrNoLog = errors.New("log file not found")

// DefaultTailLines is how much history the non-follow mode shows.
const DefaultTailLines = 50

// pollFallback is the polling cadence when an fsnotify watcher cannot be
// created (some filesystems do not support inotify).
const pollFallback = 500 * time.Millisecond

// Tail writes the last n lines of the log at path to w.
func Tail(w io.Writer, path string, n int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNoLog
		}
		return fmt.Errorf("failed to read log %s: %w", path, err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}

// Follow streams lines appended to the log at path until ctx is cancelled.
// It starts at the current end of file. Truncation (rotation) resets the
// read position to the new start.
func Follow(ctx context.Context, w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNoLog
		}
		return fmt.Errorf("failed to open log %s: %w", path, err)
	}
	defer f.Close()

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("failed to seek log %s: %w", path, err)
	}

	notify, cleanup := watchChanges(path)
	defer cleanup()

	reader := bufio.NewReader(f)
	var pending string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-notify:
		}

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("log %s went away: %w", path, err)
		}
		if info.Size() < offset {
			// Rotated or truncated underneath us: start over.
			if offset, err = f.Seek(0, io.SeekStart); err != nil {
				return err
			}
			reader.Reset(f)
			pending = ""
		}

		for {
			chunk, err := reader.ReadString('\n')
			offset += int64(len(chunk))
			if strings.HasSuffix(chunk, "\n") {
				// A line written in several chunks is emitted whole.
				fmt.Fprint(w, pending, chunk)
				pending = ""
			} else {
				pending += chunk
			}
			if err != nil {
				break
			}
		}
	}
}

// watchChanges delivers a tick whenever the log may have grown, preferring
// fsnotify and degrading to polling.
func watchChanges(path string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	ping := func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		// Watch the directory: rotation replaces the file itself.
		err = watcher.Add(filepath.Dir(path))
	}
	if err != nil {
		if watcher != nil {
			watcher.Close()
		}
		ticker := time.NewTicker(pollFallback)
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					ping()
				}
			}
		}()
		return ch, func() { ticker.Stop(); close(done) }
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name == path && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					ping()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				ping()
			}
		}
	}()
	return ch, func() { close(done); watcher.Close() }
}
