package tlog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// pollDefault is the fallback interval when fsnotify cannot watch the log.
const pollDefault = time.Second

// Tail returns the last n lines of the log and the file size they were
// read at, so a caller can Follow from exactly that offset.
func Tail(path string, n int) ([]string, int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("tlog: tail: %w", err)
	}
	size := int64(len(data))
	data = bytes.TrimRight(data, "\n")
	if len(data) == 0 || n <= 0 {
		return nil, size, nil
	}

	parts := bytes.Split(data, []byte("\n"))
	if len(parts) > n {
		parts = parts[len(parts)-n:]
	}
	lines := make([]string, len(parts))
	for i, p := range parts {
		lines[i] = string(p)
	}
	return lines, size, nil
}

// Follower streams lines appended to a log after a given offset.
type Follower struct {
	path     string
	offset   int64
	partial  []byte
	interval time.Duration
}

// NewFollower creates a follower that starts reading at offset.
func NewFollower(path string, offset int64) *Follower {
	return &Follower{path: path, offset: offset, interval: pollDefault}
}

// SetPollInterval changes the fallback polling interval.
func (f *Follower) SetPollInterval(d time.Duration) {
	if d > 0 {
		f.interval = d
	}
}

// Run calls fn for every complete line appended to the log. It blocks
// until ctx is cancelled or fn returns an error. Change notifications come
// from fsnotify on the log's directory; a ticker also polls for watchers
// that miss events (network filesystems).
func (f *Follower) Run(ctx context.Context, fn func(line []byte) error) error {
	var events <-chan fsnotify.Event
	var errs <-chan error
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		defer func() { _ = watcher.Close() }()
		if watcher.Add(filepath.Dir(f.path)) == nil {
			events, errs = watcher.Events, watcher.Errors
		}
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	if err := f.drain(fn); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := f.drain(fn); err != nil {
				return err
			}
		case _, ok := <-errs:
			if !ok {
				errs = nil
			}
		case <-ticker.C:
			if err := f.drain(fn); err != nil {
				return err
			}
		}
	}
}

// drain reads everything past the offset and emits complete lines. A
// trailing partial line is held until its newline arrives. A file that
// shrank is treated as rotated and read from the start.
func (f *Follower) drain(fn func(line []byte) error) error {
	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("tlog: follow: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("tlog: follow: %w", err)
	}
	if info.Size() < f.offset {
		f.offset = 0
		f.partial = nil
	}
	if info.Size() == f.offset {
		return nil
	}
	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return fmt.Errorf("tlog: follow: %w", err)
	}

	r := bufio.NewReader(file)
	for {
		chunk, err := r.ReadBytes('\n')
		f.offset += int64(len(chunk))
		if len(chunk) > 0 && chunk[len(chunk)-1] == '\n' {
			line := append(f.partial, chunk[:len(chunk)-1]...)
			f.partial = nil
			if len(line) > 0 {
				if ferr := fn(line); ferr != nil {
					return ferr
				}
			}
		} else if len(chunk) > 0 {
			f.partial = append(f.partial, chunk...)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("tlog: follow: %w", err)
		}
	}
}

// Follow streams lines appended to path from offset until ctx is done.
func Follow(ctx context.Context, path string, offset int64, fn func(line []byte) error) error {
	return NewFollower(path, offset).Run(ctx, fn)
}
