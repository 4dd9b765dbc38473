// Package staging manages the shared scratch directory that converters use
// for intermediate files. Every file lives in its own uniquely named
// subdirectory so concurrent requests never collide, and is removed by
// Release on every path.
package staging

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// LockFileName is the lock file kept at the top of the staging directory
const LockFileName = ".forge.lock"

// Area is a staging directory
type Area struct {
	fs   afero.Fs
	dir  string
	lock Locker
	mu   sync.Mutex
}

// New creates a staging area rooted at dir. The directory is created lazily.
func New(fsys afero.Fs, dir string, lock Locker) *Area {
	slog.Debug("creating staging area", "dir", dir)
	if lock == nil {
		lock = NopLocker{}
	}
	return &Area{fs: fsys, dir: dir, lock: lock}
}

// Dir returns the staging root
func (a *Area) Dir() string {
	return a.dir
}

// File is a staged file. Path is where the file lives; tools may write
// siblings next to it and they are removed together on Release.
type File struct {
	Path string

	area *Area
	once sync.Once
	err  error
}

// Release removes the file and its private directory. Safe to call repeatedly.
func (f *File) Release() error {
	f.once.Do(func() {
		f.err = f.area.withShared(func() error {
			return f.area.fs.RemoveAll(filepath.Dir(f.Path))
		})
		if f.err != nil {
			slog.Error("failed to release staged file", "path", f.Path, "error", f.err)
			return
		}
		slog.Debug("staged file released", "path", f.Path)
	})
	return f.err
}

// Reserve allocates a path for a file named name without creating the file,
// for tools that write their own output
func (a *Area) Reserve(name string) (*File, error) {
	var path string
	err := a.withShared(func() error {
		sub := filepath.Join(a.dir, uuid.NewString())
		if err := a.fs.MkdirAll(sub, 0o755); err != nil {
			return fmt.Errorf("create staging directory: %w", err)
		}
		path = filepath.Join(sub, filepath.Base(name))
		return nil
	})
	if err != nil {
		slog.Error("failed to reserve staged file", "name", name, "error", err)
		return nil, err
	}

	slog.Debug("staged file reserved", "path", path)
	return &File{Path: path, area: a}, nil
}

// Write stages data under name
func (a *Area) Write(name string, data []byte) (*File, error) {
	f, err := a.Reserve(name)
	if err != nil {
		return nil, err
	}
	if err := afero.WriteFile(a.fs, f.Path, data, 0o644); err != nil {
		_ = f.Release()
		return nil, fmt.Errorf("write staged file: %w", err)
	}
	return f, nil
}

// Prune removes staged entries last modified before cutoff and returns how
// many were removed
func (a *Area) Prune(cutoff time.Time) (int, error) {
	slog.Debug("pruning staging area", "dir", a.dir, "cutoff", cutoff)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureDir(); err != nil {
		return 0, err
	}
	if err := a.lock.Lock(); err != nil {
		return 0, fmt.Errorf("lock staging area: %w", err)
	}
	defer a.lock.Unlock()

	entries, err := afero.ReadDir(a.fs, a.dir)
	if err != nil {
		return 0, fmt.Errorf("read staging directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.Name() == LockFileName || !entry.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(a.dir, entry.Name())
		if err := a.fs.RemoveAll(path); err != nil {
			slog.Error("failed to prune staged entry", "path", path, "error", err)
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
		removed++
	}

	slog.Info("staging area pruned", "dir", a.dir, "removed", removed, "scanned", len(entries))
	return removed, nil
}

// ensureDir creates the staging root, which must exist before the lock file can
func (a *Area) ensureDir() error {
	if err := a.fs.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("create staging directory %s: %w", a.dir, err)
	}
	return nil
}

func (a *Area) withShared(fn func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureDir(); err != nil {
		return err
	}
	if err := a.lock.RLock(); err != nil {
		return fmt.Errorf("lock staging area: %w", err)
	}
	defer a.lock.Unlock()
	return fn()
}
