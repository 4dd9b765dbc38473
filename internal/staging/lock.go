package staging

import (
	"log/slog"

	"github.com/gofrs/flock"
)

// Locker guards the staging directory across processes. Conversions hold the
// shared lock while creating or releasing files; pruning holds the exclusive one.
type Locker interface {
	RLock() error
	Lock() error
	Unlock() error
}

// FileLock is a Locker backed by an flock on a file inside the staging directory
type FileLock struct {
	filePath string
	flock    *flock.Flock
}

// NewFileLock creates a lock on filePath; the file is created on first use
func NewFileLock(filePath string) *FileLock {
	slog.Debug("creating staging lock", "file_path", filePath)

	return &FileLock{
		filePath: filePath,
		flock:    flock.New(filePath),
	}
}

// RLock acquires the shared lock (blocking)
func (fl *FileLock) RLock() error {
	if err := fl.flock.RLock(); err != nil {
		slog.Error("failed to acquire shared staging lock", "file_path", fl.filePath, "error", err)
		return err
	}
	return nil
}

// Lock acquires the exclusive lock (blocking)
func (fl *FileLock) Lock() error {
	slog.Debug("acquiring exclusive staging lock", "file_path", fl.filePath)

	if err := fl.flock.Lock(); err != nil {
		slog.Error("failed to acquire exclusive staging lock", "file_path", fl.filePath, "error", err)
		return err
	}

	slog.Info("exclusive staging lock acquired", "file_path", fl.filePath)
	return nil
}

// Unlock releases whichever lock is held
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		slog.Error("failed to release staging lock", "file_path", fl.filePath, "error", err)
		return err
	}
	return nil
}

// NopLocker is a Locker for single-process use and in-memory filesystems
type NopLocker struct{}

func (NopLocker) RLock() error  { return nil }
func (NopLocker) Lock() error   { return nil }
func (NopLocker) Unlock() error { return nil }
