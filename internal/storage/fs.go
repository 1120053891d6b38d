// Package storage implements the on-disk layer (spec §4.6, C7): the file
// abstraction, SDSS-style versioned headers, the append-only GNS journal,
// the per-model batched row journal, and the flat-file system database.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CreateDisposition reports whether OpenOrCreate found an existing file or
// had to create a new one, which callers use to decide whether to write a
// fresh header or validate an existing one.
type CreateDisposition int

const (
	Existing CreateDisposition = iota
	Created
)

// File wraps an *os.File with the read/write/seek primitives the journal
// and sys.db layers need, plus an fsync that's explicit about which
// durability point it's establishing.
type File struct {
	f    *os.File
	path string
}

// CreateRW creates a new file for read-write access, failing if one already
// exists at path.
func CreateRW(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", path, err)
	}
	return &File{f: f, path: path}, nil
}

// OpenRW opens an existing file for read-write access.
func OpenRW(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return &File{f: f, path: path}, nil
}

// OpenOrCreateRW opens path if it exists, or creates it if it doesn't,
// reporting which happened so callers can branch between "validate header"
// and "write header" on startup.
func OpenOrCreateRW(path string) (*File, CreateDisposition, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err == nil {
		return &File{f: f, path: path}, Existing, nil
	}
	if !os.IsNotExist(err) {
		return nil, Existing, fmt.Errorf("storage: open %s: %w", path, err)
	}
	created, err := CreateRW(path)
	if err != nil {
		return nil, Created, err
	}
	return created, Created, nil
}

func (f *File) Path() string { return f.path }

// ReadExact reads exactly len(buf) bytes or returns an error (io.ReadFull
// semantics: io.ErrUnexpectedEOF on a short final read).
func (f *File) ReadExact(buf []byte) error {
	_, err := io.ReadFull(f.f, buf)
	return err
}

func (f *File) Write(buf []byte) (int, error) { return f.f.Write(buf) }

func (f *File) WriteAt(buf []byte, offset int64) (int, error) { return f.f.WriteAt(buf, offset) }

func (f *File) Seek(offset int64, whence int) (int64, error) { return f.f.Seek(offset, whence) }

func (f *File) Length() (int64, error) {
	info, err := f.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (f *File) Truncate(size int64) error { return f.f.Truncate(size) }

// SyncWriteCache fsyncs the file, establishing a durability point. Every
// journal append and every sys.db CoW swap calls this before the write is
// considered committed.
func (f *File) SyncWriteCache() error { return f.f.Sync() }

func (f *File) Close() error { return f.f.Close() }

// RenameFile atomically replaces dst with src (used by the sys.db
// copy-on-write swap: write sys.db.cow, fsync, rename over sys.db).
func RenameFile(src, dst string) error {
	return os.Rename(src, dst)
}

// RemoveFile deletes a file, tolerating it already being gone.
func RemoveFile(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// JoinDataPath joins a data directory with a relative component, used to
// build every file the storage layer owns (sys.db, the GNS journal, and
// each model's batched journal file).
func JoinDataPath(dataDir string, parts ...string) string {
	return filepath.Join(append([]string{dataDir}, parts...)...)
}
