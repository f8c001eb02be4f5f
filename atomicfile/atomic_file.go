// Package atomicfile writes a file so that it either fully appears at the
// destination path or not at all: data goes to a temp file in the same
// directory which is renamed over the destination on Close.
package atomicfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// ErrCancelled is returned by calls made after RemoveIfNotClosed
var ErrCancelled = errors.New("cancelled")

var _ io.WriteCloser = &File{}

// File collects writes in a temp file and renames it into place on Close.
// The first error encountered sticks: all later calls return it and the
// destination file is never created.
type File struct {
	dstPath string
	dir     string
	tmpFile *os.File
	tmpPath string
	err     error
}

// New creates a File that will materialize at path on a successful Close
func New(path string) (*File, error) {
	dir, name := filepath.Split(path)
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}
	tmpFile, err := os.CreateTemp(dir, name)
	if err != nil {
		return nil, err
	}
	return &File{
		dstPath: path,
		dir:     dir,
		tmpFile: tmpFile,
		tmpPath: tmpFile.Name(),
	}, nil
}

func (f *File) latch(err error) error {
	if err == nil {
		return nil
	}
	if f.err == nil {
		f.err = err
	}
	_ = f.Close()
	return err
}

func (f *File) Write(d []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := f.tmpFile.Write(d)
	return n, f.latch(err)
}

func (f *File) WriteString(s string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := f.tmpFile.WriteString(s)
	return n, f.latch(err)
}

// RemoveIfNotClosed deletes the temp file if Close wasn't called yet; the
// destination is not created. Meant for defer, so a panic between New and
// Close doesn't leave the temp file behind. After Close it's a no-op.
func (f *File) RemoveIfNotClosed() {
	if f == nil || f.tmpFile == nil {
		return
	}
	f.err = ErrCancelled
	_ = f.Close()
}

// Close syncs the temp file and renames it over the destination. Safe to
// call more than once; later calls return the first error.
func (f *File) Close() error {
	if f.tmpFile == nil {
		return f.err
	}
	tmpFile := f.tmpFile
	f.tmpFile = nil

	// https://www.joeshaw.org/dont-defer-close-on-writable-files/
	errSync := tmpFile.Sync()
	errClose := tmpFile.Close()

	didRename := false
	defer func() {
		if !didRename {
			_ = os.Remove(f.tmpPath)
		}
	}()

	if f.err != nil {
		return f.err
	}

	err := errSync
	if err == nil {
		err = errClose
	}
	if err == nil {
		err = os.Rename(f.tmpPath, f.dstPath)
		didRename = (err == nil)
		// sync the directory so the rename itself is durable
		if fdir, _ := os.Open(f.dir); fdir != nil {
			_ = fdir.Sync()
			_ = fdir.Close()
		}
	}
	f.err = err
	return f.err
}
