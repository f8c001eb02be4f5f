// Package archive rotates a grown record file into a compressed,
// timestamped archive next to it, and reads such archives back.
package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"github.com/rowlog/termtools/atomicfile"
	"github.com/rowlog/termtools/recstore"
	"github.com/rowlog/termtools/u"
)

// Compression selects the codec for rotated archives. The value doubles
// as the archive file extension.
type Compression string

const (
	Gzip   Compression = "gz"
	Brotli Compression = "br"
	Zstd   Compression = "zst"
)

type RotateConfig struct {
	// MaxSize is the size in bytes above which the record file is
	// rotated. 0 rotates unconditionally.
	MaxSize int64
	// Compression for the archive, Gzip if empty
	Compression Compression
	// DidRotate is called with the archive path after a rotation
	DidRotate func(archivePath string)
	// Now overrides the clock used in archive names, for tests
	Now func() time.Time
}

// Rotate compresses the store's record file into
// <name>-YYYYMMDD-HHMMSS.<ext>.<codec> in the store directory and
// truncates the live file, which keeps its name. Returns the archive
// path, or "" if the file is still below cfg.MaxSize.
//
// Like the store itself, Rotate must not run concurrently with writers.
func Rotate(s *recstore.Store, cfg RotateConfig) (string, error) {
	path := s.Path()
	size := u.FileSize(path)
	if size < 0 {
		return "", fmt.Errorf("record file does not exist: %s", path)
	}
	if cfg.MaxSize > 0 && size < cfg.MaxSize {
		return "", nil
	}
	comp := cfg.Compression
	if comp == "" {
		comp = Gzip
	}
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}

	d, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	ts := now().Format("20060102-150405")
	archivePath := fmt.Sprintf("%s-%s%s.%s", base, ts, ext, comp)

	f, err := atomicfile.New(archivePath)
	if err != nil {
		return "", err
	}
	defer f.RemoveIfNotClosed()

	w, err := newCompressor(f, comp)
	if err != nil {
		return "", err
	}
	_, err = w.Write(d)
	err2 := w.Close()
	if err = u.GetErr(err, err2); err != nil {
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}

	if err = os.Truncate(path, 0); err != nil {
		return "", err
	}
	if cfg.DidRotate != nil {
		cfg.DidRotate(archivePath)
	}
	return archivePath, nil
}

func newCompressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case Brotli:
		return brotli.NewWriterLevel(w, brotli.BestCompression), nil
	case Zstd:
		// zstd.SpeedBestCompression: rotation is rare, size wins
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
	return nil, fmt.Errorf("unknown compression: %s", c)
}

// implement io.ReadCloser over os.File wrapped with a decompressing reader.
// io.Closer goes to os.File, io.Reader to the wrapping reader
type readerWrappedFile struct {
	f *os.File
	r io.Reader
}

func (rc *readerWrappedFile) Close() error {
	return rc.f.Close()
}

func (rc *readerWrappedFile) Read(p []byte) (int, error) {
	return rc.r.Read(p)
}

func wrapInReadCloser(f *os.File, r io.Reader, err error) (io.ReadCloser, error) {
	if err != nil {
		f.Close()
		return nil, err
	}
	return &readerWrappedFile{f: f, r: r}, nil
}

// OpenMaybeCompressed opens a file that might be a gzip, brotli or zstd
// archive, picking the codec by extension
func OpenMaybeCompressed(path string) (io.ReadCloser, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch Compression(ext) {
	case Gzip:
		r, err := gzip.NewReader(f)
		return wrapInReadCloser(f, r, err)
	case Brotli:
		return wrapInReadCloser(f, brotli.NewReader(f), nil)
	case Zstd:
		r, err := zstd.NewReader(f)
		return wrapInReadCloser(f, r, err)
	}
	return f, nil
}

// ReadMaybeCompressed reads a file, decompressing it if archived
func ReadMaybeCompressed(path string) ([]byte, error) {
	r, err := OpenMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
