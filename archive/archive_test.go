package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert"

	"github.com/rowlog/termtools/recstore"
	"github.com/rowlog/termtools/u"
)

var fixedTime = time.Date(2025, time.August, 11, 20, 41, 36, 0, time.UTC)

func TestRotate(t *testing.T) {
	for _, comp := range []Compression{Gzip, Brotli, Zstd} {
		dir := t.TempDir()
		s := recstore.New("log", dir)
		s.Append(recstore.Row{"a", "b"})
		s.Append(recstore.Row{"c", "d"})
		orig, err := os.ReadFile(s.Path())
		assert.NoError(t, err)

		var notified string
		cfg := RotateConfig{
			Compression: comp,
			Now:         func() time.Time { return fixedTime },
			DidRotate:   func(p string) { notified = p },
		}
		p, err := Rotate(s, cfg)
		assert.NoError(t, err)
		want := filepath.Join(dir, "log-20250811-204136.csv."+string(comp))
		assert.Equal(t, want, p)
		assert.Equal(t, want, notified)

		// live file keeps its name, now empty
		assert.Equal(t, int64(0), u.FileSize(s.Path()))

		// archive round-trips
		d, err := ReadMaybeCompressed(p)
		assert.NoError(t, err)
		assert.Equal(t, orig, d)
	}
}

func TestRotateBelowThreshold(t *testing.T) {
	s := recstore.New("log", t.TempDir())
	s.Append(recstore.Row{"a"})
	size := u.FileSize(s.Path())

	p, err := Rotate(s, RotateConfig{MaxSize: 1 << 20})
	assert.NoError(t, err)
	assert.Equal(t, "", p)
	assert.Equal(t, size, u.FileSize(s.Path()))
}

func TestRotateMissingFile(t *testing.T) {
	s := recstore.New("log", t.TempDir())
	assert.NoError(t, os.Remove(s.Path()))
	_, err := Rotate(s, RotateConfig{})
	assert.Error(t, err)
}

func TestRotatedStoreStaysUsable(t *testing.T) {
	s := recstore.New("log", t.TempDir())
	s.Append(recstore.Row{"old"})
	_, err := Rotate(s, RotateConfig{})
	assert.NoError(t, err)

	s.Append(recstore.Row{"new"})
	d, err := os.ReadFile(s.Path())
	assert.NoError(t, err)
	assert.Equal(t, "new,\n", string(d))
}

func TestReadMaybeCompressedPlain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.csv")
	assert.NoError(t, os.WriteFile(path, []byte("a,b,\n"), 0644))
	d, err := ReadMaybeCompressed(path)
	assert.NoError(t, err)
	assert.Equal(t, "a,b,\n", string(d))
}

func TestRotateUnknownCompression(t *testing.T) {
	s := recstore.New("log", t.TempDir())
	_, err := Rotate(s, RotateConfig{Compression: "xz"})
	assert.Error(t, err)
}
