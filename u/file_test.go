package u

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert"
)

func TestPathHelpers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "f.txt")

	assert.False(t, PathExists(path))
	assert.False(t, FileExists(path))
	assert.Equal(t, int64(-1), FileSize(path))

	assert.NoError(t, CreateEmptyFile(path))
	assert.True(t, PathExists(path))
	assert.True(t, FileExists(path))
	assert.Equal(t, int64(0), FileSize(path))

	assert.True(t, DirExists(filepath.Join(dir, "sub")))
	assert.False(t, DirExists(path))

	assert.NoError(t, os.WriteFile(path, []byte("abc"), 0644))
	assert.Equal(t, int64(3), FileSize(path))
}

func TestGetErr(t *testing.T) {
	e1 := errors.New("first")
	e2 := errors.New("second")
	assert.Nil(t, GetErr(nil, nil))
	assert.Equal(t, e1, GetErr(nil, e1, e2))
	assert.Equal(t, e2, GetErr(e2, e1))
}
