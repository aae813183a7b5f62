package loader

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstromberg/ffmeta/pkg/selector"
)

func writePNG(t *testing.T, path string, w, h int, mtime time.Time) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestLoadNewest(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writePNG(t, filepath.Join(dir, "old.png"), 8, 4, now.Add(-time.Hour))
	writePNG(t, filepath.Join(dir, "new.png"), 6, 3, now)

	q := selector.Query{Dir: dir, Pattern: "*.png,*.jpg", SortKey: selector.ByModified, Order: selector.Descending}
	l, err := Load(selector.New(), q)
	require.NoError(t, err)

	assert.Equal(t, "new.png", l.Name)
	assert.Equal(t, 2, l.Total)
	assert.Equal(t, 6, l.Width)
	assert.Equal(t, 3, l.Height)
	assert.Equal(t, "png", l.Format)
	assert.Equal(t, filepath.Join(dir, "new.png"), l.Path)

	rep := l.Report()
	assert.Contains(t, rep, "Found 2 image(s) in folder")
	assert.Contains(t, rep, "Loading image 1 of 2...")
	assert.Contains(t, rep, "Dimensions: 6x3")
}

func TestLoadIndexOutOfRange(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 2, 2, time.Now())

	_, err := Load(selector.New(), selector.Query{Dir: dir, Pattern: "*.png", Index: 3})
	var ie *IndexError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 1, ie.Total)
	assert.Contains(t, err.Error(), "indices 0-0")
}

func TestLoadEmptyFolder(t *testing.T) {
	_, err := Load(selector.New(), selector.Query{Dir: t.TempDir(), Pattern: "*.png"})
	assert.True(t, errors.Is(err, ErrNoImages))
}

func TestLoadCorruptImage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644))

	_, err := Load(selector.New(), selector.Query{Dir: dir, Pattern: "*.png"})
	assert.Error(t, err)
}

func TestStartReport(t *testing.T) {
	s := StartReport(selector.Query{Dir: "/in", Pattern: "*.png", SortKey: selector.BySize, Recursive: true}).String()
	assert.Contains(t, s, "  path: /in\n")
	assert.Contains(t, s, "  sort_by: size\n")
	assert.Contains(t, s, "  recursive: true\n")
}
