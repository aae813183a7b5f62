package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstromberg/ffmeta/pkg/engine"
	"github.com/tstromberg/ffmeta/pkg/report"
)

type fakeEngine struct {
	gs       engine.Groups
	readTags []string
	wrote    map[string]any
	path     string
	preserve bool
	thumb    []byte
}

func (f *fakeEngine) Read(path string, tags ...string) (engine.Groups, error) {
	f.path = path
	f.readTags = tags
	if len(tags) > 0 {
		return engine.FilterTags(f.gs, tags), nil
	}
	return f.gs, nil
}

func (f *fakeEngine) Write(path string, fields map[string]any, preserve bool) (engine.Groups, error) {
	f.path = path
	f.wrote = fields
	f.preserve = preserve
	return f.gs, nil
}

func (f *fakeEngine) Thumbnail(path string) ([]byte, error) {
	f.path = path
	return f.thumb, nil
}

func (f *fakeEngine) Close() error { return nil }

func withFlags(t *testing.T, o, g, ts, s, cp string) {
	t.Helper()
	old := []string{*op, *group, *tags, *set, *copyTo}
	*op, *group, *tags, *set, *copyTo = o, g, ts, s, cp
	t.Cleanup(func() {
		*op, *group, *tags, *set, *copyTo = old[0], old[1], old[2], old[3], old[4]
	})
}

func fake() *fakeEngine {
	return &fakeEngine{gs: engine.Groups{
		"IFD0":   {"Make": "Canon", "Artist": "Jo"},
		"XMP-dc": {"Title": "Harbor"},
	}}
}

func TestRunReadGroup(t *testing.T) {
	withFlags(t, "read", "xmp", "", "", "")
	gs, err := run(fake(), &report.Log{})
	require.NoError(t, err)
	assert.Equal(t, engine.Groups{"XMP-dc": {"Title": "Harbor"}}, gs)
}

func TestRunTags(t *testing.T) {
	withFlags(t, "tags", "", "Make\nTitle", "", "")
	f := fake()
	gs, err := run(f, &report.Log{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Make", "Title"}, f.readTags)
	assert.Equal(t, 2, gs.Len())

	withFlags(t, "tags", "", " \n", "", "")
	_, err = run(fake(), &report.Log{})
	assert.Error(t, err)
}

func TestRunWrite(t *testing.T) {
	withFlags(t, "write", "", "", `{"EXIF:Artist": "Jo", "XMP:Rating": 4}`, "")
	f := fake()
	_, err := run(f, &report.Log{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"EXIF:Artist": "Jo", "XMP:Rating": float64(4)}, f.wrote)
	assert.True(t, f.preserve)

	withFlags(t, "write", "", "", `{not json`, "")
	_, err = run(fake(), &report.Log{})
	assert.Error(t, err)
}

func TestRunWriteToCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "copies", "dst.png")
	require.NoError(t, os.WriteFile(src, []byte("png bytes"), 0o644))

	oldFile := *file
	*file = src
	t.Cleanup(func() { *file = oldFile })

	withFlags(t, "write", "", "", `{"XMP:Title": "x"}`, dst)
	f := fake()
	_, err := run(f, &report.Log{})
	require.NoError(t, err)
	assert.Equal(t, dst, f.path)

	bs, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(bs))
}

func TestRunUnknownOp(t *testing.T) {
	withFlags(t, "delete", "", "", "", "")
	_, err := run(fake(), &report.Log{})
	assert.Error(t, err)
}

func TestRunExtractEmbedded(t *testing.T) {
	withFlags(t, "read", "", "", "", "")
	old := *extract
	*extract = true
	t.Cleanup(func() { *extract = old })

	f := fake()
	f.thumb = make([]byte, 1234)
	log := &report.Log{}
	_, err := run(f, log)
	require.NoError(t, err)
	assert.Contains(t, log.String(), "Extracted embedded thumbnail (1234 bytes)")

	log = &report.Log{}
	_, err = run(fake(), log)
	require.NoError(t, err)
	assert.Contains(t, log.String(), "No embedded files found")

	*extract = false
	log = &report.Log{}
	_, err = run(f, log)
	require.NoError(t, err)
	assert.NotContains(t, log.String(), "embedded")
}
