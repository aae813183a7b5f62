package engine

import (
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/barasher/go-exiftool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Groups {
	return Group(map[string]any{
		"SourceFile":       "/tmp/x.png",
		"IFD0:Make":        "Canon",
		"IFD0:Artist":      "Jo",
		"XMP-dc:Title":     "Harbor",
		"XMP-xmp:Rating":   float64(4),
		"PNG:ImageWidth":   float64(64),
		"ExifToolVersion":  13.1,
		"System:FileName":  "x.png",
		"XMP-dc:Subject":   []any{"boat", "dawn"},
		"Composite:Megapx": 0.004,
	})
}

func TestGroup(t *testing.T) {
	gs := sample()
	assert.Equal(t, 9, gs.Len())
	assert.Equal(t, "Canon", gs["IFD0"]["Make"])
	assert.Equal(t, 13.1, gs[""]["ExifToolVersion"])
	_, ok := gs.Get("SourceFile")
	assert.False(t, ok)

	v, ok := gs.Get("title")
	assert.True(t, ok)
	assert.Equal(t, "Harbor", v)
}

func TestFilterTags(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want Groups
	}{
		{"bare", []string{"make"}, Groups{"IFD0": {"Make": "Canon"}}},
		{"qualified", []string{"IFD0:Artist"}, Groups{"IFD0": {"Artist": "Jo"}}},
		{"family prefix", []string{"XMP:Title"}, Groups{"XMP-dc": {"Title": "Harbor"}}},
		{"wrong group", []string{"PNG:Make"}, Groups{}},
		{"missing", []string{"LensModel", " "}, Groups{}},
		{"several", []string{"Make", "Rating"}, Groups{"IFD0": {"Make": "Canon"}, "XMP-xmp": {"Rating": float64(4)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterTags(sample(), tt.tags))
		})
	}
}

func TestFilterGroup(t *testing.T) {
	assert.Equal(t, sample(), FilterGroup(sample(), ""))
	gs := FilterGroup(sample(), "xmp")
	assert.Len(t, gs, 2)
	assert.Contains(t, gs, "XMP-dc")
	assert.Contains(t, gs, "XMP-xmp")
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"Make", "Model", "EXIF:Artist"}, ParseTags("Make\n Model ,\n\nEXIF:Artist\n"))
	assert.Equal(t, []string{}, ParseTags("\n"))
}

func TestFormat(t *testing.T) {
	gs := Groups{"IFD0": {"Make": "Canon", "Artist": "Jo"}, "": {"ExifToolVersion": 13.1}}

	s, err := Format(gs, CompactJSON)
	require.NoError(t, err)
	assert.Equal(t, `{"":{"ExifToolVersion":13.1},"IFD0":{"Artist":"Jo","Make":"Canon"}}`, s)

	s, err = Format(gs, PrettyJSON)
	require.NoError(t, err)
	assert.Contains(t, s, "\n    \"Make\": \"Canon\"")

	s, err = Format(gs, HumanReadable)
	require.NoError(t, err)
	assert.Equal(t, "[(ungrouped)]\n  ExifToolVersion: 13.1\n[IFD0]\n  Artist: Jo\n  Make: Canon\n", s)

	_, err = Format(gs, "yaml")
	assert.Error(t, err)
}

func TestSetField(t *testing.T) {
	fm := exiftool.FileMetadata{Fields: map[string]interface{}{}}
	setField(fm, "Rating", float64(3))
	setField(fm, "FNumber", 2.8)
	setField(fm, "Keywords", []any{"a", "b"})
	setField(fm, "Artist", "Jo")
	setField(fm, "Flag", true)

	assert.EqualValues(t, 3, fm.Fields["Rating"])
	assert.EqualValues(t, 2.8, fm.Fields["FNumber"])
	ks, err := fm.GetStrings("Keywords")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ks)
	assert.Equal(t, "Jo", fm.Fields["Artist"])

	s, err := fm.GetString("Flag")
	require.NoError(t, err)
	assert.Equal(t, "true", s)
}

func TestExifToolRoundTrip(t *testing.T) {
	if _, err := exec.LookPath("exiftool"); err != nil {
		t.Skip("exiftool not installed")
	}

	p := filepath.Join(t.TempDir(), "blank.png")
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 8, 8))))
	require.NoError(t, f.Close())

	e, err := NewExifTool("")
	require.NoError(t, err)
	defer e.Close()

	gs, err := e.Write(p, map[string]any{"XMP:Title": "Harbor", "XMP:Rating": float64(4)}, true)
	require.NoError(t, err)
	v, ok := gs.Get("Title")
	require.True(t, ok)
	assert.Equal(t, "Harbor", v)

	gs, err = e.Read(p, "XMP:Title", "ImageWidth")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, gs.Len(), 2)

	_, err = e.Read(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	_, err = e.Write(p, nil, true)
	assert.Error(t, err)

	thumb, err := e.Thumbnail(p)
	require.NoError(t, err)
	assert.Nil(t, thumb)
}

func TestExifToolIncludeBinary(t *testing.T) {
	if _, err := exec.LookPath("exiftool"); err != nil {
		t.Skip("exiftool not installed")
	}

	e, err := NewExifTool("", IncludeBinary())
	require.NoError(t, err)
	defer e.Close()
	assert.Same(t, e.et, e.bin)

	p := filepath.Join(t.TempDir(), "blank.png")
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 8, 8))))
	require.NoError(t, f.Close())

	gs, err := e.Read(p, "ImageWidth")
	require.NoError(t, err)
	assert.Equal(t, 1, gs.Len())
}

func TestDecodeBinary(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    []byte
		wantErr bool
	}{
		{name: "base64", in: "base64:/9j/4A==", want: []byte{0xff, 0xd8, 0xff, 0xe0}},
		{name: "plain", in: "raw", want: []byte("raw")},
		{name: "bad base64", in: "base64:!!", wantErr: true},
		{name: "not a string", in: float64(3), wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeBinary(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewExifToolMissingBinary(t *testing.T) {
	_, err := NewExifTool(filepath.Join(t.TempDir(), "no-such-exiftool"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "start exiftool"))
}
