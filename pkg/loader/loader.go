// Package loader loads one image out of a folder and keeps its file path for metadata reads.
package loader

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/anthonynsimon/bild/imgio"
	"k8s.io/klog/v2"

	"github.com/tstromberg/ffmeta/pkg/report"
	"github.com/tstromberg/ffmeta/pkg/selector"
)

// ErrNoImages means the folder has no image matching the pattern.
var ErrNoImages = errors.New("no images found")

// IndexError means the folder has images, but fewer than the index asks for.
type IndexError struct {
	Index int
	Total int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("image index %d out of range: folder contains %d images (indices 0-%d)", e.Index, e.Total, e.Total-1)
}

// Loaded is a decoded image plus the file it came from.
type Loaded struct {
	Path   string
	Name   string
	Index  int
	Total  int
	Size   int64
	Width  int
	Height int
	Format string
	Image  image.Image
	Query  selector.Query
}

// Load selects an image with q and decodes it.
func Load(s *selector.Selector, q selector.Query) (*Loaded, error) {
	r, err := s.Select(q)
	if err != nil {
		return nil, err
	}

	if r.Total == 0 {
		return nil, fmt.Errorf("%w in %s (pattern %q)", ErrNoImages, q.Dir, q.Pattern)
	}
	if !r.Found() {
		return nil, &IndexError{Index: q.Index, Total: r.Total}
	}

	c := r.Selected
	format, err := decodeFormat(c.Path)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	img, err := imgio.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("imgio.Open: %w", err)
	}

	l := &Loaded{
		Path:   c.Path,
		Name:   c.Name,
		Index:  q.Index,
		Total:  r.Total,
		Size:   c.Size,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Format: format,
		Image:  img,
		Query:  q,
	}
	klog.Infof("loaded image: %s (%d/%d)", l.Name, l.Index+1, l.Total)
	return l, nil
}

func decodeFormat(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, format, err := image.DecodeConfig(f)
	return format, err
}

// StartReport opens the debug report for q.
func StartReport(q selector.Query) *report.Log {
	l := report.New("LOCAL Image Loading from Folder", "Load image with metadata preservation", "Direct file access")
	l.Section("Folder Settings")
	l.Field("path", q.Dir)
	l.Field("pattern", q.Pattern)
	l.Field("sort_by", q.SortKey)
	l.Field("sort_order", q.Order)
	l.Field("recursive", q.Recursive)
	l.Rule()
	l.Linef("Scanning folder for images...")
	return l
}

// Report renders the debug report for a successful load.
func (l *Loaded) Report() string {
	r := StartReport(l.Query)
	r.Linef("\nFound %d image(s) in folder", l.Total)
	r.Linef("Sorted by: %s", l.Query.SortKey)
	r.Linef("")
	r.Rule()
	r.Linef("Loading image %d of %d...", l.Index+1, l.Total)
	r.OK("Image loaded successfully")
	r.Field("File", l.Name)
	r.Field("Path", filepath.Dir(l.Path))
	r.Field("Size", report.KB(l.Size))
	r.Field("Dimensions", fmt.Sprintf("%dx%d", l.Width, l.Height))
	r.Field("Format", l.Format)
	r.Linef("\n[INFO] Pass the file path, not the pixels, to a metadata reader")
	r.Rule()
	return r.String()
}
