package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"k8s.io/klog/v2"
)

// DefaultSoftware is written to the Software chunk when none is configured.
var DefaultSoftware = "ffmeta"

// Embedder writes pixels to dest with r embedded and returns the written path.
type Embedder interface {
	Save(img image.Image, r Record, dest string) (string, error)
}

// PNGEmbedder saves PNG files carrying text chunks and an XMP packet.
type PNGEmbedder struct {
	Software string
	// Now defaults to time.Now.
	Now func() time.Time
}

func (e *PNGEmbedder) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *PNGEmbedder) software() string {
	if e.Software == "" {
		return DefaultSoftware
	}
	return e.Software
}

// Chunks returns the text chunks embedded for r.
func (e *PNGEmbedder) Chunks(r Record) ([]TextChunk, error) {
	cs := []TextChunk{}
	for _, kv := range []TextChunk{
		{"Title", r.Title},
		{"Description", r.Description},
		{"Author", r.Creator},
		{"Copyright", r.Copyright},
	} {
		if kv.Text != "" {
			cs = append(cs, kv)
		}
	}

	if !r.Empty() {
		x, err := XMP(r, e.software(), e.now())
		if err != nil {
			return nil, fmt.Errorf("xmp: %w", err)
		}
		cs = append(cs, TextChunk{XMPKeyword, string(x)})
	}

	if c, _ := r.CustomJSON(); c != "" {
		cs = append(cs, TextChunk{"Custom", c})
	}

	cs = append(cs, TextChunk{"Software", e.software()})
	return cs, nil
}

// Save encodes img as PNG with r embedded and writes it to dest.
func (e *PNGEmbedder) Save(img image.Image, r Record, dest string) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	var b bytes.Buffer
	if err := imgio.PNGEncoder()(&b, img); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}

	cs, err := e.Chunks(r)
	if err != nil {
		return "", err
	}

	bs, err := InsertTextChunks(b.Bytes(), cs)
	if err != nil {
		return "", fmt.Errorf("insert chunks: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(dest, bs, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	klog.Infof("saved %s with %d metadata fields (%d bytes)", dest, r.Fields(), len(bs))
	return dest, nil
}

// NextPath returns dir/prefix_YYYYMMDD_HHMMSS_NNNNN.png for the lowest counter not yet on disk.
func NextPath(dir string, prefix string, now time.Time) (string, error) {
	if prefix == "" {
		prefix = "image"
	}
	ts := now.Format("20060102_150405")

	for n := 1; n < 100000; n++ {
		p := filepath.Join(dir, fmt.Sprintf("%s_%s_%05d.png", prefix, ts, n))
		_, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat: %w", err)
		}
	}
	return "", fmt.Errorf("no free file name for %s_%s in %s", prefix, ts, dir)
}
