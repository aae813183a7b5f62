// addxmp saves an image as PNG with title, keywords, rights and rating embedded.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/anthonynsimon/bild/imgio"
	"k8s.io/klog/v2"

	"github.com/tstromberg/ffmeta/pkg/config"
	"github.com/tstromberg/ffmeta/pkg/engine"
	"github.com/tstromberg/ffmeta/pkg/metadata"
	"github.com/tstromberg/ffmeta/pkg/report"
)

var (
	configPath  = flag.String("config", "", "path to YAML config file")
	in          = flag.String("in", "", "image to save with metadata")
	outDir      = flag.String("out", "", "output directory (defaults to output_dir from config)")
	prefix      = flag.String("prefix", "", "file name prefix; a timestamp and counter are appended")
	title       = flag.String("title", "", "image title (dc:title)")
	description = flag.String("description", "", "image description (dc:description)")
	keywords    = flag.String("keywords", "", "comma-separated keywords (dc:subject)")
	creator     = flag.String("creator", "", "creator/artist name (dc:creator)")
	copyright   = flag.String("copyright", "", "copyright notice (dc:rights)")
	rating      = flag.Int("rating", 0, "rating 0-5 (xmp:Rating)")
	label       = flag.String("label", "", "color label: Red, Yellow, Green, Blue or Purple (xmp:Label)")
	custom      = flag.String("custom", "", "custom JSON or text stored next to the XMP packet")
	verify      = flag.Bool("verify", false, "read the written file back through exiftool")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *in == "" {
		klog.Exitf("--in is a required flag")
	}

	c, err := config.Load(*configPath)
	if err != nil {
		klog.Exitf("config: %v", err)
	}
	if *outDir == "" {
		*outDir = c.OutputDir
	}
	if *prefix == "" {
		*prefix = c.FilenamePrefix
	}

	r := metadata.Record{
		Title:       *title,
		Description: *description,
		Keywords:    metadata.ParseKeywords(*keywords),
		Creator:     *creator,
		Copyright:   *copyright,
		Rating:      *rating,
		Label:       *label,
		Custom:      *custom,
	}

	log := startReport(r)
	p, err := save(c, r)
	if err != nil {
		log.Error(fmt.Errorf("failed to save image with metadata: %w", err))
		fmt.Fprint(os.Stderr, log.String())
		klog.Exitf("save failed: %v", err)
	}

	log.Rule()
	log.Linef("Saving image with metadata...")
	log.OK("Image saved successfully")
	log.Field("File", filepath.Base(p))
	log.Field("Path", filepath.Dir(p))
	if st, err := os.Stat(p); err == nil {
		log.Field("Size", report.KB(st.Size()))
	}
	log.Rule()

	if *verify {
		if err := readBack(c, p, log); err != nil {
			fmt.Fprint(os.Stderr, log.String())
			klog.Exitf("verify failed: %v", err)
		}
	}

	fmt.Fprint(os.Stderr, log.String())
	fmt.Println(p)
}

func save(c *config.Config, r metadata.Record) (string, error) {
	img, err := imgio.Open(*in)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", *in, err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	dest, err := metadata.NextPath(*outDir, *prefix, time.Now())
	if err != nil {
		return "", err
	}

	var e metadata.Embedder = &metadata.PNGEmbedder{Software: c.Software}
	return e.Save(img, r, dest)
}

func startReport(r metadata.Record) *report.Log {
	log := report.New("LOCAL Image Save with XMP Metadata", "Save image with embedded XMP metadata", "Local (PNG text chunks)")
	log.Section("File Settings")
	log.Field("input", *in)
	log.Field("filename_prefix", *prefix)
	log.Field("output_path", *outDir)
	log.Field("format", "PNG")

	log.Section("Metadata Fields")
	for _, kv := range [][2]string{
		{"title", r.Title},
		{"description", report.Truncate(r.Description, 50)},
		{"creator", r.Creator},
		{"copyright", r.Copyright},
	} {
		if kv[1] != "" {
			log.Field(kv[0], kv[1])
		}
	}
	if len(r.Keywords) > 0 {
		log.Field("keywords", r.Keywords)
	}
	if r.Rating > 0 {
		log.Field("rating", fmt.Sprintf("%d/5 stars", r.Rating))
	}
	if r.Label != "" && r.Label != "None" {
		log.Field("label", r.Label)
	}
	if r.Custom != "" {
		log.Field("custom_metadata", "[data provided]")
	}

	if r.Empty() {
		log.Linef("  [No metadata provided - saving without XMP]")
	} else {
		log.Linef("\nTotal metadata fields: %d", r.Fields())
	}
	log.Rule()
	log.Linef("Preparing to save...")
	return log
}

// readBack checks that exiftool sees what was embedded.
func readBack(c *config.Config, path string, log *report.Log) error {
	e, err := engine.NewExifTool(c.ExifTool)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Close(); err != nil {
			klog.Errorf("Failed to close exiftool: %v", err)
		}
	}()

	gs, err := e.Read(path, "Title", "Subject", "Creator", "Rights", "Rating", "Label")
	if err != nil {
		return err
	}

	log.Section("Read back")
	for _, t := range []string{"Title", "Subject", "Creator", "Rights", "Rating", "Label"} {
		if v, ok := gs.Get(t); ok {
			log.Field(t, v)
		}
	}
	return nil
}
