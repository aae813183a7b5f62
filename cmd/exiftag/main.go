// exiftag reads or writes EXIF, XMP, IPTC and PNG metadata through exiftool.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/otiai10/copy"
	"k8s.io/klog/v2"

	"github.com/tstromberg/ffmeta/pkg/config"
	"github.com/tstromberg/ffmeta/pkg/engine"
	"github.com/tstromberg/ffmeta/pkg/report"
)

var (
	configPath = flag.String("config", "", "path to YAML config file")
	binary     = flag.String("exiftool", "", "path to the exiftool binary (overrides config)")
	file       = flag.String("file", "", "image file to operate on")
	op         = flag.String("op", "read", "operation: read, tags or write")
	group      = flag.String("group", "", "only show this group, e.g. XMP, IFD0, PNG (read)")
	tags       = flag.String("tags", "", "comma or newline separated tags (tags)")
	set        = flag.String("set", "", `JSON object of fields to write, e.g. {"EXIF:Artist": "Jo", "XMP:Title": "Harbor"} (write)`)
	preserve   = flag.Bool("preserve", true, "keep existing metadata when writing")
	copyTo     = flag.String("copy-to", "", "write to a copy at this path instead of modifying --file (write)")
	format     = flag.String("format", "pretty", "output format: pretty, compact or human")
	inclBinary = flag.Bool("include-binary", false, "include binary values such as thumbnails and ICC profiles (read, tags)")
	extract    = flag.Bool("extract-embedded", false, "report the embedded thumbnail, if any (read, tags)")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *file == "" && flag.NArg() > 0 {
		*file = flag.Arg(0)
	}
	if *file == "" {
		klog.Exitf("--file is a required flag")
	}

	c, err := config.Load(*configPath)
	if err != nil {
		klog.Exitf("config: %v", err)
	}
	if *binary == "" {
		*binary = c.ExifTool
	}

	log := report.New("LOCAL ExifTool Metadata", *op, "exiftool")
	log.Section("Settings")
	log.Field("file", *file)
	log.Field("format", *format)
	if *group != "" {
		log.Field("group", *group)
	}
	log.Rule()

	var opts []engine.Option
	if *inclBinary {
		opts = append(opts, engine.IncludeBinary())
	}
	e, err := engine.NewExifTool(*binary, opts...)
	if err != nil {
		log.Error(err)
		fmt.Fprint(os.Stderr, log.String())
		klog.Exitf("exiftool: %v", err)
	}
	defer func() {
		if err := e.Close(); err != nil {
			klog.Errorf("Failed to close exiftool: %v", err)
		}
	}()

	gs, err := run(e, log)
	if err != nil {
		log.Error(err)
		fmt.Fprint(os.Stderr, log.String())
		klog.Exitf("%s failed: %v", *op, err)
	}

	out, err := engine.Format(gs, engine.Style(*format))
	if err != nil {
		klog.Exitf("format: %v", err)
	}

	log.OK(fmt.Sprintf("%s complete: %d fields in %d groups", *op, gs.Len(), len(gs)))
	log.Rule()
	fmt.Fprint(os.Stderr, log.String())
	fmt.Println(out)
}

func run(e engine.Engine, log *report.Log) (engine.Groups, error) {
	switch *op {
	case "read":
		gs, err := e.Read(*file)
		if err != nil {
			return nil, err
		}
		gs = engine.FilterGroup(gs, *group)
		log.Linef("Found %d metadata fields", gs.Len())
		if err := extractEmbedded(e, log); err != nil {
			return nil, err
		}
		return gs, nil

	case "tags":
		ts := engine.ParseTags(*tags)
		if len(ts) == 0 {
			return nil, fmt.Errorf("--tags is required for op=tags")
		}
		log.Linef("Reading %d specific tag(s):", len(ts))
		for i, t := range ts {
			if i == 10 {
				log.Linef("  ... and %d more", len(ts)-10)
				break
			}
			log.Linef("  - %s", t)
		}
		gs, err := e.Read(*file, ts...)
		if err != nil {
			return nil, err
		}
		log.Linef("Found %d/%d requested tags", gs.Len(), len(ts))
		if err := extractEmbedded(e, log); err != nil {
			return nil, err
		}
		return gs, nil

	case "write":
		fields := map[string]any{}
		if err := json.Unmarshal([]byte(*set), &fields); err != nil {
			return nil, fmt.Errorf("invalid JSON in --set: %w", err)
		}

		target := *file
		if *copyTo != "" {
			if err := copy.Copy(*file, *copyTo); err != nil {
				return nil, fmt.Errorf("copy: %w", err)
			}
			target = *copyTo
			log.Field("copy", target)
		}

		log.Linef("Writing %d metadata field(s):", len(fields))
		for k, v := range fields {
			log.Field(k, report.Truncate(fmt.Sprint(v), 50))
		}
		log.Linef("Preserve existing: %v", *preserve)
		return e.Write(target, fields, *preserve)
	}
	return nil, fmt.Errorf("unknown operation %q (want %s)", *op, strings.Join([]string{"read", "tags", "write"}, ", "))
}

// extractEmbedded logs the size of the embedded thumbnail when --extract-embedded is set.
func extractEmbedded(e engine.Engine, log *report.Log) error {
	if !*extract {
		return nil
	}
	te, ok := e.(engine.ThumbnailExtractor)
	if !ok {
		return fmt.Errorf("engine %T cannot extract embedded files", e)
	}
	bs, err := te.Thumbnail(*file)
	if err != nil {
		return fmt.Errorf("extract embedded: %w", err)
	}
	if len(bs) == 0 {
		log.Linef("No embedded files found")
		return nil
	}
	log.Linef("Extracted embedded thumbnail (%d bytes)", len(bs))
	return nil
}
