package engine

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"
)

// ExifTool is an Engine backed by a persistent exiftool process.
// It is not safe for concurrent use.
type ExifTool struct {
	opts   []func(*exiftool.Exiftool) error
	binary bool
	et     *exiftool.Exiftool
	clear  *exiftool.Exiftool
	bin    *exiftool.Exiftool
}

// Option configures an ExifTool.
type Option func(*ExifTool)

// IncludeBinary makes Read return binary values such as thumbnails and ICC
// profiles as "base64:" strings instead of placeholders.
func IncludeBinary() Option {
	return func(e *ExifTool) { e.binary = true }
}

// NewExifTool starts exiftool. binary may be empty to use exiftool from PATH.
func NewExifTool(binary string, options ...Option) (*ExifTool, error) {
	e := &ExifTool{opts: []func(*exiftool.Exiftool) error{
		exiftool.PrintGroupNames("1"),
	}}
	if binary != "" {
		e.opts = append(e.opts, exiftool.SetExiftoolBinaryPath(binary))
	}
	for _, o := range options {
		o(e)
	}

	opts := e.opts
	if e.binary {
		opts = append([]func(*exiftool.Exiftool) error{exiftool.ExtractAllBinaryMetadata()}, opts...)
	}
	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	e.et = et
	if e.binary {
		e.bin = et
	}
	return e, nil
}

// clearer lazily starts a second process that wipes existing tags before writing.
func (e *ExifTool) clearer() (*exiftool.Exiftool, error) {
	if e.clear != nil {
		return e.clear, nil
	}
	opts := append([]func(*exiftool.Exiftool) error{exiftool.ClearFieldsBeforeWriting()}, e.opts...)
	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	e.clear = et
	return et, nil
}

// binaries lazily starts a process that returns binary tag values.
func (e *ExifTool) binaries() (*exiftool.Exiftool, error) {
	if e.bin != nil {
		return e.bin, nil
	}
	opts := append([]func(*exiftool.Exiftool) error{exiftool.ExtractAllBinaryMetadata()}, e.opts...)
	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	e.bin = et
	return et, nil
}

// Thumbnail implements ThumbnailExtractor.
func (e *ExifTool) Thumbnail(path string) ([]byte, error) {
	et, err := e.binaries()
	if err != nil {
		return nil, err
	}
	fis := et.ExtractMetadata(path)
	if len(fis) == 0 {
		return nil, fmt.Errorf("exiftool returned nothing for %q", path)
	}
	if fis[0].Err != nil {
		return nil, fmt.Errorf("extract fail for %q: %w", path, fis[0].Err)
	}

	v, ok := Group(fis[0].Fields).Get("ThumbnailImage")
	if !ok {
		return nil, nil
	}
	return decodeBinary(v)
}

// decodeBinary decodes a binary tag value as printed by exiftool -b -j.
func decodeBinary(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("binary value is %T, not a string", v)
	}
	if b64, ok := strings.CutPrefix(s, "base64:"); ok {
		bs, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("decode base64: %w", err)
		}
		return bs, nil
	}
	return []byte(s), nil
}

// Read implements Engine.
func (e *ExifTool) Read(path string, tags ...string) (Groups, error) {
	fis := e.et.ExtractMetadata(path)
	if len(fis) == 0 {
		return nil, fmt.Errorf("exiftool returned nothing for %q", path)
	}
	fi := fis[0]
	if fi.Err != nil {
		return nil, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v", k, v)
	}

	gs := Group(fi.Fields)
	if len(tags) > 0 {
		gs = FilterTags(gs, tags)
		klog.V(1).Infof("found %d/%d requested tags in %s", gs.Len(), len(tags), path)
	}
	return gs, nil
}

// Write implements Engine.
func (e *ExifTool) Write(path string, fields map[string]any, preserve bool) (Groups, error) {
	if len(fields) == 0 {
		return nil, errors.New("no metadata to write")
	}

	et := e.et
	if !preserve {
		var err error
		if et, err = e.clearer(); err != nil {
			return nil, err
		}
	}

	fm := exiftool.FileMetadata{File: path, Fields: map[string]interface{}{}}
	for k, v := range fields {
		setField(fm, k, v)
	}

	fms := []exiftool.FileMetadata{fm}
	et.WriteMetadata(fms)
	if fms[0].Err != nil {
		return nil, fmt.Errorf("write metadata for %q: %w", path, fms[0].Err)
	}
	klog.Infof("wrote %d fields to %s (preserve=%v)", len(fields), path, preserve)

	return e.Read(path)
}

// setField stores v under k using the typed setter that matches it.
// JSON numbers arrive as float64 and are written as integers when integral.
func setField(fm exiftool.FileMetadata, k string, v any) {
	switch t := v.(type) {
	case nil:
		fm.SetString(k, "")
	case string:
		fm.SetString(k, t)
	case []string:
		fm.SetStrings(k, t)
	case []any:
		ss := make([]string, 0, len(t))
		for _, x := range t {
			ss = append(ss, fmt.Sprint(x))
		}
		fm.SetStrings(k, ss)
	case bool:
		fm.SetString(k, strconv.FormatBool(t))
	case int:
		fm.SetInt(k, int64(t))
	case int64:
		fm.SetInt(k, t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			fm.SetInt(k, int64(t))
		} else {
			fm.SetFloat(k, t)
		}
	default:
		fm.SetString(k, fmt.Sprint(t))
	}
}

// Close stops the exiftool processes.
func (e *ExifTool) Close() error {
	var errs []error
	if e.et != nil {
		errs = append(errs, e.et.Close())
	}
	if e.clear != nil {
		errs = append(errs, e.clear.Close())
	}
	if e.bin != nil && e.bin != e.et {
		errs = append(errs, e.bin.Close())
	}
	return errors.Join(errs...)
}
