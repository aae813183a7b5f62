// Package engine reads and writes image metadata through the exiftool binary.
//
// Metadata lives in file-level chunks, so the engine always works on a file
// path. Decoded pixels never carry it.
package engine

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Groups maps a metadata group (IFD0, XMP-dc, PNG, ...) to its fields.
type Groups map[string]map[string]any

// Engine reads and writes metadata of a file on disk.
type Engine interface {
	// Read returns all metadata, or only the named tags if any are given.
	Read(path string, tags ...string) (Groups, error)
	// Write sets fields and returns the metadata read back afterwards.
	// Existing metadata is wiped first unless preserve is set.
	Write(path string, fields map[string]any, preserve bool) (Groups, error)
	Close() error
}

// ThumbnailExtractor is implemented by engines that can pull an embedded
// preview image out of a file. A nil slice means the file has none.
type ThumbnailExtractor interface {
	Thumbnail(path string) ([]byte, error)
}

// Group splits exiftool "Group:Tag" keys into Groups. SourceFile is dropped.
func Group(fields map[string]any) Groups {
	gs := Groups{}
	for k, v := range fields {
		if k == "SourceFile" {
			continue
		}
		g, tag, ok := strings.Cut(k, ":")
		if !ok {
			g, tag = "", k
		}
		if gs[g] == nil {
			gs[g] = map[string]any{}
		}
		gs[g][tag] = v
	}
	return gs
}

// Len returns the total number of fields.
func (gs Groups) Len() int {
	n := 0
	for _, fs := range gs {
		n += len(fs)
	}
	return n
}

// Get returns the first value of tag in any group, matched case-insensitively.
func (gs Groups) Get(tag string) (any, bool) {
	for _, g := range gs.sortedGroups() {
		for k, v := range gs[g] {
			if strings.EqualFold(k, tag) {
				return v, true
			}
		}
	}
	return nil, false
}

func (gs Groups) sortedGroups() []string {
	names := make([]string, 0, len(gs))
	for g := range gs {
		names = append(names, g)
	}
	slices.Sort(names)
	return names
}

// matchGroup reports whether group g satisfies the qualifier q. "XMP" matches "XMP-dc".
func matchGroup(g, q string) bool {
	return strings.EqualFold(g, q) || strings.HasPrefix(strings.ToLower(g), strings.ToLower(q)+"-")
}

// FilterTags keeps only the requested tags. A tag is either "Name" or "Group:Name".
func FilterTags(gs Groups, tags []string) Groups {
	out := Groups{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		q, name, qualified := strings.Cut(t, ":")
		if !qualified {
			q, name = "", t
		}
		for g, fs := range gs {
			if qualified && !matchGroup(g, q) {
				continue
			}
			for k, v := range fs {
				if !strings.EqualFold(k, name) {
					continue
				}
				if out[g] == nil {
					out[g] = map[string]any{}
				}
				out[g][k] = v
			}
		}
	}
	return out
}

// FilterGroup keeps only groups matching q. An empty q keeps everything.
func FilterGroup(gs Groups, q string) Groups {
	q = strings.TrimSpace(q)
	if q == "" {
		return gs
	}
	out := Groups{}
	for g, fs := range gs {
		if matchGroup(g, q) {
			out[g] = fs
		}
	}
	return out
}

// ParseTags splits a newline or comma separated tag list.
func ParseTags(s string) []string {
	tags := []string{}
	for _, t := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ',' }) {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Style selects how Format renders metadata.
type Style string

const (
	PrettyJSON    Style = "pretty"
	CompactJSON   Style = "compact"
	HumanReadable Style = "human"
)

// Format renders gs in the given style.
func Format(gs Groups, style Style) (string, error) {
	switch style {
	case PrettyJSON, "":
		bs, err := json.MarshalIndent(gs, "", "  ")
		return string(bs), err
	case CompactJSON:
		bs, err := json.Marshal(gs)
		return string(bs), err
	case HumanReadable:
		var b strings.Builder
		for _, g := range gs.sortedGroups() {
			name := g
			if name == "" {
				name = "(ungrouped)"
			}
			fmt.Fprintf(&b, "[%s]\n", name)

			keys := make([]string, 0, len(gs[g]))
			for k := range gs[g] {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, "  %s: %v\n", k, gs[g][k])
			}
		}
		return b.String(), nil
	}
	return "", fmt.Errorf("unknown output style %q", style)
}
