// Package metadata embeds descriptive metadata into saved PNG images.
package metadata

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Labels are the accepted color labels. The empty string means no label.
var Labels = []string{"Red", "Yellow", "Green", "Blue", "Purple"}

// Record is the descriptive metadata embedded into an image.
type Record struct {
	Title       string
	Description string
	Keywords    []string
	Creator     string
	Copyright   string
	Rating      int
	Label       string
	// Custom is a JSON object or free text stored alongside the XMP packet.
	Custom string
}

// ParseKeywords splits a comma-separated keyword list, dropping blanks.
func ParseKeywords(s string) []string {
	kws := []string{}
	for _, k := range strings.Split(s, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			kws = append(kws, k)
		}
	}
	return kws
}

// Validate checks rating and label ranges.
func (r Record) Validate() error {
	if r.Rating < 0 || r.Rating > 5 {
		return fmt.Errorf("rating %d out of range 0-5", r.Rating)
	}
	if r.Label != "" && r.Label != "None" && !slices.Contains(Labels, r.Label) {
		return fmt.Errorf("unknown label %q (want one of %v)", r.Label, Labels)
	}
	return nil
}

// label returns the label with the "None" placeholder folded to empty.
func (r Record) label() string {
	if r.Label == "None" {
		return ""
	}
	return r.Label
}

// Fields counts the populated fields.
func (r Record) Fields() int {
	n := 0
	for _, s := range []string{r.Title, r.Description, r.Creator, r.Copyright, r.label(), strings.TrimSpace(r.Custom)} {
		if s != "" {
			n++
		}
	}
	if len(r.Keywords) > 0 {
		n++
	}
	if r.Rating > 0 {
		n++
	}
	return n
}

// Empty reports whether the record carries nothing worth embedding.
func (r Record) Empty() bool {
	return r.Fields() == 0
}

// CustomJSON returns Custom as compact JSON if it parses, and reports whether it did.
func (r Record) CustomJSON() (string, bool) {
	c := strings.TrimSpace(r.Custom)
	if c == "" {
		return "", false
	}
	var v any
	if err := json.Unmarshal([]byte(c), &v); err != nil {
		return c, false
	}
	bs, err := json.Marshal(v)
	if err != nil {
		return c, false
	}
	return string(bs), true
}
