package selector

import (
	"path/filepath"
	"slices"
	"strings"
)

// ParsePattern splits a comma-separated list of single-segment globs and validates each one.
func ParsePattern(pattern string) ([]string, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, &InvalidPatternError{Pattern: pattern, Reason: "empty"}
	}

	var globs []string
	for _, p := range strings.Split(pattern, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.ContainsRune(p, '/') || strings.ContainsRune(p, filepath.Separator) {
			return nil, &InvalidPatternError{Pattern: pattern, Reason: "must not contain a path separator"}
		}
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, &InvalidPatternError{Pattern: pattern, Reason: err.Error()}
		}
		globs = append(globs, p)
	}

	if len(globs) == 0 {
		return nil, &InvalidPatternError{Pattern: pattern, Reason: "empty"}
	}
	return globs, nil
}

// Match reports whether name matches any of the globs.
func Match(globs []string, name string) bool {
	for _, g := range globs {
		// globs are validated by ParsePattern
		if ok, _ := filepath.Match(g, name); ok {
			return true
		}
	}
	return false
}

// Filter returns the candidates whose base name matches any glob.
func Filter(cs []Candidate, globs []string) []Candidate {
	out := make([]Candidate, 0, len(cs))
	for _, c := range cs {
		if Match(globs, c.Name) {
			out = append(out, c)
		}
	}
	return out
}

// Sort orders cs in place. Ties fall back to the base name and then the path,
// so the result is fully determined by its input. Descending is the exact
// reverse of ascending.
func Sort(cs []Candidate, key SortKey, order Order) {
	slices.SortFunc(cs, func(a, b Candidate) int {
		if c := compareKey(a, b, key); c != 0 {
			return c
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})

	if order == Descending {
		slices.Reverse(cs)
	}
}

func compareKey(a, b Candidate, key SortKey) int {
	switch key {
	case ByModified:
		return a.ModTime.Compare(b.ModTime)
	case ByCreated:
		return a.CreateTime.Compare(b.CreateTime)
	case BySize:
		switch {
		case a.Size < b.Size:
			return -1
		case a.Size > b.Size:
			return 1
		}
		return 0
	case ByName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
	return 0
}

// Pick returns the candidate at index, or an empty selection if index is out of range.
func Pick(cs []Candidate, index int) Result {
	r := Result{Total: len(cs)}
	if index >= 0 && index < len(cs) {
		c := cs[index]
		r.Selected = &c
	}
	return r
}
