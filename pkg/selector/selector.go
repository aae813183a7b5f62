// Package selector picks a single image out of a folder by glob, sort key and index.
package selector

import (
	"errors"
	"fmt"
	"time"

	"k8s.io/klog/v2"
)

// SortKey is the attribute candidates are ordered by.
type SortKey string

const (
	ByModified SortKey = "modified"
	ByCreated  SortKey = "created"
	BySize     SortKey = "size"
	ByName     SortKey = "name"
)

// Order is the direction of a sort.
type Order string

const (
	Ascending  Order = "ascending"
	Descending Order = "descending"
)

// ErrNegativeIndex is returned for a query with Index < 0.
var ErrNegativeIndex = errors.New("index must be >= 0")

var errNotDir = errors.New("not a directory")

// Query describes which image to pick.
type Query struct {
	Dir       string
	Pattern   string
	SortKey   SortKey
	Order     Order
	Index     int
	Recursive bool
}

// Candidate is a file that may be selected.
type Candidate struct {
	Path       string
	Name       string
	ModTime    time.Time
	CreateTime time.Time
	Size       int64
}

// Result is the outcome of a selection. Selected is nil when nothing sits at the requested index.
type Result struct {
	Selected *Candidate
	Total    int
}

// Found reports whether a candidate was selected.
func (r Result) Found() bool {
	return r.Selected != nil
}

// Path returns the selected path, or "" when nothing was selected.
func (r Result) Path() string {
	if r.Selected == nil {
		return ""
	}
	return r.Selected.Path
}

// NotAccessibleError means the directory is missing or cannot be listed.
type NotAccessibleError struct {
	Dir string
	Err error
}

func (e *NotAccessibleError) Error() string {
	return fmt.Sprintf("directory %q not accessible: %v", e.Dir, e.Err)
}

func (e *NotAccessibleError) Unwrap() error { return e.Err }

// InvalidPatternError means the glob could not be parsed.
type InvalidPatternError struct {
	Pattern string
	Reason  string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %s", e.Pattern, e.Reason)
}

// Lister enumerates image candidates under a directory.
type Lister interface {
	List(dir string, recursive bool) ([]Candidate, error)
}

// Selector runs queries against a Lister.
type Selector struct {
	lister Lister
}

// New returns a Selector backed by the local filesystem.
func New() *Selector {
	return &Selector{lister: FSLister{}}
}

// NewWithLister returns a Selector backed by l.
func NewWithLister(l Lister) *Selector {
	return &Selector{lister: l}
}

// Select returns the candidate at q.Index after filtering and ordering.
// Every call re-reads the filesystem.
func (s *Selector) Select(q Query) (Result, error) {
	if q.Index < 0 {
		return Result{}, ErrNegativeIndex
	}

	globs, err := ParsePattern(q.Pattern)
	if err != nil {
		return Result{}, err
	}

	key, err := parseKey(q.SortKey)
	if err != nil {
		return Result{}, err
	}

	order, err := parseOrder(q.Order)
	if err != nil {
		return Result{}, err
	}

	cs, err := s.lister.List(q.Dir, q.Recursive)
	if err != nil {
		return Result{}, err
	}
	klog.V(1).Infof("listed %d image candidates in %s (recursive=%v)", len(cs), q.Dir, q.Recursive)

	cs = Filter(cs, globs)
	Sort(cs, key, order)

	r := Pick(cs, q.Index)
	if r.Found() {
		klog.V(1).Infof("selected %s (%d/%d)", r.Selected.Path, q.Index+1, r.Total)
	} else {
		klog.V(1).Infof("no image at index %d of %d in %s", q.Index, r.Total, q.Dir)
	}
	return r, nil
}

func parseKey(k SortKey) (SortKey, error) {
	switch k {
	case "":
		return ByModified, nil
	case ByModified, ByCreated, BySize, ByName:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", k)
}

func parseOrder(o Order) (Order, error) {
	switch o {
	case "":
		return Ascending, nil
	case Ascending, Descending:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q", o)
}
