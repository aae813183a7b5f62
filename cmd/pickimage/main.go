// pickimage selects one image from a folder by pattern, sort order and index.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"

	"github.com/tstromberg/ffmeta/pkg/config"
	"github.com/tstromberg/ffmeta/pkg/loader"
	"github.com/tstromberg/ffmeta/pkg/selector"
)

var (
	configPath = flag.String("config", "", "path to YAML config file")
	dir        = flag.String("dir", "", "folder to pick an image from")
	pattern    = flag.String("pattern", "", "comma-separated file globs, e.g. '*.png,*.jpg'")
	sortBy     = flag.String("sort", "", "sort key: modified, created, size or name")
	order      = flag.String("order", "", "sort order: ascending or descending")
	index      = flag.Int("index", 0, "which image to pick (0 = first)")
	recursive  = flag.Bool("recursive", false, "search subfolders")
	decode     = flag.Bool("decode", false, "decode the selected image and print a load report")
	watchFlag  = flag.Bool("watch", false, "re-select whenever the folder changes")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	c, err := config.Load(*configPath)
	if err != nil {
		klog.Exitf("config: %v", err)
	}

	if *dir == "" && flag.NArg() > 0 {
		*dir = flag.Arg(0)
	}
	if *dir == "" {
		klog.Exitf("--dir is a required flag")
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	q := query(c, set)
	if err := pick(q); err != nil {
		klog.Exitf("pick failed: %v", err)
	}

	if *watchFlag {
		if err := watch(q); err != nil {
			klog.Exitf("watch failed: %v", err)
		}
	}
}

// query merges the flags named in set over the config file.
func query(c *config.Config, set map[string]bool) selector.Query {
	q := selector.Query{
		Dir:       *dir,
		Pattern:   c.Pattern,
		SortKey:   c.SortBy,
		Order:     c.SortOrder,
		Index:     *index,
		Recursive: c.Recursive,
	}
	if set["pattern"] {
		q.Pattern = *pattern
	}
	if set["sort"] {
		q.SortKey = selector.SortKey(strings.ToLower(*sortBy))
	}
	if set["order"] {
		q.Order = selector.Order(strings.ToLower(*order))
	}
	if set["recursive"] {
		q.Recursive = *recursive
	}
	return q
}

func pick(q selector.Query) error {
	if *decode {
		l, err := loader.Load(selector.New(), q)
		if err != nil {
			var ie *loader.IndexError
			if errors.Is(err, loader.ErrNoImages) || errors.As(err, &ie) {
				r := loader.StartReport(q)
				r.Error(err)
				fmt.Fprint(os.Stderr, r.String())
			}
			return err
		}
		fmt.Fprint(os.Stderr, l.Report())
		fmt.Println(l.Path)
		return nil
	}

	r, err := selector.New().Select(q)
	if err != nil {
		return err
	}
	if !r.Found() {
		klog.Warningf("no image at index %d (%d matches for %q in %s)", q.Index, r.Total, q.Pattern, q.Dir)
		return nil
	}
	klog.Infof("%d matches, selected #%d", r.Total, q.Index)
	fmt.Println(r.Path())
	return nil
}

// watch re-runs the selection whenever the folder changes.
func watch(q selector.Query) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	root, err := filepath.Abs(q.Dir)
	if err != nil {
		return err
	}
	n, err := addDirs(w, root, q.Recursive)
	if err != nil {
		return err
	}
	klog.Infof("watching %d dirs ...", n)

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			klog.V(1).Infof("event: %v", event)
			if q.Recursive && event.Has(fsnotify.Create) {
				watchNew(w, event.Name)
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				if err := pick(q); err != nil {
					klog.Errorf("pick failed: %v", err)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}

// watchNew starts watching path and everything beneath it if it is a new directory.
func watchNew(w *fsnotify.Watcher, path string) {
	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		return
	}
	n, err := addDirs(w, path, true)
	if err != nil {
		klog.Errorf("watch %s: %v", path, err)
		return
	}
	klog.V(1).Infof("watching %d new dirs under %s", n, path)
}

// addDirs adds root to w, and every directory beneath it if recursive is set.
func addDirs(w *fsnotify.Watcher, root string, recursive bool) (int, error) {
	dirs, err := watchDirs(root, recursive)
	if err != nil {
		return 0, err
	}
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return 0, fmt.Errorf("watch %s: %w", d, err)
		}
	}
	return len(dirs), nil
}

func watchDirs(root string, recursive bool) ([]string, error) {
	if !recursive {
		return []string{root}, nil
	}

	dirs := []string{}
	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				dirs = append(dirs, path)
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			klog.Warningf("not watching %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})
	return dirs, err
}
