package selector

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// ImageExtensions are the lowercase file extensions treated as images.
var ImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// IsImageName reports whether name carries a known image extension.
func IsImageName(name string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(name))]
}

// FSLister lists readable regular image files on the local filesystem.
type FSLister struct{}

// List returns image candidates directly under dir, or anywhere beneath it if recursive is set.
// Dotfiles are listed like any other file; the pattern decides whether they match.
// Unreadable files and nested directories are skipped, not errors.
func (FSLister) List(dir string, recursive bool) ([]Candidate, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, &NotAccessibleError{Dir: dir, Err: err}
	}

	st, err := os.Stat(root)
	if err != nil {
		return nil, &NotAccessibleError{Dir: dir, Err: err}
	}
	if !st.IsDir() {
		return nil, &NotAccessibleError{Dir: dir, Err: errNotDir}
	}

	// listing the root up front surfaces permission problems for both modes
	des, err := godirwalk.ReadDirents(root, nil)
	if err != nil {
		return nil, &NotAccessibleError{Dir: dir, Err: err}
	}

	found := []Candidate{}
	if !recursive {
		for _, de := range des {
			if de.IsDir() {
				continue
			}
			if c, ok := candidate(filepath.Join(root, de.Name())); ok {
				found = append(found, c)
			}
		}
		return found, nil
	}

	err = godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == root || de.IsDir() {
				return nil
			}
			if c, ok := candidate(path); ok {
				found = append(found, c)
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			klog.Warningf("skipping %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, &NotAccessibleError{Dir: dir, Err: err}
	}
	return found, nil
}

// candidate stats path and returns it if it is a readable regular image file.
func candidate(path string) (Candidate, bool) {
	name := filepath.Base(path)
	if !IsImageName(name) {
		return Candidate{}, false
	}

	fi, err := os.Stat(path)
	if err != nil {
		klog.V(1).Infof("stat %s: %v", path, err)
		return Candidate{}, false
	}
	if !fi.Mode().IsRegular() {
		return Candidate{}, false
	}

	f, err := os.Open(path)
	if err != nil {
		klog.V(1).Infof("unreadable %s: %v", path, err)
		return Candidate{}, false
	}
	f.Close()

	return Candidate{
		Path:       path,
		Name:       name,
		ModTime:    fi.ModTime(),
		CreateTime: createTime(path, fi),
		Size:       fi.Size(),
	}, true
}
