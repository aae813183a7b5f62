//go:build !linux && !darwin && !windows

package selector

import (
	"io/fs"
	"time"
)

// createTime falls back to the modification time where no birth time is available.
func createTime(_ string, fi fs.FileInfo) time.Time {
	return fi.ModTime()
}
