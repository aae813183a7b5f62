//go:build linux

package selector

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// createTime returns the birth time where the filesystem records one, else the inode change time.
func createTime(path string, fi fs.FileInfo) time.Time {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME|unix.STATX_CTIME, &stx); err != nil {
		return fi.ModTime()
	}
	if stx.Mask&unix.STATX_BTIME != 0 {
		return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
	}
	return time.Unix(stx.Ctime.Sec, int64(stx.Ctime.Nsec))
}
