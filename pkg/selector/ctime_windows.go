//go:build windows

package selector

import (
	"io/fs"
	"syscall"
	"time"
)

func createTime(_ string, fi fs.FileInfo) time.Time {
	if d, ok := fi.Sys().(*syscall.Win32FileAttributeData); ok {
		return time.Unix(0, d.CreationTime.Nanoseconds())
	}
	return fi.ModTime()
}
