//go:build darwin

package cleaner

import (
	"os"
	"syscall"
	"time"
)

// birthTime returns the file's creation time on macOS via the Birthtimespec
// field of the BSD stat structure. Falls back to ModTime if unavailable.
func birthTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)
	}
	return info.ModTime()
}
