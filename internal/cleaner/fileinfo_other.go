//go:build !darwin

package cleaner

import (
	"os"
	"time"
)

// birthTime has no portable equivalent outside Darwin's BSD stat; other
// platforms fall back to ModTime, matching the cleaner's documented
// behavior for categories that don't specifically request creation time.
func birthTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
