// Package trash implements OS Trash moves. No third-party Go library in
// the reference pack offers an OS-Trash abstraction (searched exhaustively
// across the example corpus); this is therefore deliberately built on the
// standard library only, documented in DESIGN.md. The move itself follows
// tim-coutinho-agentops's atomicMove pattern (write/rename, uniquify on
// collision) and rosia-cli's cleaner.go Trash-then-fallback ordering.
package trash

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrCrossVolume is returned when moving into Trash fails because the
// source and the Trash directory are on different volumes (rename cannot
// cross filesystems); callers use this to decide on a home-directory
// fallback per spec.md §4.3.
var ErrCrossVolume = errors.New("trash: cross-volume move")

// Dir returns the current user's Trash directory, creating it if absent.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".Trash")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

// Move moves path into the Trash, atomically and uniquifying the
// destination name on collision. Returns the item's full path inside the
// Trash directory.
func Move(path string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	dest := filepath.Join(dir, filepath.Base(path))
	dest = uniquify(dest)
	if err := os.Rename(path, dest); err != nil {
		if isCrossDevice(err) {
			return "", fmt.Errorf("%w: %v", ErrCrossVolume, err)
		}
		return "", err
	}
	return dest, nil
}

// uniquify appends a numeric suffix until dest does not exist, matching
// Finder's "name 2", "name 3" convention closely enough for a non-GUI
// context without colliding silently.
func uniquify(dest string) string {
	if _, err := os.Stat(dest); err != nil {
		return dest
	}
	ext := filepath.Ext(dest)
	base := dest[:len(dest)-len(ext)]
	for i := 2; ; i++ {
		candidate := base + " " + strconv.Itoa(i) + ext
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
		if i > 10000 {
			// pathological collision count; fall back to a timestamp suffix
			return base + "." + strconv.FormatInt(time.Now().UnixNano(), 10) + ext
		}
	}
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return linkErr.Err.Error() == "invalid cross-device link" || linkErr.Err.Error() == "cross-device link"
	}
	return false
}

// Restore moves fileName back from the Trash directory to destDir,
// satisfying restore_from_trash. Returns an error if the named item is not
// present in the Trash.
func Restore(fileName, destDir string) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	src := filepath.Join(dir, fileName)
	if _, err := os.Stat(src); err != nil {
		return err
	}
	dest := uniquify(filepath.Join(destDir, fileName))
	return os.Rename(src, dest)
}
