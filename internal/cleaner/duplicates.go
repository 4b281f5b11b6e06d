package cleaner

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
)

// duplicateHashThreshold is the size at or above which content is hashed for
// duplicate detection; smaller files use a cheap (size, mtime) equivalence
// class instead, per spec.md §9 ("bound cost").
const duplicateHashThreshold = 1 << 20 // 1MB

// equivClass is the cheap duplicate-equivalence key for small files.
type equivClass struct {
	size  int64
	mtime int64
}

// GroupDuplicates partitions files into duplicate groups. Files at or above
// duplicateHashThreshold are grouped by SHA-256 of content; smaller files
// are grouped by (size, mtime). Each group's "original" is its oldest
// member, with the higher safety score winning a tie; file location is not
// considered. The rest populate the group's recoverable-space accounting.
func GroupDuplicates(files []models.EnhancedFile) ([]models.DuplicateGroup, int64) {
	hashGroups := map[string][]models.EnhancedFile{}
	equivGroups := map[equivClass][]models.EnhancedFile{}

	for _, f := range files {
		if f.Size >= duplicateHashThreshold {
			sum, err := hashFile(f.Path)
			if err != nil {
				continue
			}
			hashGroups[sum] = append(hashGroups[sum], f)
		} else {
			key := equivClass{size: f.Size, mtime: f.LastModified.Unix()}
			equivGroups[key] = append(equivGroups[key], f)
		}
	}

	var groups []models.DuplicateGroup
	var recoverable int64

	emit := func(key string, members []models.EnhancedFile) {
		if len(members) < 2 {
			return
		}
		original := pickOriginal(members)
		var dups []string
		for _, m := range members {
			if m.Path == original.Path {
				continue
			}
			dups = append(dups, m.Path)
			recoverable += m.Size
		}
		groups = append(groups, models.DuplicateGroup{Hash: key, Original: original.Path, Duplicates: dups, Size: original.Size})
	}

	for hash, members := range hashGroups {
		emit(hash, members)
	}
	for key, members := range equivGroups {
		emit("equiv", members)
		_ = key
	}

	return groups, recoverable
}

func pickOriginal(members []models.EnhancedFile) models.EnhancedFile {
	best := members[0]
	for _, m := range members[1:] {
		if m.LastModified.Before(best.LastModified) {
			best = m
			continue
		}
		if m.LastModified.Equal(best.LastModified) && m.SafetyScore > best.SafetyScore {
			best = m
		}
	}
	return best
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
