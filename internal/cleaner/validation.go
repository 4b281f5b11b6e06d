package cleaner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/errclass"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
)

// lsofTimeout bounds the best-effort open-file-handle probe so a hung or
// missing lsof never stalls pre-deletion validation.
const lsofTimeout = 2 * time.Second

// RecoveryPointTTL is how long a RecoveryPoint stays referenceable before
// pruning, per spec.md §3 Lifecycles ("pruned by TTL or capacity").
const RecoveryPointTTL = 7 * 24 * time.Hour

// Validate runs pre-deletion validation over candidates (looked up by
// path in catalog) per spec.md §4.3: rejects protected/system matches and
// low-safety items (unless allowLowSafety), detects in-use files, and
// builds a RecoveryPoint for the accepted set.
func Validate(catalog map[string]models.EnhancedFile, paths []string, allowLowSafety bool) (models.ValidationResult, models.RecoveryPoint, []string) {
	var result models.ValidationResult
	var accepted []string
	rp := models.RecoveryPoint{ID: uuid.NewString(), CreatedAt: time.Now(), ExpiresAt: time.Now().Add(RecoveryPointTTL)}

	for _, p := range paths {
		ef, ok := catalog[p]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: not found in scan catalog", p))
			result.Rejected = append(result.Rejected, models.FailedFile{Path: p, Reason: "not_found_in_catalog"})
			continue
		}
		if ef.SafetyMetrics.InProtectedLocation || ef.SafetyMetrics.IsSystemComponent {
			result.Errors = append(result.Errors, blockedReason(p, errclass.ErrBlockedSystemCritical))
			result.Rejected = append(result.Rejected, models.FailedFile{Path: p, Reason: errclass.ErrBlockedSystemCritical.Error()})
			continue
		}
		if inUse(p) {
			result.Errors = append(result.Errors, blockedReason(p, errclass.ErrBlockedInUse))
			result.Rejected = append(result.Rejected, models.FailedFile{Path: p, Reason: errclass.ErrBlockedInUse.Error()})
			continue
		}
		if !ef.SafeToDelete && !allowLowSafety {
			result.Errors = append(result.Errors, blockedReason(p, errclass.ErrBlockedUserProtected))
			result.Rejected = append(result.Rejected, models.FailedFile{Path: p, Reason: errclass.ErrBlockedUserProtected.Error()})
			continue
		}
		if !canDelete(p) {
			result.Errors = append(result.Errors, blockedReason(p, errclass.ErrBlockedPermissionDenied))
			result.Rejected = append(result.Rejected, models.FailedFile{Path: p, Reason: errclass.ErrBlockedPermissionDenied.Error()})
			continue
		}
		if ef.SafetyScore < 60 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: low safety score (%d)", p, ef.SafetyScore))
		}
		accepted = append(accepted, p)
		rp.Items = append(rp.Items, models.RecoveryItem{Path: p, Size: ef.Size, Category: ef.Category})
	}

	if len(accepted) > 0 {
		result.RecoveryPointID = rp.ID
	}
	return result, rp, accepted
}

func blockedReason(path string, reason error) string {
	return fmt.Sprintf("%s: %s", path, reason.Error())
}

// inUse does a best-effort open-file-handle detection via lsof, consistent
// with the subprocess-probe pattern used for admin deep-clean (§4.4): any
// process holding the path open is treated as InUse. lsof exits non-zero
// with no output when nothing has the file open; a missing binary or a
// timed-out probe is treated as "can't tell," never as a false block. The
// OS gives no portable "is this file open elsewhere" query, so this is
// necessarily heuristic.
func inUse(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), lsofTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "lsof", "--", path).Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) != ""
}

// canDelete pre-checks that both the target and its parent directory allow
// removal, grounded on rosia-cli's internal/cleaner/cleaner.go canDelete
// (stat path, stat parent, check parent's write bit).
func canDelete(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	parent := parentDir(path)
	info, err := os.Stat(parent)
	if err != nil {
		return false
	}
	return info.Mode().Perm()&0200 != 0
}
