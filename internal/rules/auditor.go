// Package rules audits installed polkit rule-script files against the
// whitelist model: every rules file must be claimed by its package and,
// unless the claim skips digest checking, must match one of the approved
// content digests.
package rules

import (
	"strings"

	"polkit-audit/internal/finding"
	"polkit-audit/internal/whitelist"
)

// DefaultDirs are the rule-script directories recognized when no explicit
// set is configured.
var DefaultDirs = []string{
	"/etc/polkit-1/rules.d/",
	"/usr/share/polkit-1/rules.d/",
}

// Auditor decides per rules file whether it is unclaimed, accepted without
// digest check, digest-matching, or diverged. Read-only over the model;
// safe for concurrent use across packages.
type Auditor struct {
	Model *whitelist.Model
	Dirs  []string // nil means DefaultDirs
}

// Covers reports whether path lies under a recognized rules directory.
func (a *Auditor) Covers(path string) bool {
	dirs := a.Dirs
	if dirs == nil {
		dirs = DefaultDirs
	}
	for _, dir := range dirs {
		if strings.HasPrefix(path, dir) {
			return true
		}
	}
	return false
}

// Audit runs the per-file state machine for one rules file installed by
// pkg, whose content is found under root. Accepted files produce no
// finding.
func (a *Auditor) Audit(pkg, root, path string, r finding.Reporter) {
	entry, claimed := a.Model.Lookup(path, pkg)
	if !claimed {
		// no whitelist entry exists for this file and package
		r.Report(finding.Finding{
			ID:       finding.UnauthorizedRules,
			Severity: finding.SevError,
			Package:  pkg,
			Detail:   path,
		})
		return
	}

	if entry.SkipDigestCheck {
		// no content verification for this package/file combination
		return
	}

	// newest audit first: it is the most likely to match, and when
	// several historical digests coincide the most recent audit trail
	// wins
	for i := len(entry.Audits) - 1; i >= 0; i-- {
		if ok, _ := entry.Audits[i].Verify(root); ok {
			return
		}
	}

	// content diverged from every approved revision
	r.Report(finding.Finding{
		ID:       finding.ChangedRules,
		Severity: finding.SevError,
		Package:  pkg,
		Detail:   path,
	})
}
