package whitelist

import (
	"path/filepath"
	"sort"
	"strings"

	"polkit-audit/internal/digest"
)

// VerificationResult describes the outcome of recomputing one whitelisted
// file's digest. Expected and Encountered are compared exactly, case
// included.
type VerificationResult struct {
	Path        string
	Algorithm   string
	Expected    string
	Encountered string
}

// Matches reports whether the encountered digest equals the expected one.
func (r VerificationResult) Matches() bool {
	return r.Expected == r.Encountered
}

// Verify recomputes the digest of every path this audit entry claims,
// resolved under root, and compares against the recorded digests. Skip
// sentinel entries are omitted from the results entirely; they neither
// contribute to failure nor get reported. A file that cannot be read yields
// an "error:..." encountered value, which can never match a real digest, so
// a deleted or unreadable claimed file is a verification failure rather than
// a fatal error. The boolean is true when every non-skipped result matches
// (vacuously true if all entries were skipped).
func (a AuditEntry) Verify(root string) (bool, []VerificationResult) {
	paths := make([]string, 0, len(a.Digests))
	for path := range a.Digests {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	allMatch := true
	var results []VerificationResult

	for _, path := range paths {
		spec := a.Digests[path]
		if IsSkipDigest(spec) {
			continue
		}

		// spec syntax was validated at parse time
		alg, expected, _ := strings.Cut(spec, ":")

		encountered, err := digest.Compute(filepath.Join(root, path), alg)
		if err != nil {
			encountered = "error:" + err.Error()
		}

		res := VerificationResult{
			Path:        path,
			Algorithm:   alg,
			Expected:    expected,
			Encountered: encountered,
		}
		if !res.Matches() {
			allMatch = false
		}
		results = append(results, res)
	}

	return allMatch, results
}
