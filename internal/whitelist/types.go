// Package whitelist holds the parsed model of reviewed file whitelistings:
// per-package audit records approving specific file content by digest, plus
// the digest verification that compares on-disk files against those records.
package whitelist

import (
	"sort"
	"strings"

	"polkit-audit/internal/digest"
)

// SkipDigest is the sentinel digest value meaning "trust this file
// unconditionally, do not verify its content". Used for files outside the
// normal review flow, e.g. build-time generated content.
const SkipDigest = "skip:<none>"

// DefaultBugPrefixes are the tracking-bug prefixes recognized when no
// explicit set is configured.
var DefaultBugPrefixes = []string{"bsc", "boo", "bnc"}

// AuditEntry is a single reviewed change for one package, identified by a
// tracking-bug reference like "bsc#1234". Digests maps absolute file paths to
// digest specs of the form "<algorithm>:<hexdigest>", or SkipDigest.
type AuditEntry struct {
	Bug     string
	Comment string
	Digests map[string]string
}

// NewAuditEntry validates and builds an audit entry. prefixes is the set of
// recognized bug-tracker prefixes; a nil slice means DefaultBugPrefixes.
// A malformed bug id, a relative path, or a malformed digest spec returns a
// ValidationError. These checks run at parse time so that a broken whitelist
// entry surfaces immediately instead of silently failing to match during
// verification.
func NewAuditEntry(bug, comment string, digests map[string]string, prefixes []string) (AuditEntry, error) {
	if err := verifyBug(bug, prefixes); err != nil {
		return AuditEntry{}, err
	}
	for path, spec := range digests {
		if err := verifyPath(path); err != nil {
			return AuditEntry{}, err
		}
		if err := verifyDigestSpec(spec); err != nil {
			return AuditEntry{}, err
		}
	}
	return AuditEntry{Bug: bug, Comment: comment, Digests: digests}, nil
}

// IsSkipDigest reports whether the given digest spec is the skip sentinel.
func IsSkipDigest(spec string) bool {
	return spec == SkipDigest
}

func verifyBug(bug string, prefixes []string) error {
	if prefixes == nil {
		prefixes = DefaultBugPrefixes
	}

	parts := strings.Split(bug, "#")
	if len(parts) != 2 {
		return validationErrorf("bad bug nr# '%s'", bug)
	}

	known := false
	for _, p := range prefixes {
		if parts[0] == p {
			known = true
			break
		}
	}
	if !known || !allDigits(parts[1]) {
		return validationErrorf("bad bug nr# '%s'", bug)
	}
	return nil
}

func verifyDigestSpec(spec string) error {
	if IsSkipDigest(spec) {
		return nil
	}

	parts := strings.Split(spec, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return validationErrorf("bad digest specification '%s'", spec)
	}
	if !digest.Supported(parts[0]) {
		return validationErrorf("bad digest algorithm in '%s'", spec)
	}
	return nil
}

func verifyPath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return validationErrorf("bad whitelisting path '%s'", path)
	}
	return nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Entry is one package's whitelisting: an ordered sequence of audit records
// in document order. The rules auditor traverses Audits newest-first, i.e.
// in reverse. SkipDigestCheck means every path this entry claims is accepted
// without content verification.
type Entry struct {
	Package         string
	SkipDigestCheck bool
	Audits          []AuditEntry
}

// Model is the parsed whole of one or more whitelist sources: a reverse
// index from file path to the entries (across packages) that claim that
// path. Immutable after load; safe for concurrent read-only use.
type Model struct {
	byPath map[string][]*Entry
}

// NewModel returns an empty model ready to be populated by a Parser.
func NewModel() *Model {
	return &Model{byPath: make(map[string][]*Entry)}
}

// Claims returns the entries claiming the given path, in load order.
func (m *Model) Claims(path string) []*Entry {
	return m.byPath[path]
}

// Lookup returns the entry a specific package holds for path, if any.
func (m *Model) Lookup(path, pkg string) (*Entry, bool) {
	for _, e := range m.byPath[path] {
		if e.Package == pkg {
			return e, true
		}
	}
	return nil, false
}

// Paths returns all claimed paths, sorted.
func (m *Model) Paths() []string {
	paths := make([]string, 0, len(m.byPath))
	for p := range m.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// add indexes entry under path. It returns false without indexing when the
// same (path, package) pair is already claimed; the first claim wins.
func (m *Model) add(path string, entry *Entry) bool {
	for _, e := range m.byPath[path] {
		if e.Package == entry.Package {
			return false
		}
	}
	m.byPath[path] = append(m.byPath[path], entry)
	return true
}
