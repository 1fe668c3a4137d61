// Package privs loads the privilege-defaults baseline: the canonical list of
// named privileges and their maximum sanctioned authorization setting,
// reviewed out of band. An action id present in the baseline is explicitly
// tracked by policy and needs no further classification.
package privs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Profiles are the recognized baseline profile variants, in precedence
// order. When a profile-suffixed sibling of a baseline file exists, the
// first existing variant is loaded instead of the unsuffixed file.
var Profiles = []string{"restrictive", "standard", "relaxed"}

// Baseline maps privilege ids to their maximum allowed setting. Immutable
// after load; safe for concurrent read-only use.
type Baseline map[string]string

// Tracked reports whether the privilege id is listed in the baseline.
func (b Baseline) Tracked(id string) bool {
	_, ok := b[id]
	return ok
}

// Clone returns an independent copy, for merging per-package override files
// without touching the shared run baseline.
func (b Baseline) Clone() Baseline {
	dup := make(Baseline, len(b))
	for k, v := range b {
		dup[k] = v
	}
	return dup
}

// Load builds a baseline from the given files, in order. Missing files are
// skipped; a configured baseline source is optional on any given system.
func Load(paths []string, diag io.Writer) (Baseline, error) {
	b := make(Baseline)
	for _, path := range paths {
		if err := b.MergeFile(path, diag); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// MergeFile parses one baseline file into b. The format is line-oriented:
// '#' starts a comment, blank lines are ignored, and each remaining line is
// whitespace-split into a privilege id and its setting. A later line for the
// same id overwrites the earlier one. Lines without both fields are skipped
// with a diagnostic.
func (b Baseline) MergeFile(path string, diag io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line, _, _ := strings.Cut(scanner.Text(), "#")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			if diag != nil {
				fmt.Fprintf(diag, "%s:%d: WARN: privilege line lacks a setting, skipped\n", path, lineNo)
			}
			continue
		}
		b[fields[0]] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %v", path, err)
	}
	return nil
}

// ResolveProfile returns the path to load for a baseline base path: the
// first existing "<base>.<profile>" sibling in profile precedence order, or
// base itself when no variant exists.
func ResolveProfile(base string) string {
	for _, profile := range Profiles {
		candidate := base + "." + profile
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return base
}

// StripProfile removes a recognized profile suffix from a file name.
// "org.foo.pkla.standard" becomes "org.foo.pkla"; names without a profile
// suffix are returned unchanged.
func StripProfile(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name
	}
	suffix := name[idx+1:]
	for _, profile := range Profiles {
		if suffix == profile {
			return name[:idx]
		}
	}
	return name
}
