// Package engine wires the baseline, whitelist, policy, and rules checks
// into one per-package audit. The engine is built once per run from its
// configured sources and is immutable afterwards, so packages may be checked
// concurrently against the same instance.
package engine

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"polkit-audit/internal/actions"
	"polkit-audit/internal/config"
	"polkit-audit/internal/finding"
	"polkit-audit/internal/policy"
	"polkit-audit/internal/privs"
	"polkit-audit/internal/rules"
	"polkit-audit/internal/whitelist"
)

// Package is the collaborator interface describing one installed package
// under inspection. Files returns install paths (absolute, as recorded in
// the package metadata); ghost entries are declared but not materialized on
// disk and must be skipped by every check.
type Package interface {
	Name() string
	IsSource() bool
	Files() []string
	IsGhost(path string) bool
	// Root is the directory the package content is extracted under;
	// install paths are resolved below it.
	Root() string
}

// Engine holds the loaded audit inputs. All fields are read-only after New
// returns.
type Engine struct {
	cfg      config.Config
	baseline privs.Baseline
	model    *whitelist.Model
	auditor  *rules.Auditor
	diag     io.Writer
}

// New loads the configured baseline and whitelist sources. A structurally
// broken whitelist source is logged and skipped; the remaining sources still
// load (a broken source must not suppress findings derived from intact
// ones). Unreadable baseline files abort construction.
func New(cfg config.Config, diag io.Writer) (*Engine, error) {
	if diag == nil {
		diag = io.Discard
	}

	baseline, err := privs.Load(cfg.PrivsFiles, diag)
	if err != nil {
		return nil, err
	}

	model := whitelist.NewModel()
	parser := &whitelist.Parser{Prefixes: cfg.BugPrefixes, Diag: diag}
	for _, path := range cfg.Whitelists {
		if err := parser.LoadFile(path, model); err != nil {
			var ferr *whitelist.FormatError
			if errors.As(err, &ferr) {
				fmt.Fprintf(diag, "ERROR: %s\n", ferr.Error())
				continue
			}
			return nil, err
		}
	}

	return &Engine{
		cfg:      cfg,
		baseline: baseline,
		model:    model,
		auditor:  &rules.Auditor{Model: model, Dirs: cfg.RulesDirs},
		diag:     diag,
	}, nil
}

// Baseline returns the shared run baseline.
func (e *Engine) Baseline() privs.Baseline {
	return e.baseline
}

// Model returns the loaded whitelist model.
func (e *Engine) Model() *whitelist.Model {
	return e.model
}

// Check audits one package, emitting findings to r. Source packages are
// exempt entirely.
func (e *Engine) Check(pkg Package, r finding.Reporter) {
	if pkg.IsSource() {
		return
	}

	baseline := e.checkPermFiles(pkg, r)
	e.checkActions(pkg, baseline, r)
	e.checkRules(pkg, r)
}

// checkPermFiles inspects files under the privilege overrides directory.
// Unknown file names are findings; recognized override files merge into a
// per-package copy of the run baseline, which the action check then
// evaluates against. The shared baseline itself is never touched.
func (e *Engine) checkPermFiles(pkg Package, r finding.Reporter) privs.Baseline {
	prefix := e.cfg.OverridesDir

	var bases []string
	seen := map[string]bool{}

	for _, f := range pkg.Files() {
		if pkg.IsGhost(f) || !strings.HasPrefix(f, prefix) {
			continue
		}

		name := f[len(prefix):]
		if !e.privsWhitelisted(name) {
			r.Report(finding.Finding{
				ID:       finding.UnauthorizedFile,
				Severity: finding.SevError,
				Package:  pkg.Name(),
				Detail:   f,
			})
		}

		base := privs.StripProfile(name)
		if !seen[base] {
			seen[base] = true
			bases = append(bases, base)
		}
	}

	if len(bases) == 0 {
		return e.baseline
	}

	sort.Strings(bases)
	merged := e.baseline.Clone()
	for _, base := range bases {
		full := filepath.Join(pkg.Root(), prefix, base)
		if err := merged.MergeFile(privs.ResolveProfile(full), e.diag); err != nil {
			fmt.Fprintf(e.diag, "ERROR: %v\n", err)
		}
	}
	return merged
}

func (e *Engine) privsWhitelisted(name string) bool {
	for _, allowed := range e.cfg.PrivsWhitelist {
		if name == allowed {
			return true
		}
	}
	return false
}

// checkActions decodes every installed action descriptor and classifies its
// actions against the (possibly package-extended) baseline. A descriptor
// that fails to parse becomes a finding for that file; remaining files are
// still processed.
func (e *Engine) checkActions(pkg Package, baseline privs.Baseline, r finding.Reporter) {
	for _, f := range pkg.Files() {
		if pkg.IsGhost(f) || !strings.HasPrefix(f, e.cfg.ActionsDir) {
			continue
		}

		decoded, err := actions.DecodeFile(filepath.Join(pkg.Root(), f))
		if err != nil {
			r.Report(finding.Finding{
				ID:       finding.ParseError,
				Severity: finding.SevError,
				Package:  pkg.Name(),
				Detail:   fmt.Sprintf("%s: %v", f, err),
			})
			continue
		}

		for _, action := range decoded {
			e.reportAction(pkg.Name(), baseline, action, r)
		}
	}
}

func (e *Engine) reportAction(pkg string, baseline privs.Baseline, action policy.Action, r finding.Reporter) {
	for _, category := range policy.Evaluate(baseline, action) {
		var f finding.Finding
		switch category {
		case policy.Unauthorized:
			f = finding.Finding{ID: finding.UnauthorizedPrivilege, Severity: finding.SevError}
		case policy.Untracked:
			f = finding.Finding{ID: finding.UntrackedPrivilege, Severity: finding.SevError}
		case policy.CantAcquire:
			f = finding.Finding{ID: finding.CantAcquirePrivilege, Severity: finding.SevInfo}
		default:
			continue
		}
		f.Package = pkg
		f.Detail = action.Describe()
		r.Report(f)
	}
}

// checkRules runs the whitelist audit over every installed rule-script
// file.
func (e *Engine) checkRules(pkg Package, r finding.Reporter) {
	for _, f := range pkg.Files() {
		if pkg.IsGhost(f) || !e.auditor.Covers(f) {
			continue
		}
		e.auditor.Audit(pkg.Name(), pkg.Root(), f, r)
	}
}
