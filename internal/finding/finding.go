// Package finding defines the audit findings emitted per package and the
// sinks they are reported to. Findings are the check's output stream;
// diagnostics about the check's own inputs go elsewhere.
package finding

// Severity of a finding.
type Severity string

const (
	SevError Severity = "error"
	SevInfo  Severity = "info"
)

// Stable finding identifiers.
const (
	UnauthorizedFile      = "polkit-unauthorized-file"
	UnauthorizedPrivilege = "polkit-unauthorized-privilege"
	UntrackedPrivilege    = "polkit-untracked-privilege"
	CantAcquirePrivilege  = "polkit-cant-acquire-privilege"
	UnauthorizedRules     = "polkit-unauthorized-rules"
	ChangedRules          = "polkit-changed-rules"
	ParseError            = "polkit-parse-error"
)

// Finding is one audit result for one package: a stable identifier, its
// severity, and a human-readable detail naming the file or action involved.
type Finding struct {
	ID       string   `json:"id"`
	Severity Severity `json:"severity"`
	Package  string   `json:"package"`
	Detail   string   `json:"detail"`
}

// Reporter receives findings as they are produced. Implementations must be
// safe for use from a single package check at a time; the engine does not
// interleave reports for one package.
type Reporter interface {
	Report(f Finding)
}

// Collector is a Reporter that accumulates findings, for tests and for the
// JSON output mode.
type Collector struct {
	Findings []Finding
}

func (c *Collector) Report(f Finding) {
	c.Findings = append(c.Findings, f)
}

// HasErrors reports whether any collected finding has error severity.
func (c *Collector) HasErrors() bool {
	for _, f := range c.Findings {
		if f.Severity == SevError {
			return true
		}
	}
	return false
}
