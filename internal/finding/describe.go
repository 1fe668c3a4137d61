package finding

// AuditBugURL documents the review process findings point packagers at.
const AuditBugURL = "https://en.opensuse.org/openSUSE:Package_security_guidelines#audit_bugs"

// descriptions holds the long explanation text per finding id, shown by the
// CLI's explain command.
var descriptions = map[string]string{
	UnauthorizedFile: `A custom polkit rule file is installed by this package. If the package
is intended for inclusion in a reviewed product please open a bug report to
request review of the package by the security team. See ` + AuditBugURL + `.`,

	UnauthorizedPrivilege: `The package allows unprivileged users to carry out privileged
operations without authentication. This can cause security problems if not
done carefully. If the package is intended for inclusion in a reviewed
product please open a bug report to request review of the package by the
security team. See ` + AuditBugURL + `.`,

	UntrackedPrivilege: `The privilege is not listed in the privilege baseline files, which
makes it harder for admins to find. Polkit authorization checks can easily
introduce security issues. If the package is intended for inclusion in a
reviewed product please open a bug report to request review of the package
by the security team. See ` + AuditBugURL + `.`,

	CantAcquirePrivilege: `Usability can be improved by allowing users to acquire privileges
via authentication. Use e.g. 'auth_admin' instead of 'no' and make sure to
define 'allow_any'. This is an issue only if the privilege is not listed in
the privilege baseline files.`,

	UnauthorizedRules: `A polkit rules file installed by this package is not whitelisted.
If the package is intended for inclusion in a reviewed product please open a
bug report to request review of the package by the security team. See ` + AuditBugURL + `.`,

	ChangedRules: `A whitelisted polkit rules file installed by this package changed in
content. Please open a bug report to request follow-up review of the
introduced changes by the security team. See ` + AuditBugURL + `.`,

	ParseError: `An authorization-action descriptor file shipped by this package could
not be parsed. The file is skipped; its actions are not classified.`,
}

// Describe returns the long description for a finding id, or an empty
// string for unknown ids.
func Describe(id string) string {
	return descriptions[id]
}

// IDs returns all finding ids with descriptions.
func IDs() []string {
	return []string{
		UnauthorizedFile,
		UnauthorizedPrivilege,
		UntrackedPrivilege,
		CantAcquirePrivilege,
		UnauthorizedRules,
		ChangedRules,
		ParseError,
	}
}
