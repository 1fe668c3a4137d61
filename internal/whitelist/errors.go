package whitelist

import "fmt"

// FormatError indicates a structurally malformed whitelist document: invalid
// JSON, a package entry without audit records, or an audit record without
// digests. It aborts loading the affected source file.
type FormatError struct {
	Source string // file path or label of the offending document
	Msg    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Msg)
}

// ValidationError indicates a malformed field inside an otherwise well-formed
// document: a bad tracking-bug id, a bad digest spec, or a relative path.
// The parser isolates the failure to the offending package entry and keeps
// loading the rest of the document.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
