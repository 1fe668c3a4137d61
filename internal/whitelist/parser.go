package whitelist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/jsonc"
)

// Parser decodes whitelist documents into a Model. Two schemas are
// supported and auto-detected from the top-level JSON value:
//
// An object keyed by package, used for reviewed file content:
//
//	{
//	    "somepackage": {
//	        "audits": {
//	            "bsc#1234": {
//	                "comment": "reviewed in ...",
//	                "digests": {
//	                    "/usr/share/foo/bar": "sha256:<hex>"
//	                }
//	            }
//	        }
//	    }
//	}
//
// And a flat array keyed by path, used for whole-file rule whitelisting:
//
//	[
//	    {
//	        "package": "somepackage",
//	        "path": "/etc/polkit-1/rules.d/90-foo.rules",
//	        "skip-digest-check": false,
//	        "audits": [
//	            {"bug": "bsc#1234", "comment": "...", "digest": "sha256:<hex>"}
//	        ]
//	    }
//	]
//
// Both schemas feed the same path-keyed reverse index. Documents may carry
// JSONC-style comments; they are stripped before decoding.
type Parser struct {
	// Prefixes is the set of recognized bug-tracker prefixes. Nil means
	// DefaultBugPrefixes.
	Prefixes []string
	// Diag receives soft-error diagnostics (duplicate claims, skipped
	// package entries). Nil discards them. Diagnostics are separate from
	// findings and never abort a load.
	Diag io.Writer
}

// LoadFile parses the whitelist file at path into model. A missing file is
// not an error; configured whitelist sources are optional on any given
// system.
func (p *Parser) LoadFile(path string, model *Model) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &FormatError{Source: path, Msg: err.Error()}
	}
	return p.Parse(path, data, model)
}

// Parse decodes one whitelist document into model. source labels the
// document in errors and diagnostics. Structural problems return a
// FormatError and abort this document; a ValidationError inside one package
// entry skips that entry, reports it, and keeps going.
func (p *Parser) Parse(source string, data []byte, model *Model) error {
	data = jsonc.ToJSON(data)

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return &FormatError{Source: source, Msg: "empty whitelist document"}
	}

	switch trimmed[0] {
	case '{':
		return p.parseAuditedPackages(source, data, model)
	case '[':
		return p.parseRuleRecords(source, data, model)
	default:
		return &FormatError{Source: source, Msg: "whitelist document is neither a JSON object nor an array"}
	}
}

// auditRecord is the per-bug payload of the object schema.
type auditRecord struct {
	Comment string            `json:"comment"`
	Digests map[string]string `json:"digests"`
}

func (p *Parser) parseAuditedPackages(source string, data []byte, model *Model) error {
	var doc map[string]struct {
		Audits json.RawMessage `json:"audits"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return &FormatError{Source: source, Msg: "failed to parse JSON file: " + err.Error()}
	}

	for pkg, cfg := range doc {
		audits, err := parseAuditMap(cfg.Audits, p.Prefixes)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				// isolate the broken package entry, keep the rest
				p.diagf("%s: WARN: skipping whitelist entry for package %s: %s\n", source, pkg, verr.Msg)
				continue
			}
			return &FormatError{Source: source, Msg: fmt.Sprintf("package %s: %s", pkg, err)}
		}

		entry := &Entry{Package: pkg, Audits: audits}

		// several audits of one package naturally cover the same path;
		// index the entry once per path
		paths := map[string]bool{}
		for _, a := range audits {
			for path := range a.Digests {
				paths[path] = true
			}
		}
		for path := range paths {
			if !model.add(path, entry) {
				p.diagf("%s: WARN: duplicate entry for path %s and package %s\n", source, path, pkg)
			}
		}
	}

	return nil
}

// parseAuditMap decodes the "audits" object of one package entry while
// preserving document order, which the rules auditor later relies on for its
// newest-first scan. encoding/json map decoding would lose that order, so
// the object is walked token by token.
func parseAuditMap(raw json.RawMessage, prefixes []string) ([]AuditEntry, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no 'audits' entries")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("'audits' is not an object")
	}

	var audits []AuditEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		bug := keyTok.(string)

		var rec auditRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to parse audit entry '%s': %v", bug, err)
		}
		if len(rec.Digests) == 0 {
			return nil, fmt.Errorf("no 'digests' entry for '%s'", bug)
		}

		audit, err := NewAuditEntry(bug, rec.Comment, rec.Digests, prefixes)
		if err != nil {
			return nil, err
		}
		audits = append(audits, audit)
	}

	if len(audits) == 0 {
		return nil, fmt.Errorf("no 'audits' entries")
	}
	return audits, nil
}

// ruleRecord is one element of the flat array schema.
type ruleRecord struct {
	Package         string `json:"package"`
	Path            string `json:"path"`
	SkipDigestCheck bool   `json:"skip-digest-check"`
	Audits          []struct {
		Bug     string `json:"bug"`
		Comment string `json:"comment"`
		Digest  string `json:"digest"`
	} `json:"audits"`
}

func (p *Parser) parseRuleRecords(source string, data []byte, model *Model) error {
	var records []ruleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return &FormatError{Source: source, Msg: "failed to parse JSON file: " + err.Error()}
	}

	for _, rec := range records {
		if rec.Package == "" || rec.Path == "" {
			return &FormatError{Source: source, Msg: "rule whitelist record lacks 'package' or 'path'"}
		}
		if len(rec.Audits) == 0 && !rec.SkipDigestCheck {
			return &FormatError{Source: source, Msg: fmt.Sprintf("no 'audits' entries for package %s path %s", rec.Package, rec.Path)}
		}

		entry := &Entry{Package: rec.Package, SkipDigestCheck: rec.SkipDigestCheck}

		valid := true
		for _, a := range rec.Audits {
			// the record's single digest string becomes a one-entry
			// digest map under the record's path
			audit, err := NewAuditEntry(a.Bug, a.Comment, map[string]string{rec.Path: a.Digest}, p.Prefixes)
			if err != nil {
				var verr *ValidationError
				if errors.As(err, &verr) {
					p.diagf("%s: WARN: skipping whitelist entry for package %s path %s: %s\n",
						source, rec.Package, rec.Path, verr.Msg)
					valid = false
					break
				}
				return &FormatError{Source: source, Msg: err.Error()}
			}
			entry.Audits = append(entry.Audits, audit)
		}
		if !valid {
			continue
		}

		if !model.add(rec.Path, entry) {
			p.diagf("%s: WARN: duplicate entry for path %s and package %s\n", source, rec.Path, rec.Package)
		}
	}

	return nil
}

func (p *Parser) diagf(format string, args ...any) {
	if p.Diag != nil {
		fmt.Fprintf(p.Diag, format, args...)
	}
}
