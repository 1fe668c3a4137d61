package finding

import (
	"encoding/json"
	"fmt"
	"io"
)

// Writer is a Reporter printing one line per finding, the way check output
// is consumed in terminals and CI logs.
type Writer struct {
	Out io.Writer
}

func (w *Writer) Report(f Finding) {
	fmt.Fprintf(w.Out, "%s: %s: %s: %s\n", f.Package, f.Severity, f.ID, f.Detail)
}

// FormatJSON renders collected findings as an indented JSON array.
func FormatJSON(findings []Finding) (string, error) {
	if findings == nil {
		findings = []Finding{}
	}
	data, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
