package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"polkit-audit/internal/config"
	"polkit-audit/internal/engine"
	"polkit-audit/internal/finding"
	"polkit-audit/internal/pkgfs"
)

var (
	flagRoot   string
	flagName   string
	flagSource bool
	flagJSON   bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit one extracted package tree",
	Long: `Check audits the package content extracted under --root against the
configured privilege baseline and whitelists. Findings go to stdout;
diagnostics about the audit's own inputs go to stderr.

Exit status is 0 when no error-severity finding was produced, 1 when at
least one was, and 2 when the audit could not run.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&flagRoot, "root", "", "extracted package tree (required)")
	checkCmd.Flags().StringVar(&flagName, "name", "", "package name (required)")
	checkCmd.Flags().BoolVar(&flagSource, "source", false, "treat as a source package (exempt from all checks)")
	checkCmd.Flags().BoolVar(&flagJSON, "json", false, "emit findings as JSON")
	_ = checkCmd.MarkFlagRequired("root")
	_ = checkCmd.MarkFlagRequired("name")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if path := resolveConfigPath(); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	eng, err := engine.New(cfg, os.Stderr)
	if err != nil {
		return err
	}

	pkg, err := pkgfs.Scan(flagName, flagRoot, flagSource)
	if err != nil {
		return err
	}

	var collector finding.Collector
	eng.Check(pkg, &collector)

	if flagJSON {
		out, err := finding.FormatJSON(collector.Findings)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	} else {
		w := &finding.Writer{Out: cmd.OutOrStdout()}
		for _, f := range collector.Findings {
			w.Report(f)
		}
	}

	if collector.HasErrors() {
		// distinct from the exit 2 cobra uses for run failures
		osExit(1)
	}
	return nil
}

// osExit is swapped in tests.
var osExit = os.Exit
