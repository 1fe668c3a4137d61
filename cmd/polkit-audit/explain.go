package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"polkit-audit/internal/finding"
)

var explainCmd = &cobra.Command{
	Use:   "explain [finding-id]",
	Short: "Show the description of a finding id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			for _, id := range finding.IDs() {
				fmt.Fprintln(out, id)
			}
			return nil
		}

		desc := finding.Describe(args[0])
		if desc == "" {
			return fmt.Errorf("unknown finding id '%s'", args[0])
		}
		fmt.Fprintln(out, strings.TrimSpace(desc))
		return nil
	},
}
