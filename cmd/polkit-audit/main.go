// polkit-audit checks extracted package trees for polkit policy violations:
// privilege override files that were never reviewed, authorization actions
// granting privileges without administrator authentication, and rule-script
// files missing from or diverging from the security whitelist.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var flagConfig string

var rootCmd = &cobra.Command{
	Use:          "polkit-audit",
	Short:        "Audit packages for polkit privilege and whitelist violations",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "run configuration file (env: POLKIT_AUDIT_CONFIG)")
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveConfigPath returns the config path from flag or environment; empty
// means built-in defaults.
func resolveConfigPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return os.Getenv("POLKIT_AUDIT_CONFIG")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("polkit-audit %s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}
