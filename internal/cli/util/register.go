// Package util provides the informational CLI commands of pipeline-consigliere.
// Includes: rules, config, doctor, version
package util

import (
	"github.com/spf13/cobra"
)

// Register adds all utility commands to the root command.
// This function is called from the root CLI package when the command tree is built.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newRulesCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newVersionCmd())
}
