// Package cli provides the Cobra-based command line of pipeline-consigliere.
// The root command lints a GitLab CI pipeline file and optionally fixes it;
// subcommands list rules, show the configuration and print version details.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smurf667/pipeline-consigliere/internal/cli/shared"
	"github.com/smurf667/pipeline-consigliere/internal/cli/util"
	"github.com/smurf667/pipeline-consigliere/internal/config"
	apperrors "github.com/smurf667/pipeline-consigliere/internal/errors"
)

// Flag names of the root command.
const (
	FixFlagName         = "fix"
	InteractiveFlagName = "interactive"
	LevelFlagName       = "level"
	OutFlagName         = "out"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pipeline-consigliere [pipeline-file]",
		Short: "Lint and fix GitLab CI pipelines",
		Long: `pipeline-consigliere checks a GitLab CI pipeline file for common problems

Templates, anchors and includes (local, remote, project and component) are
resolved before the rules run, so inherited settings count. Findings can be
fixed in place, written to another file, or printed to stdout.

Pipeline-wide rules count too: a file without a workflow, in itself or in an
included file, gets a pipeline-workflow notification on top of its job
findings. Add it to disabled_rules in the config file, or set
CONSIGLIERE_DISABLED_RULES=pipeline-workflow, to turn it off.

Suppress a finding by adding a comment "pipeline-consigliere-ignore <rule-id>"
to the entry, or anywhere in the file for pipeline-wide rules.`,
		Example: `  # Lint .gitlab-ci.yml in the current directory
  pipeline-consigliere

  # Apply warn and error fixes, asking for each one
  pipeline-consigliere ci/pipeline.yml --fix --interactive --level warn

  # Print the fixed pipeline instead of overwriting it
  pipeline-consigliere --fix --out -`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runLint,
	}

	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupLinting, Title: "Linting:"})
	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupInformation, Title: "Information:"})
	rootCmd.SetHelpCommandGroupID(shared.GroupInformation)
	rootCmd.SetCompletionCommandGroupID(shared.GroupInformation)

	rootCmd.PersistentFlags().StringP(shared.ConfigFlagName, "c", config.LocalFile, "Path to the local config file")
	rootCmd.Flags().Bool(FixFlagName, false, "Apply fixes, if possible")
	rootCmd.Flags().Bool(InteractiveFlagName, false, "Ask before applying each fix")
	rootCmd.Flags().String(LevelFlagName, "info", "Minimum severity of fixes to apply (info, warn, error)")
	rootCmd.Flags().String(OutFlagName, "", "File to write fixes to; - prints to stdout (default: the pipeline file)")

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		defaultHelp(cmd, args)
		if cmd != rootCmd {
			return
		}
		active, err := util.ActiveRules(cmd, false)
		if err != nil {
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), "\nActive rules:")
		util.PrintRules(cmd.OutOrStdout(), active)
	})

	util.Register(rootCmd)
	return rootCmd
}

// Execute runs the root command and prints a failure to stderr. The returned
// error carries the exit code, see ExitCode.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	apperrors.FprintError(cmd.ErrOrStderr(), err)
	return err
}
