package util

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smurf667/pipeline-consigliere/internal/cli/shared"
	"github.com/smurf667/pipeline-consigliere/internal/health"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "doctor [pipeline-file]",
		Aliases: []string{"doc"},
		Short:   "Check configuration, pipeline file and include credentials (doc)",
		Long: `Run health checks before linting.

This command checks for:
  - a valid configuration (defaults, global file, --config and environment)
  - a readable pipeline file that parses as YAML
  - CI_API_V4_URL and ACCESS_TOKEN, needed for project and component includes

Missing include variables are reported as warnings only.`,
		Example: `  # Check the configured pipeline file
  pipeline-consigliere doctor

  # Check before linting another file
  pipeline-consigliere doctor ci/release.yml && pipeline-consigliere ci/release.yml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := health.Options{}
			opts.ConfigPath, _ = cmd.Flags().GetString(shared.ConfigFlagName)
			if len(args) == 1 {
				opts.File = args[0]
			}

			report := health.RunHealthChecks(opts)
			fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))

			if !report.Passed {
				return shared.WithExitCode(shared.ExitFailure, errors.New("health checks failed"))
			}
			return nil
		},
	}
	cmd.GroupID = shared.GroupInformation
	return cmd
}
