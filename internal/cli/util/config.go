package util

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smurf667/pipeline-consigliere/internal/cli/shared"
	"github.com/smurf667/pipeline-consigliere/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: fmt.Sprintf(`Show every configuration key with its effective value.

Values are read from defaults, the global file, the local file (--config)
and %s* environment variables, later sources winning.`, config.EnvPrefix),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			c := shared.NewColors()
			if global := config.GlobalPath(); global != "" {
				fmt.Fprintf(out, "%s %s\n", c.Dim("global file:"), global)
			}
			values := cfg.Values()
			for _, key := range config.SortedKeys() {
				schema := config.KnownKeys[key]
				fmt.Fprintf(out, "%s = %v\n", c.Yellow(key), values[key])
				fmt.Fprintf(out, "  %s %s (%s, %s)\n", c.Dim("#"), schema.Description, schema.Type, schema.EnvName())
			}
			return nil
		},
	}
	cmd.GroupID = shared.GroupInformation
	return cmd
}
