package util

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smurf667/pipeline-consigliere/internal/cli/shared"
	"github.com/smurf667/pipeline-consigliere/internal/config"
	apperrors "github.com/smurf667/pipeline-consigliere/internal/errors"
	"github.com/smurf667/pipeline-consigliere/internal/lint"
	"github.com/smurf667/pipeline-consigliere/internal/report"
	"github.com/smurf667/pipeline-consigliere/internal/rules"
)

func newRulesCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the active lint rules",
		Long: `List the rules a lint run would apply, sorted by id.

Rules are enabled and disabled through the enabled_rules and disabled_rules
configuration keys.`,
		Example: `  # Rules active with the current configuration
  pipeline-consigliere rules

  # Every built-in rule, including opt-in ones
  pipeline-consigliere rules --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			builtins, err := ActiveRules(cmd, all)
			if err != nil {
				return err
			}
			PrintRules(cmd.OutOrStdout(), builtins)
			return nil
		},
	}
	cmd.GroupID = shared.GroupInformation
	cmd.Flags().BoolVar(&all, "all", false, "List every built-in rule")
	return cmd
}

// ActiveRules returns the rules selected by the configuration, or every
// built-in rule when all is set.
func ActiveRules(cmd *cobra.Command, all bool) ([]*lint.Rule, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	builtins := rules.Builtins(rules.Options{Timeout: cfg.TimeoutValue, ExpireIn: cfg.ExpireInValue})
	if all {
		return builtins, nil
	}
	return rules.Select(builtins, cfg.EnabledRules, cfg.DisabledRules)
}

// PrintRules lists rule ids and titles, ids padded to a common width.
func PrintRules(out io.Writer, list []*lint.Rule) {
	width := 0
	for _, r := range list {
		width = max(width, len(r.ID))
	}
	console := report.NewConsole(out)
	for _, r := range list {
		title := r.Title
		if r.OptIn {
			title += " (opt-in)"
		}
		console.Rule(r.ID, width+1, strings.TrimSpace(title))
	}
}

// LoadConfig loads the configuration named by the --config flag.
func LoadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	path, _ := cmd.Flags().GetString(shared.ConfigFlagName)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Configuration,
			"Check "+path+" and "+config.GlobalPath(),
			"Check the "+config.EnvPrefix+"* environment variables")
	}
	return cfg, nil
}
