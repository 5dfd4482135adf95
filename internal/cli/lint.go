package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/smurf667/pipeline-consigliere/internal/cli/shared"
	"github.com/smurf667/pipeline-consigliere/internal/cli/util"
	"github.com/smurf667/pipeline-consigliere/internal/config"
	"github.com/smurf667/pipeline-consigliere/internal/document"
	apperrors "github.com/smurf667/pipeline-consigliere/internal/errors"
	"github.com/smurf667/pipeline-consigliere/internal/include"
	"github.com/smurf667/pipeline-consigliere/internal/lint"
	"github.com/smurf667/pipeline-consigliere/internal/pipeline"
	"github.com/smurf667/pipeline-consigliere/internal/progress"
	"github.com/smurf667/pipeline-consigliere/internal/prompt"
	"github.com/smurf667/pipeline-consigliere/internal/report"
	"github.com/smurf667/pipeline-consigliere/internal/rules"
)

// runLint executes the root command.
func runLint(cmd *cobra.Command, args []string) error {
	// variables already in the environment win over .env entries
	_ = godotenv.Load()

	cfg, err := util.LoadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, args, cfg); err != nil {
		return err
	}
	fix, _ := cmd.Flags().GetBool(FixFlagName)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	l := &linter{
		cfg:      cfg,
		fix:      fix,
		in:       cmd.InOrStdin(),
		out:      cmd.OutOrStdout(),
		progress: progress.NewDisplay(progress.DetectTerminalCapabilities(), cmd.ErrOrStderr()),
	}
	return l.run(ctx)
}

// applyFlags overrides the configuration with the pipeline file argument and
// every flag set explicitly.
func applyFlags(cmd *cobra.Command, args []string, cfg *config.Configuration) error {
	if len(args) > 0 {
		cfg.File = args[0]
	}
	flags := cmd.Flags()
	if flags.Changed(LevelFlagName) {
		cfg.Level, _ = flags.GetString(LevelFlagName)
	}
	if flags.Changed(InteractiveFlagName) {
		cfg.Interactive, _ = flags.GetBool(InteractiveFlagName)
	}
	if flags.Changed(OutFlagName) {
		cfg.Out, _ = flags.GetString(OutFlagName)
	}
	if _, err := lint.ParseSeverity(cfg.Level); err != nil {
		return shared.WithExitCode(shared.ExitInvalidArguments, apperrors.InvalidLevel(cfg.Level))
	}
	return nil
}

// linter performs one run: parse, expand includes, lint, report and fix.
type linter struct {
	cfg *config.Configuration
	fix bool
	in  io.Reader
	out io.Writer

	// client, getenv and workDir default to the real environment when unset
	client   include.Doer
	getenv   func(string) string
	workDir  string
	progress include.Progress
}

func (l *linter) run(ctx context.Context) error {
	level, err := lint.ParseSeverity(l.cfg.Level)
	if err != nil {
		return shared.WithExitCode(shared.ExitInvalidArguments, apperrors.InvalidLevel(l.cfg.Level))
	}
	builtins := rules.Builtins(rules.Options{Timeout: l.cfg.TimeoutValue, ExpireIn: l.cfg.ExpireInValue})
	active, err := rules.Select(builtins, l.cfg.EnabledRules, l.cfg.DisabledRules)
	if err != nil {
		return shared.WithExitCode(shared.ExitInvalidArguments,
			apperrors.NewArgumentError(err.Error(), "Run 'pipeline-consigliere rules --all' to list the rule ids"))
	}

	src, err := os.ReadFile(l.cfg.File)
	if errors.Is(err, fs.ErrNotExist) {
		return shared.WithExitCode(shared.ExitInvalidArguments, apperrors.PipelineFileNotFound(l.cfg.File))
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", l.cfg.File, err)
	}

	console := report.NewConsole(l.out)
	doc, err := document.Parse(l.cfg.File, src)
	if err != nil {
		console.Warnf("Parsing errors exist. Will attempt to continue.")
		console.Errorf("%v", err)
	}

	model, includes := pipeline.NewModel(doc)
	expander, err := include.NewExpander(include.Options{
		Client:    l.client,
		Getenv:    l.getenv,
		WorkDir:   l.workDir,
		CacheSize: l.cfg.CacheSize,
		Timeout:   l.cfg.FetchTimeout,
		Log:       console,
		Progress:  l.progress,
	})
	if err != nil {
		return err
	}
	if err := expander.Expand(ctx, model, includes); err != nil {
		return err
	}

	summary, err := lint.NewEngine(active, model, console, console).Lint(ctx)
	var hierarchy *pipeline.HierarchyError
	if errors.As(err, &hierarchy) {
		return shared.WithExitCode(shared.ExitFatalConfiguration, apperrors.ExtendsHierarchy(hierarchy))
	}
	if err != nil {
		return err
	}
	console.Summary(summary.Count(lint.Error), summary.Count(lint.Warn), summary.Count(lint.Info))

	fixes := summary.Fixes()
	if len(fixes) == 0 {
		return nil
	}
	if !l.fix {
		console.FixHint(len(fixes))
		return nil
	}

	applier := &lint.Applier{Level: level, Log: console}
	if l.cfg.Interactive {
		applier.Prompter = prompt.New(l.in, l.out)
	}
	if _, err := applier.Apply(summary, doc); err != nil {
		return fmt.Errorf("applying fixes: %w", err)
	}
	return l.write(console, doc)
}

func (l *linter) write(console *report.Console, doc *document.Document) error {
	out, err := doc.Serialize()
	if err != nil {
		return err
	}
	target := l.cfg.Target()
	if target == "-" {
		console.Printf("modified file:\n%s", out)
		return nil
	}
	console.Printf("\nWriting fixed file %s\n", target)
	return writeAtomic(target, out)
}

// writeAtomic writes to a temp file next to target and renames it over
// target, so an interrupted write never leaves a truncated pipeline file.
func writeAtomic(target string, data []byte) error {
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", target, err)
	}
	return nil
}
