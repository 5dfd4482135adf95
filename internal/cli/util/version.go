package util

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/smurf667/pipeline-consigliere/internal/cli/shared"
)

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// IsDevBuild returns true if running a development build (not a release).
func IsDevBuild() bool {
	return Version == "dev"
}

func newVersionCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Display version information (v)",
		Long:    "Display version, commit, build date, and Go version information for pipeline-consigliere",
		Example: `  # Show version info
  pipeline-consigliere version

  # Plain output (for scripts)
  pipeline-consigliere version --plain`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if plain {
				printPlainVersion(cmd.OutOrStdout())
				return
			}
			printPrettyVersion(cmd.OutOrStdout())
		},
	}
	cmd.GroupID = shared.GroupInformation
	cmd.Flags().BoolVar(&plain, "plain", false, "Plain output without formatting")
	return cmd
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(out io.Writer) {
	fmt.Fprintf(out, "pipeline-consigliere %s\n", Version)
	fmt.Fprintf(out, "commit: %s\n", Commit)
	fmt.Fprintf(out, "built: %s\n", BuildDate)
	fmt.Fprintf(out, "go: %s\n", runtime.Version())
	fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func printPrettyVersion(out io.Writer) {
	c := shared.NewColors()
	fmt.Fprintf(out, "%s %s\n", c.Cyan("pipeline-consigliere"), c.White(Version))
	if IsDevBuild() {
		fmt.Fprintln(out, c.Dim("development build"))
	}
	fmt.Fprintf(out, "  %s %s\n", c.Dim("commit:  "), Commit)
	fmt.Fprintf(out, "  %s %s\n", c.Dim("built:   "), BuildDate)
	fmt.Fprintf(out, "  %s %s (%s/%s)\n", c.Dim("go:      "), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
