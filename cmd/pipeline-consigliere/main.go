// pipeline-consigliere - GitLab CI pipeline linter with auto-fix support

package main

import (
	"os"

	"github.com/smurf667/pipeline-consigliere/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
