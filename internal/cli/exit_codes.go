package cli

import (
	"github.com/smurf667/pipeline-consigliere/internal/cli/shared"
)

// Exit codes for the pipeline-consigliere CLI (re-exported from shared)
const (
	// ExitSuccess indicates successful command execution, findings or not
	ExitSuccess = shared.ExitSuccess

	// ExitFailure indicates an unexpected runtime failure
	ExitFailure = shared.ExitFailure

	// ExitInvalidArguments indicates a missing pipeline file or invalid flags
	ExitInvalidArguments = shared.ExitInvalidArguments

	// ExitFatalConfiguration indicates a pipeline that cannot be resolved,
	// such as a multi-level extends chain
	ExitFatalConfiguration = shared.ExitFatalConfiguration
)

// ExitCode returns the exit code from an error (re-exported from shared).
func ExitCode(err error) int {
	return shared.ExitCode(err)
}
