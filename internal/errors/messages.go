package errors

import "fmt"

// PipelineFileNotFound is returned when the target pipeline file does not exist.
func PipelineFileNotFound(path string) *CLIError {
	return &CLIError{
		Category: Prerequisite,
		Message:  fmt.Sprintf("file does not exist: %s", path),
		Usage:    "pipeline-consigliere [<pipeline-file>] [--fix] [--interactive] [--level <info|warn|error>] [--out <output-file>]",
		Remediation: []string{
			"Run the command from the repository root, or",
			"Pass the pipeline file explicitly (defaults to .gitlab-ci.yml)",
		},
	}
}

// InvalidLevel is returned when --level is not one of info, warn or error.
func InvalidLevel(level string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid level %q", level),
		"--level <info|warn|error>",
		"Use one of: info, warn, error",
	)
}

// ExtendsHierarchy is returned when a job extends a template that itself extends another.
func ExtendsHierarchy(err error) *CLIError {
	return &CLIError{
		Category: Configuration,
		Message:  err.Error(),
		Err:      err,
		Remediation: []string{
			"Flatten the template chain so every job extends templates that do not use 'extends' themselves",
			"Or share the common keys through YAML anchors instead",
		},
	}
}
