package rules

import (
	"fmt"

	"github.com/smurf667/pipeline-consigliere/internal/document"
	"github.com/smurf667/pipeline-consigliere/internal/lint"
	"github.com/smurf667/pipeline-consigliere/internal/pipeline"
)

func isJob(v lint.Visit) bool {
	return v.Depth == 0 && pipeline.IsJob(v.Key)
}

func interruptible() *lint.Rule {
	return &lint.Rule{
		ID:    "jobs-interruptible",
		Title: "Jobs should be interruptible",
		Description: `Set "interruptible: true" on the job to avoid redundant job executions.
			Refer to https://docs.gitlab.com/ee/ci/yaml/#interruptible for details.`,
		Severity: lint.Warn,
		Check: func(_ *lint.Run, v lint.Visit) (*lint.Finding, error) {
			if !isJob(v) {
				return nil, nil
			}
			missing, err := lacks(v, "interruptible")
			if err != nil || !missing {
				return nil, err
			}
			fix, err := prepend(v, "interruptible", true)
			if err != nil {
				return nil, err
			}
			return &lint.Finding{Message: fmt.Sprintf("%q job is not interruptible.", v.Key), Fix: fix}, nil
		},
	}
}

// rather sad that a global timeout in default is not honored, see
// https://gitlab.com/gitlab-org/gitlab/-/issues/213634
func timeout(value string) *lint.Rule {
	return &lint.Rule{
		ID:    "jobs-timeout",
		Title: "Jobs should have timeouts",
		Description: `Set "timeout: <value>" on the job to avoid excessive default times.
			Check what is a reasonable/expected time for the job to run and set a value in
			that range. This avoids hogging runner capacity in hanger situations; imagine a
			job that usually runs for five minutes, but that hangs for some reason. If the
			default value is used (e.g. 1h), then runner capacity is unnecessarily blocked.
			Refer to https://docs.gitlab.com/ee/ci/yaml/#timeout for details.`,
		Severity: lint.Warn,
		Check: func(_ *lint.Run, v lint.Visit) (*lint.Finding, error) {
			if !isJob(v) {
				return nil, nil
			}
			missing, err := lacks(v, "timeout")
			if err != nil || !missing {
				return nil, err
			}
			fix, err := prepend(v, "timeout", value)
			if err != nil {
				return nil, err
			}
			return &lint.Finding{Message: fmt.Sprintf("%q job has no timeout set.", v.Key), Fix: fix}, nil
		},
	}
}

const workflowRulesSeen = "jobs-have-rules/workflow-rules"

func haveRules() *lint.Rule {
	return &lint.Rule{
		ID:    "jobs-have-rules",
		Title: "Jobs should have rules",
		Description: `Add a "rules" section to the job to define when it needs to run.
			Without rules it may be run unconditionally.
			Refer to https://docs.gitlab.com/ee/ci/yaml/#rules for details.`,
		Severity: lint.Info,
		Check: func(run *lint.Run, v lint.Visit) (*lint.Finding, error) {
			if v.Depth == 0 && v.Key == "workflow" {
				run.Set(workflowRulesSeen, document.HasKey(v.Value, "rules"))
				return nil, nil
			}
			if !isJob(v) {
				return nil, nil
			}
			missing, err := lacks(v, "rules")
			if err != nil || !missing || run.Flag(workflowRulesSeen) {
				return nil, err
			}
			return &lint.Finding{Message: fmt.Sprintf("%q job has no rules set.", v.Key)}, nil
		},
	}
}

func artifactsExpire(value string) *lint.Rule {
	return &lint.Rule{
		ID:    "jobs-artifacts-expire",
		Title: "Job artifacts should expire",
		Description: `Set "expire_in: <value>" on job artifacts to avoid consuming storage unnecessarily.
			Refer to https://docs.gitlab.com/ee/ci/yaml/#artifactsexpire_in for details.`,
		Severity: lint.Warn,
		Check: func(_ *lint.Run, v lint.Visit) (*lint.Finding, error) {
			if v.Depth != 1 || v.Key != "artifacts" {
				return nil, nil
			}
			missing, err := lacks(v, "expire_in")
			if err != nil || !missing {
				return nil, err
			}
			fix, err := prepend(v, "expire_in", value)
			if err != nil {
				return nil, err
			}
			return &lint.Finding{Message: "The artifacts exposed by the job have no expiry set.", Fix: fix}, nil
		},
	}
}
