package rules

import (
	"github.com/smurf667/pipeline-consigliere/internal/document"
	"github.com/smurf667/pipeline-consigliere/internal/lint"
)

const exampleWorkflow = `rules:
  - if: '$CI_PIPELINE_SOURCE == "merge_request_event"'
  - if: '$CI_COMMIT_BRANCH && $CI_OPEN_MERGE_REQUESTS'
    when: never
  - if: '$CI_COMMIT_BRANCH'
`

// workflowAfter lists the keys the example workflow is placed after.
var workflowAfter = []string{"variables", "image", "stages"}

const workflowSeen = "pipeline-workflow/seen"

func workflow() *lint.Rule {
	return &lint.Rule{
		ID:          "pipeline-workflow",
		Title:       "Pipelines should have a workflow definition",
		Description: "Refer to https://docs.gitlab.com/ee/ci/yaml/#workflow for details.",
		Severity:    lint.Info,
		Check: func(run *lint.Run, v lint.Visit) (*lint.Finding, error) {
			if v.Depth == 0 && v.Key == "workflow" {
				run.Set(workflowSeen, true)
			}
			return nil, nil
		},
		Finally: func(run *lint.Run, doc *document.Document, includes []*document.Document) (*lint.Finding, error) {
			if run.Flag(workflowSeen) {
				return nil, nil
			}
			// an included file may define the workflow
			for _, inc := range includes {
				if document.HasKey(inc.Map(), "workflow") {
					return nil, nil
				}
			}
			finding := &lint.Finding{Message: "The pipeline should define a workflow."}
			if root := doc.Root(); root != nil {
				value, err := document.ParseValueNode(exampleWorkflow)
				if err != nil {
					return nil, err
				}
				finding.Fix = document.InsertPair{
					Mapping:     root,
					After:       workflowAfter,
					Key:         "workflow",
					Value:       value,
					SpaceBefore: true,
				}
			}
			return finding, nil
		},
	}
}
