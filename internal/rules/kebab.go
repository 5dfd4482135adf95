package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/smurf667/pipeline-consigliere/internal/document"
	"github.com/smurf667/pipeline-consigliere/internal/lint"
)

var (
	notKebab  = regexp.MustCompile(`[A-Z_]`)
	camelHump = regexp.MustCompile(`([a-z_])([A-Z])`)
	separator = regexp.MustCompile(`[\s_]+`)
)

// kebabCase is opt-in; global keywords like before_script are not job names.
func kebabCase() *lint.Rule {
	return &lint.Rule{
		ID:          "example-kebab-case",
		Title:       "Job names must be in kebab-case",
		Description: "Flags job names that are not in kebab-case as an error.",
		Severity:    lint.Error,
		OptIn:       true,
		Check: func(_ *lint.Run, v lint.Visit) (*lint.Finding, error) {
			if !isJob(v) || !notKebab.MatchString(v.Key) {
				return nil, nil
			}
			kebab := toKebab(v.Key)
			return &lint.Finding{
				Message: fmt.Sprintf("Job name %q should be in kebab-case: %q", v.Key, kebab),
				Fix:     document.RenameKey{Key: v.Pair.Key, Name: kebab},
			}, nil
		},
	}
}

func toKebab(name string) string {
	name = camelHump.ReplaceAllString(name, "$1-$2")
	return strings.ToLower(separator.ReplaceAllString(name, "-"))
}
