// Package pipeline builds the logical view of a GitLab CI pipeline: anchors,
// templates, the merged view over all included files, and the resolution of
// `extends` and anchor inheritance for a single entry.
package pipeline

import "strings"

// globalKeywords are top-level keys that configure the pipeline rather than
// define a job.
var globalKeywords = map[string]struct{}{
	"default":   {},
	"include":   {},
	"stages":    {},
	"variables": {},
	"workflow":  {},
	"spec":      {},
	// deprecated globals, superseded by default:
	"image":         {},
	"services":      {},
	"cache":         {},
	"before_script": {},
	"after_script":  {},
}

// IsGlobalKeyword reports whether key is a reserved top-level keyword.
func IsGlobalKeyword(key string) bool {
	_, ok := globalKeywords[key]
	return ok
}

// IsTemplate reports whether key names a hidden job used as an extends target.
func IsTemplate(key string) bool {
	return strings.HasPrefix(key, ".")
}

// IsJob reports whether a top-level key defines a job.
func IsJob(key string) bool {
	return !IsGlobalKeyword(key) && !IsTemplate(key)
}
