// Package errors tests the prebuilt CLI error messages.
// Related: internal/errors/messages.go
// Tags: errors, cli-errors, messages, remediation
package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineFileNotFound(t *testing.T) {
	err := PipelineFileNotFound("ci/.gitlab-ci.yml")

	assert.Equal(t, Prerequisite, err.Category)
	assert.Contains(t, err.Message, "ci/.gitlab-ci.yml")
	assert.NotEmpty(t, err.Usage)
	assert.NotEmpty(t, err.Remediation)
}

func TestInvalidLevel(t *testing.T) {
	err := InvalidLevel("fatal")

	assert.Equal(t, Argument, err.Category)
	assert.Contains(t, err.Message, `"fatal"`)
}

func TestExtendsHierarchy(t *testing.T) {
	cause := errors.New("hierarchy")
	err := ExtendsHierarchy(cause)

	assert.Equal(t, Configuration, err.Category)
	assert.ErrorIs(t, err, cause)
	assert.Len(t, err.Remediation, 2)
}
