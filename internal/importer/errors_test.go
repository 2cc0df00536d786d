package importer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatching(t *testing.T) {
	cause := &notFoundError{what: "project 9"}
	err := fmt.Errorf("commit: %w", WrapError(ErrProjectNotFound, cause, "project %d", 9))

	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsExpected(err))
	assert.Equal(t, "commit: project not found: project 9: project 9 not found", err.Error())
}

func TestIsExpected(t *testing.T) {
	assert.False(t, IsExpected(errors.New("connection refused")))
	assert.False(t, IsExpected(nil))
	assert.True(t, IsExpected(NewError(ErrMissingTemplate, "")))
	assert.Equal(t, "no template specified", NewError(ErrMissingTemplate, "").Error())
}

func TestIsRemoteNotFound(t *testing.T) {
	assert.True(t, isRemoteNotFound(fmt.Errorf("wrapped: %w", &notFoundError{what: "x"})))
	assert.False(t, isRemoteNotFound(errors.New("boom")))
}
