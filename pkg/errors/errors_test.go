package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBadRequestWrapsCause(t *testing.T) {
	cause := fmt.Errorf("deadline is required")
	err := BadRequest("invalid reminder", cause)

	assert.Equal(t, ErrBadRequest, err.Code)
	assert.Equal(t, "invalid reminder: deadline is required", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("reminder", nil)

	assert.Equal(t, ErrNotFound, err.Code)
	assert.Equal(t, "reminder not found", err.Error())
	assert.NoError(t, err.Unwrap())
}
