package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	err := Conflict("seat %d is not available", 7)

	assert.True(t, IsConflict(err))
	assert.False(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "conflict: seat 7 is not available", err.Error())
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("confirm payment: %w", NotFound("reservation %s not found", "res-1"))

	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
}
