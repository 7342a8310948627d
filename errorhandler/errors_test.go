package errorhandler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleError(t *testing.T) {
	storageErr := errors.New("Error 1062: Duplicate entry '24AB' for key 'PRIMARY'")

	tests := []struct {
		name       string
		err        error
		wantMsg    string
		actionable bool
	}{
		{
			name:       "user actionable",
			err:        NewNotAuthorizedError(nil),
			wantMsg:    "Who told you that you could do that?",
			actionable: true,
		},
		{
			name:       "wrapped custom error",
			err:        fmt.Errorf("add class: %w", NewDuplicateError(storageErr, "class `24AB`")),
			wantMsg:    "It appears that class `24AB` already exists.",
			actionable: true,
		},
		{
			name:       "database error hides details",
			err:        NewDatabaseError(storageErr, "insert class"),
			wantMsg:    genericUserMessage,
			actionable: false,
		},
		{
			name:       "plain error",
			err:        storageErr,
			wantMsg:    genericUserMessage,
			actionable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, actionable := HandleError(tt.err)
			assert.Equal(t, tt.wantMsg, msg)
			assert.Equal(t, tt.actionable, actionable)
			assert.NotContains(t, msg, "1062")
		})
	}
}

func TestCustomErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("outer: %w", NewNetworkError(base, "fetch"))

	assert.True(t, errors.Is(err, base))
	assert.Equal(t, NetworkError, CategoryOf(err))
	assert.Equal(t, UnknownError, CategoryOf(base))
	assert.Equal(t, "network", NetworkError.String())
}
