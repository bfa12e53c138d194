package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesSentinel(t *testing.T) {
	err := Clone(ErrStaleSlotSelection, "slot Monday 09:00 is gone")
	assert.True(t, stdErrors.Is(err, ErrStaleSlotSelection))
	assert.False(t, stdErrors.Is(err, ErrCapacityExceeded))
	assert.Equal(t, "slot Monday 09:00 is gone", err.Message)
	assert.Equal(t, "The selected time slots are no longer available, refresh and pick again", ErrStaleSlotSelection.Message)
}

func TestWrappedErrorMatchesThroughChain(t *testing.T) {
	inner := Clone(ErrCapacityExceeded, "")
	outer := fmt.Errorf("commit: %w", inner)
	assert.True(t, stdErrors.Is(outer, ErrCapacityExceeded))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	err := FromError(stdErrors.New("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Nil(t, FromError(nil))
}
