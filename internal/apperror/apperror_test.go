package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsufficientStockMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("outbound: %w", InsufficientStock("X1", 100, 10))

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrSourceNotFound))

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "Insufficient stock", appErr.Message)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Equal(t, "10", appErr.Details["available"])
}

func TestAlreadyProcessedRendersAsNotFound(t *testing.T) {
	err := AlreadyProcessed(7)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.True(t, errors.Is(err, ErrAlreadyProcessed))
}

func TestFromWrapsPlainErrors(t *testing.T) {
	plain := errors.New("db down")
	appErr := From(plain)

	assert.Equal(t, CodeInternal, appErr.Code)
	assert.ErrorIs(t, appErr, plain)
	assert.Nil(t, From(nil))
}
