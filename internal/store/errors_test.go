package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/storefrontapp/storefront-server/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	err := &store.Error{
		Code:    http.StatusNotFound,
		Message: "not found",
	}

	assert.Equal(t, "not found", err.Error())
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := &store.Error{
		Code:    http.StatusNotFound,
		Message: "not found",
		Err:     cause,
	}

	assert.Contains(t, err.Error(), "not found")
	assert.Contains(t, err.Error(), "underlying error")
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_WithMessage(t *testing.T) {
	modified := store.ErrConflict.WithMessage("collection has products")

	assert.Equal(t, "collection has products", modified.Message)
	assert.Equal(t, http.StatusConflict, modified.HTTPCode())
	assert.Equal(t, "resource is referenced", store.ErrConflict.Message)
}

func TestSentinels_SurviveWrapping(t *testing.T) {
	err := fmt.Errorf("product 7: insufficient inventory: %w", store.ErrConflict)

	assert.True(t, errors.Is(err, store.ErrConflict))
	assert.False(t, errors.Is(err, store.ErrAlreadyExists))

	var storeErr *store.Error
	if assert.True(t, errors.As(err, &storeErr)) {
		assert.Equal(t, http.StatusConflict, storeErr.HTTPCode())
	}
}
