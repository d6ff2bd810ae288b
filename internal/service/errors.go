package service

import (
	"errors"

	domainerrors "github.com/storefrontapp/storefront-server/internal/errors"
	"github.com/storefrontapp/storefront-server/internal/store"
)

// storeError converts a store sentinel into the matching domain error so the
// API reports a stable code. The store's message names the record, so it is
// kept. Unrecognized errors pass through unchanged.
func storeError(err error) error {
	if err == nil {
		return nil
	}

	var code domainerrors.Code
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = domainerrors.CodeNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		code = domainerrors.CodeAlreadyExists
	case errors.Is(err, store.ErrConflict):
		code = domainerrors.CodeConflict
	case errors.Is(err, store.ErrInvalidInput):
		code = domainerrors.CodeValidation
	default:
		return err
	}
	return domainerrors.Wrap(err, code, err.Error())
}
