package validation_test

import (
	"net/http"
	"strings"
	"testing"

	domainerrors "github.com/storefrontapp/storefront-server/internal/errors"
	"github.com/storefrontapp/storefront-server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customerRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"notblank,max=100"`
	Membership string `json:"membership" validate:"oneof=B S G"`
	Quantity   int    `json:"quantity" validate:"gte=1"`
}

func validRequest() customerRequest {
	return customerRequest{
		Email:      "ada@example.com",
		Name:       "Ada",
		Membership: "G",
		Quantity:   1,
	}
}

func TestValidator_ValidateSuccess(t *testing.T) {
	assert.NoError(t, validation.New().Validate(validRequest()))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		mutate    func(*customerRequest)
		wantField string
	}{
		{"missing email", func(r *customerRequest) { r.Email = "" }, "email"},
		{"invalid email", func(r *customerRequest) { r.Email = "not-an-email" }, "email"},
		{"blank name", func(r *customerRequest) { r.Name = "   " }, "name"},
		{"unknown membership", func(r *customerRequest) { r.Membership = "P" }, "membership"},
		{"zero quantity", func(r *customerRequest) { r.Quantity = 0 }, "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := v.Validate(req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Contains(t, domainErr.Message, tt.wantField)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	req := validRequest()
	req.Email = ""

	err := validation.New().Validate(req)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "email")
	assert.NotContains(t, err.Error(), "Email")
}

func TestValidator_VarMaxRunes(t *testing.T) {
	v := validation.New()

	// 255 multi-byte runes is over 255 bytes but still within the limit.
	assert.NoError(t, v.Var("label", strings.Repeat("é", 255), "notblank,maxrunes=255"))

	err := v.Var("label", strings.Repeat("a", 256), "notblank,maxrunes=255")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Contains(t, err.Error(), "label must not exceed 255 characters")

	assert.ErrorIs(t, v.Var("label", " ", "notblank,maxrunes=255"), domainerrors.ErrValidation)
}
