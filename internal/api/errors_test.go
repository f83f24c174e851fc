package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/keystone-api/internal/api/shared"
	"github.com/phrazzld/keystone-api/internal/domain"
	"github.com/phrazzld/keystone-api/internal/identity"
	"github.com/phrazzld/keystone-api/internal/service/auth"
	"github.com/phrazzld/keystone-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid credentials", identity.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unauthorized", domain.ErrUnauthorized, http.StatusForbidden},
		{"wrapped not found", fmt.Errorf("lookup: %w", store.ErrItemNotFound), http.StatusNotFound},
		{"duplicate", store.ErrItemExists, http.StatusConflict},
		{"wrapped duplicate user name", fmt.Errorf("create: %w", store.ErrUserNameExists), http.StatusConflict},
		{"domain validation", domain.NewValidationError("name", "is required", domain.ErrEmptyItemName), http.StatusBadRequest},
		{"empty body", shared.ErrEmptyBody, http.StatusBadRequest},
		{
			"policy failure",
			&identity.Result{Failures: []identity.Failure{{Code: identity.CodePasswordTooShort}}},
			http.StatusBadRequest,
		},
		{
			"policy duplicate",
			&identity.Result{Failures: []identity.Failure{{Code: identity.CodeDuplicateEmail}}},
			http.StatusConflict,
		},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessageHidesInternals(t *testing.T) {
	err := fmt.Errorf("query failed: Data Source=/var/lib/keystone/security.db: %w", errors.New("locked"))
	msg := GetSafeErrorMessage(err)

	assert.Equal(t, "An unexpected error occurred", msg)
	assert.NotContains(t, msg, "security.db")
}

func TestHandleAPIErrorIncludesPolicyDetails(t *testing.T) {
	result := &identity.Result{Failures: []identity.Failure{
		{Code: identity.CodePasswordTooShort, Description: "Passwords must be at least 6 characters."},
	}}

	w := httptest.NewRecorder()
	HandleAPIError(w, httptest.NewRequest(http.MethodPost, "/auth/register", nil), result, "")

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error   string             `json:"error"`
		Details []identity.Failure `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "The request was rejected by identity policy", body.Error)
	require.Len(t, body.Details, 1)
	assert.Equal(t, identity.CodePasswordTooShort, body.Details[0].Code)
}
