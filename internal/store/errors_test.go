package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some error"), false},
		{"ErrNotFound", ErrNotFound, true},
		{"ErrUserNotFound", ErrUserNotFound, true},
		{"wrapped ErrRoleNotFound", fmt.Errorf("lookup: %w", ErrRoleNotFound), true},
		{"ErrItemNotFound in StoreError", NewStoreError("item", "get", "missing", ErrItemNotFound), true},
		{"duplicate is not not-found", ErrItemExists, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsNotFoundError(tc.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"ErrDuplicate", ErrDuplicate, true},
		{"ErrItemExists", ErrItemExists, true},
		{"wrapped ErrUserNameExists", fmt.Errorf("create: %w", ErrUserNameExists), true},
		{"ErrRoleExists", ErrRoleExists, true},
		{"not found is not duplicate", ErrUserNotFound, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsDuplicateError(tc.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	base := errors.New("disk full")
	err := NewStoreError("user", "create", "insert failed", base)

	assert.Equal(t, "create operation on user failed: insert failed: disk full", err.Error())
	assert.ErrorIs(t, err, base)

	bare := NewStoreError("role", "list", "timeout", nil)
	assert.Equal(t, "list operation on role failed: timeout", bare.Error())
}
