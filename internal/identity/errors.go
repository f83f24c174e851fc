package identity

import (
	"errors"
	"strings"

	"github.com/phrazzld/keystone-api/internal/store"
)

var (
	// ErrUserNotFound is returned when no user matches a lookup.
	ErrUserNotFound = store.ErrUserNotFound

	// ErrRoleNotFound is returned when a named role does not exist.
	ErrRoleNotFound = store.ErrRoleNotFound

	// ErrInvalidCredentials is returned when a user name and password pair does not verify.
	// The message never says which half was wrong.
	ErrInvalidCredentials = errors.New("invalid user name or password")
)

// Failure codes reported in a Result.
const (
	CodePasswordTooShort                = "PasswordTooShort"
	CodePasswordTooLong                 = "PasswordTooLong"
	CodePasswordRequiresUniqueChars     = "PasswordRequiresUniqueChars"
	CodePasswordRequiresDigit           = "PasswordRequiresDigit"
	CodePasswordRequiresLower           = "PasswordRequiresLower"
	CodePasswordRequiresUpper           = "PasswordRequiresUpper"
	CodePasswordRequiresNonAlphanumeric = "PasswordRequiresNonAlphanumeric"
	CodePasswordMismatch                = "PasswordMismatch"
	CodeInvalidUserName                 = "InvalidUserName"
	CodeDuplicateUserName               = "DuplicateUserName"
	CodeInvalidEmail                    = "InvalidEmail"
	CodeDuplicateEmail                  = "DuplicateEmail"
	CodeInvalidRoleName                 = "InvalidRoleName"
	CodeDuplicateRoleName               = "DuplicateRoleName"
	CodeUserAlreadyInRole               = "UserAlreadyInRole"
	CodeUserNotInRole                   = "UserNotInRole"
)

// Failure is one rejected rule.
type Failure struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Result is the error returned when an identity operation is rejected by
// policy. It carries every failure found, not just the first.
type Result struct {
	Failures []Failure
}

func (r *Result) Error() string {
	parts := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		parts = append(parts, f.Description)
	}
	return "identity operation failed: " + strings.Join(parts, "; ")
}

// Codes returns the failure codes in order.
func (r *Result) Codes() []string {
	codes := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		codes = append(codes, f.Code)
	}
	return codes
}

// Has reports whether code is among the failures.
func (r *Result) Has(code string) bool {
	for _, f := range r.Failures {
		if f.Code == code {
			return true
		}
	}
	return false
}

// AsResult extracts a Result from err.
func AsResult(err error) (*Result, bool) {
	var r *Result
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// HasFailure reports whether err is a Result containing code.
func HasFailure(err error, code string) bool {
	r, ok := AsResult(err)
	return ok && r.Has(code)
}

func failed(failures ...Failure) error {
	if len(failures) == 0 {
		return nil
	}
	return &Result{Failures: failures}
}
