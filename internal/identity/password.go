package identity

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the longest input bcrypt will hash.
const maxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	// Hash returns an encoded hash of password.
	Hash(password string) (string, error)

	// Verify returns nil when password matches hash.
	Verify(hash, password string) error
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher. A cost outside bcrypt's range falls
// back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash implements PasswordHasher.Hash.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify implements PasswordHasher.Verify.
func (h *BcryptHasher) Verify(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// PasswordValidator applies PasswordOptions to a candidate password.
type PasswordValidator struct {
	opts PasswordOptions
}

// NewPasswordValidator creates a validator for opts.
func NewPasswordValidator(opts PasswordOptions) *PasswordValidator {
	return &PasswordValidator{opts: opts}
}

// Validate returns a *Result listing every rule password breaks, or nil.
func (v *PasswordValidator) Validate(password string) error {
	return failed(v.failures(password)...)
}

func (v *PasswordValidator) failures(password string) []Failure {
	var out []Failure

	if len([]rune(password)) < v.opts.RequiredLength {
		out = append(out, Failure{
			Code:        CodePasswordTooShort,
			Description: fmt.Sprintf("Passwords must be at least %d characters.", v.opts.RequiredLength),
		})
	}
	if len(password) > maxPasswordBytes {
		out = append(out, Failure{
			Code:        CodePasswordTooLong,
			Description: fmt.Sprintf("Passwords must be at most %d bytes.", maxPasswordBytes),
		})
	}

	var hasDigit, hasLower, hasUpper, hasOther bool
	unique := make(map[rune]struct{})
	for _, r := range password {
		unique[r] = struct{}{}
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			hasOther = true
		}
	}

	if v.opts.RequireNonAlphanumeric && !hasOther {
		out = append(out, Failure{
			Code:        CodePasswordRequiresNonAlphanumeric,
			Description: "Passwords must have at least one non alphanumeric character.",
		})
	}
	if v.opts.RequireDigit && !hasDigit {
		out = append(out, Failure{
			Code:        CodePasswordRequiresDigit,
			Description: "Passwords must have at least one digit ('0'-'9').",
		})
	}
	if v.opts.RequireLowercase && !hasLower {
		out = append(out, Failure{
			Code:        CodePasswordRequiresLower,
			Description: "Passwords must have at least one lowercase ('a'-'z').",
		})
	}
	if v.opts.RequireUppercase && !hasUpper {
		out = append(out, Failure{
			Code:        CodePasswordRequiresUpper,
			Description: "Passwords must have at least one uppercase ('A'-'Z').",
		})
	}
	if v.opts.RequiredUniqueChars >= 1 && len(unique) < v.opts.RequiredUniqueChars {
		out = append(out, Failure{
			Code:        CodePasswordRequiresUniqueChars,
			Description: fmt.Sprintf("Passwords must use at least %d different characters.", v.opts.RequiredUniqueChars),
		})
	}

	return out
}
