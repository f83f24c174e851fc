package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an identity record held in the security context.
// Password material is only ever present as a hash.
type User struct {
	ID                 uuid.UUID `json:"id"`
	UserName           string    `json:"user_name"`
	NormalizedUserName string    `json:"-"`
	Email              string    `json:"email"`
	NormalizedEmail    string    `json:"-"`
	PasswordHash       string    `json:"-"`
	SecurityStamp      string    `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewUser creates a new User with the given user name and email.
// Normalized forms are derived, the security stamp is left for the
// identity layer to assign.
func NewUser(userName, email string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		UserName:  strings.TrimSpace(userName),
		Email:     strings.TrimSpace(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	user.Normalize()

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// Normalize refreshes the upper-cased lookup keys from UserName and Email.
func (u *User) Normalize() {
	u.NormalizedUserName = NormalizeKey(u.UserName)
	u.NormalizedEmail = NormalizeKey(u.Email)
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	if u.UserName == "" {
		return NewValidationError("user_name", "is required", ErrEmptyUserName)
	}
	if u.Email == "" {
		return NewValidationError("email", "is required", ErrEmptyEmail)
	}
	return nil
}

// Role is a named group of users.
type Role struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"-"`
}

// NewRole creates a Role with a fresh ID.
func NewRole(name string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "is required", ErrEmptyRoleName)
	}
	return &Role{
		ID:             uuid.New(),
		Name:           name,
		NormalizedName: NormalizeKey(name),
	}, nil
}

// UserClaim is an arbitrary type/value pair attached to a user.
type UserClaim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// NormalizeKey returns the canonical lookup form of a user name, email, or role name.
func NormalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
