package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/keystone-api/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
// Password strength and email format are enforced by the identity policy.
type RegisterRequest struct {
	UserName string `json:"username" validate:"required,max=256"`
	Email    string `json:"email"    validate:"required,max=256"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest defines the payload for the login endpoint. UserName may
// also hold the account email.
type LoginRequest struct {
	UserName  string `json:"username"             validate:"required"`
	Password  string `json:"password"             validate:"required"`
	ReturnURL string `json:"return_url,omitempty"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"username"`

	// AccessToken is the JWT presented as "Authorization: Bearer"
	AccessToken string `json:"token"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at"`

	// ReturnURL echoes a local ReturnUrl the login was started from
	ReturnURL string `json:"return_url,omitempty"`
}

// LoginDescriptor is returned by GET on the login path, the target of
// unauthenticated browser redirects.
type LoginDescriptor struct {
	LoginPath string `json:"login_path"`
	Method    string `json:"method"`
	ReturnURL string `json:"return_url,omitempty"`
}

// CreateItemRequest defines the payload for creating an item.
type CreateItemRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// ItemResponse is the API representation of an item.
type ItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func itemToResponse(item *domain.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

// SchemaResponse reports the outcome of a development schema ensure.
type SchemaResponse struct {
	Contexts map[string]bool `json:"created"`
}
