package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxItemNameLength bounds Item.Name.
const MaxItemNameLength = 100

// Item is the application data kept in the server context.
type Item struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewItem creates a validated Item with a fresh ID.
func NewItem(name, description string) (*Item, error) {
	now := time.Now().UTC()
	item := &Item{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate checks if the Item has valid data.
func (i *Item) Validate() error {
	if i.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	if i.Name == "" {
		return NewValidationError("name", "is required", ErrEmptyItemName)
	}
	if len(i.Name) > MaxItemNameLength {
		return NewValidationError("name", "is too long", ErrItemNameTooLong)
	}
	return nil
}
