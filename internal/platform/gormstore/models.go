package gormstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/keystone-api/internal/domain"
)

type userModel struct {
	ID                 string `gorm:"primaryKey;size:36"`
	UserName           string `gorm:"size:256;not null"`
	NormalizedUserName string `gorm:"size:256;not null;uniqueIndex:idx_users_normalized_user_name"`
	Email              string `gorm:"size:256;not null"`
	NormalizedEmail    string `gorm:"size:256;not null;index:idx_users_normalized_email"`
	PasswordHash       string `gorm:"not null"`
	SecurityStamp      string `gorm:"size:64;not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (userModel) TableName() string { return "users" }

type roleModel struct {
	ID             string `gorm:"primaryKey;size:36"`
	Name           string `gorm:"size:256;not null"`
	NormalizedName string `gorm:"size:256;not null;uniqueIndex:idx_roles_normalized_name"`
}

func (roleModel) TableName() string { return "roles" }

type userRoleModel struct {
	UserID string `gorm:"primaryKey;size:36"`
	RoleID string `gorm:"primaryKey;size:36;index:idx_user_roles_role_id"`
}

func (userRoleModel) TableName() string { return "user_roles" }

type userClaimModel struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	UserID     string `gorm:"size:36;not null;index:idx_user_claims_user_id"`
	ClaimType  string `gorm:"size:256;not null"`
	ClaimValue string `gorm:"not null"`
}

func (userClaimModel) TableName() string { return "user_claims" }

type itemModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"size:100;not null;uniqueIndex:idx_items_name"`
	Description string `gorm:"not null;default:''"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (itemModel) TableName() string { return "items" }

// SecurityModels lists the tables owned by the security context.
func SecurityModels() []any {
	return []any{&userModel{}, &roleModel{}, &userRoleModel{}, &userClaimModel{}}
}

// ServerModels lists the tables owned by the server context.
func ServerModels() []any {
	return []any{&itemModel{}}
}

func userModelFromEntity(u *domain.User) userModel {
	return userModel{
		ID:                 u.ID.String(),
		UserName:           u.UserName,
		NormalizedUserName: u.NormalizedUserName,
		Email:              u.Email,
		NormalizedEmail:    u.NormalizedEmail,
		PasswordHash:       u.PasswordHash,
		SecurityStamp:      u.SecurityStamp,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (m userModel) toEntity() (*domain.User, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID)
	}
	return &domain.User{
		ID:                 id,
		UserName:           m.UserName,
		NormalizedUserName: m.NormalizedUserName,
		Email:              m.Email,
		NormalizedEmail:    m.NormalizedEmail,
		PasswordHash:       m.PasswordHash,
		SecurityStamp:      m.SecurityStamp,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}, nil
}

func (m roleModel) toEntity() (*domain.Role, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID)
	}
	return &domain.Role{ID: id, Name: m.Name, NormalizedName: m.NormalizedName}, nil
}

func itemModelFromEntity(i *domain.Item) itemModel {
	return itemModel{
		ID:          i.ID.String(),
		Name:        i.Name,
		Description: i.Description,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func (m itemModel) toEntity() (*domain.Item, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID)
	}
	return &domain.Item{
		ID:          id,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}, nil
}
