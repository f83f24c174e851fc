package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/keystone-api/internal/domain"
	"github.com/phrazzld/keystone-api/internal/platform/database"
	"github.com/phrazzld/keystone-api/internal/redact"
	"github.com/phrazzld/keystone-api/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStore implements store.UserStore on the security context.
type UserStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Ensure UserStore implements store.UserStore interface
var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates a UserStore over db.
func NewUserStore(db *gorm.DB, logger *slog.Logger) *UserStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{db: db, logger: logger.With("store", "user")}
}

// Create implements store.UserStore.Create
func (s *UserStore) Create(ctx context.Context, user *domain.User, roleIDs ...uuid.UUID) error {
	if err := user.Validate(); err != nil {
		return store.NewStoreError("user", "create", "validation failed", errors.Join(store.ErrInvalidEntity, err))
	}

	row := userModelFromEntity(user)
	err := database.RunInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return store.ErrUserNameExists
			}
			return err
		}
		for _, roleID := range roleIDs {
			member := userRoleModel{UserID: row.ID, RoleID: roleID.String()}
			if err := tx.Create(&member).Error; err != nil {
				return fmt.Errorf("add role %s: %w", roleID, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrUserNameExists) {
			return store.ErrUserNameExists
		}
		return s.logError(ctx, "create", err, "user_id", user.ID)
	}
	return nil
}

// Update implements store.UserStore.Update
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return store.NewStoreError("user", "update", "validation failed", errors.Join(store.ErrInvalidEntity, err))
	}

	user.UpdatedAt = time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", user.ID.String()).
		Updates(map[string]any{
			"user_name":            user.UserName,
			"normalized_user_name": user.NormalizedUserName,
			"email":                user.Email,
			"normalized_email":     user.NormalizedEmail,
			"password_hash":        user.PasswordHash,
			"security_stamp":       user.SecurityStamp,
			"updated_at":           user.UpdatedAt,
		})
	if result.Error != nil {
		if database.IsUniqueViolation(result.Error) {
			return store.ErrUserNameExists
		}
		return s.logError(ctx, "update", result.Error, "user_id", user.ID)
	}
	if result.RowsAffected == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// Delete implements store.UserStore.Delete
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	key := id.String()
	err := database.RunInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", key).Delete(&userRoleModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", key).Delete(&userClaimModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", key).Delete(&userModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return store.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return store.ErrUserNotFound
		}
		return s.logError(ctx, "delete", err, "user_id", id)
	}
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.first(ctx, "get_by_id", "id = ?", id.String())
}

// GetByNormalizedUserName implements store.UserStore.GetByNormalizedUserName
func (s *UserStore) GetByNormalizedUserName(ctx context.Context, normalizedUserName string) (*domain.User, error) {
	return s.first(ctx, "get_by_user_name", "normalized_user_name = ?", normalizedUserName)
}

// GetByNormalizedEmail implements store.UserStore.GetByNormalizedEmail
func (s *UserStore) GetByNormalizedEmail(ctx context.Context, normalizedEmail string) (*domain.User, error) {
	return s.first(ctx, "get_by_email", "normalized_email = ?", normalizedEmail)
}

func (s *UserStore) first(ctx context.Context, op string, query string, arg string) (*domain.User, error) {
	var row userModel
	err := s.db.WithContext(ctx).Where(query, arg).Order("created_at").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, s.logError(ctx, op, err)
	}
	return row.toEntity()
}

// Count implements store.UserStore.Count
func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&userModel{}).Count(&count).Error; err != nil {
		return 0, s.logError(ctx, "count", err)
	}
	return count, nil
}

// AddToRole implements store.UserStore.AddToRole
func (s *UserStore) AddToRole(ctx context.Context, userID, roleID uuid.UUID) error {
	row := userRoleModel{UserID: userID.String(), RoleID: roleID.String()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).
		Error
	if err != nil {
		return s.logError(ctx, "add_to_role", err, "user_id", userID, "role_id", roleID)
	}
	return nil
}

// RemoveFromRole implements store.UserStore.RemoveFromRole
func (s *UserStore) RemoveFromRole(ctx context.Context, userID, roleID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID.String(), roleID.String()).
		Delete(&userRoleModel{}).
		Error
	if err != nil {
		return s.logError(ctx, "remove_from_role", err, "user_id", userID, "role_id", roleID)
	}
	return nil
}

// GetRoleNames implements store.UserStore.GetRoleNames
func (s *UserStore) GetRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	names := []string{}
	err := s.db.WithContext(ctx).
		Model(&roleModel{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID.String()).
		Order("roles.name").
		Pluck("roles.name", &names).
		Error
	if err != nil {
		return nil, s.logError(ctx, "get_role_names", err, "user_id", userID)
	}
	return names, nil
}

// AddClaim implements store.UserStore.AddClaim
func (s *UserStore) AddClaim(ctx context.Context, userID uuid.UUID, claim domain.UserClaim) error {
	row := userClaimModel{UserID: userID.String(), ClaimType: claim.Type, ClaimValue: claim.Value}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return s.logError(ctx, "add_claim", err, "user_id", userID, "claim_type", claim.Type)
	}
	return nil
}

// RemoveClaim implements store.UserStore.RemoveClaim
func (s *UserStore) RemoveClaim(ctx context.Context, userID uuid.UUID, claim domain.UserClaim) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND claim_type = ? AND claim_value = ?", userID.String(), claim.Type, claim.Value).
		Delete(&userClaimModel{}).
		Error
	if err != nil {
		return s.logError(ctx, "remove_claim", err, "user_id", userID, "claim_type", claim.Type)
	}
	return nil
}

// GetClaims implements store.UserStore.GetClaims
func (s *UserStore) GetClaims(ctx context.Context, userID uuid.UUID) ([]domain.UserClaim, error) {
	var rows []userClaimModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Order("id").
		Find(&rows).
		Error
	if err != nil {
		return nil, s.logError(ctx, "get_claims", err, "user_id", userID)
	}

	claims := make([]domain.UserClaim, 0, len(rows))
	for _, row := range rows {
		claims = append(claims, domain.UserClaim{Type: row.ClaimType, Value: row.ClaimValue})
	}
	return claims, nil
}

func (s *UserStore) logError(ctx context.Context, op string, err error, attrs ...any) error {
	mapped := database.MapError(err)
	s.logger.ErrorContext(ctx, "user store operation failed",
		append([]any{"operation", op, "error", redact.Error(err)}, attrs...)...)
	return store.NewStoreError("user", op, "database error", mapped)
}
