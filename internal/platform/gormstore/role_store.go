package gormstore

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/keystone-api/internal/domain"
	"github.com/phrazzld/keystone-api/internal/platform/database"
	"github.com/phrazzld/keystone-api/internal/redact"
	"github.com/phrazzld/keystone-api/internal/store"
	"gorm.io/gorm"
)

// RoleStore implements store.RoleStore on the security context.
type RoleStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.RoleStore = (*RoleStore)(nil)

// NewRoleStore creates a RoleStore over db.
func NewRoleStore(db *gorm.DB, logger *slog.Logger) *RoleStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleStore{db: db, logger: logger.With("store", "role")}
}

// Create implements store.RoleStore.Create
func (s *RoleStore) Create(ctx context.Context, role *domain.Role) error {
	row := roleModel{ID: role.ID.String(), Name: role.Name, NormalizedName: role.NormalizedName}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return store.ErrRoleExists
		}
		s.logger.ErrorContext(ctx, "failed to create role", "error", redact.Error(err), "role", role.Name)
		return store.NewStoreError("role", "create", "database error", database.MapError(err))
	}
	return nil
}

// GetByNormalizedName implements store.RoleStore.GetByNormalizedName
func (s *RoleStore) GetByNormalizedName(ctx context.Context, normalizedName string) (*domain.Role, error) {
	var row roleModel
	err := s.db.WithContext(ctx).Where("normalized_name = ?", normalizedName).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrRoleNotFound
		}
		s.logger.ErrorContext(ctx, "failed to get role", "error", redact.Error(err))
		return nil, store.NewStoreError("role", "get", "database error", database.MapError(err))
	}
	return row.toEntity()
}

// List implements store.RoleStore.List
func (s *RoleStore) List(ctx context.Context) ([]domain.Role, error) {
	var rows []roleModel
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		s.logger.ErrorContext(ctx, "failed to list roles", "error", redact.Error(err))
		return nil, store.NewStoreError("role", "list", "database error", database.MapError(err))
	}

	roles := make([]domain.Role, 0, len(rows))
	for _, row := range rows {
		role, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, nil
}
