package gormstore

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/keystone-api/internal/domain"
	"github.com/phrazzld/keystone-api/internal/platform/database"
	"github.com/phrazzld/keystone-api/internal/redact"
	"github.com/phrazzld/keystone-api/internal/store"
	"gorm.io/gorm"
)

// ItemStore implements store.ItemStore on the server context.
type ItemStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.ItemStore = (*ItemStore)(nil)

// NewItemStore creates an ItemStore over db.
func NewItemStore(db *gorm.DB, logger *slog.Logger) *ItemStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemStore{db: db, logger: logger.With("store", "item")}
}

// Create implements store.ItemStore.Create
func (s *ItemStore) Create(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return store.NewStoreError("item", "create", "validation failed", errors.Join(store.ErrInvalidEntity, err))
	}

	row := itemModelFromEntity(item)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return store.ErrItemExists
		}
		s.logger.ErrorContext(ctx, "failed to create item", "error", redact.Error(err), "item_id", item.ID)
		return store.NewStoreError("item", "create", "database error", database.MapError(err))
	}
	return nil
}

// GetByID implements store.ItemStore.GetByID
func (s *ItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	var row itemModel
	err := s.db.WithContext(ctx).Where("id = ?", id.String()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrItemNotFound
		}
		s.logger.ErrorContext(ctx, "failed to get item", "error", redact.Error(err), "item_id", id)
		return nil, store.NewStoreError("item", "get", "database error", database.MapError(err))
	}
	return row.toEntity()
}

// List implements store.ItemStore.List
func (s *ItemStore) List(ctx context.Context) ([]domain.Item, error) {
	var rows []itemModel
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		s.logger.ErrorContext(ctx, "failed to list items", "error", redact.Error(err))
		return nil, store.NewStoreError("item", "list", "database error", database.MapError(err))
	}

	items := make([]domain.Item, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// Count implements store.ItemStore.Count
func (s *ItemStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&itemModel{}).Count(&count).Error; err != nil {
		s.logger.ErrorContext(ctx, "failed to count items", "error", redact.Error(err))
		return 0, store.NewStoreError("item", "count", "database error", database.MapError(err))
	}
	return count, nil
}
