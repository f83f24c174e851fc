package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/keystone-api/internal/platform/logger"
	"gorm.io/gorm"
)

// TxFn is a function that executes within a database transaction.
// The transaction is committed if the function returns nil, or rolled back if it returns an error.
type TxFn func(tx *gorm.DB) error

// RunInTransaction executes fn within a transaction on db.
// Panics roll the transaction back and are re-raised.
func RunInTransaction(ctx context.Context, db *gorm.DB, fn TxFn) error {
	log := logger.FromContext(ctx)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
	if err != nil {
		log.Debug("rolled back transaction due to error",
			slog.String("error", err.Error()))
		return fmt.Errorf("transaction failed: %w", err)
	}

	log.Debug("transaction committed successfully")
	return nil
}
