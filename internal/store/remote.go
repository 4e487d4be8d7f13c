package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/OpenSkyDrones/opensky/internal/storage"
)

const (
	columnIdentifier = "id"
	columnCreatedAt  = "created_at"
	orderNewestFirst = "created_at DESC"
)

// RemoteBackend keeps a collection in a database table. Identifiers come from storage.NewID
// and creation timestamps from the table's autoCreateTime column.
type RemoteBackend[T any, D any] struct {
	database *gorm.DB
	schema   Schema[T, D]
}

// NewRemoteBackend returns a backend over the table mapped by T.
func NewRemoteBackend[T any, D any](database *gorm.DB, schema Schema[T, D]) *RemoteBackend[T, D] {
	return &RemoteBackend[T, D]{database: database, schema: schema}
}

func (backend *RemoteBackend[T, D]) Load(ctx context.Context) ([]T, error) {
	var records []T
	if err := backend.database.WithContext(ctx).Order(orderNewestFirst).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load %s: %w", backend.schema.Name, err)
	}
	return records, nil
}

func (backend *RemoteBackend[T, D]) Insert(ctx context.Context, record T) (T, error) {
	created := backend.schema.Stamp(record, storage.NewID(), time.Time{})
	if err := backend.database.WithContext(ctx).Create(&created).Error; err != nil {
		var zero T
		return zero, fmt.Errorf("insert %s: %w", backend.schema.Name, err)
	}
	return created, nil
}

func (backend *RemoteBackend[T, D]) Replace(ctx context.Context, identifier string, record T) (T, error) {
	var zero T
	replacement := backend.schema.Stamp(record, identifier, time.Time{})
	result := backend.database.WithContext(ctx).
		Model(&replacement).
		Select("*").
		Omit(columnIdentifier, columnCreatedAt).
		Updates(&replacement)
	if result.Error != nil {
		return zero, fmt.Errorf("replace %s %s: %w", backend.schema.Name, identifier, result.Error)
	}
	if result.RowsAffected == 0 {
		return zero, fmt.Errorf("replace %s %s: %w: %w", backend.schema.Name, identifier, ErrNotFound, gorm.ErrRecordNotFound)
	}

	var updated T
	if err := backend.database.WithContext(ctx).Where(columnIdentifier+" = ?", identifier).First(&updated).Error; err != nil {
		return zero, fmt.Errorf("reload %s %s: %w", backend.schema.Name, identifier, err)
	}
	return updated, nil
}

func (backend *RemoteBackend[T, D]) Remove(ctx context.Context, identifier string) error {
	if err := backend.database.WithContext(ctx).Where(columnIdentifier+" = ?", identifier).Delete(new(T)).Error; err != nil {
		return fmt.Errorf("remove %s %s: %w", backend.schema.Name, identifier, err)
	}
	return nil
}
