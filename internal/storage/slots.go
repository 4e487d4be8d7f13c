package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	localSlotTableName = "local_slots"

	errorMessageMissingSlotName = "storage: missing slot name"
	errorMessageReadSlot        = "storage: read slot"
	errorMessageWriteSlot       = "storage: write slot"
)

// ErrMissingSlotName indicates a slot operation was attempted without a slot name.
var ErrMissingSlotName = errors.New(errorMessageMissingSlotName)

// LocalSlot persists one serialized collection under a fixed name.
type LocalSlot struct {
	Name      string    `gorm:"primaryKey;size:100"`
	Payload   string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (LocalSlot) TableName() string {
	return localSlotTableName
}

// SlotRepository reads and writes local slots in a gorm database.
type SlotRepository struct {
	database *gorm.DB
}

// NewSlotRepository migrates the slot table and returns a repository over it.
func NewSlotRepository(database *gorm.DB) (*SlotRepository, error) {
	if err := database.AutoMigrate(&LocalSlot{}); err != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageMigrateDatabase, err)
	}
	return &SlotRepository{database: database}, nil
}

// Read returns the slot payload. The boolean is false when the slot was never written.
func (repository *SlotRepository) Read(ctx context.Context, name string) ([]byte, bool, error) {
	slotName := strings.TrimSpace(name)
	if slotName == "" {
		return nil, false, ErrMissingSlotName
	}
	var slot LocalSlot
	result := repository.database.WithContext(ctx).Where("name = ?", slotName).Limit(1).Find(&slot)
	if result.Error != nil {
		return nil, false, fmt.Errorf("%s %s: %w", errorMessageReadSlot, slotName, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, false, nil
	}
	return []byte(slot.Payload), true, nil
}

// Write replaces the slot payload.
func (repository *SlotRepository) Write(ctx context.Context, name string, payload []byte) error {
	slotName := strings.TrimSpace(name)
	if slotName == "" {
		return ErrMissingSlotName
	}
	slot := LocalSlot{Name: slotName, Payload: string(payload), UpdatedAt: time.Now().UTC()}
	writeErr := repository.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&slot).Error
	if writeErr != nil {
		return fmt.Errorf("%s %s: %w", errorMessageWriteSlot, slotName, writeErr)
	}
	return nil
}
