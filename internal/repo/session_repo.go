// Package repo implements the persistence layer backed by GORM. This file
// provides the key/value accessors for persisted widget sessions.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside transactions.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moonpalace/concierge/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound.
var ErrNotFound = gorm.ErrRecordNotFound

// GetSession returns the session id stored under key, or ErrNotFound.
func GetSession(ctx context.Context, db *gorm.DB, key string) (string, error) {
	var row domain.StoredSession
	err := db.WithContext(ctx).Where("`key` = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

// PutSession stores value under key, replacing any previous value.
func PutSession(ctx context.Context, db *gorm.DB, key, value string) error {
	row := domain.StoredSession{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
}

// DeleteSession removes the row stored under key. Deleting a missing key is not an error.
func DeleteSession(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).Where("`key` = ?", key).Delete(&domain.StoredSession{}).Error
}
