package kv

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"testvault/internal/errs"
	"testvault/internal/infrastructure/persistence/sqlite/model"
	"testvault/internal/ports"
)

// SQLiteStore implements ports.KVStore on a single collections table.
type SQLiteStore struct {
	db *gorm.DB
	// maxValueBytes caps a single payload; zero means uncapped.
	maxValueBytes int
	now           func() time.Time
}

var _ ports.KVStore = (*SQLiteStore)(nil)

func NewSQLiteStore(db *gorm.DB, maxValueBytes int) *SQLiteStore {
	return &SQLiteStore{
		db:            db,
		maxValueBytes: maxValueBytes,
		now:           time.Now,
	}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	if ctx == nil {
		return "", false, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", false, errs.Wrap(err, "check context")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return "", false, errors.New("key is required")
	}

	var row model.CollectionKV
	if err := s.db.WithContext(ctx).Where("key = ?", trimmedKey).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, errs.Wrap(err, "query collection by key")
	}

	return row.Value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return errors.New("key is required")
	}

	if s.maxValueBytes > 0 && len(value) > s.maxValueBytes {
		return errs.Wrapf(ports.ErrQuotaExceeded, "payload for %q is %d bytes, cap %d", trimmedKey, len(value), s.maxValueBytes)
	}

	row := model.CollectionKV{
		Key:       trimmedKey,
		Value:     value,
		UpdatedAt: s.now().UTC().Format(time.RFC3339Nano),
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert collection key")
	}

	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return errors.New("key is required")
	}

	if err := s.db.WithContext(ctx).Where("key = ?", trimmedKey).Delete(&model.CollectionKV{}).Error; err != nil {
		return errs.Wrap(err, "delete collection key")
	}
	return nil
}
