package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps GORM sentinel errors onto domain errors.
// It relies on gorm.Config.TranslateError for driver specific unique violations.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrConcurrencyConflict
	default:
		return err
	}
}

// paginate applies page and page size when both are set
func paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}
	return query
}

// deleteRow deletes the row of model with id, reporting a missing row as
// shared.ErrNotFound.
func deleteRow(ctx context.Context, db *gorm.DB, model any, id uuid.UUID) error {
	res := db.WithContext(ctx).Delete(model, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// saveVersioned writes an aggregate under optimistic locking. The row is
// updated only while its stored version is one behind the aggregate's; a
// missing row is inserted. Any other stored version means the aggregate was
// read before a concurrent write and yields shared.ErrConcurrencyConflict.
func saveVersioned(ctx context.Context, db *gorm.DB, model any, id uuid.UUID, version int) error {
	db = db.WithContext(ctx)
	res := db.Model(model).Where("version = ?", version-1).Select("*").Updates(model)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var stored int64
	if err := db.Model(model).Where("id = ?", id).Count(&stored).Error; err != nil {
		return err
	}
	if stored > 0 {
		return shared.ErrConcurrencyConflict
	}
	return translateError(db.Create(model).Error)
}
