package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stoptime/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTimeEntryRepository implements TimeEntryRepository using GORM
type GormTimeEntryRepository struct {
	db *gorm.DB
}

// NewGormTimeEntryRepository creates a new GormTimeEntryRepository
func NewGormTimeEntryRepository(db *gorm.DB) *GormTimeEntryRepository {
	return &GormTimeEntryRepository{db: db}
}

// FindByID finds a time entry by its ID
func (r *GormTimeEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.TimeEntry, error) {
	var model models.TimeEntryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple time entries by their IDs; unknown IDs are skipped
func (r *GormTimeEntryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*billing.TimeEntry, error) {
	if len(ids) == 0 {
		return []*billing.TimeEntry{}, nil
	}
	var entryModels []models.TimeEntryModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("start_at ASC").Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return entriesToDomain(entryModels), nil
}

// FindByTaskIDs finds all time entries of the given tasks, ordered by start
func (r *GormTimeEntryRepository) FindByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) ([]*billing.TimeEntry, error) {
	if len(taskIDs) == 0 {
		return []*billing.TimeEntry{}, nil
	}
	var entryModels []models.TimeEntryModel
	if err := r.db.WithContext(ctx).Where("task_id IN ?", taskIDs).Order("start_at ASC").Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return entriesToDomain(entryModels), nil
}

// FindAll finds time entries matching the filter, newest first
func (r *GormTimeEntryRepository) FindAll(ctx context.Context, filter billing.TimeEntryFilter) ([]*billing.TimeEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.TimeEntryModel{}).Select("time_entries.*")

	if filter.CustomerID != nil || filter.Billed != nil {
		query = query.Joins("JOIN tasks ON tasks.id = time_entries.task_id")
	}
	if filter.CustomerID != nil {
		query = query.Where("tasks.customer_id = ?", *filter.CustomerID)
	}
	if filter.Billed != nil {
		if *filter.Billed {
			query = query.Where("tasks.invoice_id IS NOT NULL")
		} else {
			query = query.Where("tasks.invoice_id IS NULL")
		}
	}
	if len(filter.TaskIDs) > 0 {
		query = query.Where("time_entries.task_id IN ?", filter.TaskIDs)
	}

	query = paginate(query, filter.Filter).Order("time_entries.start_at DESC")

	var entryModels []models.TimeEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return entriesToDomain(entryModels), nil
}

// Save creates or updates a time entry
func (r *GormTimeEntryRepository) Save(ctx context.Context, entry *billing.TimeEntry) error {
	model := models.TimeEntryModelFromDomain(entry)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// Delete deletes a time entry
func (r *GormTimeEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteRow(ctx, r.db, &models.TimeEntryModel{}, id)
}

// DeleteByTaskIDs removes all time entries of the given tasks
func (r *GormTimeEntryRepository) DeleteByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) error {
	if len(taskIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&models.TimeEntryModel{}, "task_id IN ?", taskIDs).Error
}

// Reassign moves the given entries from one task to another. Every entry
// must still belong to fromTaskID.
func (r *GormTimeEntryRepository) Reassign(ctx context.Context, entryIDs []uuid.UUID, fromTaskID, toTaskID uuid.UUID) error {
	if len(entryIDs) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.TimeEntryModel{}).
		Where("id IN ? AND task_id = ?", entryIDs, fromTaskID).
		Update("task_id", toTaskID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(entryIDs)) {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func entriesToDomain(entryModels []models.TimeEntryModel) []*billing.TimeEntry {
	entries := make([]*billing.TimeEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries
}

// Ensure GormTimeEntryRepository implements TimeEntryRepository
var _ billing.TimeEntryRepository = (*GormTimeEntryRepository)(nil)
