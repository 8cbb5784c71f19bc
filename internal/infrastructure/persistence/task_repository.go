package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTaskRepository implements TaskRepository using GORM
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GormTaskRepository
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// FindByID finds a task by its ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Task, error) {
	var model models.TaskModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple tasks by their IDs; unknown IDs are skipped
func (r *GormTaskRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*billing.Task, error) {
	if len(ids) == 0 {
		return []*billing.Task{}, nil
	}
	var taskModels []models.TaskModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at ASC").Find(&taskModels).Error; err != nil {
		return nil, err
	}
	return tasksToDomain(taskModels), nil
}

// FindAll finds tasks matching the filter, oldest first
func (r *GormTaskRepository) FindAll(ctx context.Context, filter billing.TaskFilter) ([]*billing.Task, error) {
	query := r.db.WithContext(ctx).Model(&models.TaskModel{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.Billed != nil {
		if *filter.Billed {
			query = query.Where("invoice_id IS NOT NULL")
		} else {
			query = query.Where("invoice_id IS NULL")
		}
	}

	var taskModels []models.TaskModel
	if err := query.Order("created_at ASC").Find(&taskModels).Error; err != nil {
		return nil, err
	}
	return tasksToDomain(taskModels), nil
}

// CountBilled counts tasks of a customer that are attached to an invoice
func (r *GormTaskRepository) CountBilled(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TaskModel{}).
		Where("customer_id = ? AND invoice_id IS NOT NULL", customerID).
		Count(&count).Error
	return count, err
}

// Save creates a task or updates it under its version
func (r *GormTaskRepository) Save(ctx context.Context, task *billing.Task) error {
	return saveVersioned(ctx, r.db, models.TaskModelFromDomain(task), task.ID, task.Version)
}

// Delete deletes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteRow(ctx, r.db, &models.TaskModel{}, id)
}

// DeleteUnbilledByCustomer removes the customer's open tasks and returns their ids
func (r *GormTaskRepository) DeleteUnbilledByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.TaskModel{}).
		Where("customer_id = ? AND invoice_id IS NULL", customerID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}
	if err := r.db.WithContext(ctx).Delete(&models.TaskModel{}, "id IN ?", ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func tasksToDomain(taskModels []models.TaskModel) []*billing.Task {
	tasks := make([]*billing.Task, len(taskModels))
	for i := range taskModels {
		tasks[i] = taskModels[i].ToDomain()
	}
	return tasks
}

// Ensure GormTaskRepository implements TaskRepository
var _ billing.TaskRepository = (*GormTaskRepository)(nil)
