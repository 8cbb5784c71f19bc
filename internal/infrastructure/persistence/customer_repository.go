package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stoptime/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository stores customers in the customers table
type GormCustomerRepository struct {
	db *gorm.DB
}

func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Customer, error) {
	var row models.CustomerModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translateError(err)
	}
	return row.ToDomain(), nil
}

// FindAll lists customers matching filter.Search on name or short name,
// sorted by name unless the filter names a sort key.
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.Customer, error) {
	q := r.db.WithContext(ctx).Model(&models.CustomerModel{})
	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(short_name) LIKE ?", like, like)
	}

	var rows []models.CustomerModel
	if err := paginate(q, filter).Order(customerSort.orderBy(filter, "name ASC")).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*billing.Customer, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

func (r *GormCustomerRepository) Save(ctx context.Context, customer *billing.Customer) error {
	return saveVersioned(ctx, r.db, models.CustomerModelFromDomain(customer), customer.ID, customer.Version)
}

func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteRow(ctx, r.db, &models.CustomerModel{}, id)
}

var _ billing.CustomerRepository = (*GormCustomerRepository)(nil)
