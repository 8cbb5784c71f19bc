package persistence

import (
	"context"

	appbilling "github.com/stoptime/backend/internal/application/billing"
	"github.com/stoptime/backend/internal/domain/billing"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Customers returns the customer repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Customers() billing.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// Tasks returns the task repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Tasks() billing.TaskRepository {
	return NewGormTaskRepository(r.tx)
}

// TimeEntries returns the time entry repository scoped to the current transaction.
func (r *gormTransactionalRepositories) TimeEntries() billing.TimeEntryRepository {
	return NewGormTimeEntryRepository(r.tx)
}

// Invoices returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Invoices() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// CompanyInfo returns the company info repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CompanyInfo() billing.CompanyInfoRepository {
	return NewGormCompanyInfoRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appbilling.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appbilling.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
