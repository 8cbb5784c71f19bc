package billing

import (
	"context"

	"github.com/stoptime/backend/internal/domain/billing"
)

// TransactionScope provides transactional access to billing repositories.
// All repository operations inside Execute are committed or rolled back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the billing repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Invoice creation touches every aggregate at once: the invoice row, the billed
// task clones, the reassigned time entries and the company revision it pins.
type TransactionalRepositories interface {
	Customers() billing.CustomerRepository
	Tasks() billing.TaskRepository
	TimeEntries() billing.TimeEntryRepository
	Invoices() billing.InvoiceRepository
	CompanyInfo() billing.CompanyInfoRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	customerRepo    billing.CustomerRepository
	taskRepo        billing.TaskRepository
	entryRepo       billing.TimeEntryRepository
	invoiceRepo     billing.InvoiceRepository
	companyInfoRepo billing.CompanyInfoRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	customerRepo billing.CustomerRepository,
	taskRepo billing.TaskRepository,
	entryRepo billing.TimeEntryRepository,
	invoiceRepo billing.InvoiceRepository,
	companyInfoRepo billing.CompanyInfoRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		customerRepo:    customerRepo,
		taskRepo:        taskRepo,
		entryRepo:       entryRepo,
		invoiceRepo:     invoiceRepo,
		companyInfoRepo: companyInfoRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Customers returns the customer repository.
func (s *NoOpTransactionScope) Customers() billing.CustomerRepository {
	return s.customerRepo
}

// Tasks returns the task repository.
func (s *NoOpTransactionScope) Tasks() billing.TaskRepository {
	return s.taskRepo
}

// TimeEntries returns the time entry repository.
func (s *NoOpTransactionScope) TimeEntries() billing.TimeEntryRepository {
	return s.entryRepo
}

// Invoices returns the invoice repository.
func (s *NoOpTransactionScope) Invoices() billing.InvoiceRepository {
	return s.invoiceRepo
}

// CompanyInfo returns the company info repository.
func (s *NoOpTransactionScope) CompanyInfo() billing.CompanyInfoRepository {
	return s.companyInfoRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
