package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/shared"
)

// CustomerRepository defines the interface for customer persistence.
//
// Save on the aggregate repositories (customers, tasks, invoices, company
// revisions) only overwrites the version the aggregate was read at; a
// concurrent write in between yields shared.ErrConcurrencyConflict.
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Customer, error)
	Save(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskFilter narrows task queries
type TaskFilter struct {
	CustomerID *uuid.UUID
	InvoiceID  *uuid.UUID
	// Billed filters on whether the task is attached to an invoice; nil means both
	Billed *bool
}

// TaskRepository defines the interface for task persistence
type TaskRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Task, error)
	FindAll(ctx context.Context, filter TaskFilter) ([]*Task, error)
	// CountBilled counts tasks of a customer that are attached to an invoice
	CountBilled(ctx context.Context, customerID uuid.UUID) (int64, error)
	Save(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteUnbilledByCustomer removes the customer's open tasks and returns their ids
	DeleteUnbilledByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error)
}

// TimeEntryFilter narrows time entry queries
type TimeEntryFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	TaskIDs    []uuid.UUID
	// Billed filters on whether the owning task is billed; nil means both
	Billed *bool
}

// TimeEntryRepository defines the interface for time entry persistence
type TimeEntryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*TimeEntry, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*TimeEntry, error)
	FindByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) ([]*TimeEntry, error)
	FindAll(ctx context.Context, filter TimeEntryFilter) ([]*TimeEntry, error)
	Save(ctx context.Context, entry *TimeEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) error
	// Reassign moves entries of fromTaskID to toTaskID. An entry that no longer
	// belongs to fromTaskID makes it fail with shared.ErrConcurrencyConflict.
	Reassign(ctx context.Context, entryIDs []uuid.UUID, fromTaskID, toTaskID uuid.UUID) error
}

// InvoiceFilter narrows invoice queries
type InvoiceFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	// CreatedFrom and CreatedTo bound the creation time, half-open [from, to)
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, number string) (*Invoice, error)
	FindAll(ctx context.Context, filter InvoiceFilter) ([]*Invoice, error)
	// LatestNumber returns the highest invoice number, or "" when there are no invoices
	LatestNumber(ctx context.Context) (string, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	// Create inserts a new invoice; a taken number yields shared.ErrConcurrencyConflict
	Create(ctx context.Context, invoice *Invoice) error
	Save(ctx context.Context, invoice *Invoice) error
}

// CompanyInfoRepository defines the interface for company info revisions
type CompanyInfoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CompanyInfo, error)
	// FindLatest returns the newest revision, or shared.ErrNotFound when none exists
	FindLatest(ctx context.Context) (*CompanyInfo, error)
	// FindRevisions returns all revisions, newest first
	FindRevisions(ctx context.Context) ([]*CompanyInfo, error)
	Save(ctx context.Context, info *CompanyInfo) error
}
