package handler

import (
	"context"
	"io"

	"github.com/google/uuid"
	billingapp "github.com/stoptime/backend/internal/application/billing"
	"github.com/stoptime/backend/internal/domain/shared"
)

// CustomerService is the customer use cases the handlers call
type CustomerService interface {
	Create(ctx context.Context, req billingapp.CreateCustomerRequest) (*billingapp.CustomerResponse, error)
	GetByID(ctx context.Context, customerID uuid.UUID) (*billingapp.CustomerResponse, error)
	List(ctx context.Context, filter shared.Filter) ([]billingapp.CustomerResponse, error)
	Update(ctx context.Context, customerID uuid.UUID, req billingapp.UpdateCustomerRequest) (*billingapp.CustomerResponse, error)
	Delete(ctx context.Context, customerID uuid.UUID) error
}

// TaskService is the task use cases the handlers call
type TaskService interface {
	Create(ctx context.Context, customerID uuid.UUID, req billingapp.CreateTaskRequest) (*billingapp.TaskResponse, error)
	GetByID(ctx context.Context, taskID uuid.UUID) (*billingapp.TaskResponse, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, filter billingapp.TaskListFilter) ([]billingapp.TaskResponse, error)
	Update(ctx context.Context, taskID uuid.UUID, req billingapp.UpdateTaskRequest) (*billingapp.TaskMutationResponse, error)
	Delete(ctx context.Context, taskID uuid.UUID, force bool) error
}

// TimelineService is the time entry use cases the handlers call
type TimelineService interface {
	Record(ctx context.Context, req billingapp.RecordTimeEntryRequest) (*billingapp.TimeEntryResponse, error)
	GetByID(ctx context.Context, entryID uuid.UUID) (*billingapp.TimeEntryResponse, error)
	Update(ctx context.Context, entryID uuid.UUID, req billingapp.RecordTimeEntryRequest) (*billingapp.TimeEntryMutationResponse, error)
	Delete(ctx context.Context, entryID uuid.UUID) (*billingapp.TimeEntryMutationResponse, error)
	List(ctx context.Context, filter billingapp.TimelineFilter) ([]billingapp.TimeEntryResponse, error)
}

// InvoiceService is the invoice use cases the handlers call
type InvoiceService interface {
	Create(ctx context.Context, req billingapp.CreateInvoiceRequest) (*billingapp.CreateInvoiceResponse, error)
	GetByNumber(ctx context.Context, number string) (*billingapp.InvoiceDetailResponse, error)
	List(ctx context.Context, filter billingapp.InvoiceListFilter) ([]billingapp.InvoiceResponse, error)
	MarkPaid(ctx context.Context, number string) (*billingapp.InvoiceResponse, error)
	SelectionData(ctx context.Context, customerID uuid.UUID) (*billingapp.InvoiceSelectionResponse, error)
}

// DocumentService renders and serves invoice PDFs
type DocumentService interface {
	Generate(ctx context.Context, number string, force bool) (*billingapp.DocumentResponse, error)
	Open(ctx context.Context, number string) (io.ReadCloser, *billingapp.DocumentResponse, error)
}

// CompanyService is the company profile use cases the handlers call
type CompanyService interface {
	GetLatest(ctx context.Context) (*billingapp.CompanyInfoResponse, error)
	Edit(ctx context.Context, req billingapp.UpdateCompanyInfoRequest) (*billingapp.CompanyEditResponse, error)
	History(ctx context.Context) ([]billingapp.CompanyInfoResponse, error)
}

var (
	_ CustomerService = (*billingapp.CustomerService)(nil)
	_ TaskService     = (*billingapp.TaskService)(nil)
	_ TimelineService = (*billingapp.TimelineService)(nil)
	_ InvoiceService  = (*billingapp.InvoiceService)(nil)
	_ DocumentService = (*billingapp.DocumentService)(nil)
	_ CompanyService  = (*billingapp.CompanyService)(nil)
)
