package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared/valueobject"
)

// =============================================================================
// Customer DTOs
// =============================================================================

// CreateCustomerRequest represents a request to create a new customer
type CreateCustomerRequest struct {
	Name              string           `json:"name" binding:"required,min=1,max=200"`
	ShortName         string           `json:"short_name" binding:"max=50"`
	AddressStreet     string           `json:"address_street" binding:"max=200"`
	AddressPostalCode string           `json:"address_postal_code" binding:"max=20"`
	AddressCity       string           `json:"address_city" binding:"max=100"`
	Email             string           `json:"email" binding:"omitempty,email,max=200"`
	Phone             string           `json:"phone" binding:"max=50"`
	HourlyRate        *decimal.Decimal `json:"hourly_rate" binding:"omitempty,gte=0"`
	TimeSpecification bool             `json:"time_specification"`
}

// UpdateCustomerRequest replaces the editable fields of a customer.
// A missing hourly rate keeps the current one.
type UpdateCustomerRequest struct {
	Name              string           `json:"name" binding:"required,min=1,max=200"`
	ShortName         string           `json:"short_name" binding:"max=50"`
	AddressStreet     string           `json:"address_street" binding:"max=200"`
	AddressPostalCode string           `json:"address_postal_code" binding:"max=20"`
	AddressCity       string           `json:"address_city" binding:"max=100"`
	Email             string           `json:"email" binding:"omitempty,email,max=200"`
	Phone             string           `json:"phone" binding:"max=50"`
	HourlyRate        *decimal.Decimal `json:"hourly_rate" binding:"omitempty,gte=0"`
	TimeSpecification bool             `json:"time_specification"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	ShortName         string          `json:"short_name"`
	DisplayName       string          `json:"display_name"`
	AddressStreet     string          `json:"address_street"`
	AddressPostalCode string          `json:"address_postal_code"`
	AddressCity       string          `json:"address_city"`
	Email             string          `json:"email"`
	Phone             string          `json:"phone"`
	HourlyRate        decimal.Decimal `json:"hourly_rate"`
	TimeSpecification bool            `json:"time_specification"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *billing.Customer) CustomerResponse {
	return CustomerResponse{
		ID:                c.ID,
		Name:              c.Name,
		ShortName:         c.ShortName,
		DisplayName:       c.DisplayName(),
		AddressStreet:     c.AddressStreet,
		AddressPostalCode: c.AddressPostalCode,
		AddressCity:       c.AddressCity,
		Email:             c.Email,
		Phone:             c.Phone,
		HourlyRate:        c.HourlyRate,
		TimeSpecification: c.TimeSpecification,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
		Version:           c.Version,
	}
}

// ToCustomerResponses converts a slice of domain Customers
func ToCustomerResponses(customers []*billing.Customer) []CustomerResponse {
	responses := make([]CustomerResponse, len(customers))
	for i, c := range customers {
		responses[i] = ToCustomerResponse(c)
	}
	return responses
}

// =============================================================================
// Task DTOs
// =============================================================================

// CreateTaskRequest represents a request to create a task.
// Without fixed cost or hourly rate the task bills hourly at the customer's rate.
type CreateTaskRequest struct {
	Name       string           `json:"name" binding:"required,min=1,max=200"`
	FixedCost  *decimal.Decimal `json:"fixed_cost" binding:"omitempty,gte=0"`
	HourlyRate *decimal.Decimal `json:"hourly_rate" binding:"omitempty,gte=0"`
	VATRate    *decimal.Decimal `json:"vat_rate" binding:"omitempty,gte=0,lte=100"`
}

// UpdateTaskRequest represents a request to update a task.
// Setting fixed_cost or hourly_rate switches the billing mode; omitting both keeps it.
type UpdateTaskRequest struct {
	Name       string           `json:"name" binding:"required,min=1,max=200"`
	FixedCost  *decimal.Decimal `json:"fixed_cost" binding:"omitempty,gte=0"`
	HourlyRate *decimal.Decimal `json:"hourly_rate" binding:"omitempty,gte=0"`
	VATRate    *decimal.Decimal `json:"vat_rate" binding:"omitempty,gte=0,lte=100"`
}

// TaskListFilter represents filter options for task lists
type TaskListFilter struct {
	Billed *bool `form:"billed"`
}

// TaskResponse represents a task in API responses
type TaskResponse struct {
	ID             uuid.UUID           `json:"id"`
	CustomerID     uuid.UUID           `json:"customer_id"`
	InvoiceID      *uuid.UUID          `json:"invoice_id,omitempty"`
	Name           string              `json:"name"`
	DisplayName    string              `json:"display_name"`
	Mode           billing.BillingMode `json:"mode"`
	FixedCost      *decimal.Decimal    `json:"fixed_cost,omitempty"`
	HourlyRate     *decimal.Decimal    `json:"hourly_rate,omitempty"`
	VATRate        decimal.Decimal     `json:"vat_rate"`
	InvoiceComment string              `json:"invoice_comment,omitempty"`
	Billed         bool                `json:"billed"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Version        int                 `json:"version"`
}

// TaskMutationResponse is returned by task writes. BilledWarning is set
// when the task already belongs to an invoice.
type TaskMutationResponse struct {
	TaskResponse
	BilledWarning bool `json:"billed_warning"`
}

// ToTaskResponse converts a domain Task to TaskResponse
func ToTaskResponse(t *billing.Task) TaskResponse {
	return TaskResponse{
		ID:             t.ID,
		CustomerID:     t.CustomerID,
		InvoiceID:      t.InvoiceID,
		Name:           t.Name,
		DisplayName:    t.DisplayName(),
		Mode:           t.Mode(),
		FixedCost:      t.FixedCost,
		HourlyRate:     t.HourlyRate,
		VATRate:        t.VATRate,
		InvoiceComment: t.InvoiceComment,
		Billed:         t.IsBilled(),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		Version:        t.Version,
	}
}

// ToTaskResponses converts a slice of domain Tasks
func ToTaskResponses(tasks []*billing.Task) []TaskResponse {
	responses := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		responses[i] = ToTaskResponse(t)
	}
	return responses
}

// =============================================================================
// Timeline DTOs
// =============================================================================

// RecordTimeEntryRequest represents a request to record or update a time entry.
// Date defaults to today; Bill defaults to true.
type RecordTimeEntryRequest struct {
	TaskID  uuid.UUID  `json:"task_id" binding:"required"`
	Date    *time.Time `json:"date"`
	Start   time.Time  `json:"start" binding:"required"`
	End     time.Time  `json:"end" binding:"required"`
	Comment string     `json:"comment" binding:"max=2000"`
	Bill    *bool      `json:"bill"`
}

// TimelineFilter represents filter options for the timeline
type TimelineFilter struct {
	CustomerID *uuid.UUID `form:"customer_id"`
	Billed     *bool      `form:"billed"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// TimeEntryResponse represents a time entry in API responses
type TimeEntryResponse struct {
	ID        uuid.UUID       `json:"id"`
	TaskID    uuid.UUID       `json:"task_id"`
	Date      time.Time       `json:"date"`
	Start     time.Time       `json:"start"`
	End       time.Time       `json:"end"`
	Hours     decimal.Decimal `json:"hours"`
	Comment   string          `json:"comment"`
	Bill      bool            `json:"bill"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TimeEntryMutationResponse is returned by time entry edits. BilledWarning is
// set when a task the entry belonged to or moves to is already invoiced.
type TimeEntryMutationResponse struct {
	TimeEntryResponse
	BilledWarning bool `json:"billed_warning"`
}

// ToTimeEntryResponse converts a domain TimeEntry to TimeEntryResponse
func ToTimeEntryResponse(e *billing.TimeEntry) TimeEntryResponse {
	return TimeEntryResponse{
		ID:        e.ID,
		TaskID:    e.TaskID,
		Date:      e.Date,
		Start:     e.Start,
		End:       e.End,
		Hours:     e.Hours().Round(2),
		Comment:   e.Comment,
		Bill:      e.Bill,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// ToTimeEntryResponses converts a slice of domain TimeEntries
func ToTimeEntryResponses(entries []*billing.TimeEntry) []TimeEntryResponse {
	responses := make([]TimeEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = ToTimeEntryResponse(e)
	}
	return responses
}

// =============================================================================
// Invoice DTOs
// =============================================================================

// CreateInvoiceRequest represents a request to invoice selected work of a customer
type CreateInvoiceRequest struct {
	CustomerID       uuid.UUID            `json:"customer_id" binding:"required"`
	TimeEntryIDs     []uuid.UUID          `json:"time_entry_ids"`
	FixedCostTaskIDs []uuid.UUID          `json:"fixed_cost_task_ids"`
	Comments         map[uuid.UUID]string `json:"comments"`
}

// InvoiceListFilter represents filter options for invoice lists.
// Period selects invoices created in a calendar month, formatted YYYY-MM.
type InvoiceListFilter struct {
	CustomerID *uuid.UUID `form:"customer_id"`
	Period     string     `form:"period" binding:"omitempty,datetime=2006-01"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// InvoiceResponse represents an invoice in list responses
type InvoiceResponse struct {
	ID                   uuid.UUID  `json:"id"`
	Number               string     `json:"number"`
	CustomerID           uuid.UUID  `json:"customer_id"`
	CompanyInfoID        uuid.UUID  `json:"company_info_id"`
	Paid                 bool       `json:"paid"`
	PaidAt               *time.Time `json:"paid_at,omitempty"`
	IncludeSpecification bool       `json:"include_specification"`
	PastDue              bool       `json:"past_due"`
	WayPastDue           bool       `json:"way_past_due"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// ToInvoiceResponse converts a domain Invoice, evaluating due flags at now
func ToInvoiceResponse(inv *billing.Invoice, policy billing.DuePolicy, now time.Time) InvoiceResponse {
	return InvoiceResponse{
		ID:                   inv.ID,
		Number:               inv.Number,
		CustomerID:           inv.CustomerID,
		CompanyInfoID:        inv.CompanyInfoID,
		Paid:                 inv.Paid,
		PaidAt:               inv.PaidAt,
		IncludeSpecification: inv.IncludeSpecification,
		PastDue:              policy.PastDue(inv, now),
		WayPastDue:           policy.WayPastDue(inv, now),
		CreatedAt:            inv.CreatedAt,
		UpdatedAt:            inv.UpdatedAt,
	}
}

// InvoiceLineResponse is a task line of an invoice
type InvoiceLineResponse struct {
	TaskID    uuid.UUID           `json:"task_id"`
	Name      string              `json:"name"`
	Mode      billing.BillingMode `json:"mode"`
	Hours     decimal.Decimal     `json:"hours"`
	Rate      *valueobject.Money  `json:"rate,omitempty"`
	Amount    valueobject.Money   `json:"amount"`
	VATRate   decimal.Decimal     `json:"vat_rate"`
	VATAmount valueobject.Money   `json:"vat_amount"`
	Period    billing.Period      `json:"period"`
	// Entries are listed when the invoice includes a time specification
	Entries []TimeEntryResponse `json:"entries,omitempty"`
}

// VATLineResponse is the VAT charged at one rate
type VATLineResponse struct {
	Rate   decimal.Decimal   `json:"rate"`
	Amount valueobject.Money `json:"amount"`
}

// CompanyInfoResponse represents a company info revision in API responses
type CompanyInfoResponse struct {
	ID                uuid.UUID             `json:"id"`
	Name              string                `json:"name"`
	ContactName       string                `json:"contact_name"`
	AddressStreet     string                `json:"address_street"`
	AddressPostalCode string                `json:"address_postal_code"`
	AddressCity       string                `json:"address_city"`
	Country           string                `json:"country"`
	CountryCode       string                `json:"country_code"`
	Phone             string                `json:"phone"`
	Cell              string                `json:"cell"`
	Email             string                `json:"email"`
	Website           string                `json:"website"`
	Chamber           string                `json:"chamber"`
	VATNo             string                `json:"vatno"`
	BankName          string                `json:"bank_name"`
	AccountName       string                `json:"account_name"`
	AccountNo         string                `json:"account_no"`
	BIC               string                `json:"bic"`
	State             billing.RevisionState `json:"state"`
	OriginalID        *uuid.UUID            `json:"original_id,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// ToCompanyInfoResponse converts a domain CompanyInfo revision
func ToCompanyInfoResponse(c *billing.CompanyInfo) CompanyInfoResponse {
	return CompanyInfoResponse{
		ID:                c.ID,
		Name:              c.Name,
		ContactName:       c.ContactName,
		AddressStreet:     c.AddressStreet,
		AddressPostalCode: c.AddressPostalCode,
		AddressCity:       c.AddressCity,
		Country:           c.Country,
		CountryCode:       c.CountryCode,
		Phone:             c.Phone,
		Cell:              c.Cell,
		Email:             c.Email,
		Website:           c.Website,
		Chamber:           c.Chamber,
		VATNo:             c.VATNo,
		BankName:          c.BankName,
		AccountName:       c.AccountName,
		AccountNo:         c.AccountNo,
		BIC:               c.BIC,
		State:             c.State,
		OriginalID:        c.OriginalID,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// InvoiceDetailResponse is the full view of an invoice with all derived figures
type InvoiceDetailResponse struct {
	InvoiceResponse
	Customer   CustomerResponse      `json:"customer"`
	Company    CompanyInfoResponse   `json:"company"`
	Lines      []InvoiceLineResponse `json:"lines"`
	Period     billing.Period        `json:"period"`
	Subtotal   valueobject.Money     `json:"subtotal"`
	ChargesVAT bool                  `json:"charges_vat"`
	VATSummary []VATLineResponse     `json:"vat_summary"`
	VATTotal   valueobject.Money     `json:"vat_total"`
	Total      valueobject.Money     `json:"total"`
}

// ToInvoiceDetailResponse renders a ledger together with its customer
func ToInvoiceDetailResponse(ledger *billing.InvoiceLedger, customer *billing.Customer, policy billing.DuePolicy, now time.Time) *InvoiceDetailResponse {
	resp := &InvoiceDetailResponse{
		InvoiceResponse: ToInvoiceResponse(ledger.Invoice, policy, now),
		Customer:        ToCustomerResponse(customer),
		Period:          ledger.Period(),
		Subtotal:        ledger.Subtotal().Round(2),
		ChargesVAT:      ledger.ChargesVAT(),
		VATTotal:        ledger.VATTotal().Round(2),
		Total:           ledger.TotalAmount().Round(2),
	}
	if ledger.Company != nil {
		resp.Company = ToCompanyInfoResponse(ledger.Company)
	}

	for _, line := range ledger.Lines() {
		l := InvoiceLineResponse{
			TaskID:    line.Task.ID,
			Name:      line.Task.DisplayName(),
			Mode:      line.Task.Mode(),
			Hours:     line.Summary.Hours.Round(2),
			Rate:      line.Summary.Rate,
			Amount:    line.Summary.Amount.Round(2),
			VATRate:   line.Summary.VATRate,
			VATAmount: line.Summary.VATAmount.Round(2),
			Period:    line.Period,
		}
		if ledger.Invoice.IncludeSpecification {
			l.Entries = ToTimeEntryResponses(line.Entries)
		}
		resp.Lines = append(resp.Lines, l)
	}

	if ledger.ChargesVAT() {
		for _, v := range ledger.VATSummary() {
			resp.VATSummary = append(resp.VATSummary, VATLineResponse{Rate: v.Rate, Amount: v.Amount.Round(2)})
		}
	}
	return resp
}

// CreateInvoiceResponse reports the created invoice and what the builder did
type CreateInvoiceResponse struct {
	Invoice *InvoiceDetailResponse `json:"invoice"`
	// SplitTaskIDs are the original tasks whose selected entries moved to a billed copy
	SplitTaskIDs []uuid.UUID `json:"split_task_ids"`
	// SkippedTaskIDs were selected as fixed-cost but bill hourly
	SkippedTaskIDs []uuid.UUID `json:"skipped_task_ids,omitempty"`
}

// SelectionTask is an unbilled task offered for invoicing
type SelectionTask struct {
	TaskResponse
	// Hours is the total of the task's entries
	Hours decimal.Decimal `json:"hours"`
	// Entries are the billable entries of an hourly task
	Entries []TimeEntryResponse `json:"entries,omitempty"`
}

// InvoiceSelectionResponse lists the unbilled work of a customer
type InvoiceSelectionResponse struct {
	Customer       CustomerResponse `json:"customer"`
	HourlyTasks    []SelectionTask  `json:"hourly_tasks"`
	FixedCostTasks []SelectionTask  `json:"fixed_cost_tasks"`
}

// DocumentResponse describes a rendered invoice document
type DocumentResponse struct {
	Number    string `json:"number"`
	Key       string `json:"key"`
	Generated bool   `json:"generated"`
	Size      int    `json:"size,omitempty"`
}

// =============================================================================
// Company info DTOs
// =============================================================================

// UpdateCompanyInfoRequest is a partial update of the company details; omitted fields are kept
type UpdateCompanyInfoRequest struct {
	ID                *uuid.UUID `json:"id"`
	Name              *string    `json:"name" binding:"omitempty,min=1,max=200"`
	ContactName       *string    `json:"contact_name" binding:"omitempty,max=200"`
	AddressStreet     *string    `json:"address_street" binding:"omitempty,max=200"`
	AddressPostalCode *string    `json:"address_postal_code" binding:"omitempty,max=20"`
	AddressCity       *string    `json:"address_city" binding:"omitempty,max=100"`
	Country           *string    `json:"country" binding:"omitempty,max=100"`
	CountryCode       *string    `json:"country_code" binding:"omitempty,len=2"`
	Phone             *string    `json:"phone" binding:"omitempty,max=50"`
	Cell              *string    `json:"cell" binding:"omitempty,max=50"`
	Email             *string    `json:"email" binding:"omitempty,email,max=200"`
	Website           *string    `json:"website" binding:"omitempty,max=200"`
	Chamber           *string    `json:"chamber" binding:"omitempty,max=50"`
	VATNo             *string    `json:"vatno" binding:"omitempty,max=50"`
	BankName          *string    `json:"bank_name" binding:"omitempty,max=200"`
	AccountName       *string    `json:"account_name" binding:"omitempty,max=200"`
	AccountNo         *string    `json:"account_no" binding:"omitempty,max=50"`
	BIC               *string    `json:"bic" binding:"omitempty,max=20"`
}

// Changes converts the request to domain changes
func (r UpdateCompanyInfoRequest) Changes() billing.CompanyInfoChanges {
	return billing.CompanyInfoChanges{
		Name:              r.Name,
		ContactName:       r.ContactName,
		AddressStreet:     r.AddressStreet,
		AddressPostalCode: r.AddressPostalCode,
		AddressCity:       r.AddressCity,
		Country:           r.Country,
		CountryCode:       r.CountryCode,
		Phone:             r.Phone,
		Cell:              r.Cell,
		Email:             r.Email,
		Website:           r.Website,
		Chamber:           r.Chamber,
		VATNo:             r.VATNo,
		BankName:          r.BankName,
		AccountName:       r.AccountName,
		AccountNo:         r.AccountNo,
		BIC:               r.BIC,
	}
}

// CompanyEditResponse reports where an edit landed
type CompanyEditResponse struct {
	Revision CompanyInfoResponse `json:"revision"`
	// Created is true when a new revision superseded the edited one
	Created bool `json:"created"`
}
