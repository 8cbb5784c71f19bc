package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stoptime/backend/internal/domain/shared"
)

// Event type names
const (
	EventTypeInvoiceCreated     = "InvoiceCreated"
	EventTypeInvoicePaid        = "InvoicePaid"
	EventTypeTaskSplit          = "TaskSplit"
	EventTypeCompanyInfoRevised = "CompanyInfoRevised"
)

// Aggregate type names
const (
	AggregateTypeInvoice     = "Invoice"
	AggregateTypeTask        = "Task"
	AggregateTypeCompanyInfo = "CompanyInfo"
)

// InvoiceCreatedEvent is raised when an invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	Number        string    `json:"number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	CompanyInfoID uuid.UUID `json:"company_info_id"`
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return EventTypeInvoiceCreated
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID, inv.UpdatedAt),
		InvoiceID:       inv.ID,
		Number:          inv.Number,
		CustomerID:      inv.CustomerID,
		CompanyInfoID:   inv.CompanyInfoID,
	}
}

// InvoicePaidEvent is raised when an invoice is marked paid
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID  uuid.UUID `json:"invoice_id"`
	Number     string    `json:"number"`
	CustomerID uuid.UUID `json:"customer_id"`
	PaidAt     time.Time `json:"paid_at"`
}

// EventType returns the event type name
func (e *InvoicePaidEvent) EventType() string {
	return EventTypeInvoicePaid
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	paidAt := inv.UpdatedAt
	if inv.PaidAt != nil {
		paidAt = *inv.PaidAt
	}
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, AggregateTypeInvoice, inv.ID, inv.UpdatedAt),
		InvoiceID:       inv.ID,
		Number:          inv.Number,
		CustomerID:      inv.CustomerID,
		PaidAt:          paidAt,
	}
}

// TaskSplitEvent is raised when selected entries move from a task to its billed copy
type TaskSplitEvent struct {
	shared.BaseDomainEvent
	OriginalTaskID uuid.UUID       `json:"original_task_id"`
	BilledTaskID   uuid.UUID       `json:"billed_task_id"`
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	MovedEntries   int             `json:"moved_entries"`
	MovedHours     decimal.Decimal `json:"moved_hours"`
}

// EventType returns the event type name
func (e *TaskSplitEvent) EventType() string {
	return EventTypeTaskSplit
}

// NewTaskSplitEvent creates a new TaskSplitEvent
func NewTaskSplitEvent(split TaskSplit, invoiceID uuid.UUID) *TaskSplitEvent {
	return &TaskSplitEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTaskSplit, AggregateTypeTask, split.Clone.ID, split.Clone.UpdatedAt),
		OriginalTaskID:  split.OriginalID,
		BilledTaskID:    split.Clone.ID,
		InvoiceID:       invoiceID,
		MovedEntries:    len(split.EntryIDs),
		MovedHours:      split.Hours,
	}
}

// CompanyInfoRevisedEvent is raised when a published revision is superseded
type CompanyInfoRevisedEvent struct {
	shared.BaseDomainEvent
	RevisionID uuid.UUID  `json:"revision_id"`
	OriginalID *uuid.UUID `json:"original_id,omitempty"`
}

// EventType returns the event type name
func (e *CompanyInfoRevisedEvent) EventType() string {
	return EventTypeCompanyInfoRevised
}

// NewCompanyInfoRevisedEvent creates a new CompanyInfoRevisedEvent
func NewCompanyInfoRevisedEvent(rev *CompanyInfo) *CompanyInfoRevisedEvent {
	return &CompanyInfoRevisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyInfoRevised, AggregateTypeCompanyInfo, rev.ID, rev.UpdatedAt),
		RevisionID:      rev.ID,
		OriginalID:      rev.OriginalID,
	}
}
