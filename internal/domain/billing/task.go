package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stoptime/backend/internal/domain/shared"
)

// BillingMode is how a task is charged
type BillingMode string

const (
	BillingModeHourly    BillingMode = "hourly_rate"
	BillingModeFixedCost BillingMode = "fixed_cost"
)

// Task is a unit of billable work for a customer.
// Exactly one of FixedCost and HourlyRate is set.
type Task struct {
	shared.BaseAggregateRoot
	CustomerID     uuid.UUID
	InvoiceID      *uuid.UUID
	Name           string
	FixedCost      *decimal.Decimal
	HourlyRate     *decimal.Decimal
	VATRate        decimal.Decimal
	InvoiceComment string
}

// TaskInput carries the editable fields of a task
type TaskInput struct {
	Name       string
	FixedCost  *decimal.Decimal
	HourlyRate *decimal.Decimal
	VATRate    decimal.Decimal
}

// NewTask creates an unbilled task for a customer
func NewTask(customerID uuid.UUID, in TaskInput, now time.Time) (*Task, error) {
	var v validationCollector
	if customerID == uuid.Nil {
		v.add("customer_id", "is required")
	}
	in.validate(&v)
	if err := v.result(); err != nil {
		return nil, err
	}

	t := &Task{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(now),
		CustomerID:        customerID,
	}
	t.apply(in)
	return t, nil
}

// Update replaces the editable fields. Switching billing mode is allowed as long
// as exactly one of fixed cost and hourly rate ends up set.
func (t *Task) Update(in TaskInput, now time.Time) error {
	var v validationCollector
	in.validate(&v)
	if err := v.result(); err != nil {
		return err
	}
	t.apply(in)
	t.Touch(now)
	t.IncrementVersion()
	return nil
}

// Validate checks the billing-mode invariant on the current state
func (t *Task) Validate() error {
	var v validationCollector
	TaskInput{Name: t.Name, FixedCost: t.FixedCost, HourlyRate: t.HourlyRate, VATRate: t.VATRate}.validate(&v)
	return v.result()
}

// Mode returns the billing mode
func (t *Task) Mode() BillingMode {
	if t.FixedCost != nil {
		return BillingModeFixedCost
	}
	return BillingModeHourly
}

// IsFixedCost reports whether the task bills a fixed amount
func (t *Task) IsFixedCost() bool {
	return t.Mode() == BillingModeFixedCost
}

// IsBilled reports whether the task is attached to an invoice
func (t *Task) IsBilled() bool {
	return t.InvoiceID != nil
}

// DisplayName is the invoice comment once billed, the task name otherwise
func (t *Task) DisplayName() string {
	if t.IsBilled() && t.InvoiceComment != "" {
		return t.InvoiceComment
	}
	return t.Name
}

// billedCopy duplicates the task's billing fields into a new unbilled task.
func (t *Task) billedCopy(now time.Time) *Task {
	clone := &Task{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(now),
		CustomerID:        t.CustomerID,
		Name:              t.Name,
		VATRate:           t.VATRate,
	}
	if t.HourlyRate != nil {
		rate := *t.HourlyRate
		clone.HourlyRate = &rate
	}
	if t.FixedCost != nil {
		cost := *t.FixedCost
		clone.FixedCost = &cost
	}
	return clone
}

// attach binds the task to an invoice under the given comment.
func (t *Task) attach(invoiceID uuid.UUID, comment string, now time.Time) {
	id := invoiceID
	t.InvoiceID = &id
	if strings.TrimSpace(comment) == "" {
		comment = t.Name
	}
	t.InvoiceComment = comment
	t.Touch(now)
}

func (t *Task) apply(in TaskInput) {
	t.Name = strings.TrimSpace(in.Name)
	t.FixedCost = nil
	t.HourlyRate = nil
	if in.FixedCost != nil {
		cost := *in.FixedCost
		t.FixedCost = &cost
	}
	if in.HourlyRate != nil {
		rate := *in.HourlyRate
		t.HourlyRate = &rate
	}
	t.VATRate = in.VATRate
}

var hundred = decimal.NewFromInt(100)

func (in TaskInput) validate(v *validationCollector) {
	if strings.TrimSpace(in.Name) == "" {
		v.add("name", "is required")
	}
	switch {
	case in.FixedCost != nil && in.HourlyRate != nil:
		v.add("fixed_cost", "cannot be set together with hourly_rate")
		v.add("hourly_rate", "cannot be set together with fixed_cost")
	case in.FixedCost == nil && in.HourlyRate == nil:
		v.add("fixed_cost", "either fixed_cost or hourly_rate is required")
		v.add("hourly_rate", "either fixed_cost or hourly_rate is required")
	}
	if in.FixedCost != nil && in.FixedCost.IsNegative() {
		v.add("fixed_cost", "cannot be negative")
	}
	if in.HourlyRate != nil && in.HourlyRate.IsNegative() {
		v.add("hourly_rate", "cannot be negative")
	}
	if in.VATRate.IsNegative() || in.VATRate.GreaterThan(hundred) {
		v.add("vat_rate", "must be between 0 and 100")
	}
}
