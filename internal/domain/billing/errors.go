package billing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/shared"
)

// Error codes of the billing domain
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeReference     = "REFERENCE_ERROR"
	CodeImmutable     = "IMMUTABILITY_VIOLATION"
	CodeInvalidNumber = "INVALID_INVOICE_NUMBER"
)

// ErrImmutableRevision is returned when a published CompanyInfo revision would be changed in place
var ErrImmutableRevision = shared.NewDomainError(CodeImmutable, "Company info revision is referenced by an invoice and cannot be changed")

// ValidationError reports malformed input per field.
type ValidationError struct {
	*shared.DomainError
	Fields map[string]string `json:"fields"`
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *ValidationError {
	return (&ValidationError{
		DomainError: shared.NewDomainError(CodeValidation, "Validation failed"),
		Fields:      make(map[string]string),
	}).Add(field, message)
}

// Add records a problem with field. The first message per field wins.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
	return e
}

// HasErrors reports whether any field was recorded
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, "; "))
}

// Unwrap exposes the underlying DomainError
func (e *ValidationError) Unwrap() error {
	return e.DomainError
}

// validationCollector accumulates field errors and yields nil when there are none.
type validationCollector struct {
	err *ValidationError
}

func (c *validationCollector) add(field, message string) {
	if c.err == nil {
		c.err = NewValidationError(field, message)
		return
	}
	c.err.Add(field, message)
}

func (c *validationCollector) result() error {
	if c.err == nil {
		return nil
	}
	return c.err
}

// ReferenceKind names the kind of record an invalid reference points at
type ReferenceKind string

const (
	ReferenceTimeEntry ReferenceKind = "time_entry"
	ReferenceTask      ReferenceKind = "task"
)

// Reasons a reference passed into invoice construction is rejected
const (
	ReasonNotFound       = "not_found"
	ReasonOtherCustomer  = "belongs_to_other_customer"
	ReasonAlreadyBilled  = "already_billed"
	ReasonFixedCostEntry = "fixed_cost_task_entry"
)

// InvalidReference is a single rejected id
type InvalidReference struct {
	Kind   ReferenceKind `json:"kind"`
	ID     uuid.UUID     `json:"id"`
	Reason string        `json:"reason"`
}

// ReferenceError aborts invoice construction when selected ids are unusable.
type ReferenceError struct {
	*shared.DomainError
	References []InvalidReference `json:"references"`
}

// NewReferenceError creates an empty ReferenceError
func NewReferenceError() *ReferenceError {
	return &ReferenceError{
		DomainError: shared.NewDomainError(CodeReference, "Selection references records that cannot be invoiced"),
	}
}

// Add records a rejected id
func (e *ReferenceError) Add(kind ReferenceKind, id uuid.UUID, reason string) {
	e.References = append(e.References, InvalidReference{Kind: kind, ID: id, Reason: reason})
}

// HasErrors reports whether any reference was rejected
func (e *ReferenceError) HasErrors() bool {
	return e != nil && len(e.References) > 0
}

// Error implements the error interface
func (e *ReferenceError) Error() string {
	parts := make([]string, 0, len(e.References))
	for _, r := range e.References {
		parts = append(parts, fmt.Sprintf("%s %s: %s", r.Kind, r.ID, r.Reason))
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, "; "))
}

// Unwrap exposes the underlying DomainError
func (e *ReferenceError) Unwrap() error {
	return e.DomainError
}
