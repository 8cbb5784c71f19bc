package billing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stoptime/backend/internal/domain/shared"
)

// Customer is a party work is done for and invoices are sent to.
type Customer struct {
	shared.BaseAggregateRoot
	Name              string
	ShortName         string
	AddressStreet     string
	AddressPostalCode string
	AddressCity       string
	Email             string
	Phone             string
	HourlyRate        decimal.Decimal
	// TimeSpecification requests that invoices list the individual time entries
	TimeSpecification bool
}

// CustomerInput carries the editable fields of a customer
type CustomerInput struct {
	Name              string
	ShortName         string
	AddressStreet     string
	AddressPostalCode string
	AddressCity       string
	Email             string
	Phone             string
	HourlyRate        *decimal.Decimal
	TimeSpecification bool
}

// NewCustomer creates a customer. A missing hourly rate falls back to defaultRate.
func NewCustomer(in CustomerInput, defaultRate decimal.Decimal, now time.Time) (*Customer, error) {
	if in.HourlyRate == nil {
		in.HourlyRate = &defaultRate
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := &Customer{BaseAggregateRoot: shared.NewBaseAggregateRootAt(now)}
	c.apply(in)
	return c, nil
}

// Update replaces the editable fields. A missing hourly rate keeps the current one.
func (c *Customer) Update(in CustomerInput, now time.Time) error {
	if in.HourlyRate == nil {
		rate := c.HourlyRate
		in.HourlyRate = &rate
	}
	if err := in.validate(); err != nil {
		return err
	}
	c.apply(in)
	c.Touch(now)
	c.IncrementVersion()
	return nil
}

// DisplayName returns the short name when set
func (c *Customer) DisplayName() string {
	if c.ShortName != "" {
		return c.ShortName
	}
	return c.Name
}

// CheckDeletable refuses deletion while the customer has billing history.
func (c *Customer) CheckDeletable(billedTasks, invoices int64) error {
	if billedTasks > 0 || invoices > 0 {
		return shared.NewDomainError("CUSTOMER_HAS_BILLING_HISTORY",
			"Customer has invoices or billed tasks and cannot be deleted")
	}
	return nil
}

func (c *Customer) apply(in CustomerInput) {
	c.Name = strings.TrimSpace(in.Name)
	c.ShortName = strings.TrimSpace(in.ShortName)
	c.AddressStreet = in.AddressStreet
	c.AddressPostalCode = in.AddressPostalCode
	c.AddressCity = in.AddressCity
	c.Email = strings.TrimSpace(in.Email)
	c.Phone = in.Phone
	c.HourlyRate = *in.HourlyRate
	c.TimeSpecification = in.TimeSpecification
}

func (in CustomerInput) validate() error {
	var v validationCollector
	if strings.TrimSpace(in.Name) == "" {
		v.add("name", "is required")
	}
	if len(in.Name) > 200 {
		v.add("name", "cannot exceed 200 characters")
	}
	if len(in.ShortName) > 50 {
		v.add("short_name", "cannot exceed 50 characters")
	}
	if in.HourlyRate != nil && in.HourlyRate.IsNegative() {
		v.add("hourly_rate", "cannot be negative")
	}
	return v.result()
}
