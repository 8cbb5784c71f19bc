package printing

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceDocument is the flattened view of an invoice that the invoice template prints
type InvoiceDocument struct {
	Number               string
	Date                 time.Time
	PeriodStart          time.Time
	PeriodEnd            time.Time
	IncludeSpecification bool

	Customer CustomerBlock
	Company  CompanyBlock
	Lines    []DocumentLine

	Subtotal   decimal.Decimal
	ChargesVAT bool
	VAT        []DocumentVAT
	Total      decimal.Decimal
	Currency   string
}

// CustomerBlock is the addressee of the invoice
type CustomerBlock struct {
	Name              string
	AddressStreet     string
	AddressPostalCode string
	AddressCity       string
	Email             string
	Phone             string
}

// CompanyBlock is the sender of the invoice
type CompanyBlock struct {
	Name              string
	ContactName       string
	AddressStreet     string
	AddressPostalCode string
	AddressCity       string
	Country           string
	Phone             string
	Cell              string
	Email             string
	Website           string
	Chamber           string
	VATNo             string
	BankName          string
	AccountName       string
	AccountNo         string
	BIC               string
}

// DocumentLine is one billed task. Rate is nil for fixed-cost tasks.
type DocumentLine struct {
	Description string
	Hours       decimal.Decimal
	Rate        *decimal.Decimal
	Amount      decimal.Decimal
	VATRate     decimal.Decimal
	Entries     []DocumentEntry
}

// DocumentEntry is one line of the specification
type DocumentEntry struct {
	Date    time.Time
	Start   time.Time
	End     time.Time
	Hours   decimal.Decimal
	Comment string
}

// DocumentVAT is the VAT due at one rate
type DocumentVAT struct {
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

// HasSpecification reports whether any line carries entries to print
func (d *InvoiceDocument) HasSpecification() bool {
	if !d.IncludeSpecification {
		return false
	}
	for _, l := range d.Lines {
		if len(l.Entries) > 0 {
			return true
		}
	}
	return false
}
