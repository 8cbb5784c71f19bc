package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/shared"
)

// RevisionState tells whether a CompanyInfo revision may still change
type RevisionState string

const (
	// RevisionDraft is not referenced by any invoice and may be edited in place
	RevisionDraft RevisionState = "draft"
	// RevisionPublished is pinned by at least one invoice and is immutable
	RevisionPublished RevisionState = "published"
)

// CompanyDetails are the issuer's legal and bank details printed on invoices
type CompanyDetails struct {
	Name              string
	ContactName       string
	AddressStreet     string
	AddressPostalCode string
	AddressCity       string
	Country           string
	CountryCode       string
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

// DefaultCompanyDetails are used for the first revision when nothing is configured
func DefaultCompanyDetails() CompanyDetails {
	return CompanyDetails{
		Name:        "My Company",
		ContactName: "Me",
		Country:     "The Netherlands",
		CountryCode: "NL",
	}
}

// CompanyInfo is one revision of the company details.
type CompanyInfo struct {
	shared.BaseAggregateRoot
	CompanyDetails
	State RevisionState
	// OriginalID points at the revision this one superseded
	OriginalID *uuid.UUID
}

// NewCompanyInfo creates a draft revision without predecessor
func NewCompanyInfo(details CompanyDetails, now time.Time) (*CompanyInfo, error) {
	if err := details.validate(); err != nil {
		return nil, err
	}
	return &CompanyInfo{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(now),
		CompanyDetails:    details,
		State:             RevisionDraft,
	}, nil
}

// IsPublished reports whether an invoice pins this revision
func (c *CompanyInfo) IsPublished() bool {
	return c.State == RevisionPublished
}

// Publish freezes the revision. It returns false when it already was published.
func (c *CompanyInfo) Publish(now time.Time) bool {
	if c.IsPublished() {
		return false
	}
	c.State = RevisionPublished
	c.Touch(now)
	c.IncrementVersion()
	return true
}

// ChargesVAT reports whether a VAT registration number is set
func (c *CompanyInfo) ChargesVAT() bool {
	return strings.TrimSpace(c.VATNo) != ""
}

// CompanyInfoChanges is a partial update; nil fields are left alone
type CompanyInfoChanges struct {
	Name              *string
	ContactName       *string
	AddressStreet     *string
	AddressPostalCode *string
	AddressCity       *string
	Country           *string
	CountryCode       *string
	Phone             *string
	Cell              *string
	Email             *string
	Website           *string
	Chamber           *string
	VATNo             *string
	BankName          *string
	AccountName       *string
	AccountNo         *string
	BIC               *string
}

// Apply returns details with the changes applied
func (ch CompanyInfoChanges) Apply(d CompanyDetails) CompanyDetails {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&d.Name, ch.Name)
	set(&d.ContactName, ch.ContactName)
	set(&d.AddressStreet, ch.AddressStreet)
	set(&d.AddressPostalCode, ch.AddressPostalCode)
	set(&d.AddressCity, ch.AddressCity)
	set(&d.Country, ch.Country)
	set(&d.CountryCode, ch.CountryCode)
	set(&d.Phone, ch.Phone)
	set(&d.Cell, ch.Cell)
	set(&d.Email, ch.Email)
	set(&d.Website, ch.Website)
	set(&d.Chamber, ch.Chamber)
	set(&d.VATNo, ch.VATNo)
	set(&d.BankName, ch.BankName)
	set(&d.AccountName, ch.AccountName)
	set(&d.AccountNo, ch.AccountNo)
	set(&d.BIC, ch.BIC)
	return d
}

// EditOutcome is the result of Edit. Created is true when Revision is a new
// record that supersedes the edited one.
type EditOutcome struct {
	Revision *CompanyInfo
	Created  bool
}

// Edit decides how changes land without touching rev:
//   - the latest revision, once published, is superseded by a new draft revision
//   - a draft revision is changed in place
//   - an older published revision cannot be changed at all
func Edit(rev *CompanyInfo, changes CompanyInfoChanges, isLatest bool, now time.Time) (EditOutcome, error) {
	details := changes.Apply(rev.CompanyDetails)
	if err := details.validate(); err != nil {
		return EditOutcome{}, err
	}

	if rev.IsPublished() {
		if !isLatest {
			return EditOutcome{}, ErrImmutableRevision
		}
		originalID := rev.ID
		next := &CompanyInfo{
			BaseAggregateRoot: shared.NewBaseAggregateRootAt(now),
			CompanyDetails:    details,
			State:             RevisionDraft,
			OriginalID:        &originalID,
		}
		next.AddDomainEvent(NewCompanyInfoRevisedEvent(next))
		return EditOutcome{Revision: next, Created: true}, nil
	}

	updated := *rev
	updated.ClearDomainEvents()
	updated.CompanyDetails = details
	updated.Touch(now)
	updated.IncrementVersion()
	return EditOutcome{Revision: &updated}, nil
}

func (d CompanyDetails) validate() error {
	var v validationCollector
	if d.Name == "" {
		v.add("name", "is required")
	}
	if d.CountryCode != "" && len(d.CountryCode) != 2 {
		v.add("country_code", "must be a two-letter code")
	}
	return v.result()
}
