package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stoptime/backend/internal/domain/billing"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	AggregateColumns
	Name              string          `gorm:"type:varchar(200);not null"`
	ShortName         string          `gorm:"type:varchar(100)"`
	AddressStreet     string          `gorm:"type:varchar(200)"`
	AddressPostalCode string          `gorm:"type:varchar(20)"`
	AddressCity       string          `gorm:"type:varchar(100)"`
	Email             string          `gorm:"type:varchar(200)"`
	Phone             string          `gorm:"type:varchar(50)"`
	HourlyRate        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TimeSpecification bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *billing.Customer {
	return &billing.Customer{
		BaseAggregateRoot: m.Root(),
		Name:              m.Name,
		ShortName:         m.ShortName,
		AddressStreet:     m.AddressStreet,
		AddressPostalCode: m.AddressPostalCode,
		AddressCity:       m.AddressCity,
		Email:             m.Email,
		Phone:             m.Phone,
		HourlyRate:        m.HourlyRate,
		TimeSpecification: m.TimeSpecification,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *billing.Customer) {
	m.SetRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.ShortName = c.ShortName
	m.AddressStreet = c.AddressStreet
	m.AddressPostalCode = c.AddressPostalCode
	m.AddressCity = c.AddressCity
	m.Email = c.Email
	m.Phone = c.Phone
	m.HourlyRate = c.HourlyRate
	m.TimeSpecification = c.TimeSpecification
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *billing.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// TaskModel is the persistence model for the Task domain entity.
type TaskModel struct {
	AggregateColumns
	CustomerID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	InvoiceID      *uuid.UUID       `gorm:"type:uuid;index"`
	Name           string           `gorm:"type:varchar(200);not null"`
	FixedCost      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	HourlyRate     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	VATRate        decimal.Decimal  `gorm:"type:decimal(5,2);not null"`
	InvoiceComment string           `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TaskModel) TableName() string {
	return "tasks"
}

// ToDomain converts the persistence model to a domain Task entity.
func (m *TaskModel) ToDomain() *billing.Task {
	return &billing.Task{
		BaseAggregateRoot: m.Root(),
		CustomerID:        m.CustomerID,
		InvoiceID:         m.InvoiceID,
		Name:              m.Name,
		FixedCost:         m.FixedCost,
		HourlyRate:        m.HourlyRate,
		VATRate:           m.VATRate,
		InvoiceComment:    m.InvoiceComment,
	}
}

// FromDomain populates the persistence model from a domain Task entity.
func (m *TaskModel) FromDomain(t *billing.Task) {
	m.SetRoot(t.BaseAggregateRoot)
	m.CustomerID = t.CustomerID
	m.InvoiceID = t.InvoiceID
	m.Name = t.Name
	m.FixedCost = t.FixedCost
	m.HourlyRate = t.HourlyRate
	m.VATRate = t.VATRate
	m.InvoiceComment = t.InvoiceComment
}

// TaskModelFromDomain creates a new persistence model from a domain Task entity.
func TaskModelFromDomain(t *billing.Task) *TaskModel {
	m := &TaskModel{}
	m.FromDomain(t)
	return m
}

// TimeEntryModel is the persistence model for the TimeEntry domain entity.
type TimeEntryModel struct {
	EntityColumns
	TaskID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Date    time.Time `gorm:"not null"`
	Start   time.Time `gorm:"column:start_at;not null"`
	End     time.Time `gorm:"column:end_at;not null"`
	Comment string    `gorm:"type:text"`
	Bill    bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TimeEntryModel) TableName() string {
	return "time_entries"
}

// ToDomain converts the persistence model to a domain TimeEntry entity.
func (m *TimeEntryModel) ToDomain() *billing.TimeEntry {
	return &billing.TimeEntry{
		BaseEntity: m.Entity(),
		TaskID:     m.TaskID,
		Date:       m.Date,
		Start:      m.Start,
		End:        m.End,
		Comment:    m.Comment,
		Bill:       m.Bill,
	}
}

// FromDomain populates the persistence model from a domain TimeEntry entity.
func (m *TimeEntryModel) FromDomain(e *billing.TimeEntry) {
	m.SetEntity(e.BaseEntity)
	m.TaskID = e.TaskID
	m.Date = e.Date
	m.Start = e.Start
	m.End = e.End
	m.Comment = e.Comment
	m.Bill = e.Bill
}

// TimeEntryModelFromDomain creates a new persistence model from a domain TimeEntry entity.
func TimeEntryModelFromDomain(e *billing.TimeEntry) *TimeEntryModel {
	m := &TimeEntryModel{}
	m.FromDomain(e)
	return m
}

// InvoiceModel is the persistence model for the Invoice domain entity.
type InvoiceModel struct {
	AggregateColumns
	Number               string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_invoice_number"`
	CustomerID           uuid.UUID `gorm:"type:uuid;not null;index"`
	CompanyInfoID        uuid.UUID `gorm:"type:uuid;not null"`
	Paid                 bool      `gorm:"not null"`
	IncludeSpecification bool      `gorm:"not null"`
	PaidAt               *time.Time
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		BaseAggregateRoot:    m.Root(),
		Number:               m.Number,
		CustomerID:           m.CustomerID,
		CompanyInfoID:        m.CompanyInfoID,
		Paid:                 m.Paid,
		PaidAt:               m.PaidAt,
		IncludeSpecification: m.IncludeSpecification,
	}
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.SetRoot(inv.BaseAggregateRoot)
	m.Number = inv.Number
	m.CustomerID = inv.CustomerID
	m.CompanyInfoID = inv.CompanyInfoID
	m.Paid = inv.Paid
	m.PaidAt = inv.PaidAt
	m.IncludeSpecification = inv.IncludeSpecification
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice entity.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// CompanyInfoModel is the persistence model for a CompanyInfo revision.
type CompanyInfoModel struct {
	AggregateColumns
	Name              string                `gorm:"type:varchar(200);not null"`
	ContactName       string                `gorm:"type:varchar(200)"`
	AddressStreet     string                `gorm:"type:varchar(200)"`
	AddressPostalCode string                `gorm:"type:varchar(20)"`
	AddressCity       string                `gorm:"type:varchar(100)"`
	Country           string                `gorm:"type:varchar(100)"`
	CountryCode       string                `gorm:"type:varchar(2)"`
	Phone             string                `gorm:"type:varchar(50)"`
	Cell              string                `gorm:"type:varchar(50)"`
	Email             string                `gorm:"type:varchar(200)"`
	Website           string                `gorm:"type:varchar(200)"`
	Chamber           string                `gorm:"type:varchar(50)"`
	VATNo             string                `gorm:"column:vat_no;type:varchar(50)"`
	BankName          string                `gorm:"type:varchar(200)"`
	AccountName       string                `gorm:"type:varchar(200)"`
	AccountNo         string                `gorm:"type:varchar(50)"`
	BIC               string                `gorm:"column:bic;type:varchar(20)"`
	State             billing.RevisionState `gorm:"type:varchar(20);not null"`
	OriginalID        *uuid.UUID            `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (CompanyInfoModel) TableName() string {
	return "company_infos"
}

// ToDomain converts the persistence model to a domain CompanyInfo revision.
func (m *CompanyInfoModel) ToDomain() *billing.CompanyInfo {
	return &billing.CompanyInfo{
		BaseAggregateRoot: m.Root(),
		CompanyDetails: billing.CompanyDetails{
			Name:              m.Name,
			ContactName:       m.ContactName,
			AddressStreet:     m.AddressStreet,
			AddressPostalCode: m.AddressPostalCode,
			AddressCity:       m.AddressCity,
			Country:           m.Country,
			CountryCode:       m.CountryCode,
			Phone:             m.Phone,
			Cell:              m.Cell,
			Email:             m.Email,
			Website:           m.Website,
			Chamber:           m.Chamber,
			VATNo:             m.VATNo,
			BankName:          m.BankName,
			AccountName:       m.AccountName,
			AccountNo:         m.AccountNo,
			BIC:               m.BIC,
		},
		State:      m.State,
		OriginalID: m.OriginalID,
	}
}

// FromDomain populates the persistence model from a domain CompanyInfo revision.
func (m *CompanyInfoModel) FromDomain(c *billing.CompanyInfo) {
	m.SetRoot(c.BaseAggregateRoot)
	d := c.CompanyDetails
	m.Name = d.Name
	m.ContactName = d.ContactName
	m.AddressStreet = d.AddressStreet
	m.AddressPostalCode = d.AddressPostalCode
	m.AddressCity = d.AddressCity
	m.Country = d.Country
	m.CountryCode = d.CountryCode
	m.Phone = d.Phone
	m.Cell = d.Cell
	m.Email = d.Email
	m.Website = d.Website
	m.Chamber = d.Chamber
	m.VATNo = d.VATNo
	m.BankName = d.BankName
	m.AccountName = d.AccountName
	m.AccountNo = d.AccountNo
	m.BIC = d.BIC
	m.State = c.State
	m.OriginalID = c.OriginalID
}

// CompanyInfoModelFromDomain creates a new persistence model from a domain CompanyInfo revision.
func CompanyInfoModelFromDomain(c *billing.CompanyInfo) *CompanyInfoModel {
	m := &CompanyInfoModel{}
	m.FromDomain(c)
	return m
}

// BillingModels lists the models of the billing schema, in dependency order.
func BillingModels() []any {
	return []any{
		&CompanyInfoModel{},
		&CustomerModel{},
		&InvoiceModel{},
		&TaskModel{},
		&TimeEntryModel{},
	}
}
