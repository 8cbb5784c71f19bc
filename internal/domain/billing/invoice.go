package billing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stoptime/backend/internal/domain/shared/valueobject"
)

const day = 24 * time.Hour

// Invoice bills a set of tasks to a customer. Tasks reference the invoice;
// the invoice keeps no list of them. Totals are derived through InvoiceLedger.
type Invoice struct {
	shared.BaseAggregateRoot
	Number               string
	CustomerID           uuid.UUID
	CompanyInfoID        uuid.UUID
	Paid                 bool
	PaidAt               *time.Time
	IncludeSpecification bool
}

// NewInvoice creates an unpaid invoice pinned to company
func NewInvoice(number string, customer *Customer, company *CompanyInfo, now time.Time) (*Invoice, error) {
	var v validationCollector
	if number == "" {
		v.add("number", "is required")
	} else if _, _, err := ParseInvoiceNumber(number); err != nil {
		v.add("number", "must be of the form YYYYSS")
	}
	if customer == nil {
		v.add("customer_id", "is required")
	}
	if company == nil {
		v.add("company_info_id", "is required")
	}
	if err := v.result(); err != nil {
		return nil, err
	}

	inv := &Invoice{
		BaseAggregateRoot:    shared.NewBaseAggregateRootAt(now),
		Number:               number,
		CustomerID:           customer.ID,
		CompanyInfoID:        company.ID,
		IncludeSpecification: customer.TimeSpecification,
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// MarkPaid records payment. It returns false when the invoice was already paid.
func (i *Invoice) MarkPaid(now time.Time) bool {
	if i.Paid {
		return false
	}
	paidAt := now
	i.Paid = true
	i.PaidAt = &paidAt
	i.Touch(now)
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoicePaidEvent(i))
	return true
}

// Age is the time elapsed since the invoice was created
func (i *Invoice) Age(now time.Time) time.Duration {
	return now.Sub(i.CreatedAt)
}

// PastDue reports an unpaid invoice older than 30 days
func (i *Invoice) PastDue(now time.Time) bool {
	return DefaultDuePolicy().PastDue(i, now)
}

// WayPastDue reports an unpaid invoice older than 60 days
func (i *Invoice) WayPastDue(now time.Time) bool {
	return DefaultDuePolicy().WayPastDue(i, now)
}

// DuePolicy holds the ages after which unpaid invoices count as overdue
type DuePolicy struct {
	DueAfter    time.Duration
	WayDueAfter time.Duration
}

// DefaultDuePolicy is 30 days due, 60 days way past due
func DefaultDuePolicy() DuePolicy {
	return DuePolicy{DueAfter: 30 * day, WayDueAfter: 60 * day}
}

// NewDuePolicy builds a policy from day counts, falling back to the defaults
func NewDuePolicy(dueDays, wayDueDays int) DuePolicy {
	p := DefaultDuePolicy()
	if dueDays > 0 {
		p.DueAfter = time.Duration(dueDays) * day
	}
	if wayDueDays > 0 {
		p.WayDueAfter = time.Duration(wayDueDays) * day
	}
	return p
}

// PastDue reports whether inv is unpaid beyond DueAfter
func (p DuePolicy) PastDue(inv *Invoice, now time.Time) bool {
	return !inv.Paid && inv.Age(now) > p.DueAfter
}

// WayPastDue reports whether inv is past due and beyond WayDueAfter
func (p DuePolicy) WayPastDue(inv *Invoice, now time.Time) bool {
	return p.PastDue(inv, now) && inv.Age(now) > p.WayDueAfter
}

// InvoiceLine is a task as it appears on an invoice
type InvoiceLine struct {
	Task    *Task
	Summary TaskSummary
	Period  Period
	Entries []*TimeEntry
}

// VATLine is the total VAT charged at one rate
type VATLine struct {
	Rate   decimal.Decimal
	Amount valueobject.Money
}

// InvoiceLedger derives the figures of an invoice from its tasks and their entries.
type InvoiceLedger struct {
	Invoice *Invoice
	Company *CompanyInfo
	Tasks   []*Task
	entries []*TimeEntry
}

// NewInvoiceLedger collects the tasks attached to inv. Tasks of other invoices are left out.
func NewInvoiceLedger(inv *Invoice, company *CompanyInfo, tasks []*Task, entries []*TimeEntry) *InvoiceLedger {
	own := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if t.InvoiceID != nil && *t.InvoiceID == inv.ID {
			own = append(own, t)
		}
	}
	return &InvoiceLedger{Invoice: inv, Company: company, Tasks: own, entries: entries}
}

// Lines returns one line per task in task order
func (l *InvoiceLedger) Lines() []InvoiceLine {
	lines := make([]InvoiceLine, 0, len(l.Tasks))
	for _, t := range l.Tasks {
		lines = append(lines, InvoiceLine{
			Task:    t,
			Summary: t.Summary(l.entries),
			Period:  t.BillPeriod(l.entries),
			Entries: t.EntriesOf(l.entries),
		})
	}
	return lines
}

// Period folds the bill periods of the tasks; without tasks it is the creation instant.
func (l *InvoiceLedger) Period() Period {
	if len(l.Tasks) == 0 {
		return Period{Start: l.Invoice.CreatedAt, End: l.Invoice.CreatedAt}
	}
	p := l.Tasks[0].BillPeriod(l.entries)
	for _, t := range l.Tasks[1:] {
		tp := t.BillPeriod(l.entries)
		if tp.Start.Before(p.Start) {
			p.Start = tp.Start
		}
		if tp.End.After(p.End) {
			p.End = tp.End
		}
	}
	return p
}

// Subtotal is the sum of task amounts
func (l *InvoiceLedger) Subtotal() valueobject.Money {
	total := valueobject.Zero(valueobject.DefaultCurrency)
	for _, t := range l.Tasks {
		total = total.MustAdd(t.Summary(l.entries).Amount)
	}
	return total
}

// VATSummary groups VAT amounts by rate, ordered by rate
func (l *InvoiceLedger) VATSummary() []VATLine {
	byRate := make(map[string]*VATLine)
	for _, t := range l.Tasks {
		s := t.Summary(l.entries)
		key := s.VATRate.String()
		line, ok := byRate[key]
		if !ok {
			line = &VATLine{Rate: s.VATRate, Amount: valueobject.Zero(valueobject.DefaultCurrency)}
			byRate[key] = line
		}
		line.Amount = line.Amount.MustAdd(s.VATAmount)
	}

	lines := make([]VATLine, 0, len(byRate))
	for _, line := range byRate {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].Rate.LessThan(lines[j].Rate)
	})
	return lines
}

// ChargesVAT reports whether the pinned company revision has a VAT number
func (l *InvoiceLedger) ChargesVAT() bool {
	return l.Company != nil && l.Company.ChargesVAT()
}

// VATTotal is the VAT charged, zero when the company has no VAT number
func (l *InvoiceLedger) VATTotal() valueobject.Money {
	total := valueobject.Zero(valueobject.DefaultCurrency)
	if !l.ChargesVAT() {
		return total
	}
	for _, line := range l.VATSummary() {
		total = total.MustAdd(line.Amount)
	}
	return total
}

// TotalAmount is the subtotal plus charged VAT
func (l *InvoiceLedger) TotalAmount() valueobject.Money {
	return l.Subtotal().MustAdd(l.VATTotal())
}
