package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(t *testing.T, customer *Customer, company *CompanyInfo) *Invoice {
	t.Helper()
	inv, err := NewInvoice("202401", customer, company, testNow)
	require.NoError(t, err)
	return inv
}

func TestNewInvoice(t *testing.T) {
	customer := newTestCustomer(t)
	customer.TimeSpecification = true
	company := newTestCompany(t, "NL001")

	inv := newTestInvoice(t, customer, company)

	assert.Equal(t, "202401", inv.Number)
	assert.Equal(t, customer.ID, inv.CustomerID)
	assert.Equal(t, company.ID, inv.CompanyInfoID)
	assert.True(t, inv.IncludeSpecification)
	assert.False(t, inv.Paid)
	require.Len(t, inv.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeInvoiceCreated, inv.GetDomainEvents()[0].EventType())
}

func TestNewInvoice_Validation(t *testing.T) {
	_, err := NewInvoice("24", nil, nil, testNow)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "number")
	assert.Contains(t, verr.Fields, "customer_id")
	assert.Contains(t, verr.Fields, "company_info_id")
}

func TestInvoice_MarkPaid(t *testing.T) {
	inv := newTestInvoice(t, newTestCustomer(t), newTestCompany(t, ""))
	inv.ClearDomainEvents()
	paidAt := testNow.Add(48 * time.Hour)

	assert.True(t, inv.MarkPaid(paidAt))
	assert.True(t, inv.Paid)
	require.NotNil(t, inv.PaidAt)
	assert.Equal(t, paidAt, *inv.PaidAt)
	require.Len(t, inv.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeInvoicePaid, inv.GetDomainEvents()[0].EventType())
	assert.Equal(t, paidAt, inv.GetDomainEvents()[0].OccurredAt())

	assert.False(t, inv.MarkPaid(paidAt.Add(time.Hour)), "paying twice is a no-op")
	assert.Equal(t, paidAt, *inv.PaidAt)
	assert.Len(t, inv.GetDomainEvents(), 1)
}

func TestInvoice_DueStatus(t *testing.T) {
	inv := newTestInvoice(t, newTestCustomer(t), newTestCompany(t, ""))

	tests := []struct {
		name       string
		age        time.Duration
		pastDue    bool
		wayPastDue bool
	}{
		{"fresh", 24 * time.Hour, false, false},
		{"exactly 30 days", 30 * day, false, false},
		{"just over 30 days", 30*day + time.Second, true, false},
		{"exactly 60 days", 60 * day, true, false},
		{"over 60 days", 61 * day, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := inv.CreatedAt.Add(tt.age)
			assert.Equal(t, tt.pastDue, inv.PastDue(now))
			assert.Equal(t, tt.wayPastDue, inv.WayPastDue(now))
		})
	}

	t.Run("paid invoices are never due", func(t *testing.T) {
		paid := newTestInvoice(t, newTestCustomer(t), newTestCompany(t, ""))
		paid.MarkPaid(testNow)
		now := paid.CreatedAt.Add(90 * day)
		assert.False(t, paid.PastDue(now))
		assert.False(t, paid.WayPastDue(now))
	})
}

func TestNewDuePolicy(t *testing.T) {
	p := NewDuePolicy(14, 0)
	assert.Equal(t, 14*day, p.DueAfter)
	assert.Equal(t, 60*day, p.WayDueAfter)

	inv := newTestInvoice(t, newTestCustomer(t), newTestCompany(t, ""))
	assert.True(t, p.PastDue(inv, inv.CreatedAt.Add(15*day)))
	assert.False(t, inv.PastDue(inv.CreatedAt.Add(15*day)))
}

func TestInvoiceLedger_Totals(t *testing.T) {
	customer := newTestCustomer(t)

	build := func(t *testing.T, vatNo string) *InvoiceLedger {
		company := newTestCompany(t, vatNo)
		inv := newTestInvoice(t, customer, company)

		hourly := newHourlyTask(t, customer.ID, "50", "21")
		hourly.attach(inv.ID, "", testNow)
		fixed := newFixedTask(t, customer.ID, "100", "9")
		fixed.attach(inv.ID, "", testNow)
		foreign := newFixedTask(t, customer.ID, "999", "21")
		foreign.attach(uuid.New(), "", testNow)

		entries := []*TimeEntry{
			newEntry(t, hourly, 1, 9, 2, true),
			newEntry(t, hourly, 2, 9, 3, true),
		}
		return NewInvoiceLedger(inv, company, []*Task{hourly, fixed, foreign}, entries)
	}

	t.Run("with VAT number", func(t *testing.T) {
		l := build(t, "NL123456789B01")

		require.Len(t, l.Tasks, 2, "tasks of other invoices are excluded")
		assert.Equal(t, "350.00", l.Subtotal().StringFixed(2))

		vat := l.VATSummary()
		require.Len(t, vat, 2)
		assert.True(t, vat[0].Rate.Equal(dec("9")))
		assert.Equal(t, "9.00", vat[0].Amount.StringFixed(2))
		assert.True(t, vat[1].Rate.Equal(dec("21")))
		assert.Equal(t, "52.50", vat[1].Amount.StringFixed(2))

		assert.True(t, l.ChargesVAT())
		assert.Equal(t, "61.50", l.VATTotal().StringFixed(2))
		assert.Equal(t, "411.50", l.TotalAmount().StringFixed(2))
	})

	t.Run("without VAT number total equals subtotal", func(t *testing.T) {
		l := build(t, "  ")

		assert.False(t, l.ChargesVAT())
		assert.True(t, l.VATTotal().IsZero())
		assert.True(t, l.TotalAmount().Equals(l.Subtotal()))
		assert.Len(t, l.VATSummary(), 2, "breakdown is still available")
	})
}

func TestInvoiceLedger_SameRateIsMerged(t *testing.T) {
	customer := newTestCustomer(t)
	company := newTestCompany(t, "NL1")
	inv := newTestInvoice(t, customer, company)

	a := newFixedTask(t, customer.ID, "100", "21")
	a.attach(inv.ID, "", testNow)
	b := newFixedTask(t, customer.ID, "200", "21.0")
	b.attach(inv.ID, "", testNow)

	vat := NewInvoiceLedger(inv, company, []*Task{a, b}, nil).VATSummary()

	require.Len(t, vat, 1)
	assert.Equal(t, "63.00", vat[0].Amount.StringFixed(2))
}

func TestInvoiceLedger_Period(t *testing.T) {
	customer := newTestCustomer(t)
	company := newTestCompany(t, "")
	inv := newTestInvoice(t, customer, company)

	t.Run("no tasks uses creation time", func(t *testing.T) {
		p := NewInvoiceLedger(inv, company, nil, nil).Period()
		assert.Equal(t, inv.CreatedAt, p.Start)
		assert.Equal(t, inv.CreatedAt, p.End)
	})

	t.Run("folds task periods", func(t *testing.T) {
		a := newHourlyTask(t, customer.ID, "10", "0")
		a.attach(inv.ID, "", testNow)
		b := newHourlyTask(t, customer.ID, "10", "0")
		b.attach(inv.ID, "", testNow)

		first := newEntry(t, a, 2, 9, 1, true)
		last := newEntry(t, b, 15, 16, 2, true)
		middle := newEntry(t, a, 8, 9, 1, true)

		l := NewInvoiceLedger(inv, company, []*Task{a, b}, []*TimeEntry{first, last, middle})
		p := l.Period()

		assert.Equal(t, first.Start, p.Start)
		assert.Equal(t, last.End, p.End)

		lines := l.Lines()
		require.Len(t, lines, 2)
		assert.Len(t, lines[0].Entries, 2)
		assert.Len(t, lines[1].Entries, 1)
	})
}
