package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.May, 20, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func newTestCustomer(t *testing.T) *Customer {
	t.Helper()
	c, err := NewCustomer(CustomerInput{Name: "Acme B.V.", ShortName: "acme"}, dec("20"), testNow)
	require.NoError(t, err)
	return c
}

func newHourlyTask(t *testing.T, customerID uuid.UUID, rate, vat string) *Task {
	t.Helper()
	task, err := NewTask(customerID, TaskInput{Name: "Development", HourlyRate: decPtr(rate), VATRate: dec(vat)}, testNow)
	require.NoError(t, err)
	return task
}

func newFixedTask(t *testing.T, customerID uuid.UUID, cost, vat string) *Task {
	t.Helper()
	task, err := NewTask(customerID, TaskInput{Name: "Website", FixedCost: decPtr(cost), VATRate: dec(vat)}, testNow)
	require.NoError(t, err)
	return task
}

// newEntry records hours of work on task starting at the given hour of day.
func newEntry(t *testing.T, task *Task, day, startHour int, hours float64, bill bool) *TimeEntry {
	t.Helper()
	start := time.Date(2024, time.May, day, startHour, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(hours * float64(time.Hour)))
	e, err := NewTimeEntry(task.ID, TimeEntryInput{Start: start, End: end, Bill: bill}, time.Minute, testNow)
	require.NoError(t, err)
	return e
}

func newTestCompany(t *testing.T, vatNo string) *CompanyInfo {
	t.Helper()
	details := DefaultCompanyDetails()
	details.VATNo = vatNo
	c, err := NewCompanyInfo(details, testNow)
	require.NoError(t, err)
	return c
}
