package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	customerID := uuid.New()

	t.Run("hourly task", func(t *testing.T) {
		task, err := NewTask(customerID, TaskInput{Name: " Support ", HourlyRate: decPtr("50"), VATRate: dec("21")}, testNow)
		require.NoError(t, err)
		assert.Equal(t, "Support", task.Name)
		assert.Equal(t, BillingModeHourly, task.Mode())
		assert.False(t, task.IsFixedCost())
		assert.False(t, task.IsBilled())
		assert.Nil(t, task.FixedCost)
		assert.True(t, task.HourlyRate.Equal(dec("50")))
	})

	t.Run("fixed-cost task", func(t *testing.T) {
		task, err := NewTask(customerID, TaskInput{Name: "Logo", FixedCost: decPtr("400")}, testNow)
		require.NoError(t, err)
		assert.Equal(t, BillingModeFixedCost, task.Mode())
		assert.Nil(t, task.HourlyRate)
	})

	tests := []struct {
		name   string
		input  TaskInput
		fields []string
	}{
		{"both modes set", TaskInput{Name: "x", FixedCost: decPtr("1"), HourlyRate: decPtr("1")}, []string{"fixed_cost", "hourly_rate"}},
		{"no mode set", TaskInput{Name: "x"}, []string{"fixed_cost", "hourly_rate"}},
		{"missing name", TaskInput{HourlyRate: decPtr("1")}, []string{"name"}},
		{"negative rate", TaskInput{Name: "x", HourlyRate: decPtr("-1")}, []string{"hourly_rate"}},
		{"vat above 100", TaskInput{Name: "x", HourlyRate: decPtr("1"), VATRate: dec("101")}, []string{"vat_rate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTask(customerID, tt.input, testNow)
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}

	t.Run("requires customer", func(t *testing.T) {
		_, err := NewTask(uuid.Nil, TaskInput{Name: "x", HourlyRate: decPtr("1")}, testNow)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "customer_id")
	})
}

func TestTask_Update_SwitchesMode(t *testing.T) {
	task := newHourlyTask(t, uuid.New(), "50", "21")
	later := testNow.Add(time.Hour)

	err := task.Update(TaskInput{Name: "Development", FixedCost: decPtr("1000"), VATRate: dec("21")}, later)
	require.NoError(t, err)

	assert.True(t, task.IsFixedCost())
	assert.Nil(t, task.HourlyRate)
	assert.Equal(t, later, task.UpdatedAt)
	assert.Equal(t, 2, task.GetVersion())
	assert.NoError(t, task.Validate())
}

func TestTask_Update_KeepsStateOnError(t *testing.T) {
	task := newHourlyTask(t, uuid.New(), "50", "21")

	err := task.Update(TaskInput{Name: "Development", FixedCost: decPtr("1"), HourlyRate: decPtr("2")}, testNow)

	require.Error(t, err)
	assert.True(t, task.HourlyRate.Equal(dec("50")))
	assert.Nil(t, task.FixedCost)
}

func TestTask_DisplayName(t *testing.T) {
	task := newHourlyTask(t, uuid.New(), "50", "0")
	assert.Equal(t, "Development", task.DisplayName())

	task.attach(uuid.New(), "Sprint 12", testNow)
	assert.Equal(t, "Sprint 12", task.DisplayName())
}

func TestTask_Attach_DefaultsCommentToName(t *testing.T) {
	task := newHourlyTask(t, uuid.New(), "50", "0")
	invoiceID := uuid.New()

	task.attach(invoiceID, "  ", testNow)

	require.NotNil(t, task.InvoiceID)
	assert.Equal(t, invoiceID, *task.InvoiceID)
	assert.Equal(t, "Development", task.InvoiceComment)
}

func TestTask_Summary(t *testing.T) {
	customerID := uuid.New()

	t.Run("hourly", func(t *testing.T) {
		task := newHourlyTask(t, customerID, "50", "21")
		entries := []*TimeEntry{
			newEntry(t, task, 1, 9, 2, true),
			newEntry(t, task, 2, 9, 3, false),
		}

		s := task.Summary(entries)

		assert.True(t, s.Hours.Equal(dec("5")))
		require.NotNil(t, s.Rate)
		assert.Equal(t, "50.00", s.Rate.StringFixed(2))
		assert.Equal(t, "250.00", s.Amount.StringFixed(2))
		assert.Equal(t, "52.50", s.VATAmount.StringFixed(2))
	})

	t.Run("a third of an hour prices exactly", func(t *testing.T) {
		task := newHourlyTask(t, customerID, "37.50", "21")
		entries := []*TimeEntry{newEntry(t, task, 1, 9, 20.0/60, true)}

		s := task.Summary(entries)

		assert.Equal(t, 20*time.Minute, SumDuration(entries))
		assert.Equal(t, "0.33", s.Hours.StringFixed(2))
		assert.True(t, s.Amount.Amount().Equal(dec("12.5")))
		assert.True(t, s.VATAmount.Amount().Equal(dec("2.625")))
		assert.Equal(t, "2.63", s.VATAmount.StringFixed(2))
	})

	t.Run("minutes add up before pricing", func(t *testing.T) {
		task := newHourlyTask(t, customerID, "50", "0")
		entries := []*TimeEntry{
			newEntry(t, task, 1, 9, 7.0/60, true),
			newEntry(t, task, 1, 11, 7.0/60, true),
			newEntry(t, task, 1, 13, 7.0/60, true),
			newEntry(t, task, 1, 15, 19.0/60, true),
		}

		// 40 minutes at 50 an hour
		assert.Equal(t, "33.33", task.Summary(entries).Amount.StringFixed(2))
	})

	t.Run("fixed cost keeps hours informational", func(t *testing.T) {
		task := newFixedTask(t, customerID, "400", "9")
		entries := []*TimeEntry{newEntry(t, task, 1, 9, 1.5, true)}

		s := task.Summary(entries)

		assert.True(t, s.Hours.Equal(dec("1.5")))
		assert.Nil(t, s.Rate)
		assert.Equal(t, "400.00", s.Amount.StringFixed(2))
		assert.Equal(t, "36.00", s.VATAmount.StringFixed(2))
	})

	t.Run("ignores entries of other tasks", func(t *testing.T) {
		task := newHourlyTask(t, customerID, "10", "0")
		other := newHourlyTask(t, customerID, "10", "0")
		entries := []*TimeEntry{newEntry(t, task, 1, 9, 1, true), newEntry(t, other, 1, 12, 4, true)}

		assert.True(t, task.Summary(entries).Hours.Equal(dec("1")))
	})

	t.Run("no entries", func(t *testing.T) {
		task := newHourlyTask(t, customerID, "10", "21")
		s := task.Summary(nil)
		assert.True(t, s.Hours.IsZero())
		assert.True(t, s.Amount.IsZero())
	})
}

func TestTask_BillableEntriesAndPeriod(t *testing.T) {
	task := newHourlyTask(t, uuid.New(), "50", "0")

	late := newEntry(t, task, 10, 14, 2, true)
	early := newEntry(t, task, 3, 9, 1, true)
	unbilled := newEntry(t, task, 1, 8, 1, false)
	entries := []*TimeEntry{late, unbilled, early}

	billable := task.BillableEntries(entries)
	require.Len(t, billable, 2)
	assert.Equal(t, early.ID, billable[0].ID)
	assert.Equal(t, late.ID, billable[1].ID)

	p := task.BillPeriod(entries)
	assert.Equal(t, early.Start, p.Start)
	assert.Equal(t, late.End, p.End)
}

func TestTask_BillPeriod_FallsBackToUpdatedAt(t *testing.T) {
	task := newHourlyTask(t, uuid.New(), "50", "0")
	entries := []*TimeEntry{newEntry(t, task, 1, 8, 1, false)}

	p := task.BillPeriod(entries)

	assert.Equal(t, task.UpdatedAt, p.Start)
	assert.Equal(t, task.UpdatedAt, p.End)
}
