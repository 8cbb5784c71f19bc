package billing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stoptime/backend/internal/domain/shared/valueobject"
)

// Period is a closed time range
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TaskSummary is the billing line of a task
type TaskSummary struct {
	Hours decimal.Decimal
	// Rate is nil for fixed-cost tasks
	Rate      *valueobject.Money
	Amount    valueobject.Money
	VATRate   decimal.Decimal
	VATAmount valueobject.Money
}

// EntriesOf returns the entries that belong to the task
func (t *Task) EntriesOf(entries []*TimeEntry) []*TimeEntry {
	own := make([]*TimeEntry, 0, len(entries))
	for _, e := range entries {
		if e.TaskID == t.ID {
			own = append(own, e)
		}
	}
	return own
}

// Summary computes hours, rate, amount and VAT from the task's entries.
// Entries of other tasks are ignored.
func (t *Task) Summary(entries []*TimeEntry) TaskSummary {
	worked := SumDuration(t.EntriesOf(entries))

	s := TaskSummary{Hours: hoursIn(worked), VATRate: t.VATRate}
	switch t.Mode() {
	case BillingModeFixedCost:
		s.Amount = valueobject.NewMoneyEUR(*t.FixedCost)
	default:
		rate := valueobject.NewMoneyEUR(*t.HourlyRate)
		s.Rate = &rate
		s.Amount = valueobject.NewMoneyEUR(perHour(*t.HourlyRate, worked))
	}
	s.VATAmount = s.Amount.CalculatePercentage(t.VATRate)
	return s
}

// BillableEntries returns the task's entries marked for billing, ordered by start
func (t *Task) BillableEntries(entries []*TimeEntry) []*TimeEntry {
	billable := make([]*TimeEntry, 0, len(entries))
	for _, e := range t.EntriesOf(entries) {
		if e.Bill {
			billable = append(billable, e)
		}
	}
	sort.SliceStable(billable, func(i, j int) bool {
		return billable[i].Start.Before(billable[j].Start)
	})
	return billable
}

// BillPeriod spans the earliest billable start to the latest billable end.
// Without billable entries it collapses to the task's last update.
func (t *Task) BillPeriod(entries []*TimeEntry) Period {
	billable := t.BillableEntries(entries)
	if len(billable) == 0 {
		return Period{Start: t.UpdatedAt, End: t.UpdatedAt}
	}
	p := Period{Start: billable[0].Start, End: billable[0].End}
	for _, e := range billable[1:] {
		if e.End.After(p.End) {
			p.End = e.End
		}
	}
	return p
}
