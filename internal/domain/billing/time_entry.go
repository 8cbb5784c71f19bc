package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stoptime/backend/internal/domain/shared"
)

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

// TimeEntry is a single recorded span of work on a task.
// Start and End are stored rounded; the duration is always derived.
type TimeEntry struct {
	shared.BaseEntity
	TaskID  uuid.UUID
	Date    time.Time
	Start   time.Time
	End     time.Time
	Comment string
	// Bill is the operator's intent to bill this entry, independent of the task's billed state
	Bill bool
}

// TimeEntryInput carries the editable fields of a time entry
type TimeEntryInput struct {
	Date    time.Time
	Start   time.Time
	End     time.Time
	Comment string
	Bill    bool
}

// NewTimeEntry records a span on a task, rounding start and end to resolution.
func NewTimeEntry(taskID uuid.UUID, in TimeEntryInput, resolution time.Duration, now time.Time) (*TimeEntry, error) {
	if err := in.validate(taskID); err != nil {
		return nil, err
	}
	e := &TimeEntry{
		BaseEntity: shared.NewBaseEntityAt(now),
		TaskID:     taskID,
	}
	e.apply(in, resolution)
	return e, nil
}

// Update replaces the editable fields, rounding again with resolution.
func (e *TimeEntry) Update(taskID uuid.UUID, in TimeEntryInput, resolution time.Duration, now time.Time) error {
	if err := in.validate(taskID); err != nil {
		return err
	}
	e.TaskID = taskID
	e.apply(in, resolution)
	e.Touch(now)
	return nil
}

// Duration is the length of the span
func (e *TimeEntry) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Hours is the duration in hours
func (e *TimeEntry) Hours() decimal.Decimal {
	return hoursIn(e.Duration())
}

// hoursIn converts d to hours. Amounts must multiply before calling it, see perHour.
func hoursIn(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(nanosPerHour)
}

// perHour prices d at rate, dividing last so that spans like 20 minutes stay exact.
func perHour(rate decimal.Decimal, d time.Duration) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(d))).Div(nanosPerHour)
}

func (e *TimeEntry) apply(in TimeEntryInput, resolution time.Duration) {
	e.Start, e.End = RoundSpan(in.Start, in.End, resolution)
	date := in.Date
	if date.IsZero() {
		date = e.Start
	}
	y, m, d := date.Date()
	e.Date = time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	e.Comment = in.Comment
	e.Bill = in.Bill
}

func (in TimeEntryInput) validate(taskID uuid.UUID) error {
	var v validationCollector
	if taskID == uuid.Nil {
		v.add("task_id", "is required")
	}
	if in.Start.IsZero() {
		v.add("start", "is required")
	}
	if in.End.IsZero() {
		v.add("end", "is required")
	}
	return v.result()
}

// SumDuration adds up the spans of entries
func SumDuration(entries []*TimeEntry) time.Duration {
	var total time.Duration
	for _, e := range entries {
		total += e.Duration()
	}
	return total
}

// SumHours is the total duration of entries in hours
func SumHours(entries []*TimeEntry) decimal.Decimal {
	return hoursIn(SumDuration(entries))
}
