package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WorkArena holds task and entry records addressed by id. Entries point at
// their task through TaskID.
type WorkArena struct {
	Tasks   map[uuid.UUID]*Task
	Entries map[uuid.UUID]*TimeEntry
}

// NewWorkArena indexes tasks and entries by id
func NewWorkArena(tasks []*Task, entries []*TimeEntry) *WorkArena {
	a := &WorkArena{
		Tasks:   make(map[uuid.UUID]*Task, len(tasks)),
		Entries: make(map[uuid.UUID]*TimeEntry, len(entries)),
	}
	for _, t := range tasks {
		a.Tasks[t.ID] = t
	}
	for _, e := range entries {
		a.Entries[e.ID] = e
	}
	return a
}

// EntriesOfTask returns the arena entries that point at taskID
func (a *WorkArena) EntriesOfTask(taskID uuid.UUID) []*TimeEntry {
	var out []*TimeEntry
	for _, e := range a.Entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

// InvoiceSelection is the work an operator picked for an invoice
type InvoiceSelection struct {
	// EntryIDs are time entries of hourly tasks
	EntryIDs []uuid.UUID
	// FixedCostTaskIDs are fixed-cost tasks billed whole
	FixedCostTaskIDs []uuid.UUID
	// Comments are invoice comments keyed by selected task id; the task name is used when absent
	Comments map[uuid.UUID]string
}

// IsEmpty reports whether nothing was selected
func (s InvoiceSelection) IsEmpty() bool {
	return len(s.EntryIDs) == 0 && len(s.FixedCostTaskIDs) == 0
}

// TaskIDs returns the ids of tasks the selection needs loaded: the fixed-cost ids plus the owners of entries
func (s InvoiceSelection) TaskIDs(entries []*TimeEntry) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0, len(s.FixedCostTaskIDs)+len(entries))
	for _, id := range s.FixedCostTaskIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, e := range entries {
		if !seen[e.TaskID] {
			seen[e.TaskID] = true
			ids = append(ids, e.TaskID)
		}
	}
	return ids
}

// TaskSplit moves the selected entries of an hourly task onto a billed clone.
// Clone.InvoiceID is set; the original task keeps every other entry.
type TaskSplit struct {
	OriginalID uuid.UUID
	Clone      *Task
	EntryIDs   []uuid.UUID
	Hours      decimal.Decimal
}

// InvoicePlan is everything that has to be written, atomically, to create an invoice.
type InvoicePlan struct {
	Invoice *Invoice
	Splits  []TaskSplit
	// Attached are fixed-cost tasks bound to the invoice without cloning
	Attached []*Task
	// Skipped are ids from the fixed-cost selection that are not fixed-cost tasks
	Skipped []uuid.UUID
}

// BilledTaskIDs lists the ids of every task the invoice will own
func (p *InvoicePlan) BilledTaskIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Splits)+len(p.Attached))
	for _, s := range p.Splits {
		ids = append(ids, s.Clone.ID)
	}
	for _, t := range p.Attached {
		ids = append(ids, t.ID)
	}
	return ids
}

// PlanInvoice builds the invoice for customer from the selection without
// touching the arena. Entries of hourly tasks move onto billed clones of
// their tasks; fixed-cost tasks are attached as they are.
//
// Every referenced id must exist in the arena, belong to customer and be
// unbilled, otherwise a ReferenceError lists all offending ids and nothing
// is planned.
func PlanInvoice(number string, customer *Customer, company *CompanyInfo, sel InvoiceSelection, arena *WorkArena, now time.Time) (*InvoicePlan, error) {
	if sel.IsEmpty() {
		return nil, NewValidationError("selection", "select at least one time entry or fixed-cost task")
	}
	inv, err := NewInvoice(number, customer, company, now)
	if err != nil {
		return nil, err
	}

	refErr := NewReferenceError()
	groups, order := groupEntries(sel.EntryIDs, customer.ID, arena, refErr)
	fixed := checkFixedCostTasks(sel.FixedCostTaskIDs, customer.ID, arena, refErr)
	if refErr.HasErrors() {
		return nil, refErr
	}

	plan := &InvoicePlan{Invoice: inv}

	for _, taskID := range order {
		original := arena.Tasks[taskID]
		entryIDs := groups[taskID]

		clone := original.billedCopy(now)
		clone.attach(inv.ID, sel.Comments[taskID], now)

		var worked time.Duration
		for _, id := range entryIDs {
			worked += arena.Entries[id].Duration()
		}
		split := TaskSplit{OriginalID: original.ID, Clone: clone, EntryIDs: entryIDs, Hours: hoursIn(worked)}
		clone.AddDomainEvent(NewTaskSplitEvent(split, inv.ID))
		plan.Splits = append(plan.Splits, split)
	}

	for _, task := range fixed {
		if !task.IsFixedCost() {
			plan.Skipped = append(plan.Skipped, task.ID)
			continue
		}
		attached := *task
		attached.ClearDomainEvents()
		attached.attach(inv.ID, sel.Comments[task.ID], now)
		attached.IncrementVersion()
		plan.Attached = append(plan.Attached, &attached)
	}

	if len(plan.Splits) == 0 && len(plan.Attached) == 0 {
		return nil, NewValidationError("selection", "nothing billable was selected")
	}
	return plan, nil
}

// ApplyTo carries the plan out on the arena: clones are added, entries are
// re-pointed and attached tasks replaced. Used to preview an invoice and in tests.
func (p *InvoicePlan) ApplyTo(arena *WorkArena) {
	for _, s := range p.Splits {
		arena.Tasks[s.Clone.ID] = s.Clone
		for _, id := range s.EntryIDs {
			moved := *arena.Entries[id]
			moved.TaskID = s.Clone.ID
			arena.Entries[id] = &moved
		}
	}
	for _, t := range p.Attached {
		arena.Tasks[t.ID] = t
	}
}

// groupEntries validates entry ids and groups them by owning task in first-seen order.
func groupEntries(ids []uuid.UUID, customerID uuid.UUID, arena *WorkArena, refErr *ReferenceError) (map[uuid.UUID][]uuid.UUID, []uuid.UUID) {
	groups := make(map[uuid.UUID][]uuid.UUID)
	var order []uuid.UUID
	seen := make(map[uuid.UUID]bool, len(ids))

	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		entry, ok := arena.Entries[id]
		if !ok {
			refErr.Add(ReferenceTimeEntry, id, ReasonNotFound)
			continue
		}
		task, ok := arena.Tasks[entry.TaskID]
		switch {
		case !ok:
			refErr.Add(ReferenceTimeEntry, id, ReasonNotFound)
			continue
		case task.CustomerID != customerID:
			refErr.Add(ReferenceTimeEntry, id, ReasonOtherCustomer)
			continue
		case task.IsBilled():
			refErr.Add(ReferenceTimeEntry, id, ReasonAlreadyBilled)
			continue
		case task.IsFixedCost():
			refErr.Add(ReferenceTimeEntry, id, ReasonFixedCostEntry)
			continue
		}

		if _, exists := groups[task.ID]; !exists {
			order = append(order, task.ID)
		}
		groups[task.ID] = append(groups[task.ID], id)
	}
	return groups, order
}

// checkFixedCostTasks validates the fixed-cost selection; mode is checked later.
func checkFixedCostTasks(ids []uuid.UUID, customerID uuid.UUID, arena *WorkArena, refErr *ReferenceError) []*Task {
	var tasks []*Task
	seen := make(map[uuid.UUID]bool, len(ids))

	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		task, ok := arena.Tasks[id]
		switch {
		case !ok:
			refErr.Add(ReferenceTask, id, ReasonNotFound)
		case task.CustomerID != customerID:
			refErr.Add(ReferenceTask, id, ReasonOtherCustomer)
		case task.IsBilled():
			refErr.Add(ReferenceTask, id, ReasonAlreadyBilled)
		default:
			tasks = append(tasks, task)
		}
	}
	return tasks
}
