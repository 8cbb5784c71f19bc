// Package billing holds the domain model for time registration and invoicing.
//
// Time is recorded as TimeEntry records against a Task. A Task belongs to a
// Customer and bills either at an hourly rate or at a fixed cost. When work is
// invoiced, hourly tasks are split: the selected entries move to a billed
// clone of the task while the remaining entries stay on the original, which
// stays open for future invoices. Fixed-cost tasks are attached whole.
//
// Totals, VAT breakdown, billing period and due status of an Invoice are
// always derived from its tasks and entries and never stored.
//
// Invoices pin the CompanyInfo revision that was current when they were
// created. Once pinned, a revision is published and immutable; editing the
// company details after that creates a new revision.
package billing
