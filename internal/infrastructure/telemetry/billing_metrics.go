package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when BillingMetrics is created without a meter
var ErrMeterNil = errors.New("meter cannot be nil")

// BillingMetrics counts invoices, payments, split tasks and company revisions.
type BillingMetrics struct {
	invoicesCreated  *Counter
	invoicesPaid     *Counter
	tasksSplit       *Counter
	entriesMoved     *Counter
	hoursInvoiced    *Histogram
	companyRevisions *Counter
	logger           *zap.Logger
}

// NewBillingMetrics creates the billing instruments on meter.
func NewBillingMetrics(meter metric.Meter, logger *zap.Logger) (*BillingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	in := NewInstruments(meter)
	m := &BillingMetrics{
		invoicesCreated:  in.Counter("stoptime_invoice_created_total", "Invoices created", "{invoice}"),
		invoicesPaid:     in.Counter("stoptime_invoice_paid_total", "Invoices marked paid", "{invoice}"),
		tasksSplit:       in.Counter("stoptime_task_split_total", "Tasks cloned onto an invoice", "{task}"),
		entriesMoved:     in.Counter("stoptime_time_entry_billed_total", "Time entries moved onto billed tasks", "{entry}"),
		hoursInvoiced:    in.Histogram("stoptime_task_split_hours", "Hours carried by a billed task copy", "h", HoursBuckets...),
		companyRevisions: in.Counter("stoptime_company_revision_total", "Company profile revisions created", "{revision}"),
		logger:           logger,
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordInvoiceCreated counts a created invoice.
func (m *BillingMetrics) RecordInvoiceCreated(ctx context.Context) {
	m.invoicesCreated.Inc(ctx)
}

// RecordInvoicePaid counts an invoice marked paid.
func (m *BillingMetrics) RecordInvoicePaid(ctx context.Context) {
	m.invoicesPaid.Inc(ctx)
}

// RecordTaskSplit counts a billed task copy with the entries and hours it took.
func (m *BillingMetrics) RecordTaskSplit(ctx context.Context, entries int, hours float64) {
	m.tasksSplit.Inc(ctx)
	m.entriesMoved.Add(ctx, int64(entries))
	m.hoursInvoiced.Record(ctx, hours)
}

// RecordCompanyRevision counts a new company profile revision.
func (m *BillingMetrics) RecordCompanyRevision(ctx context.Context) {
	m.companyRevisions.Inc(ctx)
}
