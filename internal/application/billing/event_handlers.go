package billing

import (
	"context"

	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MetricsRecorder records billing activity
type MetricsRecorder interface {
	RecordInvoiceCreated(ctx context.Context)
	RecordInvoicePaid(ctx context.Context)
	RecordTaskSplit(ctx context.Context, entries int, hours float64)
	RecordCompanyRevision(ctx context.Context)
}

// MetricsEventHandler turns billing domain events into metrics
type MetricsEventHandler struct {
	metrics MetricsRecorder
	logger  *zap.Logger
}

// NewMetricsEventHandler creates a new MetricsEventHandler
func NewMetricsEventHandler(metrics MetricsRecorder, logger *zap.Logger) *MetricsEventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsEventHandler{metrics: metrics, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *MetricsEventHandler) EventTypes() []string {
	return []string{
		billing.EventTypeInvoiceCreated,
		billing.EventTypeInvoicePaid,
		billing.EventTypeTaskSplit,
		billing.EventTypeCompanyInfoRevised,
	}
}

// Handle records the metric matching the event
func (h *MetricsEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *billing.InvoiceCreatedEvent:
		h.metrics.RecordInvoiceCreated(ctx)
	case *billing.InvoicePaidEvent:
		h.metrics.RecordInvoicePaid(ctx)
	case *billing.TaskSplitEvent:
		hours, _ := e.MovedHours.Float64()
		h.metrics.RecordTaskSplit(ctx, e.MovedEntries, hours)
	case *billing.CompanyInfoRevisedEvent:
		h.metrics.RecordCompanyRevision(ctx)
	default:
		h.logger.Debug("Ignoring event", zap.String("event_type", event.EventType()))
	}
	return nil
}

// Ensure MetricsEventHandler implements EventHandler
var _ shared.EventHandler = (*MetricsEventHandler)(nil)
