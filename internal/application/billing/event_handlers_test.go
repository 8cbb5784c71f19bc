package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMetricsRecorder struct {
	mock.Mock
}

func (m *MockMetricsRecorder) RecordInvoiceCreated(ctx context.Context) { m.Called(ctx) }
func (m *MockMetricsRecorder) RecordInvoicePaid(ctx context.Context)    { m.Called(ctx) }
func (m *MockMetricsRecorder) RecordCompanyRevision(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockMetricsRecorder) RecordTaskSplit(ctx context.Context, entries int, hours float64) {
	m.Called(ctx, entries, hours)
}

func TestMetricsEventHandler_EventTypes(t *testing.T) {
	h := NewMetricsEventHandler(new(MockMetricsRecorder), nil)
	assert.ElementsMatch(t, []string{
		billing.EventTypeInvoiceCreated,
		billing.EventTypeInvoicePaid,
		billing.EventTypeTaskSplit,
		billing.EventTypeCompanyInfoRevised,
	}, h.EventTypes())
}

func TestMetricsEventHandler_Handle(t *testing.T) {
	ctx := context.Background()
	metrics := new(MockMetricsRecorder)
	h := NewMetricsEventHandler(metrics, nil)

	inv, err := billing.NewInvoice("202401", newCustomer(t), newCompany(t, ""), testNow)
	require.NoError(t, err)
	inv.MarkPaid(testNow)
	clone := newHourlyTask(t, uuid.New(), "50")
	split := billing.NewTaskSplitEvent(billing.TaskSplit{
		OriginalID: uuid.New(),
		Clone:      clone,
		EntryIDs:   []uuid.UUID{uuid.New(), uuid.New()},
		Hours:      decimal.RequireFromString("3.5"),
	}, inv.ID)

	metrics.On("RecordInvoiceCreated", ctx).Once()
	metrics.On("RecordInvoicePaid", ctx).Once()
	metrics.On("RecordTaskSplit", ctx, 2, 3.5).Once()

	for _, event := range inv.GetDomainEvents() {
		require.NoError(t, h.Handle(ctx, event))
	}
	require.NoError(t, h.Handle(ctx, split))

	metrics.AssertExpectations(t)
}

type otherEvent struct {
	shared.BaseDomainEvent
}

func TestMetricsEventHandler_IgnoresUnknownEvents(t *testing.T) {
	metrics := new(MockMetricsRecorder)
	h := NewMetricsEventHandler(metrics, nil)

	event := &otherEvent{BaseDomainEvent: shared.NewBaseDomainEvent("Other", "Other", uuid.New(), time.Now())}
	require.NoError(t, h.Handle(context.Background(), event))
	metrics.AssertNotCalled(t, "RecordInvoiceCreated", mock.Anything)
}
