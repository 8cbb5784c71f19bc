package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stoptime/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.January, 20, 10, 0, 0, 0, time.UTC)

func testClock() shared.Clock {
	return shared.FixedClock{At: testNow}
}

func testSettings() *config.Provider {
	return config.NewStaticProvider(&config.Config{
		Billing: config.BillingConfig{
			DefaultHourlyRate:     20,
			DefaultVATRate:        21,
			TimeResolutionMinutes: 15,
			InvoiceNumberRetries:  3,
			DueDays:               30,
			WayDueDays:            60,
		},
	})
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// ============================================================================
// Mock Repositories
// ============================================================================

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// MockCustomerRepository is a mock implementation of CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.Customer, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*billing.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *billing.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTaskRepository is a mock implementation of TaskRepository
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Task), args.Error(1)
}

func (m *MockTaskRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*billing.Task, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*billing.Task), args.Error(1)
}

func (m *MockTaskRepository) FindAll(ctx context.Context, filter billing.TaskFilter) ([]*billing.Task, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*billing.Task), args.Error(1)
}

func (m *MockTaskRepository) CountBilled(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) Save(ctx context.Context, task *billing.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) DeleteUnbilledByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockTimeEntryRepository is a mock implementation of TimeEntryRepository
type MockTimeEntryRepository struct {
	mock.Mock
}

func (m *MockTimeEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.TimeEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*billing.TimeEntry, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*billing.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryRepository) FindByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) ([]*billing.TimeEntry, error) {
	args := m.Called(ctx, taskIDs)
	return args.Get(0).([]*billing.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryRepository) FindAll(ctx context.Context, filter billing.TimeEntryFilter) ([]*billing.TimeEntry, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*billing.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryRepository) Save(ctx context.Context, entry *billing.TimeEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockTimeEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTimeEntryRepository) DeleteByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) error {
	args := m.Called(ctx, taskIDs)
	return args.Error(0)
}

func (m *MockTimeEntryRepository) Reassign(ctx context.Context, entryIDs []uuid.UUID, fromTaskID, toTaskID uuid.UUID) error {
	args := m.Called(ctx, entryIDs, fromTaskID, toTaskID)
	return args.Error(0)
}

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, number string) (*billing.Invoice, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter billing.InvoiceFilter) ([]*billing.Invoice, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) LatestNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// MockCompanyInfoRepository is a mock implementation of CompanyInfoRepository
type MockCompanyInfoRepository struct {
	mock.Mock
}

func (m *MockCompanyInfoRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.CompanyInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CompanyInfo), args.Error(1)
}

func (m *MockCompanyInfoRepository) FindLatest(ctx context.Context) (*billing.CompanyInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CompanyInfo), args.Error(1)
}

func (m *MockCompanyInfoRepository) FindRevisions(ctx context.Context) ([]*billing.CompanyInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*billing.CompanyInfo), args.Error(1)
}

func (m *MockCompanyInfoRepository) Save(ctx context.Context, info *billing.CompanyInfo) error {
	args := m.Called(ctx, info)
	return args.Error(0)
}

// ============================================================================
// Fixtures
// ============================================================================

type testRepos struct {
	customers *MockCustomerRepository
	tasks     *MockTaskRepository
	entries   *MockTimeEntryRepository
	invoices  *MockInvoiceRepository
	company   *MockCompanyInfoRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		customers: new(MockCustomerRepository),
		tasks:     new(MockTaskRepository),
		entries:   new(MockTimeEntryRepository),
		invoices:  new(MockInvoiceRepository),
		company:   new(MockCompanyInfoRepository),
	}
}

func (r *testRepos) txScope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(r.customers, r.tasks, r.entries, r.invoices, r.company)
}

func (r *testRepos) assertExpectations(t *testing.T) {
	t.Helper()
	r.customers.AssertExpectations(t)
	r.tasks.AssertExpectations(t)
	r.entries.AssertExpectations(t)
	r.invoices.AssertExpectations(t)
	r.company.AssertExpectations(t)
}

func newCustomer(t *testing.T) *billing.Customer {
	t.Helper()
	c, err := billing.NewCustomer(billing.CustomerInput{Name: "Acme B.V.", ShortName: "acme"}, decimal.NewFromInt(50), testNow)
	require.NoError(t, err)
	return c
}

func newHourlyTask(t *testing.T, customerID uuid.UUID, rate string) *billing.Task {
	t.Helper()
	task, err := billing.NewTask(customerID, billing.TaskInput{
		Name:       "Development",
		HourlyRate: decPtr(rate),
		VATRate:    decimal.NewFromInt(21),
	}, testNow)
	require.NoError(t, err)
	return task
}

func newFixedTask(t *testing.T, customerID uuid.UUID, cost string) *billing.Task {
	t.Helper()
	task, err := billing.NewTask(customerID, billing.TaskInput{
		Name:      "Website",
		FixedCost: decPtr(cost),
		VATRate:   decimal.NewFromInt(21),
	}, testNow)
	require.NoError(t, err)
	return task
}

// newEntry records hours of work on a January 2024 day
func newEntry(t *testing.T, taskID uuid.UUID, day, startHour int, hours float64) *billing.TimeEntry {
	t.Helper()
	start := time.Date(2024, time.January, day, startHour, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(hours * float64(time.Hour)))
	e, err := billing.NewTimeEntry(taskID, billing.TimeEntryInput{Start: start, End: end, Bill: true}, time.Minute, testNow)
	require.NoError(t, err)
	return e
}

func newCompany(t *testing.T, vatNo string) *billing.CompanyInfo {
	t.Helper()
	details := billing.DefaultCompanyDetails()
	details.VATNo = vatNo
	c, err := billing.NewCompanyInfo(details, testNow)
	require.NoError(t, err)
	return c
}
