package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/stoptime/backend/internal/application/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stoptime/backend/internal/interfaces/http/dto"
	"github.com/stoptime/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockCustomerService implements CustomerService for testing
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Create(ctx context.Context, req billingapp.CreateCustomerRequest) (*billingapp.CustomerResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) GetByID(ctx context.Context, customerID uuid.UUID) (*billingapp.CustomerResponse, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) List(ctx context.Context, filter shared.Filter) ([]billingapp.CustomerResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billingapp.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) Update(ctx context.Context, customerID uuid.UUID, req billingapp.UpdateCustomerRequest) (*billingapp.CustomerResponse, error) {
	args := m.Called(ctx, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) Delete(ctx context.Context, customerID uuid.UUID) error {
	return m.Called(ctx, customerID).Error(0)
}

// MockTaskService implements TaskService for testing
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, customerID uuid.UUID, req billingapp.CreateTaskRequest) (*billingapp.TaskResponse, error) {
	args := m.Called(ctx, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.TaskResponse), args.Error(1)
}

func (m *MockTaskService) GetByID(ctx context.Context, taskID uuid.UUID) (*billingapp.TaskResponse, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.TaskResponse), args.Error(1)
}

func (m *MockTaskService) ListByCustomer(ctx context.Context, customerID uuid.UUID, filter billingapp.TaskListFilter) ([]billingapp.TaskResponse, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billingapp.TaskResponse), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, taskID uuid.UUID, req billingapp.UpdateTaskRequest) (*billingapp.TaskMutationResponse, error) {
	args := m.Called(ctx, taskID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.TaskMutationResponse), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, taskID uuid.UUID, force bool) error {
	return m.Called(ctx, taskID, force).Error(0)
}

// MockTimelineService implements TimelineService for testing
type MockTimelineService struct {
	mock.Mock
}

func (m *MockTimelineService) Record(ctx context.Context, req billingapp.RecordTimeEntryRequest) (*billingapp.TimeEntryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.TimeEntryResponse), args.Error(1)
}

func (m *MockTimelineService) GetByID(ctx context.Context, entryID uuid.UUID) (*billingapp.TimeEntryResponse, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.TimeEntryResponse), args.Error(1)
}

func (m *MockTimelineService) Update(ctx context.Context, entryID uuid.UUID, req billingapp.RecordTimeEntryRequest) (*billingapp.TimeEntryMutationResponse, error) {
	args := m.Called(ctx, entryID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.TimeEntryMutationResponse), args.Error(1)
}

func (m *MockTimelineService) Delete(ctx context.Context, entryID uuid.UUID) (*billingapp.TimeEntryMutationResponse, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.TimeEntryMutationResponse), args.Error(1)
}

func (m *MockTimelineService) List(ctx context.Context, filter billingapp.TimelineFilter) ([]billingapp.TimeEntryResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billingapp.TimeEntryResponse), args.Error(1)
}

// MockInvoiceService implements InvoiceService for testing
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Create(ctx context.Context, req billingapp.CreateInvoiceRequest) (*billingapp.CreateInvoiceResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.CreateInvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) GetByNumber(ctx context.Context, number string) (*billingapp.InvoiceDetailResponse, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.InvoiceDetailResponse), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context, filter billingapp.InvoiceListFilter) ([]billingapp.InvoiceResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billingapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) MarkPaid(ctx context.Context, number string) (*billingapp.InvoiceResponse, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) SelectionData(ctx context.Context, customerID uuid.UUID) (*billingapp.InvoiceSelectionResponse, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.InvoiceSelectionResponse), args.Error(1)
}

// MockDocumentService implements DocumentService for testing
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Generate(ctx context.Context, number string, force bool) (*billingapp.DocumentResponse, error) {
	args := m.Called(ctx, number, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.DocumentResponse), args.Error(1)
}

func (m *MockDocumentService) Open(ctx context.Context, number string) (io.ReadCloser, *billingapp.DocumentResponse, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*billingapp.DocumentResponse), args.Error(2)
}

// MockCompanyService implements CompanyService for testing
type MockCompanyService struct {
	mock.Mock
}

func (m *MockCompanyService) GetLatest(ctx context.Context) (*billingapp.CompanyInfoResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.CompanyInfoResponse), args.Error(1)
}

func (m *MockCompanyService) Edit(ctx context.Context, req billingapp.UpdateCompanyInfoRequest) (*billingapp.CompanyEditResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.CompanyEditResponse), args.Error(1)
}

func (m *MockCompanyService) History(ctx context.Context) ([]billingapp.CompanyInfoResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billingapp.CompanyInfoResponse), args.Error(1)
}

// perform sends a request through a router with a single route registered
func perform(method, pattern, target string, body any, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, pattern, handler)

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
