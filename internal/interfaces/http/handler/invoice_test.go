package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	billingapp "github.com/stoptime/backend/internal/application/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stoptime/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type trackingReader struct {
	io.Reader
	closed bool
}

func (r *trackingReader) Close() error {
	r.closed = true
	return nil
}

func newInvoiceHandler() (*InvoiceHandler, *MockInvoiceService, *MockDocumentService) {
	invoices := new(MockInvoiceService)
	documents := new(MockDocumentService)
	return NewInvoiceHandler(invoices, documents), invoices, documents
}

func TestInvoiceHandler_Create(t *testing.T) {
	h, invoices, _ := newInvoiceHandler()
	customerID := uuid.New()
	entryID := uuid.New()
	invoices.On("Create", mock.Anything, mock.MatchedBy(func(req billingapp.CreateInvoiceRequest) bool {
		return req.CustomerID == customerID && len(req.TimeEntryIDs) == 1 && req.TimeEntryIDs[0] == entryID
	})).Return(&billingapp.CreateInvoiceResponse{
		Invoice: &billingapp.InvoiceDetailResponse{InvoiceResponse: billingapp.InvoiceResponse{Number: "202403"}},
	}, nil)

	w := perform(http.MethodPost, "/invoices", "/invoices", map[string]any{
		"customer_id":    customerID,
		"time_entry_ids": []uuid.UUID{entryID},
	}, h.Create)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/api/v1/invoices/202403", w.Header().Get("Location"))
	invoices.AssertExpectations(t)
}

func TestInvoiceHandler_Create_MissingCustomer(t *testing.T) {
	h, invoices, _ := newInvoiceHandler()

	w := perform(http.MethodPost, "/invoices", "/invoices", map[string]any{"time_entry_ids": []string{}}, h.Create)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInvoiceHandler_Create_NumberContention(t *testing.T) {
	h, invoices, _ := newInvoiceHandler()
	invoices.On("Create", mock.Anything, mock.Anything).Return(nil, billingapp.ErrInvoiceNumberContention)

	w := perform(http.MethodPost, "/invoices", "/invoices", map[string]any{"customer_id": uuid.New()}, h.Create)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeConcurrencyConflict, decode(t, w).Error.Code)
}

func TestInvoiceHandler_List(t *testing.T) {
	h, invoices, _ := newInvoiceHandler()
	customerID := uuid.New()
	invoices.On("List", mock.Anything, billingapp.InvoiceListFilter{
		CustomerID: &customerID,
		Period:     "2024-03",
		Page:       1,
		PageSize:   20,
	}).Return([]billingapp.InvoiceResponse{{Number: "202402"}, {Number: "202401"}}, nil)

	w := perform(http.MethodGet, "/invoices",
		"/invoices?customer_id="+customerID.String()+"&period=2024-03&page=1&page_size=20", nil, h.List)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Data, 2)
	invoices.AssertExpectations(t)
}

func TestInvoiceHandler_List_InvalidQuery(t *testing.T) {
	tests := map[string]string{
		"bad period":      "/invoices?period=March",
		"bad customer id": "/invoices?customer_id=abc",
	}
	for name, target := range tests {
		t.Run(name, func(t *testing.T) {
			h, invoices, _ := newInvoiceHandler()
			w := perform(http.MethodGet, "/invoices", target, nil, h.List)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			invoices.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
		})
	}
}

func TestInvoiceHandler_GetByNumber(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		h, invoices, _ := newInvoiceHandler()
		invoices.On("GetByNumber", mock.Anything, "202401").Return(&billingapp.InvoiceDetailResponse{
			InvoiceResponse: billingapp.InvoiceResponse{Number: "202401"},
		}, nil)

		w := perform(http.MethodGet, "/invoices/:number", "/invoices/202401", nil, h.GetByNumber)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "202401", decode(t, w).Data.(map[string]any)["number"])
	})

	t.Run("malformed number", func(t *testing.T) {
		for _, number := range []string{"2024", "2024011", "abcdef"} {
			h, invoices, _ := newInvoiceHandler()
			w := perform(http.MethodGet, "/invoices/:number", "/invoices/"+number, nil, h.GetByNumber)
			assert.Equal(t, http.StatusBadRequest, w.Code, number)
			assert.Equal(t, dto.ErrCodeInvalidInvoiceNumber, decode(t, w).Error.Code)
			invoices.AssertNotCalled(t, "GetByNumber", mock.Anything, mock.Anything)
		}
	})

	t.Run("missing", func(t *testing.T) {
		h, invoices, _ := newInvoiceHandler()
		invoices.On("GetByNumber", mock.Anything, "209999").Return(nil, shared.ErrNotFound)

		w := perform(http.MethodGet, "/invoices/:number", "/invoices/209999", nil, h.GetByNumber)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInvoiceHandler_MarkPaid(t *testing.T) {
	h, invoices, _ := newInvoiceHandler()
	invoices.On("MarkPaid", mock.Anything, "202401").Return(&billingapp.InvoiceResponse{Number: "202401", Paid: true}, nil)

	w := perform(http.MethodPost, "/invoices/:number/pay", "/invoices/202401/pay", nil, h.MarkPaid)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w).Data.(map[string]any)["paid"])
	invoices.AssertExpectations(t)
}

func TestInvoiceHandler_GenerateDocument(t *testing.T) {
	t.Run("rendered", func(t *testing.T) {
		h, _, documents := newInvoiceHandler()
		documents.On("Generate", mock.Anything, "202401", true).
			Return(&billingapp.DocumentResponse{Number: "202401", Key: "invoice_202401.pdf", Generated: true, Size: 1024}, nil)

		w := perform(http.MethodPost, "/invoices/:number/document", "/invoices/202401/document?force=true", nil, h.GenerateDocument)
		assert.Equal(t, http.StatusCreated, w.Code)
		documents.AssertExpectations(t)
	})

	t.Run("already present", func(t *testing.T) {
		h, _, documents := newInvoiceHandler()
		documents.On("Generate", mock.Anything, "202401", false).
			Return(&billingapp.DocumentResponse{Number: "202401", Key: "invoice_202401.pdf"}, nil)

		w := perform(http.MethodPost, "/invoices/:number/document", "/invoices/202401/document", nil, h.GenerateDocument)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestInvoiceHandler_DownloadDocument(t *testing.T) {
	h, _, documents := newInvoiceHandler()
	body := &trackingReader{Reader: strings.NewReader("%PDF-1.7")}
	documents.On("Open", mock.Anything, "202401").
		Return(body, &billingapp.DocumentResponse{Number: "202401", Key: "invoice_202401.pdf"}, nil)

	w := perform(http.MethodGet, "/invoices/:number/document", "/invoices/202401/document", nil, h.DownloadDocument)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoice_202401.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.7", w.Body.String())
	assert.True(t, body.closed)
}

func TestInvoiceHandler_DownloadDocument_RenderFails(t *testing.T) {
	h, _, documents := newInvoiceHandler()
	documents.On("Open", mock.Anything, "202401").Return(nil, nil, errors.New("chrome crashed"))

	w := perform(http.MethodGet, "/invoices/:number/document", "/invoices/202401/document", nil, h.DownloadDocument)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeInternal, decode(t, w).Error.Code)
}
