package billing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stoptime/backend/internal/infrastructure/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLedgerLoader struct {
	mock.Mock
}

func (m *MockLedgerLoader) LoadLedger(ctx context.Context, number string) (*billing.InvoiceLedger, *billing.Customer, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*billing.InvoiceLedger), args.Get(1).(*billing.Customer), args.Error(2)
}

type MockInvoiceRenderer struct {
	mock.Mock
}

func (m *MockInvoiceRenderer) RenderInvoice(ctx context.Context, doc *printing.InvoiceDocument) ([]byte, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// memoryStore is an in-memory DocumentStore
type memoryStore struct {
	docs map[string][]byte
	puts int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: make(map[string][]byte)}
}

func (s *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.docs[key]
	return ok, nil
}

func (s *memoryStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.docs[key] = data
	s.puts++
	return nil
}

func (s *memoryStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.docs[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// printableLedger is invoice 202401: five hours at 50 with 21% VAT
func printableLedger(t *testing.T) (*billing.InvoiceLedger, *billing.Customer) {
	t.Helper()
	f := newInvoiceFixture(t)
	f.customer.TimeSpecification = true
	inv, err := billing.NewInvoice("202401", f.customer, f.company, testNow)
	require.NoError(t, err)
	f.task.InvoiceID = &inv.ID
	f.task.InvoiceComment = "Development January"
	return billing.NewInvoiceLedger(inv, f.company, []*billing.Task{f.task}, f.entries), f.customer
}

func TestDocumentKey(t *testing.T) {
	assert.Equal(t, "invoice_202401.pdf", DocumentKey("202401"))
}

func TestDocumentService_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("renders and stores a missing document", func(t *testing.T) {
		ledger, customer := printableLedger(t)
		loader := new(MockLedgerLoader)
		renderer := new(MockInvoiceRenderer)
		store := newMemoryStore()
		loader.On("LoadLedger", ctx, "202401").Return(ledger, customer, nil)
		renderer.On("RenderInvoice", ctx, mock.AnythingOfType("*printing.InvoiceDocument")).Return([]byte("%PDF"), nil)

		resp, err := NewDocumentService(loader, renderer, store, nil).Generate(ctx, "202401", false)
		require.NoError(t, err)

		assert.True(t, resp.Generated)
		assert.Equal(t, "invoice_202401.pdf", resp.Key)
		assert.Equal(t, 4, resp.Size)
		assert.Equal(t, []byte("%PDF"), store.docs["invoice_202401.pdf"])
		loader.AssertExpectations(t)
		renderer.AssertExpectations(t)
	})

	t.Run("keeps an existing document", func(t *testing.T) {
		loader := new(MockLedgerLoader)
		renderer := new(MockInvoiceRenderer)
		store := newMemoryStore()
		store.docs["invoice_202401.pdf"] = []byte("old")

		resp, err := NewDocumentService(loader, renderer, store, nil).Generate(ctx, "202401", false)
		require.NoError(t, err)

		assert.False(t, resp.Generated)
		assert.Equal(t, []byte("old"), store.docs["invoice_202401.pdf"])
		loader.AssertNotCalled(t, "LoadLedger", mock.Anything, mock.Anything)
		renderer.AssertNotCalled(t, "RenderInvoice", mock.Anything, mock.Anything)
	})

	t.Run("force renders again", func(t *testing.T) {
		ledger, customer := printableLedger(t)
		loader := new(MockLedgerLoader)
		renderer := new(MockInvoiceRenderer)
		store := newMemoryStore()
		store.docs["invoice_202401.pdf"] = []byte("old")
		loader.On("LoadLedger", ctx, "202401").Return(ledger, customer, nil)
		renderer.On("RenderInvoice", ctx, mock.AnythingOfType("*printing.InvoiceDocument")).Return([]byte("new"), nil)

		resp, err := NewDocumentService(loader, renderer, store, nil).Generate(ctx, "202401", true)
		require.NoError(t, err)
		assert.True(t, resp.Generated)
		assert.Equal(t, []byte("new"), store.docs["invoice_202401.pdf"])
	})

	t.Run("unknown invoice", func(t *testing.T) {
		loader := new(MockLedgerLoader)
		loader.On("LoadLedger", ctx, "209999").Return(nil, nil, shared.ErrNotFound)
		store := newMemoryStore()

		_, err := NewDocumentService(loader, new(MockInvoiceRenderer), store, nil).Generate(ctx, "209999", false)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Zero(t, store.puts)
	})

	t.Run("render failure stores nothing", func(t *testing.T) {
		ledger, customer := printableLedger(t)
		loader := new(MockLedgerLoader)
		renderer := new(MockInvoiceRenderer)
		store := newMemoryStore()
		loader.On("LoadLedger", ctx, "202401").Return(ledger, customer, nil)
		renderer.On("RenderInvoice", ctx, mock.Anything).Return(nil, errors.New("chrome crashed"))

		_, err := NewDocumentService(loader, renderer, store, nil).Generate(ctx, "202401", false)
		require.Error(t, err)
		assert.Zero(t, store.puts)
	})
}

func TestDocumentService_Open(t *testing.T) {
	ctx := context.Background()
	ledger, customer := printableLedger(t)
	loader := new(MockLedgerLoader)
	renderer := new(MockInvoiceRenderer)
	loader.On("LoadLedger", ctx, "202401").Return(ledger, customer, nil).Once()
	renderer.On("RenderInvoice", ctx, mock.Anything).Return([]byte("%PDF"), nil).Once()
	svc := NewDocumentService(loader, renderer, newMemoryStore(), nil)

	for i := 0; i < 2; i++ {
		rc, doc, err := svc.Open(ctx, "202401")
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, []byte("%PDF"), data)
		assert.Equal(t, "invoice_202401.pdf", doc.Key)
	}
	// rendered only once
	loader.AssertExpectations(t)
	renderer.AssertExpectations(t)
}

func TestNewInvoiceDocument(t *testing.T) {
	ledger, customer := printableLedger(t)

	doc := NewInvoiceDocument(ledger, customer)

	assert.Equal(t, "202401", doc.Number)
	assert.Equal(t, "Acme B.V.", doc.Customer.Name)
	assert.Equal(t, "My Company", doc.Company.Name)
	assert.True(t, doc.IncludeSpecification)
	assert.True(t, doc.ChargesVAT)
	assert.Equal(t, "EUR", doc.Currency)
	assert.True(t, decimal.RequireFromString("250").Equal(doc.Subtotal))
	assert.True(t, decimal.RequireFromString("302.50").Equal(doc.Total))

	require.Len(t, doc.Lines, 1)
	line := doc.Lines[0]
	assert.Equal(t, "Development January", line.Description)
	require.NotNil(t, line.Rate)
	assert.True(t, decimal.NewFromInt(50).Equal(*line.Rate))
	assert.Len(t, line.Entries, 2)

	require.Len(t, doc.VAT, 1)
	assert.True(t, decimal.RequireFromString("52.50").Equal(doc.VAT[0].Amount))
}
