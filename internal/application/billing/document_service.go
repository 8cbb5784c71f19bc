package billing

import (
	"context"
	"fmt"
	"io"

	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/infrastructure/printing"
	"go.uber.org/zap"
)

// PDFContentType is the content type of rendered invoice documents
const PDFContentType = "application/pdf"

// InvoiceRenderer renders an invoice document to PDF
type InvoiceRenderer interface {
	RenderInvoice(ctx context.Context, doc *printing.InvoiceDocument) ([]byte, error)
}

// DocumentStore keeps rendered documents by key
type DocumentStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// LedgerLoader loads an invoice with everything needed to print it
type LedgerLoader interface {
	LoadLedger(ctx context.Context, number string) (*billing.InvoiceLedger, *billing.Customer, error)
}

// DocumentService renders invoices to PDF and stores them.
// Generation is idempotent: an existing document is kept unless forced.
type DocumentService struct {
	ledgers  LedgerLoader
	renderer InvoiceRenderer
	store    DocumentStore
	logger   *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(ledgers LedgerLoader, renderer InvoiceRenderer, store DocumentStore, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		ledgers:  ledgers,
		renderer: renderer,
		store:    store,
		logger:   logger,
	}
}

// DocumentKey returns the storage key of an invoice's PDF
func DocumentKey(number string) string {
	return fmt.Sprintf("invoice_%s.pdf", number)
}

// Generate renders the invoice unless its document already exists or force is set
func (s *DocumentService) Generate(ctx context.Context, number string, force bool) (*DocumentResponse, error) {
	key := DocumentKey(number)

	if !force {
		exists, err := s.store.Exists(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to check document %s: %w", key, err)
		}
		if exists {
			s.logger.Debug("Invoice document exists, skipping render", zap.String("key", key))
			return &DocumentResponse{Number: number, Key: key}, nil
		}
	}

	ledger, customer, err := s.ledgers.LoadLedger(ctx, number)
	if err != nil {
		return nil, err
	}

	pdf, err := s.renderer.RenderInvoice(ctx, NewInvoiceDocument(ledger, customer))
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice %s: %w", number, err)
	}
	if err := s.store.Put(ctx, key, pdf, PDFContentType); err != nil {
		return nil, fmt.Errorf("failed to store document %s: %w", key, err)
	}

	s.logger.Info("Invoice document generated",
		zap.String("number", number),
		zap.String("key", key),
		zap.Int("bytes", len(pdf)),
		zap.Bool("forced", force),
	)
	return &DocumentResponse{Number: number, Key: key, Generated: true, Size: len(pdf)}, nil
}

// Open returns the invoice's PDF, generating it first when missing.
// The caller closes the reader.
func (s *DocumentService) Open(ctx context.Context, number string) (io.ReadCloser, *DocumentResponse, error) {
	doc, err := s.Generate(ctx, number, false)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, doc.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open document %s: %w", doc.Key, err)
	}
	return rc, doc, nil
}

// NewInvoiceDocument flattens a ledger into the view the invoice template prints
func NewInvoiceDocument(ledger *billing.InvoiceLedger, customer *billing.Customer) *printing.InvoiceDocument {
	inv := ledger.Invoice
	period := ledger.Period()

	doc := &printing.InvoiceDocument{
		Number:               inv.Number,
		Date:                 inv.CreatedAt,
		PeriodStart:          period.Start,
		PeriodEnd:            period.End,
		IncludeSpecification: inv.IncludeSpecification,
		Customer: printing.CustomerBlock{
			Name:              customer.Name,
			AddressStreet:     customer.AddressStreet,
			AddressPostalCode: customer.AddressPostalCode,
			AddressCity:       customer.AddressCity,
			Email:             customer.Email,
			Phone:             customer.Phone,
		},
		Subtotal:   ledger.Subtotal().Round(2).Amount(),
		ChargesVAT: ledger.ChargesVAT(),
		Total:      ledger.TotalAmount().Round(2).Amount(),
		Currency:   string(ledger.Subtotal().Currency()),
	}

	if c := ledger.Company; c != nil {
		doc.Company = printing.CompanyBlock{
			Name:              c.Name,
			ContactName:       c.ContactName,
			AddressStreet:     c.AddressStreet,
			AddressPostalCode: c.AddressPostalCode,
			AddressCity:       c.AddressCity,
			Country:           c.Country,
			Phone:             c.Phone,
			Cell:              c.Cell,
			Email:             c.Email,
			Website:           c.Website,
			Chamber:           c.Chamber,
			VATNo:             c.VATNo,
			BankName:          c.BankName,
			AccountName:       c.AccountName,
			AccountNo:         c.AccountNo,
			BIC:               c.BIC,
		}
	}

	for _, line := range ledger.Lines() {
		l := printing.DocumentLine{
			Description: line.Task.DisplayName(),
			Hours:       line.Summary.Hours.Round(2),
			Amount:      line.Summary.Amount.Round(2).Amount(),
			VATRate:     line.Summary.VATRate,
		}
		if line.Summary.Rate != nil {
			rate := line.Summary.Rate.Round(2).Amount()
			l.Rate = &rate
		}
		if inv.IncludeSpecification {
			for _, e := range line.Entries {
				l.Entries = append(l.Entries, printing.DocumentEntry{
					Date:    e.Date,
					Start:   e.Start,
					End:     e.End,
					Hours:   e.Hours().Round(2),
					Comment: e.Comment,
				})
			}
		}
		doc.Lines = append(doc.Lines, l)
	}

	if doc.ChargesVAT {
		for _, v := range ledger.VATSummary() {
			doc.VAT = append(doc.VAT, printing.DocumentVAT{Rate: v.Rate, Amount: v.Amount.Round(2).Amount()})
		}
	}
	return doc
}
