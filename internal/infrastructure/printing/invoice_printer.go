package printing

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// InvoicePrinter renders invoice documents to PDF: the template engine
// produces HTML and the PDF renderer prints it.
type InvoicePrinter struct {
	engine    *TemplateEngine
	renderer  PDFRenderer
	paperSize PaperSize
	margins   Margins
	timeout   time.Duration
	logger    *zap.Logger
}

// InvoicePrinterOption configures the invoice printer
type InvoicePrinterOption func(*InvoicePrinter)

// WithPaperSize sets the paper size invoices print on
func WithPaperSize(size PaperSize) InvoicePrinterOption {
	return func(p *InvoicePrinter) {
		p.paperSize = size
	}
}

// WithRenderTimeout bounds a single render
func WithRenderTimeout(timeout time.Duration) InvoicePrinterOption {
	return func(p *InvoicePrinter) {
		p.timeout = timeout
	}
}

// WithPrinterLogger sets the logger
func WithPrinterLogger(logger *zap.Logger) InvoicePrinterOption {
	return func(p *InvoicePrinter) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewInvoicePrinter creates a new InvoicePrinter
func NewInvoicePrinter(engine *TemplateEngine, renderer PDFRenderer, opts ...InvoicePrinterOption) *InvoicePrinter {
	p := &InvoicePrinter{
		engine:    engine,
		renderer:  renderer,
		paperSize: PaperSizeA4,
		margins:   DefaultMargins(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RenderInvoice renders the invoice document to PDF bytes
func (p *InvoicePrinter) RenderInvoice(ctx context.Context, doc *InvoiceDocument) ([]byte, error) {
	html, err := p.engine.RenderInvoice(doc)
	if err != nil {
		return nil, err
	}

	result, err := p.renderer.Render(ctx, &RenderRequest{
		HTML:        html,
		PaperSize:   p.paperSize,
		Orientation: OrientationPortrait,
		Margins:     p.margins,
		Title:       "Invoice " + doc.Number,
		FooterHTML:  pageNumberFooter,
		Timeout:     p.timeout,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Invoice printed",
		zap.String("number", doc.Number),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration),
	)
	return result.PDFData, nil
}

const pageNumberFooter = `<div style="font-size:8pt; width:100%; text-align:center; color:#777;">` +
	`<span class="pageNumber"></span> / <span class="totalPages"></span></div>`
