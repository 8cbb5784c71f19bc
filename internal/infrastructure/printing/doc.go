// Package printing renders invoices to PDF and stores the results.
//
// This package contains:
// - TemplateEngine, rendering an InvoiceDocument to HTML with locale-aware number formatting
// - PDFRenderer interface and ChromedpRenderer, printing HTML through headless Chrome
// - InvoicePrinter, combining the two behind a single RenderInvoice call
// - FileSystemStorage, keeping rendered documents on local disk
//
// Example usage:
//
//	engine, err := NewTemplateEngine(WithLocale("nl"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	renderer := NewChromedpRenderer(&ChromedpConfig{NoSandbox: true})
//	defer renderer.Close()
//
//	printer := NewInvoicePrinter(engine, renderer)
//	pdf, err := printer.RenderInvoice(ctx, doc)
package printing
