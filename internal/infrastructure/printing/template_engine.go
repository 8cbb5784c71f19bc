package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"maps"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templateFS embed.FS

const invoiceTemplateName = "invoice.html"

// TemplateEngine renders invoice documents to HTML.
// Numbers are formatted for the configured locale.
type TemplateEngine struct {
	lang    language.Tag
	printer *message.Printer
	funcMap template.FuncMap
	tmpl    *template.Template
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithLocale sets the locale numbers are formatted in. Unknown tags fall back to English.
func WithLocale(tag string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		if parsed, err := language.Parse(tag); err == nil {
			e.lang = parsed
		}
	}
}

// WithFuncs adds template functions
func WithFuncs(funcs template.FuncMap) TemplateEngineOption {
	return func(e *TemplateEngine) {
		maps.Copy(e.funcMap, funcs)
	}
}

// NewTemplateEngine parses the embedded invoice template
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	e := &TemplateEngine{lang: language.English}

	e.funcMap = template.FuncMap{
		"formatMoney":  e.formatMoney,
		"formatHours":  e.formatHours,
		"formatRate":   e.formatRate,
		"formatDate":   formatDate,
		"formatClock":  formatClock,
		"formatPeriod": formatPeriod,
		"title":        e.titleCase,
		"nonEmpty":     nonEmpty,
	}

	for _, opt := range opts {
		opt(e)
	}
	e.printer = message.NewPrinter(e.lang)

	tmpl, err := template.New(invoiceTemplateName).Funcs(e.funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse invoice template", err)
	}
	e.tmpl = tmpl
	return e, nil
}

// RenderInvoice renders the invoice document to a complete HTML page
func (e *TemplateEngine) RenderInvoice(doc *InvoiceDocument) (string, error) {
	if doc == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "invoice document is nil", nil)
	}

	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, invoiceTemplateName, doc); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute invoice template", err)
	}
	return buf.String(), nil
}

// formatMoney formats an amount with two decimals and its currency code
// Example (en): 1234.5, "EUR" -> "EUR 1,234.50"
func (e *TemplateEngine) formatMoney(d decimal.Decimal, currency string) string {
	amount := e.formatFixed(d, 2)
	if currency == "" {
		return amount
	}
	return currency + " " + amount
}

// formatHours formats hours with two decimals
func (e *TemplateEngine) formatHours(d decimal.Decimal) string {
	return e.formatFixed(d, 2)
}

// formatRate formats an hourly rate, empty for fixed-cost lines
func (e *TemplateEngine) formatRate(rate *decimal.Decimal, currency string) string {
	if rate == nil {
		return ""
	}
	return e.formatMoney(*rate, currency)
}

func (e *TemplateEngine) formatFixed(d decimal.Decimal, places int32) string {
	f, _ := d.Round(places).Float64()
	return e.printer.Sprint(number.Decimal(f, number.Scale(int(places))))
}

// titleCase converts string to title case for the engine's locale
func (e *TemplateEngine) titleCase(s string) string {
	return cases.Title(e.lang).String(s)
}

// formatDate formats a time value as date string
// Example: 2024-01-15
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// formatClock formats the time of day
// Example: 14:30
func formatClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04")
}

// formatPeriod formats a billing period; a single day prints once
func formatPeriod(start, end time.Time) string {
	if start.IsZero() {
		return ""
	}
	if end.IsZero() || sameDay(start, end) {
		return formatDate(start)
	}
	return fmt.Sprintf("%s - %s", formatDate(start), formatDate(end))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// nonEmpty joins the non-blank values with sep
func nonEmpty(sep string, vals ...string) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}
