package billing

import (
	"fmt"
	"strconv"
	"time"

	"github.com/stoptime/backend/internal/domain/shared"
)

// InvoiceNumber layout: four-digit year followed by a sequence of at least two digits.
const (
	invoiceYearDigits = 4
	invoiceMinLength  = invoiceYearDigits + 2
)

// ParseInvoiceNumber splits a number into its year and sequence
func ParseInvoiceNumber(number string) (year, sequence int, err error) {
	if len(number) < invoiceMinLength {
		return 0, 0, invalidNumber(number)
	}
	year, err = strconv.Atoi(number[:invoiceYearDigits])
	if err != nil {
		return 0, 0, invalidNumber(number)
	}
	sequence, err = strconv.Atoi(number[invoiceYearDigits:])
	if err != nil || sequence < 1 {
		return 0, 0, invalidNumber(number)
	}
	return year, sequence, nil
}

// FormatInvoiceNumber renders a year and sequence, e.g. 2024 and 3 as "202403"
func FormatInvoiceNumber(year, sequence int) string {
	return fmt.Sprintf("%04d%02d", year, sequence)
}

// NextInvoiceNumber derives the number following last. An empty last, or a
// last number from an earlier year, starts the sequence for now's year at 1.
func NextInvoiceNumber(last string, now time.Time) (string, error) {
	year := now.Year()
	if last == "" {
		return FormatInvoiceNumber(year, 1), nil
	}
	lastYear, sequence, err := ParseInvoiceNumber(last)
	if err != nil {
		return "", err
	}
	if lastYear != year {
		return FormatInvoiceNumber(year, 1), nil
	}
	return FormatInvoiceNumber(year, sequence+1), nil
}

func invalidNumber(number string) error {
	return shared.NewDomainError(CodeInvalidNumber, fmt.Sprintf("Invoice number %q is not of the form YYYYSS", number))
}
