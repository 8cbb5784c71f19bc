package billing

import (
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/infrastructure/config"
)

// BillingSettings supplies the live billing configuration. It is read on every
// call so a configuration reload applies without restarting the services.
type BillingSettings interface {
	Billing() config.BillingConfig
}

func duePolicy(settings BillingSettings) billing.DuePolicy {
	cfg := settings.Billing()
	return billing.NewDuePolicy(cfg.DueDays, cfg.WayDueDays)
}

func numberRetries(settings BillingSettings) int {
	if n := settings.Billing().InvoiceNumberRetries; n > 0 {
		return n
	}
	return 1
}
