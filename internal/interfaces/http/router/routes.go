package router

import (
	"github.com/gin-gonic/gin"
	"github.com/stoptime/backend/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers of the billing API
type Handlers struct {
	Customers   *handler.CustomerHandler
	Tasks       *handler.TaskHandler
	TimeEntries *handler.TimeEntryHandler
	Invoices    *handler.InvoiceHandler
	Company     *handler.CompanyHandler
	System      *handler.SystemHandler
}

// Guards are per-route middleware. Nil fields leave their routes unguarded.
type Guards struct {
	Documents     gin.HandlerFunc // routes that render or stream PDFs
	InvoiceCreate gin.HandlerFunc // invoice creation
}

func guarded(guard, final gin.HandlerFunc) []gin.HandlerFunc {
	if guard == nil {
		return []gin.HandlerFunc{final}
	}
	return []gin.HandlerFunc{guard, final}
}

// BillingGroups builds the resources of the billing API
func BillingGroups(h Handlers, guards Guards) []Mounter {
	customers := NewResource("/customers")
	customers.GET("", h.Customers.List).
		POST("", h.Customers.Create).
		GET("/:id", h.Customers.GetByID).
		PUT("/:id", h.Customers.Update).
		DELETE("/:id", h.Customers.Delete).
		GET("/:id/tasks", h.Customers.ListTasks).
		POST("/:id/tasks", h.Customers.CreateTask).
		GET("/:id/invoice-selection", h.Customers.InvoiceSelection)

	tasks := NewResource("/tasks")
	tasks.GET("/:id", h.Tasks.GetByID).
		PUT("/:id", h.Tasks.Update).
		DELETE("/:id", h.Tasks.Delete)

	timeEntries := NewResource("/time-entries")
	timeEntries.GET("", h.TimeEntries.List).
		POST("", h.TimeEntries.Record).
		GET("/:id", h.TimeEntries.GetByID).
		PUT("/:id", h.TimeEntries.Update).
		DELETE("/:id", h.TimeEntries.Delete)

	invoices := NewResource("/invoices")
	invoices.GET("", h.Invoices.List).
		POST("", guarded(guards.InvoiceCreate, h.Invoices.Create)...).
		GET("/:number", h.Invoices.GetByNumber).
		POST("/:number/pay", h.Invoices.MarkPaid).
		GET("/:number/document", guarded(guards.Documents, h.Invoices.DownloadDocument)...).
		POST("/:number/document", guarded(guards.Documents, h.Invoices.GenerateDocument)...)

	company := NewResource("/company")
	company.GET("", h.Company.Get).
		PUT("", h.Company.Edit).
		GET("/history", h.Company.History)

	system := NewResource("/system")
	system.GET("/info", h.System.Info)

	return []Mounter{customers, tasks, timeEntries, invoices, company, system}
}

// RegisterProbes mounts the liveness and readiness probes outside the API prefix
func RegisterProbes(engine *gin.Engine, system *handler.SystemHandler) {
	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)
}
