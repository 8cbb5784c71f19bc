package billing

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stoptime/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrInvoiceNumberContention is returned when every attempt to claim an invoice number lost a race
var ErrInvoiceNumberContention = shared.NewDomainError(shared.ErrConcurrencyConflict.Code,
	"Another invoice claimed the same number, try again")

// InvoiceService builds, lists and settles invoices
type InvoiceService struct {
	customerRepo   billing.CustomerRepository
	taskRepo       billing.TaskRepository
	entryRepo      billing.TimeEntryRepository
	invoiceRepo    billing.InvoiceRepository
	companyRepo    billing.CompanyInfoRepository
	txScope        TransactionScope
	settings       BillingSettings
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// InvoiceServiceConfig holds the dependencies of InvoiceService
type InvoiceServiceConfig struct {
	CustomerRepo   billing.CustomerRepository
	TaskRepo       billing.TaskRepository
	EntryRepo      billing.TimeEntryRepository
	InvoiceRepo    billing.InvoiceRepository
	CompanyRepo    billing.CompanyInfoRepository
	TxScope        TransactionScope
	Settings       BillingSettings
	Clock          shared.Clock
	EventPublisher shared.EventPublisher
	Logger         *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(cfg InvoiceServiceConfig) *InvoiceService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &InvoiceService{
		customerRepo:   cfg.CustomerRepo,
		taskRepo:       cfg.TaskRepo,
		entryRepo:      cfg.EntryRepo,
		invoiceRepo:    cfg.InvoiceRepo,
		companyRepo:    cfg.CompanyRepo,
		txScope:        cfg.TxScope,
		settings:       cfg.Settings,
		clock:          clock,
		eventPublisher: cfg.EventPublisher,
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// invoiceCreation is what a committed invoice transaction produced
type invoiceCreation struct {
	plan     *billing.InvoicePlan
	customer *billing.Customer
	company  *billing.CompanyInfo
	arena    *billing.WorkArena
	events   []shared.DomainEvent
}

// Create invoices the selected work of a customer.
//
// The invoice, the billed task copies, the moved entries, the attached
// fixed-cost tasks and the publication of the company revision are written
// in one transaction. When a concurrent request claims the same number the
// transaction is retried with a fresh number.
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*CreateInvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		"customer_id", req.CustomerID.String(),
		"time_entries", len(req.TimeEntryIDs),
		"fixed_cost_tasks", len(req.FixedCostTaskIDs),
	)

	sel := billing.InvoiceSelection{
		EntryIDs:         req.TimeEntryIDs,
		FixedCostTaskIDs: req.FixedCostTaskIDs,
		Comments:         req.Comments,
	}
	if sel.IsEmpty() {
		return nil, billing.NewValidationError("selection", "select at least one time entry or fixed-cost task")
	}

	attempts := numberRetries(s.settings)
	var created *invoiceCreation
	for attempt := 1; ; attempt++ {
		var err error
		created, err = s.createOnce(ctx, req.CustomerID, sel)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if attempt >= attempts {
			s.logger.Error("Giving up on invoice number after conflicts",
				zap.String("customer_id", req.CustomerID.String()),
				zap.Int("attempts", attempt),
			)
			telemetry.RecordError(span, err)
			return nil, ErrInvoiceNumberContention
		}
		telemetry.AddEvent(span, "number_conflict", "attempt", attempt)
		s.logger.Warn("Invoice number conflict, retrying",
			zap.String("customer_id", req.CustomerID.String()),
			zap.Int("attempt", attempt),
		)
	}

	inv := created.plan.Invoice
	for _, id := range created.plan.Skipped {
		s.logger.Info("Skipped hourly task selected as fixed cost",
			zap.String("invoice", inv.Number),
			zap.String("task_id", id.String()),
		)
	}
	for _, split := range created.plan.Splits {
		s.logger.Info("Task split for invoice",
			zap.String("invoice", inv.Number),
			zap.String("original_task_id", split.OriginalID.String()),
			zap.String("billed_task_id", split.Clone.ID.String()),
			zap.Int("entries", len(split.EntryIDs)),
		)
	}
	s.logger.Info("Invoice created",
		zap.String("number", inv.Number),
		zap.String("customer_id", inv.CustomerID.String()),
		zap.String("company_info_id", inv.CompanyInfoID.String()),
	)
	telemetry.SetAttributes(span, "invoice_number", inv.Number)
	s.publishEvents(ctx, created.events)

	ledger := ledgerFromPlan(created.plan, created.company, created.arena)
	resp := &CreateInvoiceResponse{
		Invoice:        ToInvoiceDetailResponse(ledger, created.customer, duePolicy(s.settings), s.clock.Now()),
		SplitTaskIDs:   make([]uuid.UUID, 0, len(created.plan.Splits)),
		SkippedTaskIDs: created.plan.Skipped,
	}
	for _, split := range created.plan.Splits {
		resp.SplitTaskIDs = append(resp.SplitTaskIDs, split.OriginalID)
	}
	return resp, nil
}

func (s *InvoiceService) createOnce(ctx context.Context, customerID uuid.UUID, sel billing.InvoiceSelection) (*invoiceCreation, error) {
	var created *invoiceCreation

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		now := s.clock.Now()

		customer, err := repos.Customers().FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		company, err := latestCompanyOrDefault(ctx, repos.CompanyInfo(), now)
		if err != nil {
			return err
		}

		last, err := repos.Invoices().LatestNumber(ctx)
		if err != nil {
			return err
		}
		number, err := billing.NextInvoiceNumber(last, now)
		if err != nil {
			return err
		}

		entries, err := repos.TimeEntries().FindByIDs(ctx, sel.EntryIDs)
		if err != nil {
			return err
		}
		tasks, err := repos.Tasks().FindByIDs(ctx, sel.TaskIDs(entries))
		if err != nil {
			return err
		}
		arena := billing.NewWorkArena(tasks, entries)

		plan, err := billing.PlanInvoice(number, customer, company, sel, arena, now)
		if err != nil {
			return err
		}

		if company.Publish(now) {
			if err := repos.CompanyInfo().Save(ctx, company); err != nil {
				return err
			}
		}
		if err := repos.Invoices().Create(ctx, plan.Invoice); err != nil {
			return err
		}
		for _, split := range plan.Splits {
			if err := repos.Tasks().Save(ctx, split.Clone); err != nil {
				return err
			}
			if err := repos.TimeEntries().Reassign(ctx, split.EntryIDs, split.OriginalID, split.Clone.ID); err != nil {
				return err
			}
		}
		for _, task := range plan.Attached {
			if err := repos.Tasks().Save(ctx, task); err != nil {
				return err
			}
		}

		events := plan.Invoice.GetDomainEvents()
		for _, split := range plan.Splits {
			events = append(events, split.Clone.GetDomainEvents()...)
		}
		created = &invoiceCreation{
			plan:     plan,
			customer: customer,
			company:  company,
			arena:    arena,
			events:   events,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ledgerFromPlan derives the ledger of a freshly planned invoice without reloading it
func ledgerFromPlan(plan *billing.InvoicePlan, company *billing.CompanyInfo, arena *billing.WorkArena) *billing.InvoiceLedger {
	view := billing.NewWorkArena(nil, nil)
	for id, t := range arena.Tasks {
		view.Tasks[id] = t
	}
	for id, e := range arena.Entries {
		view.Entries[id] = e
	}
	plan.ApplyTo(view)

	tasks := make([]*billing.Task, 0, len(plan.Splits)+len(plan.Attached))
	for _, id := range plan.BilledTaskIDs() {
		tasks = append(tasks, view.Tasks[id])
	}
	entries := make([]*billing.TimeEntry, 0, len(view.Entries))
	for _, e := range view.Entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Start.Before(entries[j].Start)
	})
	return billing.NewInvoiceLedger(plan.Invoice, company, tasks, entries)
}

// GetByNumber returns the full view of an invoice
func (s *InvoiceService) GetByNumber(ctx context.Context, number string) (*InvoiceDetailResponse, error) {
	ledger, customer, err := s.LoadLedger(ctx, number)
	if err != nil {
		return nil, err
	}
	return ToInvoiceDetailResponse(ledger, customer, duePolicy(s.settings), s.clock.Now()), nil
}

// LoadLedger loads an invoice with its pinned company revision, its tasks
// and their entries, and the customer it is addressed to.
func (s *InvoiceService) LoadLedger(ctx context.Context, number string) (*billing.InvoiceLedger, *billing.Customer, error) {
	inv, err := s.invoiceRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, nil, err
	}
	customer, err := s.customerRepo.FindByID(ctx, inv.CustomerID)
	if err != nil {
		return nil, nil, err
	}
	company, err := s.companyRepo.FindByID(ctx, inv.CompanyInfoID)
	if err != nil {
		return nil, nil, err
	}

	tasks, err := s.taskRepo.FindAll(ctx, billing.TaskFilter{InvoiceID: &inv.ID})
	if err != nil {
		return nil, nil, err
	}
	taskIDs := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		taskIDs[i] = t.ID
	}
	entries, err := s.entryRepo.FindByTaskIDs(ctx, taskIDs)
	if err != nil {
		return nil, nil, err
	}
	return billing.NewInvoiceLedger(inv, company, tasks, entries), customer, nil
}

// List lists invoices, optionally of one customer and created in one calendar month
func (s *InvoiceService) List(ctx context.Context, filter InvoiceListFilter) ([]InvoiceResponse, error) {
	query := billing.InvoiceFilter{
		Filter:     shared.Filter{Page: filter.Page, PageSize: filter.PageSize},
		CustomerID: filter.CustomerID,
	}
	if filter.Period != "" {
		from, to, err := monthBounds(filter.Period, s.clock.Now().Location())
		if err != nil {
			return nil, err
		}
		query.CreatedFrom = &from
		query.CreatedTo = &to
	}

	invoices, err := s.invoiceRepo.FindAll(ctx, query)
	if err != nil {
		return nil, err
	}

	policy := duePolicy(s.settings)
	now := s.clock.Now()
	responses := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		responses[i] = ToInvoiceResponse(inv, policy, now)
	}
	return responses, nil
}

// monthBounds returns the half-open range [first of month, first of next month)
func monthBounds(period string, loc *time.Location) (time.Time, time.Time, error) {
	month, err := time.ParseInLocation("2006-01", period, loc)
	if err != nil {
		return time.Time{}, time.Time{}, billing.NewValidationError("period", "must be formatted YYYY-MM")
	}
	return month, month.AddDate(0, 1, 0), nil
}

// MarkPaid records payment of an invoice. Paying twice changes nothing.
func (s *InvoiceService) MarkPaid(ctx context.Context, number string) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if inv.MarkPaid(now) {
		if err := s.invoiceRepo.Save(ctx, inv); err != nil {
			return nil, err
		}
		s.logger.Info("Invoice paid", zap.String("number", inv.Number))
		s.publishEvents(ctx, inv.GetDomainEvents())
		inv.ClearDomainEvents()
	}

	response := ToInvoiceResponse(inv, duePolicy(s.settings), now)
	return &response, nil
}

// SelectionData lists the unbilled work of a customer that can be put on an invoice:
// hourly tasks with their billable entries and fixed-cost tasks with their hours.
func (s *InvoiceService) SelectionData(ctx context.Context, customerID uuid.UUID) (*InvoiceSelectionResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	unbilled := false
	tasks, err := s.taskRepo.FindAll(ctx, billing.TaskFilter{CustomerID: &customerID, Billed: &unbilled})
	if err != nil {
		return nil, err
	}
	taskIDs := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		taskIDs[i] = t.ID
	}
	entries, err := s.entryRepo.FindByTaskIDs(ctx, taskIDs)
	if err != nil {
		return nil, err
	}

	resp := &InvoiceSelectionResponse{
		Customer:       ToCustomerResponse(customer),
		HourlyTasks:    []SelectionTask{},
		FixedCostTasks: []SelectionTask{},
	}
	for _, task := range tasks {
		if task.IsFixedCost() {
			resp.FixedCostTasks = append(resp.FixedCostTasks, SelectionTask{
				TaskResponse: ToTaskResponse(task),
				Hours:        billing.SumHours(task.EntriesOf(entries)).Round(2),
			})
			continue
		}
		billable := task.BillableEntries(entries)
		if len(billable) == 0 {
			continue
		}
		resp.HourlyTasks = append(resp.HourlyTasks, SelectionTask{
			TaskResponse: ToTaskResponse(task),
			Hours:        billing.SumHours(billable).Round(2),
			Entries:      ToTimeEntryResponses(billable),
		})
	}
	return resp, nil
}

// publishEvents publishes events after the transaction committed
func (s *InvoiceService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Publish events (errors are logged by the event bus, not propagated)
	_ = s.eventPublisher.Publish(ctx, events...)
}

// latestCompanyOrDefault returns the newest company revision, creating the
// default revision when none exists yet.
func latestCompanyOrDefault(ctx context.Context, repo billing.CompanyInfoRepository, now time.Time) (*billing.CompanyInfo, error) {
	company, err := repo.FindLatest(ctx)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	company, err = billing.NewCompanyInfo(billing.DefaultCompanyDetails(), now)
	if err != nil {
		return nil, err
	}
	if err := repo.Save(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}
