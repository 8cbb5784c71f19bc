package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBilledTaskDelete is returned when deleting a billed task without force
var ErrBilledTaskDelete = shared.NewDomainError("TASK_BILLED", "Task belongs to an invoice; pass force to delete it anyway")

// TaskService handles task-related business operations
type TaskService struct {
	customerRepo billing.CustomerRepository
	taskRepo     billing.TaskRepository
	txScope      TransactionScope
	settings     BillingSettings
	clock        shared.Clock
	logger       *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	customerRepo billing.CustomerRepository,
	taskRepo billing.TaskRepository,
	txScope TransactionScope,
	settings BillingSettings,
	clock shared.Clock,
	logger *zap.Logger,
) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{
		customerRepo: customerRepo,
		taskRepo:     taskRepo,
		txScope:      txScope,
		settings:     settings,
		clock:        clock,
		logger:       logger,
	}
}

// Create creates an unbilled task for a customer. Without fixed cost or
// hourly rate the task bills hourly at the customer's rate; without VAT rate
// the configured default applies.
func (s *TaskService) Create(ctx context.Context, customerID uuid.UUID, req CreateTaskRequest) (*TaskResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	in := billing.TaskInput{
		Name:       req.Name,
		FixedCost:  req.FixedCost,
		HourlyRate: req.HourlyRate,
		VATRate:    s.settings.Billing().VATRate(),
	}
	if in.FixedCost == nil && in.HourlyRate == nil {
		rate := customer.HourlyRate
		in.HourlyRate = &rate
	}
	if req.VATRate != nil {
		in.VATRate = *req.VATRate
	}

	task, err := billing.NewTask(customer.ID, in, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}

	response := ToTaskResponse(task)
	return &response, nil
}

// GetByID retrieves a task by ID
func (s *TaskService) GetByID(ctx context.Context, taskID uuid.UUID) (*TaskResponse, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	response := ToTaskResponse(task)
	return &response, nil
}

// ListByCustomer lists the tasks of a customer, optionally only billed or unbilled ones
func (s *TaskService) ListByCustomer(ctx context.Context, customerID uuid.UUID, filter TaskListFilter) ([]TaskResponse, error) {
	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.FindAll(ctx, billing.TaskFilter{CustomerID: &customerID, Billed: filter.Billed})
	if err != nil {
		return nil, err
	}
	return ToTaskResponses(tasks), nil
}

// Update edits a task. Setting exactly one of fixed cost and hourly rate
// switches the billing mode. Billed tasks may still be edited; the change is
// logged and flagged in the response.
func (s *TaskService) Update(ctx context.Context, taskID uuid.UUID, req UpdateTaskRequest) (*TaskMutationResponse, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	in := billing.TaskInput{
		Name:       req.Name,
		FixedCost:  req.FixedCost,
		HourlyRate: req.HourlyRate,
		VATRate:    task.VATRate,
	}
	if in.FixedCost == nil && in.HourlyRate == nil {
		in.FixedCost = task.FixedCost
		in.HourlyRate = task.HourlyRate
	}
	if req.VATRate != nil {
		in.VATRate = *req.VATRate
	}

	if err := task.Update(in, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}

	billed := task.IsBilled()
	if billed {
		s.logger.Warn("Billed task edited",
			zap.String("task_id", task.ID.String()),
			zap.String("invoice_id", task.InvoiceID.String()),
		)
	}
	return &TaskMutationResponse{TaskResponse: ToTaskResponse(task), BilledWarning: billed}, nil
}

// Delete removes a task and its time entries. Billed tasks are only deleted
// when force is set, and that is logged as a warning.
func (s *TaskService) Delete(ctx context.Context, taskID uuid.UUID, force bool) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		task, err := repos.Tasks().FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task.IsBilled() {
			if !force {
				return ErrBilledTaskDelete
			}
			s.logger.Warn("Billed task deleted",
				zap.String("task_id", task.ID.String()),
				zap.String("invoice_id", task.InvoiceID.String()),
			)
		}

		if err := repos.TimeEntries().DeleteByTaskIDs(ctx, []uuid.UUID{task.ID}); err != nil {
			return err
		}
		return repos.Tasks().Delete(ctx, task.ID)
	})
}
