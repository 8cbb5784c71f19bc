package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo billing.CustomerRepository
	txScope      TransactionScope
	settings     BillingSettings
	clock        shared.Clock
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo billing.CustomerRepository,
	txScope TransactionScope,
	settings BillingSettings,
	clock shared.Clock,
	logger *zap.Logger,
) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		customerRepo: customerRepo,
		txScope:      txScope,
		settings:     settings,
		clock:        clock,
		logger:       logger,
	}
}

// Create creates a new customer. Without an hourly rate the configured default applies.
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := billing.NewCustomer(billing.CustomerInput{
		Name:              req.Name,
		ShortName:         req.ShortName,
		AddressStreet:     req.AddressStreet,
		AddressPostalCode: req.AddressPostalCode,
		AddressCity:       req.AddressCity,
		Email:             req.Email,
		Phone:             req.Phone,
		HourlyRate:        req.HourlyRate,
		TimeSpecification: req.TimeSpecification,
	}, s.settings.Billing().HourlyRate(), s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("Customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("name", customer.Name),
	)
	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetByID retrieves a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// List retrieves all customers ordered by name
func (s *CustomerService) List(ctx context.Context, filter shared.Filter) ([]CustomerResponse, error) {
	customers, err := s.customerRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToCustomerResponses(customers), nil
}

// Update replaces the editable fields of a customer
func (s *CustomerService) Update(ctx context.Context, customerID uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if err := customer.Update(billing.CustomerInput{
		Name:              req.Name,
		ShortName:         req.ShortName,
		AddressStreet:     req.AddressStreet,
		AddressPostalCode: req.AddressPostalCode,
		AddressCity:       req.AddressCity,
		Email:             req.Email,
		Phone:             req.Phone,
		HourlyRate:        req.HourlyRate,
		TimeSpecification: req.TimeSpecification,
	}, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// Delete removes a customer together with its unbilled tasks and their entries.
// Customers with invoices or billed tasks cannot be deleted.
func (s *CustomerService) Delete(ctx context.Context, customerID uuid.UUID) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		customer, err := repos.Customers().FindByID(ctx, customerID)
		if err != nil {
			return err
		}

		billed, err := repos.Tasks().CountBilled(ctx, customerID)
		if err != nil {
			return err
		}
		invoices, err := repos.Invoices().CountByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		if err := customer.CheckDeletable(billed, invoices); err != nil {
			return err
		}

		taskIDs, err := repos.Tasks().DeleteUnbilledByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		if err := repos.TimeEntries().DeleteByTaskIDs(ctx, taskIDs); err != nil {
			return err
		}
		if err := repos.Customers().Delete(ctx, customerID); err != nil {
			return err
		}

		s.logger.Info("Customer deleted",
			zap.String("customer_id", customerID.String()),
			zap.Int("tasks_deleted", len(taskIDs)),
		)
		return nil
	})
}
