package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCustomerService(repos *testRepos) *CustomerService {
	return NewCustomerService(repos.customers, repos.txScope(), testSettings(), testClock(), nil)
}

func TestCustomerService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("applies configured default rate", func(t *testing.T) {
		repos := newTestRepos()
		repos.customers.On("Save", ctx, mock.AnythingOfType("*billing.Customer")).Return(nil)
		svc := newCustomerService(repos)

		resp, err := svc.Create(ctx, CreateCustomerRequest{Name: "Acme B.V.", ShortName: "acme"})
		require.NoError(t, err)

		assert.Equal(t, "Acme B.V.", resp.Name)
		assert.Equal(t, "acme", resp.DisplayName)
		assert.True(t, decimal.NewFromInt(20).Equal(resp.HourlyRate))
		assert.Equal(t, testNow, resp.CreatedAt)
		repos.assertExpectations(t)
	})

	t.Run("keeps explicit rate", func(t *testing.T) {
		repos := newTestRepos()
		repos.customers.On("Save", ctx, mock.AnythingOfType("*billing.Customer")).Return(nil)
		svc := newCustomerService(repos)

		resp, err := svc.Create(ctx, CreateCustomerRequest{Name: "Acme", HourlyRate: decPtr("85.50")})
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("85.50").Equal(resp.HourlyRate))
	})

	t.Run("rejects missing name", func(t *testing.T) {
		repos := newTestRepos()
		svc := newCustomerService(repos)

		_, err := svc.Create(ctx, CreateCustomerRequest{Name: "  "})
		require.Error(t, err)
		var verr *billing.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "name")
		repos.customers.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestCustomerService_Update(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	customer := newCustomer(t)
	repos.customers.On("FindByID", ctx, customer.ID).Return(customer, nil)
	repos.customers.On("Save", ctx, customer).Return(nil)
	svc := newCustomerService(repos)

	resp, err := svc.Update(ctx, customer.ID, UpdateCustomerRequest{Name: "Acme Holding", TimeSpecification: true})
	require.NoError(t, err)

	assert.Equal(t, "Acme Holding", resp.Name)
	assert.True(t, resp.TimeSpecification)
	// rate is kept when omitted
	assert.True(t, decimal.NewFromInt(50).Equal(resp.HourlyRate))
	repos.assertExpectations(t)
}

func TestCustomerService_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	id := uuid.New()
	repos.customers.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)
	svc := newCustomerService(repos)

	_, err := svc.GetByID(ctx, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCustomerService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes unbilled tasks and their entries", func(t *testing.T) {
		repos := newTestRepos()
		customer := newCustomer(t)
		taskIDs := []uuid.UUID{uuid.New(), uuid.New()}

		repos.customers.On("FindByID", ctx, customer.ID).Return(customer, nil)
		repos.tasks.On("CountBilled", ctx, customer.ID).Return(int64(0), nil)
		repos.invoices.On("CountByCustomer", ctx, customer.ID).Return(int64(0), nil)
		repos.tasks.On("DeleteUnbilledByCustomer", ctx, customer.ID).Return(taskIDs, nil)
		repos.entries.On("DeleteByTaskIDs", ctx, taskIDs).Return(nil)
		repos.customers.On("Delete", ctx, customer.ID).Return(nil)

		require.NoError(t, newCustomerService(repos).Delete(ctx, customer.ID))
		repos.assertExpectations(t)
	})

	t.Run("refuses customer with billing history", func(t *testing.T) {
		repos := newTestRepos()
		customer := newCustomer(t)

		repos.customers.On("FindByID", ctx, customer.ID).Return(customer, nil)
		repos.tasks.On("CountBilled", ctx, customer.ID).Return(int64(1), nil)
		repos.invoices.On("CountByCustomer", ctx, customer.ID).Return(int64(1), nil)

		err := newCustomerService(repos).Delete(ctx, customer.ID)
		require.Error(t, err)
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "CUSTOMER_HAS_BILLING_HISTORY", de.Code)
		repos.customers.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		repos.tasks.AssertNotCalled(t, "DeleteUnbilledByCustomer", mock.Anything, mock.Anything)
	})
}
