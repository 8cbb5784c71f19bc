package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	t.Run("uses the default rate", func(t *testing.T) {
		c, err := NewCustomer(CustomerInput{Name: "Acme"}, dec("20"), testNow)
		require.NoError(t, err)
		assert.True(t, c.HourlyRate.Equal(dec("20")))
		assert.Equal(t, "Acme", c.DisplayName())
		assert.Equal(t, testNow, c.CreatedAt)
	})

	t.Run("explicit rate wins", func(t *testing.T) {
		c, err := NewCustomer(CustomerInput{Name: "Acme", ShortName: "ac", HourlyRate: decPtr("75"), TimeSpecification: true}, dec("20"), testNow)
		require.NoError(t, err)
		assert.True(t, c.HourlyRate.Equal(dec("75")))
		assert.True(t, c.TimeSpecification)
		assert.Equal(t, "ac", c.DisplayName())
	})

	t.Run("validates input", func(t *testing.T) {
		_, err := NewCustomer(CustomerInput{Name: "  ", HourlyRate: decPtr("-1")}, dec("20"), testNow)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "name")
		assert.Contains(t, verr.Fields, "hourly_rate")
		assert.True(t, errors.Is(err, shared.NewDomainError(CodeValidation, "")))
	})
}

func TestCustomer_Update(t *testing.T) {
	c := newTestCustomer(t)
	later := testNow.Add(time.Hour)

	err := c.Update(CustomerInput{Name: "Acme Holding", Email: " billing@acme.test "}, later)
	require.NoError(t, err)

	assert.Equal(t, "Acme Holding", c.Name)
	assert.Equal(t, "billing@acme.test", c.Email)
	assert.True(t, c.HourlyRate.Equal(dec("20")), "rate kept when not supplied")
	assert.Equal(t, later, c.UpdatedAt)
}

func TestCustomer_CheckDeletable(t *testing.T) {
	c := newTestCustomer(t)

	assert.NoError(t, c.CheckDeletable(0, 0))

	err := c.CheckDeletable(1, 0)
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "CUSTOMER_HAS_BILLING_HISTORY", de.Code)

	assert.Error(t, c.CheckDeletable(0, 2))
}
