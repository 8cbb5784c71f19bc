package billing

import (
	"context"
	"testing"

	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCompanyService(repos *testRepos, publisher shared.EventPublisher) *CompanyService {
	svc := NewCompanyService(repos.company, repos.txScope(), testClock(), nil)
	if publisher != nil {
		svc.SetEventPublisher(publisher)
	}
	return svc
}

func strPtr(s string) *string { return &s }

func TestCompanyService_GetLatest_CreatesDefaults(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	repos.company.On("FindLatest", ctx).Return(nil, shared.ErrNotFound)
	repos.company.On("Save", ctx, mock.AnythingOfType("*billing.CompanyInfo")).Return(nil)

	resp, err := newCompanyService(repos, nil).GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "My Company", resp.Name)
	assert.Equal(t, "NL", resp.CountryCode)
	assert.Equal(t, billing.RevisionDraft, resp.State)
	repos.assertExpectations(t)
}

func TestCompanyService_Edit(t *testing.T) {
	ctx := context.Background()

	t.Run("draft is changed in place", func(t *testing.T) {
		repos := newTestRepos()
		publisher := NewMockEventPublisher()
		draft := newCompany(t, "")
		repos.company.On("FindLatest", ctx).Return(draft, nil)
		repos.company.On("Save", ctx, mock.AnythingOfType("*billing.CompanyInfo")).Return(nil)

		resp, err := newCompanyService(repos, publisher).Edit(ctx, UpdateCompanyInfoRequest{VATNo: strPtr("NL001234567B01")})
		require.NoError(t, err)

		assert.False(t, resp.Created)
		assert.Equal(t, draft.ID, resp.Revision.ID)
		assert.Equal(t, "NL001234567B01", resp.Revision.VATNo)
		assert.Nil(t, resp.Revision.OriginalID)
		assert.Empty(t, publisher.GetEventsByType(billing.EventTypeCompanyInfoRevised))
	})

	t.Run("published latest is superseded", func(t *testing.T) {
		repos := newTestRepos()
		publisher := NewMockEventPublisher()
		published := newCompany(t, "NL001234567B01")
		published.Publish(testNow)
		repos.company.On("FindLatest", ctx).Return(published, nil)
		repos.company.On("Save", ctx, mock.AnythingOfType("*billing.CompanyInfo")).Return(nil)

		resp, err := newCompanyService(repos, publisher).Edit(ctx, UpdateCompanyInfoRequest{Name: strPtr("Stoptime B.V.")})
		require.NoError(t, err)

		assert.True(t, resp.Created)
		assert.NotEqual(t, published.ID, resp.Revision.ID)
		require.NotNil(t, resp.Revision.OriginalID)
		assert.Equal(t, published.ID, *resp.Revision.OriginalID)
		assert.Equal(t, "Stoptime B.V.", resp.Revision.Name)
		assert.Equal(t, "NL001234567B01", resp.Revision.VATNo)
		assert.Equal(t, billing.RevisionDraft, resp.Revision.State)
		// the published revision is untouched
		assert.Equal(t, "My Company", published.Name)
		assert.Len(t, publisher.GetEventsByType(billing.EventTypeCompanyInfoRevised), 1)
	})

	t.Run("older published revision is immutable", func(t *testing.T) {
		repos := newTestRepos()
		old := newCompany(t, "")
		old.Publish(testNow)
		latest := newCompany(t, "")
		repos.company.On("FindLatest", ctx).Return(latest, nil)
		repos.company.On("FindByID", ctx, old.ID).Return(old, nil)

		_, err := newCompanyService(repos, nil).Edit(ctx, UpdateCompanyInfoRequest{ID: &old.ID, Name: strPtr("Renamed")})
		assert.ErrorIs(t, err, billing.ErrImmutableRevision)
		repos.company.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("revision published meanwhile is a conflict", func(t *testing.T) {
		repos := newTestRepos()
		publisher := NewMockEventPublisher()
		repos.company.On("FindLatest", ctx).Return(newCompany(t, ""), nil)
		repos.company.On("Save", ctx, mock.AnythingOfType("*billing.CompanyInfo")).Return(shared.ErrConcurrencyConflict)

		_, err := newCompanyService(repos, publisher).Edit(ctx, UpdateCompanyInfoRequest{AddressStreet: strPtr("New Street 1")})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Empty(t, publisher.GetEventsByType(billing.EventTypeCompanyInfoRevised))
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		repos := newTestRepos()
		repos.company.On("FindLatest", ctx).Return(newCompany(t, ""), nil)

		_, err := newCompanyService(repos, nil).Edit(ctx, UpdateCompanyInfoRequest{Name: strPtr(" ")})
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, billing.CodeValidation, de.Code)
	})
}

func TestCompanyService_History(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	revisions := []*billing.CompanyInfo{newCompany(t, "NL2"), newCompany(t, "NL1")}
	repos.company.On("FindRevisions", ctx).Return(revisions, nil)

	resp, err := newCompanyService(repos, nil).History(ctx)
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, "NL2", resp[0].VATNo)
}
