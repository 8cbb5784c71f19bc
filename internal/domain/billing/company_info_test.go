package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestNewCompanyInfo(t *testing.T) {
	c, err := NewCompanyInfo(DefaultCompanyDetails(), testNow)
	require.NoError(t, err)

	assert.Equal(t, "My Company", c.Name)
	assert.Equal(t, "Me", c.ContactName)
	assert.Equal(t, "The Netherlands", c.Country)
	assert.Equal(t, "NL", c.CountryCode)
	assert.Equal(t, RevisionDraft, c.State)
	assert.Nil(t, c.OriginalID)
	assert.False(t, c.ChargesVAT())

	_, err = NewCompanyInfo(CompanyDetails{CountryCode: "NLD"}, testNow)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "country_code")
}

func TestCompanyInfo_Publish(t *testing.T) {
	c := newTestCompany(t, "")

	assert.True(t, c.Publish(testNow))
	assert.True(t, c.IsPublished())
	assert.False(t, c.Publish(testNow), "publishing twice reports no change")
}

func TestEdit_PublishedLatestCreatesRevision(t *testing.T) {
	r1 := newTestCompany(t, "NL1")
	r1.AddressStreet = "Old Street 1"
	r1.Publish(testNow)
	later := testNow.Add(time.Hour)

	out, err := Edit(r1, CompanyInfoChanges{AddressStreet: strPtr("New Street 2")}, true, later)
	require.NoError(t, err)

	assert.True(t, out.Created)
	r2 := out.Revision
	assert.NotEqual(t, r1.ID, r2.ID)
	require.NotNil(t, r2.OriginalID)
	assert.Equal(t, r1.ID, *r2.OriginalID)
	assert.Equal(t, "New Street 2", r2.AddressStreet)
	assert.Equal(t, "NL1", r2.VATNo, "untouched fields are copied")
	assert.Equal(t, RevisionDraft, r2.State)
	assert.Equal(t, later, r2.CreatedAt)

	assert.Equal(t, "Old Street 1", r1.AddressStreet, "published revision is not mutated")
	require.Len(t, r2.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeCompanyInfoRevised, r2.GetDomainEvents()[0].EventType())
}

func TestEdit_DraftIsChangedInPlace(t *testing.T) {
	r1 := newTestCompany(t, "")
	later := testNow.Add(time.Hour)

	out, err := Edit(r1, CompanyInfoChanges{VATNo: strPtr(" NL99 ")}, true, later)
	require.NoError(t, err)

	assert.False(t, out.Created)
	assert.Equal(t, r1.ID, out.Revision.ID)
	assert.Equal(t, "NL99", out.Revision.VATNo)
	assert.Equal(t, later, out.Revision.UpdatedAt)
	assert.Equal(t, 2, out.Revision.GetVersion())
	assert.Equal(t, "", r1.VATNo, "Edit does not touch its argument")
}

func TestEdit_OlderPublishedRevisionIsImmutable(t *testing.T) {
	r1 := newTestCompany(t, "")
	r1.Publish(testNow)

	_, err := Edit(r1, CompanyInfoChanges{Name: strPtr("Renamed")}, false, testNow)

	assert.True(t, errors.Is(err, ErrImmutableRevision))
}

func TestEdit_ValidatesResult(t *testing.T) {
	r1 := newTestCompany(t, "")

	_, err := Edit(r1, CompanyInfoChanges{Name: strPtr("  ")}, true, testNow)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "name")
}
