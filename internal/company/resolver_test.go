package company

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jobtrack/internal/dedup"
	"github.com/sells-group/jobtrack/internal/model"
)

func TestResolveOrCreate_ExistingDomainLearnsContact(t *testing.T) {
	ctx := context.Background()
	st := &mockStore{}
	st.On("ListCompanies", ctx, "u1").Return([]model.Company{{ID: "co-acme", Name: "Acme", Domain: "acme.com"}}, nil)
	st.On("ListContacts", ctx, "u1").Return([]model.Contact{}, nil)
	st.On("InsertContact", ctx, mock.MatchedBy(func(c *model.Contact) bool {
		return c.Email == "jane.doe@acme.com" && c.CompanyID == "co-acme" && c.Primary && c.Name == "Jane Doe"
	})).Return(true, nil).Once()

	r, err := NewResolver(ctx, st, "u1", NewDomainPolicy("me.dev"))
	require.NoError(t, err)

	res, ok, err := r.ResolveOrCreate(ctx, Signals{Emails: []string{"jane.doe@acme.com", "pal@gmail.com"}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "co-acme", res.CompanyID)
	assert.Equal(t, MatchDomain, res.Method)
	assert.False(t, res.CompanyCreated)
	assert.Equal(t, 1, res.NewContacts)

	// A second resolution does not recreate the contact.
	res, ok, err = r.ResolveOrCreate(ctx, Signals{Emails: []string{"jane.doe@acme.com"}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, res.NewContacts)
	st.AssertExpectations(t)
}

func TestResolveOrCreate_LazyCompany(t *testing.T) {
	ctx := context.Background()
	st := &mockStore{}
	st.On("ListCompanies", ctx, "u1").Return([]model.Company{}, nil)
	st.On("ListContacts", ctx, "u1").Return([]model.Contact{}, nil)

	wantID := dedup.InternalID(dedup.NamespaceCompany, "u1", "initech.com")
	st.On("InsertCompany", ctx, mock.MatchedBy(func(c *model.Company) bool {
		return c.ID == wantID && c.Name == "Initech" && c.Domain == "initech.com" && c.UserID == "u1"
	})).Return(true, nil).Once()
	st.On("InsertContact", ctx, mock.AnythingOfType("*model.Contact")).Return(true, nil).Once()

	r, err := NewResolver(ctx, st, "u1", NewDomainPolicy("me.dev"))
	require.NoError(t, err)

	res, ok, err := r.ResolveOrCreate(ctx, Signals{Emails: []string{"bill@initech.com"}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, wantID, res.CompanyID)
	assert.Equal(t, MatchCreated, res.Method)
	assert.True(t, res.CompanyCreated)
	assert.Equal(t, 1, res.NewContacts)

	// The directory now knows the domain.
	m, ok := r.Directory().Resolve(Signals{Emails: []string{"peter@initech.com"}})
	require.True(t, ok)
	assert.Equal(t, wantID, m.CompanyID)
	st.AssertExpectations(t)
}

func TestResolveOrCreate_LazyReusesMatchingName(t *testing.T) {
	ctx := context.Background()
	st := &mockStore{}
	st.On("ListCompanies", ctx, "u1").Return([]model.Company{{ID: "co-init", Name: "Initech Software Solutions"}}, nil)
	st.On("ListContacts", ctx, "u1").Return([]model.Contact{}, nil)
	st.On("InsertContact", ctx, mock.AnythingOfType("*model.Contact")).Return(true, nil)

	r, err := NewResolver(ctx, st, "u1", NewDomainPolicy(""))
	require.NoError(t, err)

	// initech.com does not contain the full company name, but the derived
	// name "Initech" matches it.
	res, ok, err := r.ResolveOrCreate(ctx, Signals{Emails: []string{"x@initech.com"}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "co-init", res.CompanyID)
	assert.Equal(t, MatchName, res.Method)
	st.AssertNotCalled(t, "InsertCompany", mock.Anything, mock.Anything)
}

func TestResolveOrCreate_GenericOnlyIsMiss(t *testing.T) {
	ctx := context.Background()
	st := &mockStore{}
	st.On("ListCompanies", ctx, "u1").Return([]model.Company{}, nil)
	st.On("ListContacts", ctx, "u1").Return([]model.Contact{}, nil)

	r, err := NewResolver(ctx, st, "u1", NewDomainPolicy("me.dev"))
	require.NoError(t, err)

	_, ok, err := r.ResolveOrCreate(ctx, Signals{Emails: []string{"pal@gmail.com", "boss@me.dev"}, Text: "Dinner"})
	require.NoError(t, err)
	assert.False(t, ok)
	st.AssertNotCalled(t, "InsertCompany", mock.Anything, mock.Anything)
}

func TestResolveOrCreate_CreateError(t *testing.T) {
	ctx := context.Background()
	st := &mockStore{}
	st.On("ListCompanies", ctx, "u1").Return([]model.Company{}, nil)
	st.On("ListContacts", ctx, "u1").Return([]model.Contact{}, nil)
	st.On("InsertCompany", ctx, mock.Anything).Return(false, errors.New("db down"))

	r, err := NewResolver(ctx, st, "u1", NewDomainPolicy(""))
	require.NoError(t, err)

	_, _, err = r.ResolveOrCreate(ctx, Signals{Emails: []string{"bill@initech.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "company: create Initech")
}

func TestResolveOrCreate_ContactFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	st := &mockStore{}
	st.On("ListCompanies", ctx, "u1").Return([]model.Company{{ID: "co-acme", Name: "Acme", Domain: "acme.com"}}, nil)
	st.On("ListContacts", ctx, "u1").Return([]model.Contact{}, nil)
	st.On("InsertContact", ctx, mock.Anything).Return(false, errors.New("constraint"))

	r, err := NewResolver(ctx, st, "u1", NewDomainPolicy(""))
	require.NoError(t, err)

	res, ok, err := r.ResolveOrCreate(ctx, Signals{Emails: []string{"jane@acme.com"}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, res.NewContacts)
}

func TestResolveOrCreate_SkipsOtherCompanyContacts(t *testing.T) {
	ctx := context.Background()
	st := &mockStore{}
	st.On("ListCompanies", ctx, "u1").Return([]model.Company{
		{ID: "co-acme", Name: "Acme", Domain: "acme.com"},
		{ID: "co-globex", Name: "Globex", Domain: "globex.com"},
	}, nil)
	st.On("ListContacts", ctx, "u1").Return([]model.Contact{}, nil)
	st.On("InsertContact", ctx, mock.MatchedBy(func(c *model.Contact) bool {
		return c.Email == "jane@acme.com"
	})).Return(true, nil).Once()

	r, err := NewResolver(ctx, st, "u1", NewDomainPolicy(""))
	require.NoError(t, err)

	res, ok, err := r.ResolveOrCreate(ctx, Signals{Emails: []string{"jane@acme.com", "hank@globex.com", "amy@agency.io"}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "co-acme", res.CompanyID)
	assert.Equal(t, 1, res.NewContacts)
	st.AssertExpectations(t)
}

func TestNewResolver_ListError(t *testing.T) {
	ctx := context.Background()
	st := &mockStore{}
	st.On("ListCompanies", ctx, "u1").Return(nil, errors.New("boom"))

	_, err := NewResolver(ctx, st, "u1", NewDomainPolicy(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "company: list companies")
}
