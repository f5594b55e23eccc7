package company

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jobtrack/internal/model"
)

func testDirectory() *Directory {
	companies := []model.Company{
		{ID: "co-acme", Name: "Acme Corp", Domain: "acme.com"},
		{ID: "co-globex", Name: "Globex"},
		{ID: "co-dd", Name: "Data Dog"},
		{ID: "co-acmelabs", Name: "Acme Labs"},
	}
	contacts := []model.Contact{
		{ID: "ct-1", CompanyID: "co-globex", Email: "hank@globex-corp.com"},
		{ID: "ct-2", CompanyID: "co-dd", Email: "friend@gmail.com"},
		{ID: "ct-3", CompanyID: "co-dd", Email: "me@me.dev"},
	}
	return NewDirectory(companies, contacts, NewDomainPolicy("me.dev"))
}

func TestResolve_DomainMatch(t *testing.T) {
	d := testDirectory()

	m, ok := d.Resolve(Signals{Emails: []string{"jane@acme.com"}})
	require.True(t, ok)
	assert.Equal(t, "co-acme", m.CompanyID)
	assert.Equal(t, MatchDomain, m.Method)

	m, ok = d.Resolve(Signals{Emails: []string{"hank@globex-corp.com"}})
	require.True(t, ok)
	assert.Equal(t, "co-globex", m.CompanyID)
	assert.Equal(t, MatchDomain, m.Method)
}

func TestResolve_DomainBeatsTitle(t *testing.T) {
	d := testDirectory()

	m, ok := d.Resolve(Signals{
		Emails: []string{"jane@acme.com"},
		Text:   "Globex onsite",
	})
	require.True(t, ok)
	assert.Equal(t, "co-acme", m.CompanyID)
	assert.Equal(t, MatchDomain, m.Method)
}

func TestResolve_GenericDomainNeverMatches(t *testing.T) {
	d := testDirectory()

	// friend@gmail.com is a Data Dog contact, but gmail.com is generic.
	_, ok := d.Resolve(Signals{Emails: []string{"someone@gmail.com"}})
	assert.False(t, ok)

	// The user's own domain is excluded as well.
	_, ok = d.Resolve(Signals{Emails: []string{"coworker@me.dev"}})
	assert.False(t, ok)

	// A generic address with a title match still resolves by title.
	m, ok := d.Resolve(Signals{Emails: []string{"someone@gmail.com"}, Text: "Coffee with Data Dog"})
	require.True(t, ok)
	assert.Equal(t, "co-dd", m.CompanyID)
	assert.Equal(t, MatchTitle, m.Method)
}

func TestResolve_TitleWordMatch(t *testing.T) {
	d := testDirectory()

	m, ok := d.Resolve(Signals{Text: "Acme Labs - Technical Interview"})
	require.True(t, ok)
	assert.Equal(t, "co-acmelabs", m.CompanyID, "longer name wins")

	m, ok = d.Resolve(Signals{Text: "ACME phone screen"})
	require.True(t, ok)
	assert.Equal(t, "co-acme", m.CompanyID)

	_, ok = d.Resolve(Signals{Text: "Acmeville meetup"})
	assert.False(t, ok, "partial word must not match")
}

func TestResolve_TitleCompactMatch(t *testing.T) {
	d := NewDirectory([]model.Company{{ID: "co-dd", Name: "Data Dog"}}, nil, NewDomainPolicy(""))

	m, ok := d.Resolve(Signals{Text: "Interview with DataDog"})
	require.True(t, ok)
	assert.Equal(t, "co-dd", m.CompanyID)
	assert.Equal(t, MatchTitle, m.Method)

	d = NewDirectory([]model.Company{{ID: "co-dd", Name: "DataDog Inc"}}, nil, NewDomainPolicy(""))
	m, ok = d.Resolve(Signals{Text: "Data Dog onsite"})
	require.True(t, ok)
	assert.Equal(t, "co-dd", m.CompanyID)

	_, ok = d.Resolve(Signals{Text: "Interview with DataDoggo"})
	assert.False(t, ok, "partial word must not match")
}

func TestContainsCompactRun(t *testing.T) {
	assert.True(t, containsCompactRun([]string{"with", "data", "dog"}, "datadog"))
	assert.True(t, containsCompactRun([]string{"datadog", "call"}, "datadog"))
	assert.False(t, containsCompactRun([]string{"data", "dogs"}, "datadog"))
	assert.False(t, containsCompactRun([]string{"ab"}, "ab"), "short names need an exact word match")
}

func TestResolve_DomainContains(t *testing.T) {
	d := testDirectory()

	m, ok := d.Resolve(Signals{Emails: []string{"recruiter@datadoghq.com"}})
	require.True(t, ok)
	assert.Equal(t, "co-dd", m.CompanyID)
	assert.Equal(t, MatchDomainContains, m.Method)

	m, ok = d.Resolve(Signals{Emails: []string{"recruiter@data-dog.io"}})
	require.True(t, ok)
	assert.Equal(t, "co-dd", m.CompanyID)
}

func TestResolve_Miss(t *testing.T) {
	d := testDirectory()
	_, ok := d.Resolve(Signals{Emails: []string{"x@initech.com"}, Text: "Lunch"})
	assert.False(t, ok)

	_, ok = d.Resolve(Signals{})
	assert.False(t, ok)
}

func TestDirectory_CompanyDomainWinsOverContact(t *testing.T) {
	d := NewDirectory(
		[]model.Company{{ID: "a", Name: "Alpha", Domain: "shared.com"}, {ID: "b", Name: "Beta"}},
		[]model.Contact{{CompanyID: "b", Email: "x@shared.com"}},
		NewDomainPolicy(""),
	)
	owner, ok := d.DomainOwner("shared.com")
	require.True(t, ok)
	assert.Equal(t, "a", owner)
}

func TestDirectory_FindByName(t *testing.T) {
	d := testDirectory()

	co, ok := d.FindByName("DataDog Inc")
	require.True(t, ok)
	assert.Equal(t, "co-dd", co.ID)

	co, ok = d.FindByName("Acme")
	require.True(t, ok)
	assert.Equal(t, "co-acme", co.ID, "exact compact match preferred")

	_, ok = d.FindByName("Initech")
	assert.False(t, ok)
}

func TestDirectory_AddIsIdempotent(t *testing.T) {
	d := testDirectory()
	d.Add(model.Company{ID: "co-acme", Name: "Other"})
	co, ok := d.Company("co-acme")
	require.True(t, ok)
	assert.Equal(t, "Acme Corp", co.Name)
}
