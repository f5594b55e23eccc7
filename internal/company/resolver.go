package company

import (
	"context"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/jobtrack/internal/dedup"
	"github.com/sells-group/jobtrack/internal/model"
)

// Resolution is the outcome of ResolveOrCreate.
type Resolution struct {
	Match
	CompanyCreated bool `json:"company_created"`
	NewContacts    int  `json:"new_contacts"`
}

// Resolver resolves signals against a user's directory and lazily creates
// companies and contacts on a miss. One Resolver serves one invocation.
type Resolver struct {
	store  Store
	userID string
	dir    *Directory
}

// NewResolver loads the user's companies and contacts from st.
func NewResolver(ctx context.Context, st Store, userID string, policy DomainPolicy) (*Resolver, error) {
	companies, err := st.ListCompanies(ctx, userID)
	if err != nil {
		return nil, eris.Wrap(err, "company: list companies")
	}
	contacts, err := st.ListContacts(ctx, userID)
	if err != nil {
		return nil, eris.Wrap(err, "company: list contacts")
	}
	return &Resolver{
		store:  st,
		userID: userID,
		dir:    NewDirectory(companies, contacts, policy),
	}, nil
}

// Directory exposes the resolver's in-memory index.
func (r *Resolver) Directory() *Directory { return r.dir }

// ResolveOrCreate resolves sig. On a miss it creates a company from the
// first usable email domain, reusing an existing company whose name
// matches. Unknown participants at the company's domain become contacts.
// ok is false when nothing could be resolved or created.
func (r *Resolver) ResolveOrCreate(ctx context.Context, sig Signals) (res Resolution, ok bool, err error) {
	m, found := r.dir.Resolve(sig)
	if found {
		res.Match = m
	} else {
		name, domain, usable := CandidateFromEmails(sig.Emails, r.dir.Policy())
		if !usable {
			return Resolution{}, false, nil
		}
		if co, exists := r.dir.FindByName(name); exists {
			res.Match = Match{CompanyID: co.ID, Name: co.Name, Method: MatchName}
		} else {
			co := model.Company{
				ID:     dedup.InternalID(dedup.NamespaceCompany, r.userID, domain),
				UserID: r.userID,
				Name:   name,
				Domain: domain,
			}
			created, err := r.store.InsertCompany(ctx, &co)
			if err != nil {
				return Resolution{}, false, eris.Wrapf(err, "company: create %s", name)
			}
			r.dir.Add(co)
			res.Match = Match{CompanyID: co.ID, Name: co.Name, Method: MatchCreated}
			res.CompanyCreated = created
			if created {
				zap.L().Info("resolve: created new company",
					zap.String("domain", domain),
					zap.String("name", name),
					zap.String("company_id", co.ID),
				)
			}
		}
	}

	res.NewContacts = r.learnContacts(ctx, res.CompanyID, sig.Emails)
	return res, true, nil
}

// learnContacts creates contacts for unknown addresses that belong to
// companyID's domain. Failures are logged and skipped.
func (r *Resolver) learnContacts(ctx context.Context, companyID string, emails []string) int {
	co, _ := r.dir.Company(companyID)
	coDomain := cleanDomain(co.Domain)
	hasPrimary := r.dir.HasContacts(companyID)

	created := 0
	for _, raw := range emails {
		email := NormalizeEmail(raw)
		if email == "" {
			continue
		}
		if _, known := r.dir.Contact(email); known {
			continue
		}
		dom := EmailDomain(email)
		if r.dir.Policy().Excluded(dom) {
			continue
		}
		if owner, owned := r.dir.DomainOwner(dom); owned {
			if owner != companyID {
				continue
			}
		} else if coDomain != "" && dom != coDomain && !strings.HasSuffix(dom, "."+coDomain) {
			continue
		}

		ct := model.Contact{
			ID:        dedup.InternalID(dedup.NamespaceContact, r.userID, dedup.EmailKey(email)),
			UserID:    r.userID,
			CompanyID: companyID,
			Name:      nameFromEmail(email),
			Email:     email,
			Primary:   !hasPrimary,
		}
		ok, err := r.store.InsertContact(ctx, &ct)
		if err != nil {
			zap.L().Warn("resolve: failed to create contact",
				zap.String("company_id", companyID),
				zap.String("email", email),
				zap.Error(err),
			)
			continue
		}
		r.dir.AddContact(ct)
		hasPrimary = true
		if ok {
			created++
		}
	}
	return created
}

// nameFromEmail guesses a display name from an address's local part:
// "jane.doe@acme.com" yields "Jane Doe".
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local, _, _ = strings.Cut(local, "+")
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || unicode.IsDigit(r)
	})
	return cases.Title(language.English).String(strings.Join(parts, " "))
}
