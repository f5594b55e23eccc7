package company

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/jobtrack/internal/model"
)

// Directory is an in-memory index of one user's companies and contacts.
// It is built per invocation and is not safe for concurrent use.
type Directory struct {
	policy    DomainPolicy
	companies []model.Company
	byID      map[string]int
	byDomain  map[string]string
	contacts  map[string]model.Contact
}

// NewDirectory indexes companies and contacts. Company-stored domains take
// precedence over domains learned from contacts; contacts at excluded
// domains contribute nothing.
func NewDirectory(companies []model.Company, contacts []model.Contact, policy DomainPolicy) *Directory {
	d := &Directory{
		policy:   policy,
		byID:     make(map[string]int, len(companies)),
		byDomain: make(map[string]string),
		contacts: make(map[string]model.Contact, len(contacts)),
	}
	for _, c := range companies {
		d.Add(c)
	}
	for _, ct := range contacts {
		d.AddContact(ct)
	}
	return d
}

// Add indexes a company. Re-adding a known id is a no-op.
func (d *Directory) Add(c model.Company) {
	if _, ok := d.byID[c.ID]; ok {
		return
	}
	d.companies = append(d.companies, c)
	// Longest names first so "Acme Labs" is tried before "Acme".
	sort.SliceStable(d.companies, func(i, j int) bool {
		return len(CompactName(d.companies[i].Name)) > len(CompactName(d.companies[j].Name))
	})
	for i, co := range d.companies {
		d.byID[co.ID] = i
	}
	if dom := cleanDomain(c.Domain); dom != "" && !d.policy.Excluded(dom) {
		d.byDomain[dom] = c.ID
	}
}

// AddContact indexes a contact and, when its domain is usable, teaches the
// directory that domain. A domain already claimed is not reassigned.
func (d *Directory) AddContact(ct model.Contact) {
	email := NormalizeEmail(ct.Email)
	if email == "" {
		return
	}
	d.contacts[email] = ct
	if ct.CompanyID == "" {
		return
	}
	dom := EmailDomain(email)
	if dom == "" || d.policy.Excluded(dom) {
		return
	}
	if _, ok := d.byDomain[dom]; !ok {
		d.byDomain[dom] = ct.CompanyID
	}
}

// Company returns the company with id.
func (d *Directory) Company(id string) (model.Company, bool) {
	i, ok := d.byID[id]
	if !ok {
		return model.Company{}, false
	}
	return d.companies[i], true
}

// Contact returns the known contact for an address.
func (d *Directory) Contact(email string) (model.Contact, bool) {
	ct, ok := d.contacts[NormalizeEmail(email)]
	return ct, ok
}

// HasContacts reports whether any contact belongs to companyID.
func (d *Directory) HasContacts(companyID string) bool {
	for _, ct := range d.contacts {
		if ct.CompanyID == companyID {
			return true
		}
	}
	return false
}

// DomainOwner returns the company that owns domain, if any.
func (d *Directory) DomainOwner(domain string) (string, bool) {
	id, ok := d.byDomain[cleanDomain(domain)]
	return id, ok
}

// Policy returns the domain policy the directory was built with.
func (d *Directory) Policy() DomainPolicy { return d.policy }

// Resolve finds the company a set of signals belongs to. Steps run in
// priority order and the first hit wins:
//  1. Exact domain match against company and contact domains
//  2. Whole-word company name match in the free text
//  3. Email domain containing a company's compact name
func (d *Directory) Resolve(sig Signals) (Match, bool) {
	if m, ok := d.matchDomain(sig.Emails); ok {
		return m, true
	}
	if m, ok := d.matchTitle(sig.Text); ok {
		return m, true
	}
	if m, ok := d.matchDomainContains(sig.Emails); ok {
		return m, true
	}
	return Match{}, false
}

func (d *Directory) matchDomain(emails []string) (Match, bool) {
	for _, e := range emails {
		dom := EmailDomain(e)
		if dom == "" || d.policy.Excluded(dom) {
			continue
		}
		if id, ok := d.byDomain[dom]; ok {
			co, _ := d.Company(id)
			zap.L().Debug("resolve: matched by domain",
				zap.String("domain", dom),
				zap.String("company_id", id),
			)
			return Match{CompanyID: id, Name: co.Name, Method: MatchDomain}, true
		}
	}
	return Match{}, false
}

func (d *Directory) matchTitle(text string) (Match, bool) {
	norm := normalizeText(text)
	if norm == "" {
		return Match{}, false
	}
	words := strings.Fields(norm)
	for _, co := range d.companies {
		if containsWord(norm, NormalizeName(co.Name)) || containsCompactRun(words, CompactName(co.Name)) {
			zap.L().Debug("resolve: matched by title",
				zap.String("name", co.Name),
				zap.String("company_id", co.ID),
			)
			return Match{CompanyID: co.ID, Name: co.Name, Method: MatchTitle}, true
		}
	}
	return Match{}, false
}

func (d *Directory) matchDomainContains(emails []string) (Match, bool) {
	for _, e := range emails {
		dom := EmailDomain(e)
		if dom == "" || d.policy.Excluded(dom) {
			continue
		}
		flat := strings.NewReplacer("-", "", "_", "").Replace(dom)
		for _, co := range d.companies {
			compact := CompactName(co.Name)
			if len(compact) < minContainLen {
				continue
			}
			if strings.Contains(flat, compact) {
				zap.L().Debug("resolve: matched by domain contains",
					zap.String("domain", dom),
					zap.String("company_id", co.ID),
				)
				return Match{CompanyID: co.ID, Name: co.Name, Method: MatchDomainContains}, true
			}
		}
	}
	return Match{}, false
}

// FindByName returns the company whose name matches name, preferring an
// exact compact-name match over containment.
func (d *Directory) FindByName(name string) (model.Company, bool) {
	compact := CompactName(name)
	if compact == "" {
		return model.Company{}, false
	}
	for _, co := range d.companies {
		if CompactName(co.Name) == compact {
			return co, true
		}
	}
	for _, co := range d.companies {
		if NamesMatch(co.Name, name) {
			return co, true
		}
	}
	return model.Company{}, false
}

// cleanDomain strips protocol and www prefix from a domain or URL.
func cleanDomain(raw string) string {
	d := strings.TrimSpace(raw)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	d = strings.TrimSuffix(d, "/")
	return strings.ToLower(d)
}
