// Package company resolves calendar and mail signals to a canonical company
// and contact identity.
package company

// Signals are the observations a resolution is made from. Emails must
// already exclude the user's own and automated addresses (see Participants).
type Signals struct {
	Emails []string `json:"emails"`
	Text   string   `json:"text,omitempty"`
}

// MatchMethod names the resolution step that produced a match.
type MatchMethod string

const (
	MatchDomain         MatchMethod = "domain"
	MatchTitle          MatchMethod = "title"
	MatchDomainContains MatchMethod = "domain_contains"
	MatchName           MatchMethod = "name"
	MatchCreated        MatchMethod = "created"
)

// Match is a resolved company.
type Match struct {
	CompanyID string      `json:"company_id"`
	Name      string      `json:"name"`
	Method    MatchMethod `json:"method"`
}
