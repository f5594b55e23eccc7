package company

import (
	"net/mail"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// genericDomains are consumer mail providers and hiring platforms. An
// address at one of these domains says nothing about the employer.
var genericDomains = map[string]struct{}{
	"gmail.com": {}, "googlemail.com": {}, "yahoo.com": {}, "ymail.com": {},
	"outlook.com": {}, "hotmail.com": {}, "live.com": {}, "msn.com": {}, "icloud.com": {},
	"me.com": {}, "mac.com": {}, "aol.com": {}, "proton.me": {}, "protonmail.com": {},
	"gmx.com": {}, "gmx.net": {}, "mail.com": {}, "zoho.com": {}, "yandex.com": {},
	"fastmail.com": {}, "hey.com": {}, "comcast.net": {}, "verizon.net": {}, "att.net": {},
	// hiring and scheduling platforms
	"calendar.google.com": {}, "greenhouse.io": {}, "greenhouse-mail.io": {},
	"lever.co": {}, "ashbyhq.com": {}, "myworkdayjobs.com": {}, "smartrecruiters.com": {},
	"linkedin.com": {}, "indeed.com": {}, "calendly.com": {}, "zoom.us": {},
}

// secondLevelLabels are public second-level labels such as the "co" in
// "acme.co.uk".
var secondLevelLabels = map[string]struct{}{
	"co": {}, "com": {}, "org": {}, "net": {}, "ac": {}, "gov": {}, "edu": {},
}

var noReplyMarkers = []string{
	"noreply", "no-reply", "no_reply", "donotreply", "do-not-reply",
	"mailer-daemon", "postmaster", "bounce",
}

// NormalizeEmail extracts the bare lower-cased address from forms such as
// "Jane Doe <Jane@Acme.com>". It returns "" when no address is present.
func NormalizeEmail(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if a, err := mail.ParseAddress(raw); err == nil {
		raw = a.Address
	}
	raw = strings.ToLower(strings.Trim(raw, "<> "))
	if strings.Count(raw, "@") != 1 {
		return ""
	}
	return raw
}

// EmailDomain returns the lower-cased domain of an address, or "".
func EmailDomain(addr string) string {
	e := NormalizeEmail(addr)
	i := strings.LastIndex(e, "@")
	if i < 0 || i == len(e)-1 {
		return ""
	}
	return e[i+1:]
}

// IsGenericDomain reports whether domain (or a parent of it) is a consumer
// mail or hiring-platform domain.
func IsGenericDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return true
	}
	for {
		if _, ok := genericDomains[domain]; ok {
			return true
		}
		i := strings.Index(domain, ".")
		if i < 0 {
			return false
		}
		domain = domain[i+1:]
	}
}

// IsNoReply reports whether addr is an automated sender.
func IsNoReply(addr string) bool {
	e := NormalizeEmail(addr)
	local, _, _ := strings.Cut(e, "@")
	for _, m := range noReplyMarkers {
		if strings.Contains(local, m) {
			return true
		}
	}
	return false
}

// DomainPolicy decides which email domains can identify an employer. The
// user's own domain and any configured extras are treated as generic.
type DomainPolicy struct {
	excluded map[string]struct{}
}

// NewDomainPolicy builds a policy excluding userDomain and extra in
// addition to the built-in generic list.
func NewDomainPolicy(userDomain string, extra ...string) DomainPolicy {
	p := DomainPolicy{excluded: make(map[string]struct{}, len(extra)+1)}
	for _, d := range append([]string{userDomain}, extra...) {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			p.excluded[d] = struct{}{}
		}
	}
	return p
}

// Excluded reports whether domain must not be used for domain matching.
func (p DomainPolicy) Excluded(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if IsGenericDomain(domain) {
		return true
	}
	for d := range p.excluded {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// Participants normalizes and deduplicates addresses, dropping the user's
// own addresses and automated senders. Order of first appearance is kept.
func Participants(addrs []string, self map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		e := NormalizeEmail(a)
		if e == "" || IsNoReply(e) {
			continue
		}
		if _, ok := self[e]; ok {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// registrableLabel returns the organization label of a domain:
// "careers.acme.co.uk" yields "acme".
func registrableLabel(domain string) string {
	labels := strings.Split(strings.Trim(domain, "."), ".")
	if len(labels) < 2 {
		return ""
	}
	labels = labels[:len(labels)-1]
	if n := len(labels); n >= 2 {
		if _, ok := secondLevelLabels[labels[n-1]]; ok {
			labels = labels[:n-1]
		}
	}
	return labels[len(labels)-1]
}

// CandidateFromEmails derives a company to create from the first address
// whose domain is usable under policy. The name is the domain's
// organization label, title-cased.
func CandidateFromEmails(emails []string, policy DomainPolicy) (name, domain string, ok bool) {
	for _, e := range emails {
		d := EmailDomain(e)
		if d == "" || policy.Excluded(d) {
			continue
		}
		label := registrableLabel(d)
		if label == "" {
			continue
		}
		label = strings.Join(strings.FieldsFunc(label, func(r rune) bool { return r == '-' || r == '_' }), " ")
		return cases.Title(language.English).String(label), d, true
	}
	return "", "", false
}
