// Package speaker tags call parties as internal or external using the
// organization's email domains.
package speaker

import (
	"sort"
	"strings"

	"gong-export-go/internal/types"
)

// DomainSet holds lower-cased internal email domains.
type DomainSet map[string]struct{}

// BuildDomainSet derives the internal domains from the roster. Users without
// an email containing "@" contribute nothing.
func BuildDomainSet(users []types.User) DomainSet {
	set := DomainSet{}
	for _, u := range users {
		if d := EmailDomain(u.EmailAddress); d != "" {
			set[d] = struct{}{}
		}
	}
	return set
}

// NewDomainSet builds a set from already-known domains (e.g. a previous connect).
func NewDomainSet(domains ...string) DomainSet {
	set := DomainSet{}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			set[d] = struct{}{}
		}
	}
	return set
}

// List returns the domains sorted.
func (s DomainSet) List() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Matches reports an exact or subdomain match.
func (s DomainSet) Matches(domain string) bool {
	if domain == "" {
		return false
	}
	if _, ok := s[domain]; ok {
		return true
	}
	for d := range s {
		if strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// EmailDomain returns the part after the last "@", trimmed and lower-cased.
func EmailDomain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[i+1:]))
}

// Classify labels a party. An explicit affiliation flag wins; otherwise the
// email domain decides; no signal at all means external.
func Classify(p types.Party, domains DomainSet) types.Affiliation {
	switch p.Affiliation {
	case "Internal":
		return types.AffiliationInternal
	case "External":
		return types.AffiliationExternal
	}
	if domains.Matches(EmailDomain(p.EmailAddress)) {
		return types.AffiliationInternal
	}
	return types.AffiliationExternal
}

// FirstName is the first space-separated token of a display name.
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "Unknown"
	}
	return fields[0]
}
