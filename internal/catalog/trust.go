package catalog

import (
	"net/url"
	"regexp"
	"strings"
)

// TrustCategory groups trusted domains by how authoritative they are
// for sustainability evidence.
type TrustCategory string

const (
	TrustGovernment TrustCategory = "government"
	TrustIndustry   TrustCategory = "industry"
	TrustPress      TrustCategory = "press"
	TrustESG        TrustCategory = "esg"
)

// TrustTable maps trusted domains to their category. Table-driven so the
// list can be replaced from configuration between runs.
type TrustTable struct {
	Domains map[string]TrustCategory
	// Scores holds the additive priority bonus per category.
	Scores map[TrustCategory]int
}

// DefaultTrustTable returns the built-in trusted-domain tiers.
func DefaultTrustTable() *TrustTable {
	domains := map[string]TrustCategory{
		// Government and regulator sources.
		"sec.gov":            TrustGovernment,
		"epa.gov":            TrustGovernment,
		"energy.gov":         TrustGovernment,
		"carb.ca.gov":        TrustGovernment,
		"dot.gov":            TrustGovernment,
		"transportation.gov": TrustGovernment,

		// Trucking and freight industry outlets.
		"fleetowner.com":     TrustIndustry,
		"ttnews.com":         TrustIndustry,
		"freightwaves.com":   TrustIndustry,
		"truckinginfo.com":   TrustIndustry,
		"ccjdigital.com":     TrustIndustry,
		"overdriveonline.com": TrustIndustry,

		// Reputable press and wire services.
		"bloomberg.com":     TrustPress,
		"reuters.com":       TrustPress,
		"wsj.com":           TrustPress,
		"ft.com":            TrustPress,
		"businesswire.com":  TrustPress,
		"prnewswire.com":    TrustPress,
		"globenewswire.com": TrustPress,

		// ESG reporting bodies.
		"cdp.net":             TrustESG,
		"globalreporting.org": TrustESG,
		"ceres.org":           TrustESG,
		"bsr.org":             TrustESG,
	}
	return &TrustTable{
		Domains: domains,
		Scores: map[TrustCategory]int{
			TrustGovernment: 25,
			TrustIndustry:   20,
			TrustPress:      18,
			TrustESG:        15,
		},
	}
}

// Category returns the trust category for a URL's host, if any.
func (t *TrustTable) Category(rawURL string) (TrustCategory, bool) {
	host := hostOf(rawURL)
	if host == "" {
		return "", false
	}
	for domain, cat := range t.Domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return cat, true
		}
	}
	return "", false
}

// Score returns the additive priority bonus for a trusted URL, or 0.
func (t *TrustTable) Score(rawURL string) int {
	cat, ok := t.Category(rawURL)
	if !ok {
		return 0
	}
	return t.Scores[cat]
}

// suffixPattern matches common business entity suffixes for name
// normalization.
var suffixPattern = regexp.MustCompile(`(?i),?\s*(inc\.?|llc\.?|ltd\.?|co\.?|corp\.?|corporation|company|llp|lp|holdings|group|logistics)$`)

// CompanyMatcher answers whether a URL or text belongs to the target
// company, using its known domain and name variations.
type CompanyMatcher struct {
	name       string
	normalized string
	domain     string
	variations []string
}

// NewCompanyMatcher builds a matcher for a company name and optional
// primary domain.
func NewCompanyMatcher(name, domain string) *CompanyMatcher {
	normalized := normalizeName(name)
	m := &CompanyMatcher{
		name:       name,
		normalized: normalized,
		domain:     strings.TrimPrefix(strings.ToLower(domain), "www."),
	}

	// Variations tried against URL hosts and slugs: full collapsed name,
	// hyphenated name, and the first word for short distinctive names.
	collapsed := strings.ReplaceAll(normalized, " ", "")
	hyphenated := strings.ReplaceAll(normalized, " ", "-")
	if collapsed != "" {
		m.variations = append(m.variations, collapsed, hyphenated)
	}
	if first, _, ok := strings.Cut(normalized, " "); ok && len(first) >= 4 {
		m.variations = append(m.variations, first)
	}
	return m
}

// normalizeName strips business suffixes and lowercases the name.
func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	stripped := suffixPattern.ReplaceAllString(name, "")
	return strings.ToLower(strings.TrimSpace(stripped))
}

// Name returns the normalized company name.
func (m *CompanyMatcher) Name() string {
	return m.normalized
}

// OwnsURL reports whether the URL host looks company-owned: an exact or
// subdomain match of the configured domain, or a host embedding a name
// variation.
func (m *CompanyMatcher) OwnsURL(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	if m.domain != "" && (host == m.domain || strings.HasSuffix(host, "."+m.domain)) {
		return true
	}
	for _, v := range m.variations {
		if strings.Contains(host, v) {
			return true
		}
	}
	return false
}

// MentionCount counts case-insensitive occurrences of the company name
// in text.
func (m *CompanyMatcher) MentionCount(text string) int {
	if m.normalized == "" || text == "" {
		return 0
	}
	return strings.Count(strings.ToLower(text), m.normalized)
}

// MentionedEarly reports whether the company is named in the opening of
// the document, a strong ownership signal for PDFs.
func (m *CompanyMatcher) MentionedEarly(text string) bool {
	head := text
	if len(head) > 500 {
		head = head[:500]
	}
	return m.MentionCount(head) > 0
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}
