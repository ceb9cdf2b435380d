package catalog

import (
	"net/url"
	"strings"

	"github.com/sells-group/scorecard-cli/internal/model"
)

// trackingParams are query parameters stripped during canonicalization.
var trackingParams = []string{"fbclid", "gclid", "msclkid", "mc_cid", "mc_eid"}

// Canonicalize normalizes a URL for deduplication: lowercase host,
// tracking parameters removed, trailing slash stripped.
func Canonicalize(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	q := parsed.Query()
	for key := range q {
		if strings.HasPrefix(key, "utm_") {
			q.Del(key)
			continue
		}
		for _, tp := range trackingParams {
			if key == tp {
				q.Del(key)
			}
		}
	}
	parsed.RawQuery = q.Encode()
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")

	return parsed.String()
}

// excludePatterns drop candidates that can never carry scoring evidence.
var excludePatterns = []string{
	"/careers", "/jobs", "/login", "/signin", "/cart", "/checkout",
	"/privacy", "/terms", "/cookie",
	"facebook.com", "twitter.com", "x.com/", "instagram.com",
	"youtube.com", "tiktok.com", "pinterest.com",
	"wikipedia.org", "glassdoor.com", "indeed.com", "yelp.com",
}

// Excluded reports whether a URL matches an exclude pattern. Excluded
// candidates are capped at priority 0 and dropped.
func Excluded(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, p := range excludePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// cdnPathPatterns mark asset-host paths that typically serve a company's
// own published documents even when the host is a CDN.
var cdnPathPatterns = []string{
	"/cdn/", "/files/", "/assets/", "/uploads/", "/documents/", "/media/",
}

// reportFilePatterns mark sustainability-report style file names.
var reportFilePatterns = []string{
	"sustainability", "esg", "csr", "corporate-responsibility",
	"annual-report", "10-k", "impact-report", "environmental",
}

// AssessPDFOwnership decides whether a PDF belongs to the target company
// before its text reaches the analyzer, preventing cross-company
// contamination. The text argument may be empty when only the URL is
// known; text heuristics then stay neutral.
func AssessPDFOwnership(m *CompanyMatcher, rawURL, text string) model.Ownership {
	lower := strings.ToLower(rawURL)

	// SEC filings are accepted as company documents outright.
	if strings.Contains(hostOf(rawURL), "sec.gov") {
		return model.OwnershipCompany
	}

	if m.OwnsURL(rawURL) {
		return model.OwnershipCompany
	}

	// CDN-hosted company documents: a report-style file name plus the
	// company named in the path or document text.
	onCDN := false
	for _, p := range cdnPathPatterns {
		if strings.Contains(lower, p) {
			onCDN = true
			break
		}
	}
	reportLike := false
	for _, p := range reportFilePatterns {
		if strings.Contains(lower, p) {
			reportLike = true
			break
		}
	}

	if text != "" {
		mentions := m.MentionCount(text)
		ownedByCopyright := hasOwnershipLine(m, text)

		switch {
		case ownedByCopyright && mentions >= 1:
			return model.OwnershipCompany
		case onCDN && mentions >= 1 && m.MentionedEarly(text):
			return model.OwnershipCompany
		case mentions >= 2 && m.MentionedEarly(text):
			return model.OwnershipCompany
		case mentions == 0:
			return model.OwnershipThirdParty
		}
	}

	if onCDN && reportLike {
		return model.OwnershipUnknown
	}
	return model.OwnershipThirdParty
}

// hasOwnershipLine looks for a copyright or first-person ownership line
// naming the company.
func hasOwnershipLine(m *CompanyMatcher, text string) bool {
	lower := strings.ToLower(text)
	name := m.Name()
	if name == "" {
		return false
	}
	for _, marker := range []string{"©", "(c)", "copyright"} {
		idx := strings.Index(lower, marker)
		for idx >= 0 {
			end := idx + len(marker) + 120
			if end > len(lower) {
				end = len(lower)
			}
			if strings.Contains(lower[idx:end], name) {
				return true
			}
			next := strings.Index(lower[idx+len(marker):], marker)
			if next < 0 {
				break
			}
			idx = idx + len(marker) + next
		}
	}
	return false
}
