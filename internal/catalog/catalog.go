// Package catalog ranks candidate evidence sources for a company using
// table-driven domain-trust and URL-pattern heuristics. Ranking is a
// pure function over externally supplied search results; the catalog
// performs no network access of its own.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/scorecard-cli/internal/model"
)

// Priority bonuses for the additive candidate score.
const (
	bonusCompanyOwned = 30
	bonusPerKeyword   = 10
	bonusKeywordCap   = 25
	bonusPDF          = 10
)

// pdfQueryTemplates target published sustainability documents.
var pdfQueryTemplates = []string{
	"%s sustainability report 2024 filetype:pdf",
	"%s ESG report filetype:pdf",
	"%s corporate responsibility report filetype:pdf",
	"%s annual report fleet filetype:pdf",
}

// SearchHit is one raw result from the web-search capability.
type SearchHit struct {
	URL     string
	Title   string
	Snippet string
}

// Catalog produces ranked SourceCandidates for the pipeline's phases.
type Catalog struct {
	trust *TrustTable
	reg   *model.Registry
}

// New creates a Catalog over the given trust table and criteria
// registry. A nil trust table uses the defaults.
func New(trust *TrustTable, reg *model.Registry) *Catalog {
	if trust == nil {
		trust = DefaultTrustTable()
	}
	return &Catalog{trust: trust, reg: reg}
}

// DocumentQueries returns search queries aimed at official PDF reports.
func (c *Catalog) DocumentQueries(company model.Company) []string {
	queries := make([]string, 0, len(pdfQueryTemplates))
	for _, tmpl := range pdfQueryTemplates {
		queries = append(queries, fmt.Sprintf(tmpl, company.Name))
	}
	return queries
}

// CriteriaQueries returns targeted search queries for the criteria still
// missing, in registry order.
func (c *Catalog) CriteriaQueries(company model.Company, missing []model.Criterion) []string {
	var queries []string
	for _, key := range missing {
		spec, ok := c.reg.Get(key)
		if !ok {
			continue
		}
		for _, q := range spec.Questions {
			queries = append(queries, fmt.Sprintf(q, company.Name))
		}
	}
	return queries
}

// Rank converts raw search hits into deduplicated, priority-ordered
// SourceCandidates scoped to the missing criteria. Excluded URLs are
// dropped. Ties keep insertion order (stable sort).
func (c *Catalog) Rank(company model.Company, missing []model.Criterion, kind model.SourceKind, hits []SearchHit) []model.SourceCandidate {
	matcher := NewCompanyMatcher(company.Name, company.Domain)
	seen := make(map[string]bool, len(hits))

	var candidates []model.SourceCandidate
	for _, hit := range hits {
		canonical := Canonicalize(hit.URL)
		if canonical == "" || seen[canonical] {
			continue
		}
		seen[canonical] = true

		if Excluded(canonical) {
			continue
		}

		priority, ownership := c.score(matcher, canonical, missing)
		if priority <= 0 {
			continue
		}

		resolvedKind := kind
		if strings.HasSuffix(strings.ToLower(canonical), ".pdf") {
			resolvedKind = model.SourcePDF
		}

		candidates = append(candidates, model.SourceCandidate{
			URL:       canonical,
			Kind:      resolvedKind,
			Title:     hit.Title,
			Snippet:   hit.Snippet,
			Priority:  priority,
			Ownership: ownership,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})
	return candidates
}

// score computes the additive priority for one canonical URL.
func (c *Catalog) score(matcher *CompanyMatcher, canonical string, missing []model.Criterion) (int, model.Ownership) {
	score := 0
	ownership := model.OwnershipUnknown

	if matcher.OwnsURL(canonical) {
		score += bonusCompanyOwned
		ownership = model.OwnershipCompany
	} else if _, trusted := c.trust.Category(canonical); trusted {
		ownership = model.OwnershipThirdParty
	}

	score += c.trust.Score(canonical)

	lower := strings.ToLower(canonical)
	keywordBonus := 0
	for _, key := range missing {
		spec, ok := c.reg.Get(key)
		if !ok {
			continue
		}
		for _, kw := range spec.URLKeywords {
			if strings.Contains(lower, kw) {
				keywordBonus += bonusPerKeyword
			}
		}
	}
	if keywordBonus > bonusKeywordCap {
		keywordBonus = bonusKeywordCap
	}
	score += keywordBonus

	if strings.HasSuffix(lower, ".pdf") {
		score += bonusPDF
	}

	return score, ownership
}
