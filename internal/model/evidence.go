package model

import "time"

// SourceKind classifies where a piece of evidence came from.
type SourceKind string

const (
	SourcePDF     SourceKind = "pdf"
	SourceWebPage SourceKind = "web_page"
	SourceSnippet SourceKind = "search_snippet"
)

var kindRank = map[SourceKind]int{
	SourcePDF:     3,
	SourceWebPage: 2,
	SourceSnippet: 1,
}

// Rank returns the replacement-policy rank of the source kind.
// Higher outranks lower when confidence tiers are equal.
func (k SourceKind) Rank() int {
	return kindRank[k]
}

// Ownership classifies who controls the source document.
type Ownership string

const (
	OwnershipCompany    Ownership = "company_owned"
	OwnershipThirdParty Ownership = "third_party"
	OwnershipUnknown    Ownership = "unknown"
)

// Confidence is the discrete quality tier of an evidence record.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

var confidenceRank = map[Confidence]int{
	ConfidenceHigh:   3,
	ConfidenceMedium: 2,
	ConfidenceLow:    1,
}

// Rank returns the numeric order of the confidence tier.
func (c Confidence) Rank() int {
	return confidenceRank[c]
}

// SourceCandidate is a ranked, ephemeral pointer to a document worth
// acquiring for the current phase. Candidates are consumed once and
// never persisted.
type SourceCandidate struct {
	URL       string     `json:"url"`
	Kind      SourceKind `json:"kind"`
	Title     string     `json:"title,omitempty"`
	Snippet   string     `json:"snippet,omitempty"`
	Priority  int        `json:"priority"`
	Ownership Ownership  `json:"ownership"`
}

// EvidenceRecord is the unit of provenance: a scored, sourced,
// quote-backed claim supporting one criterion's value. A record with
// Verified == false must never become a criterion's accepted evidence.
type EvidenceRecord struct {
	ID              string     `json:"id"`
	Criterion       Criterion  `json:"criterion"`
	RawScore        int        `json:"raw_score"`
	Confidence      Confidence `json:"confidence"`
	Quote           string     `json:"quote"`
	FullContext     string     `json:"full_context,omitempty"`
	Justification   string     `json:"justification,omitempty"`
	SourceURL       string     `json:"source_url"`
	SourceKind      SourceKind `json:"source_kind"`
	Ownership       Ownership  `json:"ownership"`
	Verified        bool       `json:"verified"`
	ExtractedNumber *int       `json:"extracted_number,omitempty"`
	ExtractedUnit   string     `json:"extracted_unit,omitempty"`
	Phase           string     `json:"phase,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
}

// HasNumber reports whether the record carries a concrete extracted
// quantity, used as the specificity tie-break during replacement.
func (e *EvidenceRecord) HasNumber() bool {
	return e.ExtractedNumber != nil
}

// ProcessingError is a non-fatal failure collected during a run.
type ProcessingError struct {
	Stage     string    `json:"stage"`
	URL       string    `json:"url,omitempty"`
	Criterion Criterion `json:"criterion,omitempty"`
	Message   string    `json:"message"`
}
