// Package acquire turns ranked source candidates into normalized plain
// text: PDF extraction and chunking, HTML cleaning, and search-snippet
// passthrough. Failures are local to one candidate and never abort a
// phase.
package acquire

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scorecard-cli/internal/catalog"
	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/pkg/jina"
)

// Document is the normalized output of acquiring one candidate.
type Document struct {
	Candidate model.SourceCandidate
	Text      string
	// Ownership is the post-acquisition assessment, which for PDFs may
	// differ from the candidate's URL-only guess once text is available.
	Ownership model.Ownership
}

// Acquirer fetches and normalizes source candidates.
type Acquirer struct {
	fetcher *Fetcher
	reader  jina.Client
	pdf     *PDFExtractor
	// AllowThirdPartyPDF admits third-party PDFs when a phase has no
	// company-owned alternative.
	AllowThirdPartyPDF bool
}

// New creates an Acquirer. The reader may be nil, disabling the
// fallback renderer.
func New(fetcher *Fetcher, reader jina.Client, pdf *PDFExtractor) *Acquirer {
	if fetcher == nil {
		fetcher = NewFetcher(FetchOptions{})
	}
	if pdf == nil {
		pdf = NewPDFExtractor("", "")
	}
	return &Acquirer{fetcher: fetcher, reader: reader, pdf: pdf}
}

// Acquire produces a normalized Document for one candidate. An error
// means the candidate yielded nothing usable; callers record it and
// move on.
func (a *Acquirer) Acquire(ctx context.Context, matcher *catalog.CompanyMatcher, cand model.SourceCandidate) (*Document, error) {
	switch cand.Kind {
	case model.SourceSnippet:
		text := strings.TrimSpace(cand.Title + "\n" + cand.Snippet)
		if text == "" {
			return nil, eris.Errorf("acquire: empty snippet for %s", cand.URL)
		}
		return &Document{Candidate: cand, Text: text, Ownership: cand.Ownership}, nil

	case model.SourcePDF:
		return a.acquirePDF(ctx, matcher, cand)

	default:
		return a.acquirePage(ctx, cand)
	}
}

func (a *Acquirer) acquirePDF(ctx context.Context, matcher *catalog.CompanyMatcher, cand model.SourceCandidate) (*Document, error) {
	body, _, err := a.fetcher.Fetch(ctx, cand.URL)
	if err != nil {
		return nil, eris.Wrapf(err, "acquire: download pdf %s", cand.URL)
	}

	text, err := a.pdf.ExtractText(ctx, body)
	if err != nil {
		return nil, eris.Wrapf(err, "acquire: extract pdf %s", cand.URL)
	}

	// Reassess ownership now that the document text is available.
	// Third-party reports are rejected before the analyzer ever sees
	// them, so one carrier's numbers cannot contaminate another's
	// scorecard.
	ownership := catalog.AssessPDFOwnership(matcher, cand.URL, text)
	if ownership == model.OwnershipThirdParty && !a.AllowThirdPartyPDF {
		zap.L().Debug("acquire: rejecting third-party pdf",
			zap.String("url", cand.URL),
		)
		return nil, eris.Errorf("acquire: pdf not owned by company: %s", cand.URL)
	}

	return &Document{Candidate: cand, Text: text, Ownership: ownership}, nil
}

func (a *Acquirer) acquirePage(ctx context.Context, cand model.SourceCandidate) (*Document, error) {
	body, contentType, err := a.fetcher.Fetch(ctx, cand.URL)
	if err == nil && !looksBlocked(body) {
		var text string
		if strings.Contains(contentType, "text/html") || strings.Contains(string(body[:min(len(body), 256)]), "<") {
			text = CleanHTML(string(body))
		} else {
			text = normalizeLines(string(body))
		}
		if text != "" {
			return &Document{Candidate: cand, Text: text, Ownership: cand.Ownership}, nil
		}
	}

	if a.reader == nil {
		if err != nil {
			return nil, eris.Wrapf(err, "acquire: fetch %s", cand.URL)
		}
		return nil, eris.Errorf("acquire: no readable content at %s", cand.URL)
	}

	// Blocked or unreadable directly: render through the reader.
	resp, readErr := a.reader.Read(ctx, cand.URL)
	if readErr != nil {
		return nil, eris.Wrapf(readErr, "acquire: reader fallback %s", cand.URL)
	}
	text := CleanMarkdown(resp.Data.Content)
	if text == "" {
		return nil, eris.Errorf("acquire: reader returned empty content for %s", cand.URL)
	}
	return &Document{Candidate: cand, Text: text, Ownership: cand.Ownership}, nil
}
