package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scorecard-cli/internal/acquire"
	"github.com/sells-group/scorecard-cli/internal/catalog"
	"github.com/sells-group/scorecard-cli/internal/evidence"
	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/pkg/anthropic"
	"github.com/sells-group/scorecard-cli/pkg/google"
)

type fakeSearcher struct {
	mu    sync.Mutex
	items map[string][]google.SearchItem // substring of query -> items
	calls int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) (*google.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for needle, items := range f.items {
		if strings.Contains(query, needle) {
			return &google.SearchResponse{Items: items}, nil
		}
	}
	return &google.SearchResponse{}, nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAcquirer struct {
	mu    sync.Mutex
	texts map[string]string // canonical URL -> document text
	calls int
}

func (f *fakeAcquirer) Acquire(ctx context.Context, matcher *catalog.CompanyMatcher, cand model.SourceCandidate) (*acquire.Document, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if cand.Kind == model.SourceSnippet {
		return &acquire.Document{
			Candidate: cand,
			Text:      cand.Title + "\n" + cand.Snippet,
			Ownership: cand.Ownership,
		}, nil
	}
	text, ok := f.texts[cand.URL]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", cand.URL)
	}
	return &acquire.Document{Candidate: cand, Text: text, Ownership: cand.Ownership}, nil
}

func (f *fakeAcquirer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type findingSpec struct {
	criterion model.Criterion
	raw       int
	quote     string
	number    *int
}

type analyzeCall struct {
	url     string
	kind    model.SourceKind
	missing []model.Criterion
}

type fakeAnalyzer struct {
	mu       sync.Mutex
	findings map[string][]findingSpec // source URL -> findings
	calls    []analyzeCall
}

func (f *fakeAnalyzer) AnalyzeDocument(ctx context.Context, companyName string, doc *acquire.Document, missing []model.Criterion) ([]*model.EvidenceRecord, anthropic.TokenUsage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, analyzeCall{doc.Candidate.URL, doc.Candidate.Kind, missing})
	f.mu.Unlock()

	var records []*model.EvidenceRecord
	for i, spec := range f.findings[doc.Candidate.URL] {
		records = append(records, &model.EvidenceRecord{
			ID:              fmt.Sprintf("%s-%d", doc.Candidate.URL, i),
			Criterion:       spec.criterion,
			RawScore:        spec.raw,
			Quote:           spec.quote,
			SourceURL:       doc.Candidate.URL,
			SourceKind:      doc.Candidate.Kind,
			Ownership:       doc.Ownership,
			ExtractedNumber: spec.number,
		})
	}
	return records, anthropic.TokenUsage{InputTokens: 10}, nil
}

func (f *fakeAnalyzer) callsFor(url string, kind model.SourceKind) []analyzeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []analyzeCall
	for _, c := range f.calls {
		if c.url == url && c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func intp(n int) *int { return &n }

const reportPDF = "https://acmetrucking.com/sustainability-report.pdf"

// fullReportText contains verifiable quotes for every rubric criterion.
const fullReportText = `Our fleet of 4,400 trucks serves 48 states.
We operate 120 CNG trucks.
We publish an annual sustainability report with emissions data.
We target net zero emissions by 2040.
We blend biodiesel across our regional fleet.
We signed a fueling partnership with Clean Energy Fuels.
Our California fleet is compliant with CARB emission standards.`

func fullReportFindings() []findingSpec {
	return []findingSpec{
		{model.CriterionTotalFleetSize, 3, "Our fleet of 4,400 trucks serves 48 states.", intp(4400)},
		{model.CriterionCNGFleet, 1, "We operate 120 CNG trucks.", nil},
		{model.CriterionCNGFleetSize, 3, "We operate 120 CNG trucks.", intp(120)},
		{model.CriterionEmissionReporting, 1, "We publish an annual sustainability report with emissions data.", nil},
		{model.CriterionEmissionGoals, 2, "We target net zero emissions by 2040.", nil},
		{model.CriterionAltFuels, 1, "We blend biodiesel across our regional fleet.", nil},
		{model.CriterionCleanEnergyPartner, 1, "We signed a fueling partnership with Clean Energy Fuels.", nil},
		{model.CriterionRegulatory, 1, "Our California fleet is compliant with CARB emission standards.", nil},
	}
}

func fullyResolvingPipeline() (*Pipeline, *fakeSearcher) {
	searcher := &fakeSearcher{items: map[string][]google.SearchItem{
		"filetype:pdf": {{Title: "2024 Sustainability Report", Link: reportPDF}},
	}}
	acq := &fakeAcquirer{texts: map[string]string{reportPDF: fullReportText}}
	analyzer := &fakeAnalyzer{findings: map[string][]findingSpec{reportPDF: fullReportFindings()}}

	reg := model.DefaultRegistry()
	return New(reg, nil, searcher, acq, analyzer, Config{}), searcher
}

func TestRunResolvesEverythingFromDocuments(t *testing.T) {
	p, searcher := fullyResolvingPipeline()
	company := model.Company{Name: "Acme Trucking", Domain: "acmetrucking.com"}

	state, audit, err := p.Run(context.Background(), company)
	require.NoError(t, err)

	reg := model.DefaultRegistry()
	assert.Empty(t, state.Missing(reg))
	assert.Len(t, state.Accepted, reg.Len())
	assert.Len(t, audit, reg.Len())

	// Everything resolved in the documents phase, so the later phases
	// never ran and never searched.
	require.Len(t, state.PhaseLog, 1)
	assert.Equal(t, PhaseDocuments, state.PhaseLog[0].Phase)
	assert.Len(t, state.PhaseLog[0].Resolved, reg.Len())
	assert.Equal(t, 4, searcher.callCount())

	// Company PDF evidence lands at the top tier.
	rec := state.Accepted[model.CriterionCNGFleet]
	require.NotNil(t, rec)
	assert.True(t, rec.Verified)
	assert.Equal(t, model.ConfidenceHigh, rec.Confidence)
	assert.Equal(t, model.SourcePDF, rec.SourceKind)
	assert.Equal(t, PhaseDocuments, rec.Phase)
}

func TestRunIsIdempotent(t *testing.T) {
	company := model.Company{Name: "Acme Trucking", Domain: "acmetrucking.com"}

	p1, _ := fullyResolvingPipeline()
	first, _, err := p1.Run(context.Background(), company)
	require.NoError(t, err)

	p2, _ := fullyResolvingPipeline()
	second, _, err := p2.Run(context.Background(), company)
	require.NoError(t, err)

	require.Equal(t, len(first.Accepted), len(second.Accepted))
	for criterion, rec := range first.Accepted {
		other := second.Accepted[criterion]
		require.NotNil(t, other, "criterion %s missing on rerun", criterion)
		assert.Equal(t, rec.RawScore, other.RawScore)
		assert.Equal(t, rec.SourceURL, other.SourceURL)
		assert.Equal(t, rec.Confidence, other.Confidence)
	}
}

func TestRunFallsThroughToSearchPhase(t *testing.T) {
	snippetURL := "https://www.fleetowner.com/cng-fleet-news"
	searcher := &fakeSearcher{items: map[string][]google.SearchItem{
		"CNG compressed natural gas trucks fleet": {{
			Title:   "Acme CNG expansion",
			Link:    snippetURL,
			Snippet: "Acme Trucking operates 120 CNG trucks in Texas.",
		}},
	}}
	acq := &fakeAcquirer{}
	analyzer := &fakeAnalyzer{findings: map[string][]findingSpec{
		snippetURL: {{model.CriterionCNGFleet, 1, "Acme Trucking operates 120 CNG trucks", nil}},
	}}

	p := New(model.DefaultRegistry(), nil, searcher, acq, analyzer, Config{})
	state, _, err := p.Run(context.Background(), model.Company{Name: "Acme Trucking", Domain: "acmetrucking.com"})
	require.NoError(t, err)

	require.Len(t, state.PhaseLog, 3)
	assert.Equal(t, PhaseSearch, state.PhaseLog[1].Phase)
	assert.Contains(t, state.PhaseLog[1].Resolved, model.CriterionCNGFleet)

	rec := state.Accepted[model.CriterionCNGFleet]
	require.NotNil(t, rec)
	assert.Equal(t, model.SourceSnippet, rec.SourceKind)
	assert.Equal(t, model.ConfidenceLow, rec.Confidence)
}

func TestRunRejectsHallucinatedQuotes(t *testing.T) {
	searcher := &fakeSearcher{items: map[string][]google.SearchItem{
		"filetype:pdf": {{Title: "2024 Report", Link: reportPDF}},
	}}
	acq := &fakeAcquirer{texts: map[string]string{
		reportPDF: "We opened two new terminals in Ohio this year.",
	}}
	analyzer := &fakeAnalyzer{findings: map[string][]findingSpec{
		reportPDF: {{model.CriterionCNGFleet, 1, "We operate a large compressed natural gas fleet.", nil}},
	}}

	p := New(model.DefaultRegistry(), nil, searcher, acq, analyzer, Config{})
	state, audit, err := p.Run(context.Background(), model.Company{Name: "Acme Trucking", Domain: "acmetrucking.com"})
	require.NoError(t, err)

	require.Len(t, audit, 1)
	assert.Equal(t, evidence.ActionRejected, audit[0].Action)

	assert.Nil(t, state.Accepted[model.CriterionCNGFleet])
	assert.Len(t, state.Missing(model.DefaultRegistry()), model.DefaultRegistry().Len())
}

func TestRunCollectsAcquireFailures(t *testing.T) {
	searcher := &fakeSearcher{items: map[string][]google.SearchItem{
		"filetype:pdf": {{Title: "2024 Report", Link: reportPDF}},
	}}
	p := New(model.DefaultRegistry(), nil, searcher, &fakeAcquirer{}, &fakeAnalyzer{}, Config{})

	state, _, err := p.Run(context.Background(), model.Company{Name: "Acme Trucking", Domain: "acmetrucking.com"})
	require.NoError(t, err)
	require.NotEmpty(t, state.ProcessingErrors)
	assert.Equal(t, "acquire", state.ProcessingErrors[0].Stage)
}

func TestRunRequiresCompanyName(t *testing.T) {
	p, _ := fullyResolvingPipeline()
	_, _, err := p.Run(context.Background(), model.Company{})
	assert.Error(t, err)
}

func TestRunSkipsQueuedCandidatesOnceResolved(t *testing.T) {
	pdfs := []google.SearchItem{
		{Title: "2024 Report", Link: reportPDF},
		{Title: "2023 Report", Link: "https://acmetrucking.com/2023-report.pdf"},
		{Title: "2022 Report", Link: "https://acmetrucking.com/2022-report.pdf"},
		{Title: "2021 Report", Link: "https://acmetrucking.com/2021-report.pdf"},
	}
	searcher := &fakeSearcher{items: map[string][]google.SearchItem{"filetype:pdf": pdfs}}
	acq := &fakeAcquirer{texts: map[string]string{
		reportPDF: fullReportText,
		"https://acmetrucking.com/2023-report.pdf": fullReportText,
		"https://acmetrucking.com/2022-report.pdf": fullReportText,
		"https://acmetrucking.com/2021-report.pdf": fullReportText,
	}}
	analyzer := &fakeAnalyzer{findings: map[string][]findingSpec{reportPDF: fullReportFindings()}}

	p := New(model.DefaultRegistry(), nil, searcher, acq, analyzer, Config{Concurrency: 1})
	state, _, err := p.Run(context.Background(), model.Company{Name: "Acme Trucking", Domain: "acmetrucking.com"})
	require.NoError(t, err)

	assert.Empty(t, state.Missing(model.DefaultRegistry()))
	// The first candidate resolved every criterion; the queued ones
	// were never fetched.
	assert.Equal(t, 1, acq.callCount())
}

func TestRunScopesAnalyzerToMissingCriteria(t *testing.T) {
	snippetURL := "https://www.fleetowner.com/cng-fleet-news"
	pageURL := "https://acmetrucking.com/sustainability"
	searcher := &fakeSearcher{items: map[string][]google.SearchItem{
		"CNG compressed natural gas trucks fleet": {{
			Title:   "Acme CNG expansion",
			Link:    snippetURL,
			Snippet: "Acme Trucking operates 120 CNG trucks in Texas.",
		}},
		"net zero": {{
			Title:   "Acme sustainability",
			Link:    pageURL,
			Snippet: "Acme sustainability overview.",
		}},
	}}
	acq := &fakeAcquirer{texts: map[string]string{pageURL: "General sustainability prose."}}
	analyzer := &fakeAnalyzer{findings: map[string][]findingSpec{
		snippetURL: {{model.CriterionCNGFleet, 1, "Acme Trucking operates 120 CNG trucks", nil}},
	}}

	p := New(model.DefaultRegistry(), nil, searcher, acq, analyzer, Config{})
	state, _, err := p.Run(context.Background(), model.Company{Name: "Acme Trucking", Domain: "acmetrucking.com"})
	require.NoError(t, err)
	require.NotNil(t, state.Accepted[model.CriterionCNGFleet])

	// By the crawl phase the presence criterion is settled, so the
	// full-page analysis asks only about what is still open.
	crawlCalls := analyzer.callsFor(pageURL, model.SourceWebPage)
	require.NotEmpty(t, crawlCalls)
	missing := crawlCalls[0].missing
	assert.Len(t, missing, model.DefaultRegistry().Len()-1)
	assert.NotContains(t, missing, model.CriterionCNGFleet)
	assert.Contains(t, missing, model.CriterionEmissionGoals)
}

func TestDepthLimitAndPhaseBudget(t *testing.T) {
	p, _ := fullyResolvingPipeline()

	assert.Equal(t, 0, p.depthLimit(0))
	assert.Equal(t, 1, p.depthLimit(1))
	assert.Equal(t, 2, p.depthLimit(2))
	assert.Equal(t, 3, p.depthLimit(3))
	assert.Equal(t, 3, p.depthLimit(8))

	assert.Equal(t, 0, p.phaseBudget(0))
	assert.Equal(t, 3, p.phaseBudget(1))
	assert.Equal(t, 6, p.phaseBudget(2))
	// Capped by the per-phase maximum even at full depth.
	assert.Equal(t, 6, p.phaseBudget(8))
}
