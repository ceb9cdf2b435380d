// Package pipeline orchestrates an analysis run: phased source
// discovery, acquisition, analysis, validation, and evidence
// resolution. Later phases only run while criteria remain unresolved.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/scorecard-cli/internal/acquire"
	"github.com/sells-group/scorecard-cli/internal/catalog"
	"github.com/sells-group/scorecard-cli/internal/evidence"
	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/validate"
	"github.com/sells-group/scorecard-cli/pkg/anthropic"
	"github.com/sells-group/scorecard-cli/pkg/google"
)

// Phase names, in execution order.
const (
	PhaseDocuments = "documents"
	PhaseSearch    = "search"
	PhaseCrawl     = "crawl"
)

// Searcher is the web-search capability the pipeline discovers
// candidates with.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) (*google.SearchResponse, error)
}

// Acquirer turns a ranked candidate into document text.
type Acquirer interface {
	Acquire(ctx context.Context, matcher *catalog.CompanyMatcher, cand model.SourceCandidate) (*acquire.Document, error)
}

// Analyzer extracts proposed evidence records from a document for the
// criteria still unresolved.
type Analyzer interface {
	AnalyzeDocument(ctx context.Context, companyName string, doc *acquire.Document, missing []model.Criterion) ([]*model.EvidenceRecord, anthropic.TokenUsage, error)
}

// Config bounds the pipeline's fan-out.
type Config struct {
	MaxResultsPerQuery    int
	MaxCandidatesPerPhase int
	CandidatesPerDepth    int
	Concurrency           int
	DepthHighWater        int
	MaxCrawlDepth         int
}

func (c *Config) applyDefaults() {
	if c.MaxResultsPerQuery <= 0 {
		c.MaxResultsPerQuery = 10
	}
	if c.MaxCandidatesPerPhase <= 0 {
		c.MaxCandidatesPerPhase = 6
	}
	if c.CandidatesPerDepth <= 0 {
		c.CandidatesPerDepth = 3
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.DepthHighWater <= 0 {
		c.DepthHighWater = 2
	}
	if c.MaxCrawlDepth <= 0 {
		c.MaxCrawlDepth = 3
	}
}

// Pipeline runs the three-phase evidence search for one company.
type Pipeline struct {
	cfg      Config
	reg      *model.Registry
	catalog  *catalog.Catalog
	trust    *catalog.TrustTable
	searcher Searcher
	acquirer Acquirer
	analyzer Analyzer
	verifier *validate.Verifier
}

func New(reg *model.Registry, trust *catalog.TrustTable, searcher Searcher, acquirer Acquirer, analyzer Analyzer, cfg Config) *Pipeline {
	cfg.applyDefaults()
	if trust == nil {
		trust = catalog.DefaultTrustTable()
	}
	return &Pipeline{
		cfg:      cfg,
		reg:      reg,
		catalog:  catalog.New(trust, reg),
		trust:    trust,
		searcher: searcher,
		acquirer: acquirer,
		analyzer: analyzer,
		verifier: validate.NewVerifier(),
	}
}

// Run executes the phases for one company and returns the final
// analysis state alongside the evidence decision trail. Per-source
// failures are collected as processing errors; only an unusable company
// input fails the run.
func (p *Pipeline) Run(ctx context.Context, company model.Company) (*model.AnalysisState, []evidence.AuditEntry, error) {
	if company.Name == "" {
		return nil, nil, eris.New("pipeline: company name is required")
	}

	ledger := evidence.NewLedger()
	matcher := catalog.NewCompanyMatcher(company.Name, company.Domain)
	state := &model.AnalysisState{
		Company:   company,
		StartedAt: time.Now().UTC(),
	}

	phases := []struct {
		name string
		run  func(context.Context, model.Company, *catalog.CompanyMatcher, *evidence.Ledger, *model.AnalysisState) int
	}{
		{PhaseDocuments, p.runDocuments},
		{PhaseSearch, p.runSearch},
		{PhaseCrawl, p.runCrawl},
	}

	for _, phase := range phases {
		if len(ledger.Missing(p.reg)) == 0 {
			zap.L().Info("pipeline: all criteria resolved, skipping remaining phases",
				zap.String("company", company.Name),
				zap.String("next_phase", phase.name))
			break
		}

		start := time.Now()
		missingBefore := ledger.Missing(p.reg)
		candidates := phase.run(ctx, company, matcher, ledger, state)

		state.PhaseLog = append(state.PhaseLog, model.PhaseEntry{
			Phase:      phase.name,
			Candidates: candidates,
			Resolved:   resolvedDuring(missingBefore, ledger.Missing(p.reg)),
			Duration:   time.Since(start),
		})

		zap.L().Info("pipeline: phase complete",
			zap.String("company", company.Name),
			zap.String("phase", phase.name),
			zap.Int("candidates", candidates),
			zap.Int("missing", len(ledger.Missing(p.reg))))
	}

	state.Accepted = ledger.Resolved()
	state.Superseded = ledger.Superseded()
	state.CompletedAt = time.Now().UTC()
	return state, ledger.Audit(), nil
}

// runDocuments looks for official PDF reports first, since they yield
// the highest-confidence evidence.
func (p *Pipeline) runDocuments(ctx context.Context, company model.Company, matcher *catalog.CompanyMatcher, ledger *evidence.Ledger, state *model.AnalysisState) int {
	missing := ledger.Missing(p.reg)
	hits := p.search(ctx, state, p.catalog.DocumentQueries(company))
	candidates := p.catalog.Rank(company, missing, model.SourceWebPage, hits)
	candidates = capCandidates(candidates, p.phaseBudget(len(missing)))

	p.processCandidates(ctx, company, matcher, ledger, state, PhaseDocuments, candidates)
	return len(candidates)
}

// runSearch analyzes search snippets for the criteria still missing.
// Snippets are cheap and often enough for presence criteria.
func (p *Pipeline) runSearch(ctx context.Context, company model.Company, matcher *catalog.CompanyMatcher, ledger *evidence.Ledger, state *model.AnalysisState) int {
	missing := ledger.Missing(p.reg)
	hits := p.search(ctx, state, p.catalog.CriteriaQueries(company, missing))
	candidates := p.catalog.Rank(company, missing, model.SourceSnippet, hits)
	candidates = capCandidates(candidates, p.phaseBudget(len(missing)))

	p.processCandidates(ctx, company, matcher, ledger, state, PhaseSearch, candidates)
	return len(candidates)
}

// runCrawl fetches full pages for whatever is still unresolved. The
// crawl budget scales with how much is missing.
func (p *Pipeline) runCrawl(ctx context.Context, company model.Company, matcher *catalog.CompanyMatcher, ledger *evidence.Ledger, state *model.AnalysisState) int {
	missing := ledger.Missing(p.reg)
	depth := p.depthLimit(len(missing))
	if depth == 0 {
		return 0
	}

	hits := p.search(ctx, state, p.catalog.CriteriaQueries(company, missing))
	candidates := p.catalog.Rank(company, missing, model.SourceWebPage, hits)
	candidates = capCandidates(candidates, depth*p.cfg.CandidatesPerDepth)

	p.processCandidates(ctx, company, matcher, ledger, state, PhaseCrawl, candidates)
	return len(candidates)
}

// depthLimit maps the unresolved-criteria count to a per-phase budget
// multiplier. Nothing missing means no budget at all.
func (p *Pipeline) depthLimit(missing int) int {
	switch {
	case missing == 0:
		return 0
	case missing <= 1:
		return 1
	case missing <= p.cfg.DepthHighWater:
		return 2
	default:
		return p.cfg.MaxCrawlDepth
	}
}

// phaseBudget bounds a phase's candidate list by the dynamic depth
// limit, so a nearly finished run stops fanning out.
func (p *Pipeline) phaseBudget(missing int) int {
	budget := p.depthLimit(missing) * p.cfg.CandidatesPerDepth
	if budget > p.cfg.MaxCandidatesPerPhase {
		budget = p.cfg.MaxCandidatesPerPhase
	}
	return budget
}

// search fans queries out to the search capability, collecting hits and
// recording per-query failures as processing errors.
func (p *Pipeline) search(ctx context.Context, state *model.AnalysisState, queries []string) []catalog.SearchHit {
	var hits []catalog.SearchHit
	for _, query := range queries {
		resp, err := p.searcher.Search(ctx, query, p.cfg.MaxResultsPerQuery)
		if err != nil {
			zap.L().Warn("pipeline: search query failed",
				zap.String("query", query),
				zap.Error(err))
			state.ProcessingErrors = append(state.ProcessingErrors, model.ProcessingError{
				Stage:   "search",
				Message: err.Error(),
			})
			continue
		}
		for _, item := range resp.Items {
			hits = append(hits, catalog.SearchHit{
				URL:     item.Link,
				Title:   item.Title,
				Snippet: item.Snippet,
			})
		}
	}
	return hits
}

// processCandidates acquires, analyzes, validates, and proposes
// evidence from each candidate under a bounded worker pool.
func (p *Pipeline) processCandidates(ctx context.Context, company model.Company, matcher *catalog.CompanyMatcher, ledger *evidence.Ledger, state *model.AnalysisState, phase string, candidates []model.SourceCandidate) {
	var mu sync.Mutex
	var phaseUsage anthropic.TokenUsage
	addError := func(stage, url string, err error) {
		mu.Lock()
		state.ProcessingErrors = append(state.ProcessingErrors, model.ProcessingError{
			Stage:   stage,
			URL:     url,
			Message: err.Error(),
		})
		mu.Unlock()
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for _, cand := range candidates {
		g.Go(func() error {
			// Re-check under the worker limit so queued candidates are
			// skipped once the missing set empties mid-phase.
			missing := ledger.Missing(p.reg)
			if len(missing) == 0 {
				return nil
			}

			doc, err := p.acquirer.Acquire(gCtx, matcher, cand)
			if err != nil {
				zap.L().Warn("pipeline: acquisition failed",
					zap.String("url", cand.URL),
					zap.Error(err))
				addError("acquire", cand.URL, err)
				return nil
			}

			records, usage, err := p.analyzer.AnalyzeDocument(gCtx, company.Name, doc, missing)
			if err != nil {
				addError("analyze", cand.URL, err)
				return nil
			}

			mu.Lock()
			phaseUsage.Add(usage)
			mu.Unlock()

			for _, rec := range records {
				p.resolve(rec, doc, phase, ledger)
			}
			return nil
		})
	}
	_ = g.Wait()

	if phaseUsage.InputTokens > 0 || phaseUsage.OutputTokens > 0 {
		zap.L().Debug("pipeline: phase token usage",
			zap.String("phase", phase),
			zap.Int64("input_tokens", phaseUsage.InputTokens),
			zap.Int64("output_tokens", phaseUsage.OutputTokens))
	}
}

// resolve validates one proposed record and offers it to the ledger.
func (p *Pipeline) resolve(rec *model.EvidenceRecord, doc *acquire.Document, phase string, ledger *evidence.Ledger) {
	rec.Phase = phase

	if err := validate.CheckRubric(rec); err != nil {
		zap.L().Debug("pipeline: rubric rejected finding",
			zap.String("url", rec.SourceURL),
			zap.Error(err))
		return
	}

	rec.Verified = p.verifier.VerifyQuote(rec, doc.Text)
	_, trusted := p.trust.Category(rec.SourceURL)
	rec.Confidence = validate.Confidence(rec.SourceKind, rec.Ownership, trusted)

	ledger.Propose(rec)
}

func capCandidates(candidates []model.SourceCandidate, max int) []model.SourceCandidate {
	if len(candidates) > max {
		return candidates[:max]
	}
	return candidates
}

// resolvedDuring diffs two missing sets to report what a phase settled.
func resolvedDuring(before, after []model.Criterion) []model.Criterion {
	stillMissing := make(map[model.Criterion]bool, len(after))
	for _, c := range after {
		stillMissing[c] = true
	}
	var resolved []model.Criterion
	for _, c := range before {
		if !stillMissing[c] {
			resolved = append(resolved, c)
		}
	}
	return resolved
}
