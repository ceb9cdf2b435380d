// Package analyze submits acquired document text to the model and
// parses criterion findings into unverified evidence records.
package analyze

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/scorecard-cli/internal/acquire"
	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/pkg/anthropic"
)

const (
	// maxChunkConcurrency limits concurrent CreateMessage calls per document.
	maxChunkConcurrency = 4
	// chunkRetryAttempts is the max number of retries per chunk call.
	chunkRetryAttempts = 3
	// findingMaxTokens bounds one chunk's JSON response.
	findingMaxTokens = 2048
	// fallbackChunks are analyzed when keyword filtering matches nothing.
	fallbackChunks = 2
)

// Config holds the analyzer's model settings.
type Config struct {
	Model       string
	Concurrency int
}

// Analyzer turns document text into proposed evidence records. Records
// come back unverified; validation and the ledger decide acceptance.
type Analyzer struct {
	client  anthropic.Client
	reg     *model.Registry
	cfg     Config
	system  []anthropic.SystemBlock
	chunker *acquire.Chunker
}

func New(client anthropic.Client, reg *model.Registry, cfg Config) *Analyzer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = maxChunkConcurrency
	}
	return &Analyzer{
		client:  client,
		reg:     reg,
		cfg:     cfg,
		system:  BuildSystemBlocks(),
		chunker: acquire.NewChunker(acquire.DefaultChunkSize, acquire.DefaultChunkOverlap),
	}
}

// finding mirrors one element of the model's JSON response.
type finding struct {
	Criterion       string  `json:"criterion"`
	Score           float64 `json:"score"`
	Quote           string  `json:"quote"`
	Context         string  `json:"context"`
	Justification   string  `json:"justification"`
	ExtractedNumber *int    `json:"extracted_number"`
	ExtractedUnit   string  `json:"extracted_unit"`
}

type findingsEnvelope struct {
	Findings []finding `json:"findings"`
}

// AnalyzeDocument chunks the document, analyzes chunks concurrently,
// and returns the proposed records for the given unresolved criteria.
// The rubric is rendered for that subset only, so a chunk call never
// re-litigates criteria that already carry accepted evidence. A chunk
// that fails after retries is logged and skipped; the remaining chunks
// still produce findings.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, companyName string, doc *acquire.Document, missing []model.Criterion) ([]*model.EvidenceRecord, anthropic.TokenUsage, error) {
	var usage anthropic.TokenUsage

	specs := a.specsFor(missing)
	if len(specs) == 0 {
		return nil, usage, nil
	}

	chunks := a.chunker.Split(doc.Text)
	chunks = acquire.FilterChunks(chunks, keywordsFor(specs), fallbackChunks)
	if len(chunks) == 0 {
		return nil, usage, nil
	}

	rubric := renderRubric(specs)
	scope := make(map[model.Criterion]bool, len(specs))
	for _, spec := range specs {
		scope[spec.Key] = true
	}

	var mu sync.Mutex
	var records []*model.EvidenceRecord

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)

	for idx, chunk := range chunks {
		g.Go(func() error {
			resp, err := a.callWithRetry(gCtx, buildUserPrompt(companyName, doc.Candidate.URL, rubric, chunk))
			if err != nil {
				zap.L().Warn("analyze: chunk failed after retries",
					zap.String("url", doc.Candidate.URL),
					zap.Int("chunk", idx),
					zap.Error(err))
				return nil
			}

			recs := a.parseFindings(resp.Text(), doc, scope)

			mu.Lock()
			records = append(records, recs...)
			usage.Add(resp.Usage)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return records, usage, eris.Wrap(err, "analyze: document")
	}
	return records, usage, nil
}

func (a *Analyzer) callWithRetry(ctx context.Context, prompt string) (*anthropic.MessageResponse, error) {
	var resp *anthropic.MessageResponse
	var lastErr error
	backoff := 500 * time.Millisecond

	for attempt := 0; attempt < chunkRetryAttempts; attempt++ {
		resp, lastErr = a.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     a.cfg.Model,
			MaxTokens: findingMaxTokens,
			System:    a.system,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
		if lastErr == nil {
			return resp, nil
		}
		if attempt < chunkRetryAttempts-1 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
		}
	}
	return nil, lastErr
}

// parseFindings decodes one chunk response. Unknown criteria,
// criteria outside the requested scope, and out-of-range scores are
// dropped rather than clamped, since a score the rubric cannot produce
// signals a bad extraction.
func (a *Analyzer) parseFindings(text string, doc *acquire.Document, scope map[model.Criterion]bool) []*model.EvidenceRecord {
	var envelope findingsEnvelope
	if err := json.Unmarshal([]byte(cleanJSON(text)), &envelope); err != nil {
		zap.L().Warn("analyze: response is not valid findings JSON",
			zap.String("url", doc.Candidate.URL),
			zap.Error(err))
		return nil
	}

	var records []*model.EvidenceRecord
	for _, f := range envelope.Findings {
		criterion := model.Criterion(f.Criterion)
		spec, ok := a.reg.Get(criterion)
		if !ok {
			zap.L().Warn("analyze: finding for unknown criterion",
				zap.String("criterion", f.Criterion),
				zap.String("url", doc.Candidate.URL))
			continue
		}
		if !scope[criterion] {
			zap.L().Debug("analyze: finding for criterion outside requested scope",
				zap.String("criterion", f.Criterion),
				zap.String("url", doc.Candidate.URL))
			continue
		}
		score := int(f.Score)
		if f.Score != float64(score) || !spec.InRange(score) {
			zap.L().Warn("analyze: score outside rubric range, dropping",
				zap.String("criterion", f.Criterion),
				zap.Float64("score", f.Score),
				zap.String("url", doc.Candidate.URL))
			continue
		}
		if strings.TrimSpace(f.Quote) == "" {
			continue
		}

		records = append(records, &model.EvidenceRecord{
			ID:              uuid.New().String(),
			Criterion:       criterion,
			RawScore:        score,
			Quote:           f.Quote,
			FullContext:     f.Context,
			Justification:   f.Justification,
			SourceURL:       doc.Candidate.URL,
			SourceKind:      doc.Candidate.Kind,
			Ownership:       doc.Ownership,
			ExtractedNumber: f.ExtractedNumber,
			ExtractedUnit:   f.ExtractedUnit,
			Timestamp:       time.Now().UTC(),
		})
	}
	return records
}

// specsFor resolves the requested criteria against the registry,
// silently skipping keys it does not know.
func (a *Analyzer) specsFor(missing []model.Criterion) []model.CriterionSpec {
	specs := make([]model.CriterionSpec, 0, len(missing))
	for _, c := range missing {
		if spec, ok := a.reg.Get(c); ok {
			specs = append(specs, spec)
		}
	}
	return specs
}

// keywordsFor collects the given criteria's URL keywords for chunk
// filtering.
func keywordsFor(specs []model.CriterionSpec) []string {
	seen := make(map[string]bool)
	var out []string
	for _, spec := range specs {
		for _, kw := range spec.URLKeywords {
			if !seen[kw] {
				seen[kw] = true
				out = append(out, kw)
			}
		}
	}
	// Chunk text is prose, so hyphenated URL keywords also match their
	// spaced form.
	for _, kw := range out {
		if strings.Contains(kw, "-") {
			spaced := strings.ReplaceAll(kw, "-", " ")
			if !seen[spaced] {
				seen[spaced] = true
				out = append(out, spaced)
			}
		}
	}
	return out
}

// cleanJSON strips markdown code fences and leading prose from a model
// response so the JSON object parses.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		return strings.TrimSpace(text)
	}
	if i := strings.Index(text, "{"); i > 0 {
		text = text[i:]
	}
	return text
}
