package main

import (
	"context"
	"os"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/scorecard-cli/internal/acquire"
	"github.com/sells-group/scorecard-cli/internal/analyze"
	"github.com/sells-group/scorecard-cli/internal/catalog"
	"github.com/sells-group/scorecard-cli/internal/config"
	"github.com/sells-group/scorecard-cli/internal/evidence"
	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/pipeline"
	"github.com/sells-group/scorecard-cli/internal/scorer"
	"github.com/sells-group/scorecard-cli/internal/store"
	anthropicpkg "github.com/sells-group/scorecard-cli/pkg/anthropic"
	"github.com/sells-group/scorecard-cli/pkg/google"
	"github.com/sells-group/scorecard-cli/pkg/jina"
	sfpkg "github.com/sells-group/scorecard-cli/pkg/salesforce"
)

// requireCredentials fails fast when an external capability key is
// absent. Without it a misconfigured run would burn through every
// phase on failing API calls and complete as an empty scorecard.
func requireCredentials(c *config.Config) error {
	if c.Google.Key == "" || c.Google.CX == "" {
		return eris.New("google custom search credentials are required (SCORECARD_GOOGLE_KEY, SCORECARD_GOOGLE_CX)")
	}
	if c.Anthropic.Key == "" {
		return eris.New("anthropic API key is required (SCORECARD_ANTHROPIC_KEY)")
	}
	return nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "scorecard.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initRegistry() (*model.Registry, error) {
	if cfg.Scorer.CriteriaFile != "" {
		return model.LoadCriteriaFile(cfg.Scorer.CriteriaFile)
	}
	return model.DefaultRegistry(), nil
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (SCORECARD_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf), nil
}

// companyRunner is the pipeline surface the commands depend on, kept
// narrow so batch and serve tests can substitute a fake.
type companyRunner interface {
	Run(ctx context.Context, company model.Company) (*model.AnalysisState, []evidence.AuditEntry, error)
}

// runnerEnv bundles everything a command needs to analyze companies.
type runnerEnv struct {
	st    store.Store
	reg   *model.Registry
	pipe  companyRunner
	score *scorer.Scorer
}

func (e *runnerEnv) Close() {
	_ = e.st.Close()
}

// initEnv wires the store, registry, clients, pipeline, and scorer from
// the loaded configuration.
func initEnv(ctx context.Context) (*runnerEnv, error) {
	if err := requireCredentials(cfg); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	reg, err := initRegistry()
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load criteria registry")
	}

	searcher := google.NewClient(cfg.Google.Key, cfg.Google.CX, google.WithBaseURL(cfg.Google.BaseURL))

	var reader jina.Client
	if cfg.Jina.Key != "" {
		reader = jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL))
	}

	fetcher := acquire.NewFetcher(acquire.FetchOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
		MaxBytes:   cfg.Fetch.MaxBytes,
		HostRate:   rate.Limit(cfg.Fetch.HostRate),
		HostBurst:  cfg.Fetch.HostRate,
	})
	pdf := acquire.NewPDFExtractor(cfg.Fetch.PdfToTextPath, "")
	acquirer := acquire.New(fetcher, reader, pdf)

	analyzer := analyze.New(anthropicpkg.NewClient(cfg.Anthropic.Key), reg, analyze.Config{
		Model:       cfg.Anthropic.Model,
		Concurrency: cfg.Anthropic.Concurrency,
	})

	pipe := pipeline.New(reg, catalog.DefaultTrustTable(), searcher, acquirer, analyzer, pipeline.Config{
		MaxResultsPerQuery:    cfg.Pipeline.MaxResultsPerQuery,
		MaxCandidatesPerPhase: cfg.Pipeline.MaxCandidatesPerPhase,
		CandidatesPerDepth:    cfg.Pipeline.CandidatesPerDepth,
		Concurrency:           cfg.Pipeline.Concurrency,
		DepthHighWater:        cfg.Pipeline.DepthHighWater,
		MaxCrawlDepth:         cfg.Pipeline.MaxCrawlDepth,
	})

	score, err := scorer.New(reg, scorer.DenominatorMode(cfg.Scorer.Denominator))
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &runnerEnv{st: st, reg: reg, pipe: pipe, score: score}, nil
}

// analyzeCompany runs the pipeline for one company, persisting the run,
// its phase history, the evidence audit trail, and the final report.
func analyzeCompany(ctx context.Context, env *runnerEnv, company model.Company) (*model.Run, *model.Report, error) {
	run, err := env.st.CreateRun(ctx, company)
	if err != nil {
		return nil, nil, eris.Wrap(err, "create run")
	}

	report, err := completeRun(ctx, env, run, company)
	if err != nil {
		return nil, nil, err
	}
	return run, report, nil
}

// completeRun executes the pipeline for an already-created run and
// persists everything about it.
func completeRun(ctx context.Context, env *runnerEnv, run *model.Run, company model.Company) (*model.Report, error) {
	if err := env.st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
		return nil, eris.Wrap(err, "mark run running")
	}

	state, audit, err := env.pipe.Run(ctx, company)
	if err != nil {
		if uerr := env.st.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed); uerr != nil {
			zap.L().Warn("failed to mark run failed", zap.String("run_id", run.ID), zap.Error(uerr))
		}
		return nil, eris.Wrap(err, "pipeline run")
	}

	for _, entry := range state.PhaseLog {
		phase, perr := env.st.CreatePhase(ctx, run.ID, entry.Phase)
		if perr != nil {
			zap.L().Warn("failed to record phase", zap.String("phase", entry.Phase), zap.Error(perr))
			continue
		}
		if perr := env.st.CompletePhase(ctx, phase.ID, &model.PhaseResult{
			Status:     model.PhaseStatusComplete,
			Candidates: entry.Candidates,
			Resolved:   entry.Resolved,
			DurationMS: entry.Duration.Milliseconds(),
		}); perr != nil {
			zap.L().Warn("failed to complete phase", zap.String("phase", entry.Phase), zap.Error(perr))
		}
	}

	if err := env.st.AppendAudit(ctx, run.ID, audit); err != nil {
		zap.L().Warn("failed to persist audit trail", zap.String("run_id", run.ID), zap.Error(err))
	}

	report := env.score.BuildReport(state)
	if err := env.st.UpdateRunReport(ctx, run.ID, report); err != nil {
		return nil, eris.Wrap(err, "persist report")
	}

	zap.L().Info("analysis complete",
		zap.String("run_id", run.ID),
		zap.String("company", company.Name),
		zap.Float64("score", report.Breakdown.OverallScore),
		zap.Int("criteria_resolved", len(state.Accepted)),
		zap.Int("processing_errors", len(state.ProcessingErrors)),
	)

	return report, nil
}
