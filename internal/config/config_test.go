package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "scorecard.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://www.googleapis.com/customsearch/v1", cfg.Google.BaseURL)
	assert.Equal(t, "https://r.jina.ai", cfg.Jina.BaseURL)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, "pdftotext", cfg.Fetch.PdfToTextPath)
	assert.Equal(t, int64(20<<20), cfg.Fetch.MaxBytes)
	assert.Equal(t, 6, cfg.Pipeline.MaxCandidatesPerPhase)
	assert.Equal(t, 2, cfg.Pipeline.DepthHighWater)
	assert.Equal(t, 3, cfg.Pipeline.MaxCrawlDepth)
	assert.Equal(t, "resolved", cfg.Scorer.Denominator)
	assert.Equal(t, 3, cfg.Batch.MaxConcurrentCompanies)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SCORECARD_LOG_LEVEL", "debug")
	t.Setenv("SCORECARD_STORE_DRIVER", "postgres")
	t.Setenv("SCORECARD_SCORER_DENOMINATOR", "all")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "all", cfg.Scorer.Denominator)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope"}))
}
