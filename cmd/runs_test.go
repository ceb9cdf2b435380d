package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/scorecard-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 8, 12, 9, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "11111111-2222-3333-4444-555555555555",
			Company:   model.Company{Name: "Acme Trucking"},
			Status:    model.RunStatusComplete,
			Report:    &model.Report{Breakdown: model.ScoreBreakdown{OverallScore: 76.2}},
			CreatedAt: created,
			UpdatedAt: created.Add(42 * time.Second),
		},
		{
			ID:        "99999999-8888-7777-6666-555555555555",
			Company:   model.Company{Name: "A Very Long Trucking Company Name Incorporated"},
			Status:    model.RunStatusFailed,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}

	var sb strings.Builder
	formatRunsList(&sb, runs)
	out := sb.String()

	assert.Contains(t, out, "11111111")
	assert.Contains(t, out, "Acme Trucking")
	assert.Contains(t, out, "76.2")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "42s")
	// Long names are truncated for display.
	assert.Contains(t, out, "A Very Long Trucking Compan...")
	assert.NotContains(t, out, "Incorporated")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("1234567890"))
	assert.Equal(t, "short", truncateID("short"))
}
