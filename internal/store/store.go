// Package store persists analysis runs, their phase audit rows, and
// the evidence decision trail behind sqlite and postgres backends.
package store

import (
	"context"

	"github.com/sells-group/scorecard-cli/internal/evidence"
	"github.com/sells-group/scorecard-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Company string          `json:"company,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the scoring pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, company model.Company) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunReport(ctx context.Context, runID string, report *model.Report) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Phases
	CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error)
	CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error

	// Evidence audit trail
	AppendAudit(ctx context.Context, runID string, entries []evidence.AuditEntry) error
	ListAudit(ctx context.Context, runID string) ([]evidence.AuditEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
