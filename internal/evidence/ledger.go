// Package evidence holds the single source of truth for accepted
// evidence during a run. All writes go through one Ledger so two
// workers can never hold conflicting records for the same criterion.
package evidence

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/scorecard-cli/internal/model"
)

// Action labels a ledger decision in the audit trail.
type Action string

const (
	ActionAccepted Action = "accepted"
	ActionReplaced Action = "replaced"
	ActionRejected Action = "rejected"
)

// AuditEntry records one Propose decision.
type AuditEntry struct {
	Timestamp    time.Time       `json:"timestamp"`
	Criterion    model.Criterion `json:"criterion"`
	Action       Action          `json:"action"`
	Reason       string          `json:"reason"`
	EvidenceID   string          `json:"evidence_id"`
	SupersededID string          `json:"superseded_id,omitempty"`
}

// Ledger is the serialized write path for evidence. Reads return
// copies; callers never see internal map state.
type Ledger struct {
	mu         sync.Mutex
	accepted   map[model.Criterion]*model.EvidenceRecord
	superseded []*model.EvidenceRecord
	audit      []AuditEntry
}

func NewLedger() *Ledger {
	return &Ledger{accepted: make(map[model.Criterion]*model.EvidenceRecord)}
}

// Propose offers a record for its criterion. Unverified records are
// always rejected. A verified record is accepted when the slot is
// empty or when it outranks the incumbent; the displaced incumbent is
// kept for the audit trail.
func (l *Ledger) Propose(rec *model.EvidenceRecord) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !rec.Verified {
		l.record(ActionRejected, "quote not verified against source", rec, nil)
		return false
	}

	incumbent := l.accepted[rec.Criterion]
	if incumbent == nil {
		l.accepted[rec.Criterion] = rec
		l.record(ActionAccepted, "first verified evidence for criterion", rec, nil)
		return true
	}

	reason, replace := outranks(rec, incumbent)
	if !replace {
		l.record(ActionRejected, reason, rec, nil)
		return false
	}

	l.superseded = append(l.superseded, incumbent)
	l.accepted[rec.Criterion] = rec
	l.record(ActionReplaced, reason, rec, incumbent)
	zap.L().Debug("evidence replaced",
		zap.String("criterion", string(rec.Criterion)),
		zap.String("reason", reason),
		zap.String("old_source", incumbent.SourceURL),
		zap.String("new_source", rec.SourceURL))
	return true
}

// outranks decides whether challenger should displace incumbent. The
// ordering is confidence tier, then source kind rank, then numeric
// specificity, then company ownership. Ties keep the incumbent so
// replaying the same inputs is idempotent.
func outranks(challenger, incumbent *model.EvidenceRecord) (string, bool) {
	if c, i := challenger.Confidence.Rank(), incumbent.Confidence.Rank(); c != i {
		if c > i {
			return "higher confidence tier", true
		}
		return "lower confidence tier than accepted evidence", false
	}

	if c, i := challenger.SourceKind.Rank(), incumbent.SourceKind.Rank(); c != i {
		if c > i {
			return "stronger source kind at equal confidence", true
		}
		return "weaker source kind at equal confidence", false
	}

	if challenger.HasNumber() && !incumbent.HasNumber() {
		return "adds an extracted number", true
	}
	if !challenger.HasNumber() && incumbent.HasNumber() {
		return "accepted evidence carries an extracted number", false
	}

	if challenger.Ownership == model.OwnershipCompany && incumbent.Ownership != model.OwnershipCompany {
		return "company-owned source outranks third party", true
	}

	return "does not outrank accepted evidence", false
}

// Accepted returns the current record for a criterion, or nil.
func (l *Ledger) Accepted(c model.Criterion) *model.EvidenceRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accepted[c]
}

// Resolved returns a copy of the accepted map.
func (l *Ledger) Resolved() map[model.Criterion]*model.EvidenceRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[model.Criterion]*model.EvidenceRecord, len(l.accepted))
	for k, v := range l.accepted {
		out[k] = v
	}
	return out
}

// Missing lists registry criteria with no accepted evidence, in
// registry order.
func (l *Ledger) Missing(reg *model.Registry) []model.Criterion {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Criterion
	for _, spec := range reg.All() {
		if l.accepted[spec.Key] == nil {
			out = append(out, spec.Key)
		}
	}
	return out
}

// ResolvedCount reports how many criteria currently hold evidence.
func (l *Ledger) ResolvedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.accepted)
}

// Superseded returns the displaced records in displacement order.
func (l *Ledger) Superseded() []*model.EvidenceRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*model.EvidenceRecord, len(l.superseded))
	copy(out, l.superseded)
	return out
}

// Audit returns a copy of the decision trail.
func (l *Ledger) Audit() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.audit))
	copy(out, l.audit)
	return out
}

func (l *Ledger) record(action Action, reason string, rec, superseded *model.EvidenceRecord) {
	entry := AuditEntry{
		Timestamp:  time.Now().UTC(),
		Criterion:  rec.Criterion,
		Action:     action,
		Reason:     reason,
		EvidenceID: rec.ID,
	}
	if superseded != nil {
		entry.SupersededID = superseded.ID
	}
	l.audit = append(l.audit, entry)
}
