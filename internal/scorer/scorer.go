// Package scorer derives the weighted adoption score and the flattened
// metrics payload from accepted evidence. It never mutates evidence.
package scorer

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/scorecard-cli/internal/model"
)

// DenominatorMode selects which weights divide the weighted sum.
type DenominatorMode string

const (
	// DenominatorResolved divides by the weights of criteria that have
	// accepted evidence, so missing evidence does not read as a zero.
	DenominatorResolved DenominatorMode = "resolved"
	// DenominatorAll divides by the full rubric weight.
	DenominatorAll DenominatorMode = "all"
)

// Scorer computes score breakdowns over accepted evidence.
type Scorer struct {
	reg  *model.Registry
	mode DenominatorMode
}

func New(reg *model.Registry, mode DenominatorMode) (*Scorer, error) {
	switch mode {
	case "", DenominatorResolved:
		mode = DenominatorResolved
	case DenominatorAll:
	default:
		return nil, eris.Errorf("scorer: unknown denominator mode %q", mode)
	}
	return &Scorer{reg: reg, mode: mode}, nil
}

// Breakdown scores the accepted evidence. Each weighted criterion
// contributes raw/max * weight; the overall score is the contribution
// sum over the denominator weight, as a percentage. Zero-weight
// criteria appear in the rows but never move the score.
func (s *Scorer) Breakdown(accepted map[model.Criterion]*model.EvidenceRecord) model.ScoreBreakdown {
	var breakdown model.ScoreBreakdown
	var weightedSum, denominator float64

	for _, spec := range s.reg.All() {
		rec := accepted[spec.Key]
		row := model.CriterionScore{
			Criterion: spec.Key,
			MaxScore:  spec.MaxScore,
			Weight:    spec.Weight,
		}

		if rec != nil {
			row.Found = true
			row.RawScore = rec.RawScore
			if spec.MaxScore > 0 {
				row.NormalizedScore = float64(rec.RawScore) / float64(spec.MaxScore)
			}
			row.WeightedContribution = row.NormalizedScore * spec.Weight
		}

		if spec.Weighted() {
			weightedSum += row.WeightedContribution
			switch {
			case s.mode == DenominatorAll:
				denominator += spec.Weight
			case rec != nil:
				denominator += spec.Weight
			}
		}

		breakdown.Criteria = append(breakdown.Criteria, row)
	}

	breakdown.Denominator = denominator
	if denominator > 0 {
		breakdown.OverallScore = round1(weightedSum / denominator * 100)
	}
	return breakdown
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
