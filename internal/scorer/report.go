package scorer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/scorecard-cli/internal/model"
)

// metricNames map criteria to the flattened payload field each one
// feeds, for the metric-source provenance rows.
var metricNames = map[model.Criterion]string{
	model.CriterionCNGFleet:           "owns_cng_fleet",
	model.CriterionCNGFleetSize:       "cng_fleet_size_range",
	model.CriterionTotalFleetSize:     "total_fleet_size",
	model.CriterionEmissionReporting:  "emission_report",
	model.CriterionEmissionGoals:      "emission_goals",
	model.CriterionAltFuels:           "alt_fuels",
	model.CriterionCleanEnergyPartner: "clean_energy_partners",
	model.CriterionRegulatory:         "regulatory_pressure",
}

// summaryGroups bucket criteria into the narrative sections of the
// report.
var summaryGroups = map[string][]model.Criterion{
	"fleet": {
		model.CriterionTotalFleetSize,
		model.CriterionCNGFleet,
		model.CriterionCNGFleetSize,
	},
	"emissions": {
		model.CriterionEmissionReporting,
		model.CriterionEmissionGoals,
	},
	"fuels": {
		model.CriterionAltFuels,
	},
	"partnerships": {
		model.CriterionCleanEnergyPartner,
	},
	"regulatory": {
		model.CriterionRegulatory,
	},
}

// BuildReport assembles the public report from the run's accepted
// evidence and phase log.
func (s *Scorer) BuildReport(state *model.AnalysisState) *model.Report {
	breakdown := s.Breakdown(state.Accepted)

	report := &model.Report{
		Company:          state.Company,
		Metrics:          s.buildMetrics(state.Accepted, breakdown.OverallScore),
		Sources:          buildSources(state.Accepted),
		Summaries:        buildSummaries(state.Accepted),
		Breakdown:        breakdown,
		PhaseLog:         state.PhaseLog,
		ProcessingErrors: state.ProcessingErrors,
	}

	for _, spec := range s.reg.All() {
		if rec := state.Accepted[spec.Key]; rec != nil {
			report.Evidence = append(report.Evidence, rec)
		}
	}
	return report
}

// buildMetrics flattens accepted evidence into the metrics payload.
// Numeric evidence is re-bucketed from the extracted number; a CNG
// vehicle count above zero implies fleet ownership even when the
// presence criterion itself went unresolved.
func (s *Scorer) buildMetrics(accepted map[model.Criterion]*model.EvidenceRecord, overall float64) model.MetricsPayload {
	var m model.MetricsPayload
	m.CNGAdoptScore = overall
	m.TotalFleetSize = model.FleetSizeLabel(0)

	if rec := accepted[model.CriterionCNGFleet]; rec != nil {
		m.OwnsCNGFleet = rec.RawScore > 0
	}

	if rec := accepted[model.CriterionCNGFleetSize]; rec != nil {
		m.CNGFleetSizeRange = rec.RawScore
		if rec.HasNumber() {
			m.CNGFleetSizeRange = model.BucketCNGFleetSize(*rec.ExtractedNumber)
			m.CNGFleetSizeActual = rec.ExtractedNumber
		}
		if m.CNGFleetSizeRange > 0 {
			m.OwnsCNGFleet = true
		}
	}

	if rec := accepted[model.CriterionTotalFleetSize]; rec != nil {
		bucket := rec.RawScore
		if rec.HasNumber() {
			bucket = model.BucketTotalFleetSize(*rec.ExtractedNumber)
			m.TotalFleetActual = rec.ExtractedNumber
		}
		m.TotalFleetSize = model.FleetSizeLabel(bucket)
	}

	if rec := accepted[model.CriterionEmissionReporting]; rec != nil {
		m.EmissionReport = rec.RawScore > 0
	}
	if rec := accepted[model.CriterionEmissionGoals]; rec != nil {
		m.EmissionGoals = rec.RawScore
	}
	if rec := accepted[model.CriterionAltFuels]; rec != nil {
		m.AltFuels = rec.RawScore > 0
	}
	if rec := accepted[model.CriterionCleanEnergyPartner]; rec != nil {
		m.CleanEnergyPartners = rec.RawScore > 0
	}
	if rec := accepted[model.CriterionRegulatory]; rec != nil {
		m.RegulatoryPressure = rec.RawScore > 0
	}

	return m
}

// buildSources emits one provenance row per accepted criterion, in a
// stable metric-name order.
func buildSources(accepted map[model.Criterion]*model.EvidenceRecord) []model.MetricSource {
	var sources []model.MetricSource
	for criterion, rec := range accepted {
		name, ok := metricNames[criterion]
		if !ok || rec == nil {
			continue
		}
		sources = append(sources, model.MetricSource{
			MetricName:       name,
			SourceURL:        rec.SourceURL,
			ContributionText: rec.Quote,
		})
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].MetricName < sources[j].MetricName
	})
	return sources
}

// buildSummaries writes one short narrative per group from the
// accepted records' justifications, falling back to quotes.
func buildSummaries(accepted map[model.Criterion]*model.EvidenceRecord) map[string]string {
	summaries := make(map[string]string, len(summaryGroups))
	for group, criteria := range summaryGroups {
		var parts []string
		for _, c := range criteria {
			rec := accepted[c]
			if rec == nil {
				continue
			}
			text := rec.Justification
			if text == "" {
				text = fmt.Sprintf("%q", rec.Quote)
			}
			parts = append(parts, strings.TrimRight(text, ". ")+".")
		}
		if len(parts) == 0 {
			summaries[group] = "No verified evidence found."
			continue
		}
		summaries[group] = strings.Join(parts, " ")
	}
	return summaries
}
