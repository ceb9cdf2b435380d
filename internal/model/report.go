package model

// CriterionScore is one row of the score breakdown.
type CriterionScore struct {
	Criterion            Criterion `json:"criterion"`
	Found                bool      `json:"found"`
	RawScore             int       `json:"raw_score"`
	MaxScore             int       `json:"max_score"`
	Weight               float64   `json:"weight"`
	NormalizedScore      float64   `json:"normalized_score"`
	WeightedContribution float64   `json:"weighted_contribution"`
}

// ScoreBreakdown is the derived, read-only scoring view over a
// completed analysis.
type ScoreBreakdown struct {
	Criteria     []CriterionScore `json:"criteria"`
	OverallScore float64          `json:"overall_score_percentage"`
	Denominator  float64          `json:"denominator_weight"`
}

// MetricsPayload is the flattened sustainability metrics object exposed
// at the downstream persistence boundary.
type MetricsPayload struct {
	OwnsCNGFleet        bool    `json:"owns_cng_fleet"`
	CNGFleetSizeRange   int     `json:"cng_fleet_size_range"`
	CNGFleetSizeActual  *int    `json:"cng_fleet_size_actual,omitempty"`
	TotalFleetSize      string  `json:"total_fleet_size"`
	TotalFleetActual    *int    `json:"total_fleet_actual,omitempty"`
	EmissionReport      bool    `json:"emission_report"`
	EmissionGoals       int     `json:"emission_goals"`
	AltFuels            bool    `json:"alt_fuels"`
	CleanEnergyPartners bool    `json:"clean_energy_partners"`
	RegulatoryPressure  bool    `json:"regulatory_pressure"`
	CNGAdoptScore       float64 `json:"cng_adopt_score"`
}

// MetricSource ties one reported metric back to the evidence behind it.
type MetricSource struct {
	MetricName       string `json:"metric_name"`
	SourceURL        string `json:"source_url"`
	ContributionText string `json:"contribution_text"`
}

// Report is the full-shaped public output of a completed run. Criteria
// without accepted evidence appear as not-found, never as errors.
type Report struct {
	Company          Company              `json:"company"`
	Metrics          MetricsPayload       `json:"sustainability_metrics"`
	Sources          []MetricSource       `json:"metric_sources"`
	Summaries        map[string]string    `json:"summaries"`
	Breakdown        ScoreBreakdown       `json:"score_breakdown"`
	Evidence         []*EvidenceRecord    `json:"evidence"`
	PhaseLog         []PhaseEntry         `json:"phase_log"`
	ProcessingErrors []ProcessingError    `json:"processing_errors,omitempty"`
}
