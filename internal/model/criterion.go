// Package model defines the core types for the sustainability scorecard
// engine: the criteria registry, evidence records, run state, and the
// final report shapes.
package model

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Criterion identifies one of the fixed sustainability questions scored
// for every company.
type Criterion string

const (
	CriterionTotalFleetSize     Criterion = "total_truck_fleet_size"
	CriterionCNGFleet           Criterion = "cng_fleet"
	CriterionCNGFleetSize       Criterion = "cng_fleet_size"
	CriterionEmissionReporting  Criterion = "emission_reporting"
	CriterionEmissionGoals      Criterion = "emission_goals"
	CriterionAltFuels           Criterion = "alt_fuels"
	CriterionCleanEnergyPartner Criterion = "clean_energy_partner"
	CriterionRegulatory         Criterion = "regulatory"
)

// CriterionSpec holds the fixed scoring parameters for one criterion.
// Weight and range are set at configuration time and never mutated
// during a run.
type CriterionSpec struct {
	Key         Criterion `yaml:"key" json:"key"`
	Field       string    `yaml:"field" json:"field"`
	Weight      float64   `yaml:"weight" json:"weight"`
	MinScore    int       `yaml:"min_score" json:"min_score"`
	MaxScore    int       `yaml:"max_score" json:"max_score"`
	Questions   []string  `yaml:"questions" json:"questions,omitempty"`
	URLKeywords []string  `yaml:"url_keywords" json:"url_keywords,omitempty"`
}

// Weighted reports whether the criterion contributes to the overall score.
// Informational criteria (weight 0) are collected but not scored.
func (s CriterionSpec) Weighted() bool {
	return s.Weight > 0
}

// Registry is the immutable criteria table for a run.
type Registry struct {
	specs []CriterionSpec
	byKey map[Criterion]CriterionSpec
}

// NewRegistry builds a Registry from specs, preserving order.
func NewRegistry(specs []CriterionSpec) (*Registry, error) {
	r := &Registry{
		specs: specs,
		byKey: make(map[Criterion]CriterionSpec, len(specs)),
	}
	for _, s := range specs {
		if _, dup := r.byKey[s.Key]; dup {
			return nil, eris.Errorf("model: duplicate criterion %q", s.Key)
		}
		r.byKey[s.Key] = s
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// DefaultRegistry returns the standard eight-criterion table.
// Weighted criteria sum to 100.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultSpecs())
	if err != nil {
		panic(err) // defaults are compile-time constants
	}
	return r
}

func defaultSpecs() []CriterionSpec {
	return []CriterionSpec{
		{
			Key:      CriterionTotalFleetSize,
			Field:    "total_fleet_size",
			Weight:   0,
			MinScore: 0, MaxScore: 3,
			Questions: []string{
				"%s total truck fleet size number of trucks",
				"%s how many trucks vehicles fleet",
			},
			URLKeywords: []string{"fleet", "trucks", "vehicles", "about"},
		},
		{
			Key:      CriterionCNGFleet,
			Field:    "owns_cng_fleet",
			Weight:   10,
			MinScore: 0, MaxScore: 1,
			Questions: []string{
				"%s CNG compressed natural gas trucks fleet",
				"%s natural gas vehicles operations",
			},
			URLKeywords: []string{"cng", "natural-gas", "fleet", "alternative-fuel"},
		},
		{
			Key:      CriterionCNGFleetSize,
			Field:    "cng_fleet_size_range",
			Weight:   25,
			MinScore: 0, MaxScore: 3,
			Questions: []string{
				"%s number of CNG trucks natural gas fleet size",
			},
			URLKeywords: []string{"cng", "natural-gas", "fleet"},
		},
		{
			Key:      CriterionEmissionReporting,
			Field:    "emission_report",
			Weight:   10,
			MinScore: 0, MaxScore: 1,
			Questions: []string{
				"%s sustainability report emissions disclosure",
				"%s CDP carbon disclosure report",
			},
			URLKeywords: []string{"sustainability", "esg", "report", "emissions"},
		},
		{
			Key:      CriterionEmissionGoals,
			Field:    "emission_goals",
			Weight:   15,
			MinScore: 0, MaxScore: 2,
			Questions: []string{
				"%s emission reduction goals net zero target",
				"%s carbon neutral commitment",
			},
			URLKeywords: []string{"sustainability", "net-zero", "goals", "carbon", "emissions"},
		},
		{
			Key:      CriterionAltFuels,
			Field:    "alt_fuels",
			Weight:   15,
			MinScore: 0, MaxScore: 1,
			Questions: []string{
				"%s biodiesel renewable diesel RNG alternative fuels",
			},
			URLKeywords: []string{"biodiesel", "renewable", "rng", "alternative-fuel", "fuels"},
		},
		{
			Key:      CriterionCleanEnergyPartner,
			Field:    "clean_energy_partners",
			Weight:   15,
			MinScore: 0, MaxScore: 1,
			Questions: []string{
				"%s clean energy partnership power purchase agreement",
				"%s renewable energy agreement supplier",
			},
			URLKeywords: []string{"partnership", "renewable", "clean-energy", "solar", "wind"},
		},
		{
			Key:      CriterionRegulatory,
			Field:    "regulatory_pressure",
			Weight:   10,
			MinScore: 0, MaxScore: 1,
			Questions: []string{
				"%s EPA SmartWay CARB compliance emission standards",
				"%s trucking emission regulations compliance",
			},
			URLKeywords: []string{"smartway", "carb", "epa", "compliance", "regulation"},
		},
	}
}

// LoadCriteriaFile reads a criteria table from a YAML file, allowing the
// weight/range table to be swapped between runs without a code change.
func LoadCriteriaFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: read criteria file %s", path)
	}
	var doc struct {
		Criteria []CriterionSpec `yaml:"criteria"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "model: parse criteria file")
	}
	return NewRegistry(doc.Criteria)
}

func (r *Registry) validate() error {
	var errs []string
	var weightedSum float64
	for _, s := range r.specs {
		if s.Weight < 0 {
			errs = append(errs, fmt.Sprintf("%s: weight must be >= 0", s.Key))
		}
		if s.MinScore > s.MaxScore {
			errs = append(errs, fmt.Sprintf("%s: min_score must be <= max_score", s.Key))
		}
		if s.MaxScore <= 0 && s.Weight > 0 {
			errs = append(errs, fmt.Sprintf("%s: weighted criterion needs max_score > 0", s.Key))
		}
		weightedSum += s.Weight
	}
	if len(r.specs) == 0 {
		errs = append(errs, "no criteria defined")
	}
	if len(r.specs) > 0 && math.Abs(weightedSum-100) > 1 {
		errs = append(errs, fmt.Sprintf("weights should sum to 100, got %.1f", weightedSum))
	}
	if len(errs) > 0 {
		return eris.Errorf("model: criteria validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Get returns the spec for a criterion key.
func (r *Registry) Get(key Criterion) (CriterionSpec, bool) {
	s, ok := r.byKey[key]
	return s, ok
}

// All returns the specs in declaration order.
func (r *Registry) All() []CriterionSpec {
	return r.specs
}

// Keys returns all criterion keys in declaration order.
func (r *Registry) Keys() []Criterion {
	keys := make([]Criterion, 0, len(r.specs))
	for _, s := range r.specs {
		keys = append(keys, s.Key)
	}
	return keys
}

// Weighted returns the specs that contribute to the overall score.
func (r *Registry) Weighted() []CriterionSpec {
	var out []CriterionSpec
	for _, s := range r.specs {
		if s.Weighted() {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of criteria.
func (r *Registry) Len() int {
	return len(r.specs)
}

// ClampScore bounds a raw score to the criterion's declared range.
func (s CriterionSpec) ClampScore(score int) int {
	if score < s.MinScore {
		return s.MinScore
	}
	if score > s.MaxScore {
		return s.MaxScore
	}
	return score
}

// InRange reports whether a raw score falls inside the declared range.
func (s CriterionSpec) InRange(score int) bool {
	return score >= s.MinScore && score <= s.MaxScore
}

// BucketCNGFleetSize maps a CNG vehicle count onto the 0-3 ordinal scale.
func BucketCNGFleetSize(count int) int {
	switch {
	case count <= 0:
		return 0
	case count <= 10:
		return 1
	case count <= 50:
		return 2
	default:
		return 3
	}
}

// BucketTotalFleetSize maps a total vehicle count onto the 0-3 ordinal scale.
func BucketTotalFleetSize(count int) int {
	switch {
	case count <= 0:
		return 0
	case count <= 100:
		return 1
	case count <= 500:
		return 2
	default:
		return 3
	}
}

// FleetSizeLabel names the ordinal total-fleet bucket for display.
func FleetSizeLabel(bucket int) string {
	switch bucket {
	case 1:
		return "small"
	case 2:
		return "medium"
	case 3:
		return "large"
	default:
		return "unknown"
	}
}
