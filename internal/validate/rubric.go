package validate

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/scorecard-cli/internal/model"
)

// genericPhrases are marketing filler that cannot support a score on
// their own for any criterion.
var genericPhrases = []string{
	"committed to sustainability",
	"environmentally friendly",
	"green initiatives",
	"eco-friendly",
	"protecting the environment",
	"sustainable future",
}

// vehicleTerms identify that a number refers to vehicles rather than
// gallons, dollars, or route miles.
var vehicleTerms = []string{
	"truck", "tractor", "vehicle", "unit", "power unit",
	"van", "trailer", "fleet of",
}

var cngTerms = []string{
	"cng", "compressed natural gas", "natural gas truck",
	"natural gas vehicle", "natural gas tractor", "natural gas fleet",
	"natural gas powered", "natural-gas",
}

// rules describe what a quote must and must not contain to support a
// criterion. requireAny is an OR list; rejectAny disqualifies outright.
type rules struct {
	requireAny []string
	rejectAny  []string
}

var criterionRules = map[model.Criterion]rules{
	model.CriterionCNGFleet: {
		requireAny: cngTerms,
		rejectAny: []string{
			"considering", "evaluating", "may adopt", "exploring",
		},
	},
	model.CriterionCNGFleetSize: {
		requireAny: cngTerms,
		rejectAny: []string{
			"gallons", "gge", "diesel gallon equivalent", "fuel purchased",
			"fueling station", "engine parts", "spare parts",
		},
	},
	model.CriterionTotalFleetSize: {
		rejectAny: []string{
			"gallons", "miles driven", "fuel purchased", "spare parts",
		},
	},
	model.CriterionEmissionReporting: {
		requireAny: []string{
			"sustainability report", "esg report", "csr report", "cdp",
			"carbon disclosure", "emissions report", "scope 1", "scope 2",
			"ghg inventory", "emissions data", "smartway",
		},
	},
	model.CriterionEmissionGoals: {
		requireAny: []string{
			"target", "goal", "reduce", "reduction", "net zero",
			"net-zero", "carbon neutral", "by 20", "science based",
			"science-based",
		},
	},
	model.CriterionAltFuels: {
		requireAny: []string{
			"biodiesel", "renewable diesel", "renewable natural gas", "rng",
			"hydrogen", "electric truck", "electric vehicle", "ev charging",
			"battery electric", "sustainable aviation fuel",
		},
	},
	model.CriterionCleanEnergyPartner: {
		requireAny: []string{
			"partner", "partnership", "agreement with", "collaboration",
			"alliance", "joint venture", "signed with", "contract with",
		},
		rejectAny: []string{
			"on-site solar", "rooftop solar", "our own solar",
			"installed solar panels",
		},
	},
	model.CriterionRegulatory: {
		requireAny: []string{
			"carb", "epa", "regulation", "regulatory", "compliance",
			"compliant", "emission standard", "emissions standard",
			"clean air act", "advanced clean fleets", "mandate",
			"low carbon fuel standard",
		},
		rejectAny: []string{
			"job posting", "now hiring", "careers", "apply today",
			"software rollout", "telematics rollout",
		},
	},
}

// CheckRubric validates that a record's quote plausibly supports its
// criterion. A nil error means the record may proceed to quote
// verification.
func CheckRubric(rec *model.EvidenceRecord) error {
	quote := strings.ToLower(rec.Quote)
	if strings.TrimSpace(quote) == "" {
		return eris.Errorf("validate: empty quote for %s", rec.Criterion)
	}

	for _, phrase := range genericPhrases {
		if strings.TrimSpace(strings.Trim(quote, ".!\"' ")) == phrase {
			return eris.Errorf("validate: generic phrase cannot support %s", rec.Criterion)
		}
	}

	r, ok := criterionRules[rec.Criterion]
	if !ok {
		return nil
	}

	for _, term := range r.rejectAny {
		if strings.Contains(quote, term) {
			return eris.Errorf("validate: quote context %q disqualifies %s", term, rec.Criterion)
		}
	}

	if len(r.requireAny) > 0 && rec.RawScore > 0 {
		if !containsAny(quote, r.requireAny) {
			return eris.Errorf("validate: quote lacks required terms for %s", rec.Criterion)
		}
	}

	// Size criteria must tie a number to vehicles, not to fuel volumes
	// or revenue figures that also show up as large numbers.
	if rec.Criterion == model.CriterionCNGFleetSize || rec.Criterion == model.CriterionTotalFleetSize {
		if rec.RawScore > 0 {
			if len(extractNumbers(quote)) == 0 {
				return eris.Errorf("validate: fleet size quote has no number for %s", rec.Criterion)
			}
			if !containsAny(quote, vehicleTerms) {
				return eris.Errorf("validate: fleet size quote lacks a vehicle reference for %s", rec.Criterion)
			}
		}
	}

	return nil
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
