package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/scorecard-cli/internal/model"
)

func rec(c model.Criterion, score int, quote string) *model.EvidenceRecord {
	return &model.EvidenceRecord{Criterion: c, RawScore: score, Quote: quote}
}

func TestCheckRubricCNGFleet(t *testing.T) {
	assert.NoError(t, CheckRubric(rec(model.CriterionCNGFleet, 1,
		"We operate a fleet of compressed natural gas tractors.")))

	// Aspirational language is not an operating fleet.
	assert.Error(t, CheckRubric(rec(model.CriterionCNGFleet, 1,
		"We are evaluating CNG trucks for a future pilot.")))

	// No CNG terms at all.
	assert.Error(t, CheckRubric(rec(model.CriterionCNGFleet, 1,
		"We operate a modern diesel fleet.")))
}

func TestCheckRubricCNGFleetSize(t *testing.T) {
	assert.NoError(t, CheckRubric(rec(model.CriterionCNGFleetSize, 3,
		"The company runs 120 CNG trucks out of its Texas terminals.")))

	// Fuel volume is not a vehicle count.
	assert.Error(t, CheckRubric(rec(model.CriterionCNGFleetSize, 3,
		"We purchased 500,000 gallons of CNG last year.")))

	// A number without a vehicle noun is ambiguous.
	assert.Error(t, CheckRubric(rec(model.CriterionCNGFleetSize, 3,
		"Our CNG program grew 120 percent.")))

	// No number at all.
	assert.Error(t, CheckRubric(rec(model.CriterionCNGFleetSize, 2,
		"A sizable portion of our CNG fleet runs daily routes.")))
}

func TestCheckRubricAltFuels(t *testing.T) {
	assert.NoError(t, CheckRubric(rec(model.CriterionAltFuels, 1,
		"We blend biodiesel across our regional fleet.")))
	assert.NoError(t, CheckRubric(rec(model.CriterionAltFuels, 1,
		"The carrier is deploying battery electric trucks in drayage lanes.")))

	// CNG alone belongs to the CNG criteria, not alternative fuels.
	assert.Error(t, CheckRubric(rec(model.CriterionAltFuels, 1,
		"Our tractors run on CNG and LNG.")))
}

func TestCheckRubricCleanEnergyPartner(t *testing.T) {
	assert.NoError(t, CheckRubric(rec(model.CriterionCleanEnergyPartner, 1,
		"We signed a fueling partnership with Clean Energy Fuels.")))

	// Generating power at a company facility is not an external partner.
	assert.Error(t, CheckRubric(rec(model.CriterionCleanEnergyPartner, 1,
		"We installed solar panels at our Dallas terminal in partnership with facilities staff.")))

	assert.Error(t, CheckRubric(rec(model.CriterionCleanEnergyPartner, 1,
		"We buy renewable electricity for our offices.")))
}

func TestCheckRubricRegulatory(t *testing.T) {
	assert.NoError(t, CheckRubric(rec(model.CriterionRegulatory, 1,
		"Our California fleet is compliant with CARB emission standards.")))

	// Hiring a compliance manager is not regulatory pressure on the fleet.
	assert.Error(t, CheckRubric(rec(model.CriterionRegulatory, 1,
		"Now hiring: compliance officers for our safety team.")))
}

func TestCheckRubricGenericPhrase(t *testing.T) {
	assert.Error(t, CheckRubric(rec(model.CriterionEmissionGoals, 2,
		"Committed to sustainability.")))
}

func TestCheckRubricEmptyQuote(t *testing.T) {
	assert.Error(t, CheckRubric(rec(model.CriterionCNGFleet, 1, "   ")))
}

func TestCheckRubricZeroScoreSkipsTermRequirement(t *testing.T) {
	// A zero score records absence, so required terms do not apply.
	assert.NoError(t, CheckRubric(rec(model.CriterionAltFuels, 0,
		"The company's filings mention only diesel fuel purchases.")))
}
