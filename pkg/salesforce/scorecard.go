package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scorecard-cli/internal/model"
)

// Exporter upserts completed scorecard reports into a custom SObject,
// keyed by company name.
type Exporter struct {
	client Client
	object string
}

// NewExporter creates an Exporter writing to the given SObject, e.g.
// "Sustainability_Scorecard__c".
func NewExporter(client Client, object string) (*Exporter, error) {
	if object == "" {
		return nil, eris.New("sf: sobject name is required")
	}
	return &Exporter{client: client, object: object}, nil
}

type idRecord struct {
	Id string
}

// Export upserts the report's metrics. It returns the Salesforce record
// ID, inserting a new record when no record matches the company name.
func (e *Exporter) Export(ctx context.Context, report *model.Report) (string, error) {
	if report == nil || report.Company.Name == "" {
		return "", eris.New("sf: report with company name is required")
	}

	fields := ScorecardFields(report)

	var existing []idRecord
	soql := fmt.Sprintf("SELECT Id FROM %s WHERE Company_Name__c = '%s' LIMIT 1",
		e.object, escapeSOQL(report.Company.Name))
	if err := e.client.Query(ctx, soql, &existing); err != nil {
		return "", eris.Wrapf(err, "sf: find scorecard for %s", report.Company.Name)
	}

	if len(existing) > 0 {
		id := existing[0].Id
		if err := e.client.UpdateOne(ctx, e.object, id, fields); err != nil {
			return "", eris.Wrapf(err, "sf: update scorecard %s", id)
		}
		zap.L().Info("updated salesforce scorecard",
			zap.String("company", report.Company.Name),
			zap.String("id", id))
		return id, nil
	}

	id, err := e.client.InsertOne(ctx, e.object, fields)
	if err != nil {
		return "", eris.Wrapf(err, "sf: insert scorecard for %s", report.Company.Name)
	}
	zap.L().Info("created salesforce scorecard",
		zap.String("company", report.Company.Name),
		zap.String("id", id))
	return id, nil
}

// ScorecardFields flattens a report into the custom object's field map.
// Actual fleet counts are included only when evidence carried a number.
func ScorecardFields(report *model.Report) map[string]any {
	m := report.Metrics
	fields := map[string]any{
		"Company_Name__c":          report.Company.Name,
		"Owns_CNG_Fleet__c":        m.OwnsCNGFleet,
		"CNG_Fleet_Size_Range__c":  m.CNGFleetSizeRange,
		"Total_Fleet_Size__c":      m.TotalFleetSize,
		"Emission_Report__c":       m.EmissionReport,
		"Emission_Goals__c":        m.EmissionGoals,
		"Alt_Fuels__c":             m.AltFuels,
		"Clean_Energy_Partners__c": m.CleanEnergyPartners,
		"Regulatory_Pressure__c":   m.RegulatoryPressure,
		"CNG_Adopt_Score__c":       m.CNGAdoptScore,
	}
	if report.Company.Domain != "" {
		fields["Company_Domain__c"] = report.Company.Domain
	}
	if m.CNGFleetSizeActual != nil {
		fields["CNG_Fleet_Size_Actual__c"] = *m.CNGFleetSizeActual
	}
	if m.TotalFleetActual != nil {
		fields["Total_Fleet_Actual__c"] = *m.TotalFleetActual
	}
	for group, summary := range report.Summaries {
		switch group {
		case "fleet":
			fields["Fleet_Summary__c"] = summary
		case "emissions":
			fields["Emissions_Summary__c"] = summary
		case "fuels":
			fields["Fuels_Summary__c"] = summary
		case "partnerships":
			fields["Partnerships_Summary__c"] = summary
		case "regulatory":
			fields["Regulatory_Summary__c"] = summary
		}
	}
	return fields
}

func escapeSOQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
