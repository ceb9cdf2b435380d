// Package validate verifies that proposed evidence actually occurs in
// its claimed source and satisfies per-criterion rubric rules. Records
// that fail are discarded, never accepted.
package validate

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/scorecard-cli/internal/model"
)

// defaultFuzzThreshold applies to criteria without a specific entry.
const defaultFuzzThreshold = 0.70

// fuzzThresholds hold the minimum token-set similarity accepted when
// the normalized-substring baseline fails. Fleet-size quotes often
// paraphrase table rows, so those thresholds are looser; goal and
// reporting statements must match nearly verbatim.
var fuzzThresholds = map[model.Criterion]float64{
	model.CriterionTotalFleetSize:     0.55,
	model.CriterionCNGFleetSize:       0.55,
	model.CriterionRegulatory:         0.60,
	model.CriterionCleanEnergyPartner: 0.65,
	model.CriterionAltFuels:           0.65,
	model.CriterionCNGFleet:           0.65,
	model.CriterionEmissionGoals:      0.70,
	model.CriterionEmissionReporting:  0.70,
}

var (
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9 ]+`)
	wsRe       = regexp.MustCompile(`\s+`)
	numberRe   = regexp.MustCompile(`\d[\d,]*`)
)

// NormalizeText lowercases, applies unicode NFKC normalization, strips
// punctuation, and collapses whitespace for comparison.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}

// TokenSetRatio computes a Dice coefficient over the unique tokens of
// two normalized strings, in [0, 1].
func TokenSetRatio(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	common := 0
	for tok := range ta {
		if tb[tok] {
			common++
		}
	}
	return 2 * float64(common) / float64(len(ta)+len(tb))
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

// extractNumbers returns the comma-stripped digit runs in s.
func extractNumbers(s string) []string {
	matches := numberRe.FindAllString(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.ReplaceAll(m, ",", ""))
	}
	return out
}

// fleetCriteria require their quoted numbers to appear in the source.
var fleetCriteria = map[model.Criterion]bool{
	model.CriterionTotalFleetSize: true,
	model.CriterionCNGFleetSize:   true,
}

// Verifier checks proposed evidence records against their source text.
type Verifier struct {
	thresholds map[model.Criterion]float64
}

// NewVerifier creates a Verifier with the default thresholds.
func NewVerifier() *Verifier {
	return &Verifier{thresholds: fuzzThresholds}
}

// VerifyQuote reports whether the record's quote occurs in the source
// text. Exact normalized substring is the baseline; a token-set ratio
// above the criterion's threshold is accepted as minor drift, never as
// a paraphrase of absent content. Fleet-size quotes asserting a
// positive count must also carry a number present in the source; a
// zero-score quote has no count to cross-check.
func (v *Verifier) VerifyQuote(rec *model.EvidenceRecord, sourceText string) bool {
	quote := NormalizeText(rec.Quote)
	source := NormalizeText(sourceText)
	if quote == "" || source == "" {
		return false
	}

	matched := strings.Contains(source, quote)
	if !matched {
		threshold, ok := v.thresholds[rec.Criterion]
		if !ok {
			threshold = defaultFuzzThreshold
		}
		matched = bestWindowRatio(quote, source) >= threshold
	}
	if !matched {
		return false
	}

	if fleetCriteria[rec.Criterion] && rec.RawScore > 0 {
		return numbersInSource(quote, source)
	}
	return true
}

// numbersInSource checks that every number quoted appears somewhere in
// the source, guarding against invented fleet counts.
func numbersInSource(quote, source string) bool {
	nums := extractNumbers(quote)
	if len(nums) == 0 {
		return false
	}
	for _, n := range nums {
		if !strings.Contains(source, n) {
			return false
		}
	}
	return true
}

// bestWindowRatio slides a quote-sized window over the source and
// returns the best token-set ratio, so a long document cannot dilute a
// local match.
func bestWindowRatio(quote, source string) float64 {
	qTokens := strings.Fields(quote)
	sTokens := strings.Fields(source)
	if len(sTokens) <= len(qTokens) {
		return TokenSetRatio(quote, source)
	}

	window := len(qTokens) * 2
	if window > len(sTokens) {
		window = len(sTokens)
	}
	step := len(qTokens)
	if step < 1 {
		step = 1
	}

	best := 0.0
	for start := 0; start < len(sTokens); start += step {
		end := start + window
		if end > len(sTokens) {
			end = len(sTokens)
		}
		r := TokenSetRatio(quote, strings.Join(sTokens[start:end], " "))
		if r > best {
			best = r
		}
		if end == len(sTokens) {
			break
		}
	}
	return best
}

// Confidence assigns the record's quality tier from its source kind,
// ownership, and whether the host is on the trusted-domain list.
func Confidence(kind model.SourceKind, ownership model.Ownership, trustedDomain bool) model.Confidence {
	switch kind {
	case model.SourcePDF:
		if ownership == model.OwnershipCompany {
			return model.ConfidenceHigh
		}
		return model.ConfidenceMedium
	case model.SourceWebPage:
		if ownership == model.OwnershipCompany || trustedDomain {
			return model.ConfidenceMedium
		}
		return model.ConfidenceLow
	default:
		return model.ConfidenceLow
	}
}
