package analyze

import (
	"fmt"
	"strings"

	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/pkg/anthropic"
)

// systemText frames the analyst role. It is cached so repeated chunk
// calls reuse it; the rubric travels in the user prompt because its
// criteria shrink as a run resolves.
const systemText = `You are a sustainability research analyst reviewing source material about a trucking company. You extract evidence for specific scoring criteria.

Rules:
- Only report a criterion when the text contains direct evidence for it.
- The "quote" field must be copied verbatim from the source text. Never paraphrase, never invent.
- If a criterion is not addressed in the text, omit it entirely.
- Return ONLY a valid JSON object, no prose before or after.`

const outputSchema = `Return a JSON object of this shape:
{"findings": [{"criterion": "<criterion key>", "score": <integer within the criterion's range>, "quote": "<verbatim sentence from the source>", "context": "<surrounding passage>", "justification": "<one sentence linking quote to score>", "extracted_number": <integer or null>, "extracted_unit": "<unit or empty>"}]}`

const userPromptTemplate = `Company under review: %s

Source URL: %s

%s

Source text:
%s

Extract evidence for the rubric criteria above only. %s`

// BuildSystemBlocks returns the cached system prompt shared across
// every chunk call for a run.
func BuildSystemBlocks() []anthropic.SystemBlock {
	return []anthropic.SystemBlock{
		{
			Text:         systemText,
			CacheControl: &anthropic.CacheControl{TTL: "5m"},
		},
	}
}

// renderRubric lists each requested criterion with its score range and
// guiding questions, so a call only scores what is still unresolved.
func renderRubric(specs []model.CriterionSpec) string {
	var b strings.Builder
	b.WriteString("Scoring rubric:\n")
	for _, spec := range specs {
		fmt.Fprintf(&b, "\n- criterion %q (score %d-%d)\n", spec.Key, spec.MinScore, spec.MaxScore)
		for _, q := range spec.Questions {
			// Question templates carry a company-name placeholder for
			// search query building; render it generically here.
			fmt.Fprintf(&b, "  question: %s\n", strings.ReplaceAll(q, "%s", "the company"))
		}
	}
	return b.String()
}

func buildUserPrompt(companyName, sourceURL, rubric, chunk string) string {
	return fmt.Sprintf(userPromptTemplate, companyName, sourceURL, rubric, chunk, outputSchema)
}
