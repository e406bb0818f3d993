package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/risknet/internal/domain/intel"
)

// RiskKeywords is the adverse-media taxonomy used for prompting and for the
// local fallback gatherer.
var RiskKeywords = map[string][]string{
	"sanctions":        {"sanction", "sanctioned", "embargo", "blacklist", "ofac", "denied party"},
	"criminal":         {"fraud", "criminal", "convicted", "indicted", "arrested", "charged"},
	"investigation":    {"investigation", "probe", "inquiry", "subpoena", "raided"},
	"money_laundering": {"money laundering", "laundering", "shell company", "offshore accounts"},
	"terrorism":        {"terrorism", "terrorist financing", "extremist"},
	"corruption":       {"bribery", "corruption", "kickback", "embezzlement"},
	"regulatory":       {"fine", "penalty", "violation", "cease and desist", "license revoked"},
}

func GetSystemPrompt() string {
	return `You are a compliance research assistant. Given one or more subjects
(a person and/or a company), summarize publicly known adverse information.
Respond ONLY with a JSON object using this schema:
{
  "summary": "short prose summary of findings",
  "risk_indicators": ["sanctions", "criminal", "investigation", "money_laundering", "terrorism", "corruption", "regulatory"],
  "sentiment": -1.0,
  "confidence": 0.0,
  "key_findings": ["one line per notable finding"]
}
risk_indicators must only contain categories from the list above that apply.
sentiment is in [-1,1] where -1 is strongly adverse. confidence is in [0,1].
If nothing adverse is known, return an empty risk_indicators list, neutral
sentiment, and say so in the summary.`
}

func GetUserPrompt(subjects []intel.EntitySummary) string {
	var b strings.Builder
	b.WriteString("Research the following subjects:\n")
	for _, s := range subjects {
		fmt.Fprintf(&b, "- %s %q", s.Kind, s.Name)
		if s.Country != "" {
			fmt.Fprintf(&b, " (%s)", s.Country)
		}
		if s.Notes != "" {
			fmt.Fprintf(&b, ": %s", s.Notes)
		}
		b.WriteString("\n")
	}
	return b.String()
}
