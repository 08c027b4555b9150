package escalation

import "regexp"

// TriggerCategory is one class of phrases whose presence alone forces a
// handoff. The engine compiles Patterns; the prompt assembler renders
// Description into the system prompt's escalation instructions. Keeping both
// on one catalog is what stops the two copies from drifting apart.
type TriggerCategory struct {
	Label       string
	Description string
	Patterns    []string

	compiled []*regexp.Regexp
}

// Catalog is the fixed, ordered trigger taxonomy. Order matters only for
// which label gets reported; any match escalates.
var Catalog = []TriggerCategory{
	{
		Label:       "Bot suggested handoff",
		Description: "You have suggested connecting the customer with the support team",
		Patterns: []string{
			`(?i)connect you.*support`,
			`(?i)transfer.*human`,
			`(?i)reach out.*team`,
			`(?i)specialist.*assist`,
		},
	},
	{
		Label:       "Customer requested a human",
		Description: "Customer explicitly requests human support",
		Patterns: []string{
			`(?i)speak.*human`,
			`(?i)talk.*person`,
			`(?i)speak.*someone`,
			`(?i)talk.*agent`,
			`(?i)manager`,
			`(?i)supervisor`,
			`(?i)human support`,
		},
	},
	{
		Label:       "Money or security issue",
		Description: "Issues involving money (refunds, chargebacks, billing errors), fraud or account security",
		Patterns: []string{
			`(?i)refund`,
			`(?i)charge.*twice`,
			`(?i)charged.*wrong`,
			`(?i)billing.*error`,
			`(?i)fraud`,
			`(?i)dispute`,
			`(?i)chargeback`,
			`(?i)unauthorized`,
			`(?i)cancel.*subscription`,
			`(?i)delete.*account`,
			`(?i)data.*breach`,
			`(?i)hacked`,
		},
	},
	{
		Label:       "Customer frustration or legal threat",
		Description: "Customer is clearly frustrated, threatens legal action or formal complaint",
		Patterns: []string{
			`(?i)this.*ridiculous`,
			`(?i)waste.*time`,
			`(?i)terrible.*service`,
			`(?i)unacceptable`,
			`(?i)lawyer`,
			`(?i)sue`,
			`(?i)better business bureau`,
			`(?i)complaint`,
		},
	},
}

func init() {
	for i := range Catalog {
		for _, p := range Catalog[i].Patterns {
			Catalog[i].compiled = append(Catalog[i].compiled, regexp.MustCompile(p))
		}
	}
}

// matchCategory returns the label of the first category with a matching
// pattern, or "" if none match.
func matchCategory(text string) string {
	for i := range Catalog {
		for _, re := range Catalog[i].compiled {
			if re.MatchString(text) {
				return Catalog[i].Label
			}
		}
	}
	return ""
}

// Descriptions returns the category descriptions in catalog order, for the
// prompt assembler.
func Descriptions() []string {
	out := make([]string, 0, len(Catalog))
	for i := range Catalog {
		out = append(out, Catalog[i].Description)
	}
	return out
}
