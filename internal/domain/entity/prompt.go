package entity

import "fmt"

// Prompt is the dispatcher output for one request.
// MaxTokens, when non-zero, raises the configured output budget for modes
// that need longer answers.
type Prompt struct {
	ID        Mode
	System    string
	Text      string
	MaxTokens int64
}

const astraSystemPrompt = "You are Astra, a concise assistant that returns useful output for product and strategy generation."

const astraExpertSystemPrompt = "You are Astra Expert, a senior digital product creator and launch strategist. " +
	"You turn a raw idea into a complete product a solo creator can publish and sell the same week. " +
	"Write real, finished copy instead of placeholders. Return a single JSON object and nothing else."

const fullProductMaxTokens = 4000

type promptTemplate struct {
	system    string
	maxTokens int64
	render    func(r GenerationRequest) string
}

var promptTemplates = map[Mode]promptTemplate{
	ModeProblemGeneration: {
		system: astraSystemPrompt,
		render: func(r GenerationRequest) string {
			return fmt.Sprintf("Generate 10 monetizable problems, solutions, and monetization strategies in the niche '%s'. "+
				"Return a JSON-like textual result labeled clearly so frontend can display it.",
				r.Field(FieldNiche))
		},
	},
	ModeProductBuild: {
		system: astraSystemPrompt,
		render: func(r GenerationRequest) string {
			return fmt.Sprintf("Create a product build plan for niche '%s' with user experience: '%s'. "+
				"Provide step-by-step deliverables, resources needed, pricing tiers, and a 30/60/90 day launch checklist. "+
				"Return a JSON-like textual result.",
				r.Field(FieldNiche), r.Field(FieldExperience))
		},
	},
	ModeMonetizationTips: {
		system: astraSystemPrompt,
		render: func(r GenerationRequest) string {
			return fmt.Sprintf("For product/service: '%s' in niche '%s', create 8 actionable monetization strategies. "+
				"Return a JSON-like textual result.",
				r.Field(FieldProduct), r.Field(FieldNiche))
		},
	},
	ModeFullProduct: {
		system:    astraExpertSystemPrompt,
		maxTokens: fullProductMaxTokens,
		render: func(r GenerationRequest) string {
			return fmt.Sprintf("Build a complete, publishable digital product from this idea: '%s'.\n"+
				"Return one JSON object with these keys:\n"+
				"- \"product_name\" and \"positioning\": name, target buyer and one-line promise\n"+
				"- \"content\": the full core content, written out\n"+
				"- \"modules\": ordered modules, each with title, outcome and lessons\n"+
				"- \"templates\": ready-to-use worksheets, checklists or swipe files\n"+
				"- \"landing_page\": headline, subheadline, benefits, FAQ and call to action\n"+
				"- \"email_sequence\": 5 launch emails with subject and body\n"+
				"- \"ads\": 3 ad variants with hook, body and audience\n"+
				"- \"pricing\": tiers with price, contents and rationale\n"+
				"- \"launch_plan\": day-by-day plan for the first 14 days",
				r.Field(FieldIdea))
		},
	},
}

// BuildPrompt selects the template for the request mode and fills it with the
// request fields. It reports false for modes it does not recognize.
func BuildPrompt(r GenerationRequest) (Prompt, bool) {
	tmpl, ok := promptTemplates[r.Mode]
	if !ok {
		return Prompt{}, false
	}
	return Prompt{
		ID:        r.Mode,
		System:    tmpl.system,
		Text:      tmpl.render(r),
		MaxTokens: tmpl.maxTokens,
	}, true
}
